package profile

import "testing"

func TestValidateRanges(t *testing.T) {
	valid := SubjectProfile{
		Age: 25, Gender: GenderFemale, Race: "Non-Hispanic White",
		Weight: 65, Height: 165, Education: "College graduate",
		MaritalStatus: "Single", CountryOfBirth: "United States",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SubjectProfile)
	}{
		{"negative age", func(p *SubjectProfile) { p.Age = -1 }},
		{"age too high", func(p *SubjectProfile) { p.Age = 121 }},
		{"zero weight", func(p *SubjectProfile) { p.Weight = 0 }},
		{"weight too high", func(p *SubjectProfile) { p.Weight = 501 }},
		{"zero height", func(p *SubjectProfile) { p.Height = 0 }},
		{"height too high", func(p *SubjectProfile) { p.Height = 281 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			err := p.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !IsInvalidProfile(err) {
				t.Fatalf("expected InvalidProfileError, got %T", err)
			}
		})
	}
}

func TestFingerprintStability(t *testing.T) {
	p := SubjectProfile{
		Age: 25, Gender: GenderFemale, Race: "Non-Hispanic White",
		Weight: 65, Height: 165, Education: "College graduate",
		MaritalStatus: "Single", CountryOfBirth: "United States",
	}
	if p.Fingerprint() != p.Fingerprint() {
		t.Fatal("fingerprint not stable for identical profile")
	}

	changed := p
	changed.Weight = 65.1
	if p.Fingerprint() == changed.Fingerprint() {
		t.Fatal("fingerprint unchanged after field change")
	}
}

func TestBMI(t *testing.T) {
	p := SubjectProfile{Age: 30, Gender: GenderMale, Weight: 80, Height: 200}
	if got := p.BMI(); got != 20 {
		t.Fatalf("expected BMI 20, got %f", got)
	}
}
