package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// SubjectProfile is the validated input to the prediction pipeline. It is an
// immutable value object: created once per request, never mutated.
type SubjectProfile struct {
	Age            int     `json:"age"`
	Gender         Gender  `json:"gender"`
	Race           string  `json:"race"`
	Weight         float64 `json:"weight"`
	Height         float64 `json:"height"`
	Education      string  `json:"education"`
	MaritalStatus  string  `json:"marital_status"`
	CountryOfBirth string  `json:"country_of_birth"`
}

// InvalidProfileError reports out-of-range or malformed input reaching the
// encoder. The boundary layer translates it into a client-side error.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %s %s", e.Field, e.Reason)
}

func IsInvalidProfile(err error) bool {
	var ipe *InvalidProfileError
	return errors.As(err, &ipe)
}

// Validate checks the numeric ranges the encoder depends on. Categorical
// fields are not validated here: unknown categories bucket to "Other" during
// encoding, which keeps the pipeline usable on novel inputs.
func (p SubjectProfile) Validate() error {
	if p.Age < 0 || p.Age > 120 {
		return &InvalidProfileError{Field: "age", Reason: "must be between 0 and 120"}
	}
	if p.Weight <= 0 || p.Weight > 500 {
		return &InvalidProfileError{Field: "weight", Reason: "must be positive and at most 500 kg"}
	}
	if p.Height <= 0 || p.Height > 280 {
		return &InvalidProfileError{Field: "height", Reason: "must be positive and at most 280 cm"}
	}
	return nil
}

// BMI assumes Validate has passed, so height is strictly positive.
func (p SubjectProfile) BMI() float64 {
	heightM := p.Height / 100
	return p.Weight / (heightM * heightM)
}

// Fingerprint returns a stable digest of the profile, used as the result
// cache key. Identical profiles always hash identically; any field change
// produces a different digest.
func (p SubjectProfile) Fingerprint() string {
	canonical := fmt.Sprintf("age=%d|gender=%s|race=%s|weight=%.6f|height=%.6f|education=%s|marital=%s|born=%s",
		p.Age, p.Gender, p.Race, p.Weight, p.Height, p.Education, p.MaritalStatus, p.CountryOfBirth)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
