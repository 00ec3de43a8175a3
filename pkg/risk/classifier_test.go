package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBands(t *testing.T) {
	c, err := NewClassifier(DefaultPolicy())
	require.NoError(t, err)

	cases := []struct {
		score float64
		level models.RiskLevel
	}{
		{0.0, models.RiskVeryLow},
		{0.09, models.RiskVeryLow},
		{0.10, models.RiskLow},
		{0.24, models.RiskLow},
		{0.25, models.RiskModerate},
		{0.49, models.RiskModerate},
		{0.50, models.RiskHigh},
		{0.74, models.RiskHigh},
		{0.75, models.RiskVeryHigh},
		{0.99, models.RiskVeryHigh},
		{1.0, models.RiskVeryHigh},
	}
	for _, tc := range cases {
		level, _ := c.Classify(tc.score, 0.9)
		assert.Equalf(t, tc.level, level, "score %f", tc.score)
	}
}

func TestPartitionHasNoGaps(t *testing.T) {
	c, err := NewClassifier(DefaultPolicy())
	require.NoError(t, err)

	for i := 0; i <= 1000; i++ {
		score := float64(i) / 1000
		level, confidence := c.Classify(score, 0.9)
		assert.GreaterOrEqual(t, level.Rank(), 0, "score %f fell outside the partition", score)
		assert.GreaterOrEqual(t, confidence, 0.0)
		assert.LessOrEqual(t, confidence, 1.0)
	}
}

func TestConfidenceGrowsAwayFromEdges(t *testing.T) {
	c, err := NewClassifier(DefaultPolicy())
	require.NoError(t, err)

	// Moderate band is [0.25, 0.50); its center is 0.375.
	_, atEdge := c.Classify(0.251, 1.0)
	_, midway := c.Classify(0.31, 1.0)
	_, atCenter := c.Classify(0.375, 1.0)

	assert.Less(t, atEdge, midway)
	assert.Less(t, midway, atCenter)
	assert.InDelta(t, 1.0, atCenter, 1e-9)
}

func TestConfidenceCappedByAUC(t *testing.T) {
	c, err := NewClassifier(DefaultPolicy())
	require.NoError(t, err)

	// Even a band-center score cannot exceed the AUC ceiling. At the
	// diabetes model's documented 0.517 AUC the ceiling is 0.034.
	_, confidence := c.Classify(0.375, 0.517)
	assert.LessOrEqual(t, confidence, 2*0.517-1+1e-12)

	_, chance := c.Classify(0.375, 0.5)
	assert.Equal(t, 0.0, chance)

	// Extreme scores with a chance-level model still report no confidence.
	_, extreme := c.Classify(0.99, 0.5)
	assert.Equal(t, 0.0, extreme)
}

func TestPolicyValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"too few bands", func(p *Policy) { p.Bands = p.Bands[:1] }},
		{"unknown level", func(p *Policy) { p.Bands[0].Level = "Mild" }},
		{"repeated level", func(p *Policy) { p.Bands[1].Level = p.Bands[0].Level }},
		{"non-monotonic", func(p *Policy) { p.Bands[1].Upper = 0.05 }},
		{"not ending at one", func(p *Policy) { p.Bands[len(p.Bands)-1].Upper = 0.9 }},
		{"over one", func(p *Policy) { p.Bands[len(p.Bands)-1].Upper = 1.5 }},
		{"bad ceiling floor", func(p *Policy) { p.AUCCeilingFloor = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPolicy()
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "risk.yaml")
	content := `
bands:
  - level: "Very Low"
    upper: 0.2
  - level: "Moderate"
    upper: 0.6
  - level: "Very High"
    upper: 1.0
auc_ceiling_floor: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Len(t, p.Bands, 3)
	assert.Equal(t, 0.1, p.AUCCeilingFloor)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bands:\n  - level: Low\n    upper: 2\n"), 0o644))
	_, err = LoadPolicy(bad)
	assert.Error(t, err)
}
