package risk

import (
	"fmt"
	"os"

	"github.com/nutriscan-ai/platform/pkg/common/models"
	"gopkg.in/yaml.v3"
)

// Band is one probability interval of the risk partition. Its lower bound is
// the previous band's upper bound (0 for the first), which makes gaps and
// overlaps unrepresentable.
type Band struct {
	Level models.RiskLevel `yaml:"level"`
	Upper float64          `yaml:"upper"`
}

// Policy holds the band partition and the confidence derivation knobs. The
// AUC ceiling keeps a poorly discriminating model from reporting high
// confidence even for extreme scores.
type Policy struct {
	Bands []Band `yaml:"bands"`
	// AUCCeilingFloor is the minimum ceiling granted regardless of AUC, so
	// operators can loosen the cap if a model's AUC is known to understate
	// its usefulness. Defaults to 0 (pure 2*AUC-1 cap).
	AUCCeilingFloor float64 `yaml:"auc_ceiling_floor"`
}

// DefaultPolicy is the five-level partition used when no policy file is
// configured.
func DefaultPolicy() Policy {
	return Policy{
		Bands: []Band{
			{Level: models.RiskVeryLow, Upper: 0.10},
			{Level: models.RiskLow, Upper: 0.25},
			{Level: models.RiskModerate, Upper: 0.50},
			{Level: models.RiskHigh, Upper: 0.75},
			{Level: models.RiskVeryHigh, Upper: 1.0},
		},
	}
}

// LoadPolicy reads a policy YAML from disk and validates it.
func LoadPolicy(path string) (Policy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, err
	}
	var p Policy
	if err := yaml.Unmarshal(content, &p); err != nil {
		return Policy{}, fmt.Errorf("parse risk policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate enforces a monotonic partition of [0,1]: strictly increasing
// upper bounds, distinct known levels, last bound exactly 1.
func (p Policy) Validate() error {
	if len(p.Bands) < 2 {
		return fmt.Errorf("risk policy needs at least two bands, got %d", len(p.Bands))
	}
	seen := make(map[models.RiskLevel]struct{}, len(p.Bands))
	lower := 0.0
	for i, band := range p.Bands {
		if band.Level.Rank() < 0 {
			return fmt.Errorf("band %d has unknown level %q", i, band.Level)
		}
		if _, dup := seen[band.Level]; dup {
			return fmt.Errorf("band level %q repeated", band.Level)
		}
		seen[band.Level] = struct{}{}
		if band.Upper <= lower {
			return fmt.Errorf("band %d upper bound %f not above %f", i, band.Upper, lower)
		}
		if band.Upper > 1 {
			return fmt.Errorf("band %d upper bound %f exceeds 1", i, band.Upper)
		}
		lower = band.Upper
	}
	if p.Bands[len(p.Bands)-1].Upper != 1 {
		return fmt.Errorf("last band must end at 1, got %f", p.Bands[len(p.Bands)-1].Upper)
	}
	if p.AUCCeilingFloor < 0 || p.AUCCeilingFloor > 1 {
		return fmt.Errorf("auc_ceiling_floor %f out of [0,1]", p.AUCCeilingFloor)
	}
	return nil
}
