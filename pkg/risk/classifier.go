package risk

import (
	"math"

	"github.com/nutriscan-ai/platform/pkg/common/models"
)

// Classifier maps calibrated probabilities to discrete risk levels and
// derives a confidence score. Immutable after construction.
type Classifier struct {
	policy Policy
}

func NewClassifier(policy Policy) (*Classifier, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{policy: policy}, nil
}

// Classify places the score in its unique band and derives confidence as the
// normalized distance from the nearest band edge, capped by the calibrated
// AUC ceiling. A model at chance level (AUC 0.5) gets a ceiling near zero,
// so it can never overstate certainty.
func (c *Classifier) Classify(score, calibratedAUC float64) (models.RiskLevel, float64) {
	lower := 0.0
	band := c.policy.Bands[len(c.policy.Bands)-1]
	for _, b := range c.policy.Bands {
		if score < b.Upper {
			band = b
			break
		}
		if b.Upper < 1 {
			lower = b.Upper
		}
	}

	halfWidth := (band.Upper - lower) / 2
	edgeDistance := halfWidth - math.Abs(score-(lower+halfWidth))
	normalized := 0.0
	if halfWidth > 0 {
		normalized = edgeDistance / halfWidth
	}
	if normalized < 0 {
		normalized = 0
	}

	ceiling := 2*calibratedAUC - 1
	if ceiling < c.policy.AUCCeilingFloor {
		ceiling = c.policy.AUCCeilingFloor
	}
	if ceiling < 0 {
		ceiling = 0
	}
	if ceiling > 1 {
		ceiling = 1
	}

	return band.Level, normalized * ceiling
}
