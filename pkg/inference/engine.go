package inference

import (
	"errors"
	"fmt"
	"math"

	"github.com/nutriscan-ai/platform/pkg/bundle"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/features"
)

// SchemaMismatchError reports a vector/bundle schema disagreement. This is a
// programming-level failure, never expected in correct operation, and is
// surfaced as an internal error rather than coerced.
type SchemaMismatchError struct {
	Condition models.Condition
	Detail    error
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch for %s: %v", e.Condition, e.Detail)
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Detail
}

func IsSchemaMismatch(err error) bool {
	var sme *SchemaMismatchError
	return errors.As(err, &sme)
}

// ConditionInferenceError marks one condition's failure at request time. The
// orchestrator recovers it locally; the other conditions still produce full
// results.
type ConditionInferenceError struct {
	Condition models.Condition
	Err       error
}

func (e *ConditionInferenceError) Error() string {
	return fmt.Sprintf("inference failed for %s: %v", e.Condition, e.Err)
}

func (e *ConditionInferenceError) Unwrap() error {
	return e.Err
}

// Engine scores feature vectors against bundles. Stateless; bundles carry
// all model state and are read-only, so one engine serves all requests.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Infer validates the vector against the bundle schema, scores it, and
// returns the calibrated probability. The raw margin is never reported as a
// risk score.
func (e *Engine) Infer(b *bundle.Bundle, vec features.Vector) (float64, error) {
	if err := vec.MatchesSchema(b.Schema()); err != nil {
		return 0, &SchemaMismatchError{Condition: b.Condition(), Detail: err}
	}
	raw, err := b.PredictRaw(vec.Values)
	if err != nil {
		return 0, &ConditionInferenceError{Condition: b.Condition(), Err: err}
	}
	p := b.Calibrate(raw)
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, &ConditionInferenceError{Condition: b.Condition(), Err: fmt.Errorf("calibrated probability out of range: %f", p)}
	}
	return p, nil
}
