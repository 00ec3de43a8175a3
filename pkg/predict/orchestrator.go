package predict

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nutriscan-ai/platform/pkg/bundle"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/explain"
	"github.com/nutriscan-ai/platform/pkg/features"
	"github.com/nutriscan-ai/platform/pkg/inference"
	"github.com/nutriscan-ai/platform/pkg/profile"
	"github.com/nutriscan-ai/platform/pkg/recommend"
	"github.com/nutriscan-ai/platform/pkg/risk"
)

// Orchestrator composes the full pipeline: encode once, then per condition
// infer, classify, explain, and recommend. The bundle set is the only shared
// state and is read-only, so one orchestrator serves all requests.
type Orchestrator struct {
	bundles     *bundle.Set
	encoder     *features.Encoder
	engine      *inference.Engine
	explainer   *explain.Explainer
	classifier  *risk.Classifier
	recommender *recommend.Engine
}

func New(bundles *bundle.Set, classifier *risk.Classifier, recommender *recommend.Engine) *Orchestrator {
	return &Orchestrator{
		bundles:     bundles,
		encoder:     features.NewEncoder(),
		engine:      inference.NewEngine(),
		explainer:   explain.NewExplainer(),
		classifier:  classifier,
		recommender: recommender,
	}
}

// Loaded reports whether every condition has a bundle.
func (o *Orchestrator) Loaded() bool {
	return o.bundles.Loaded()
}

// BundleMetadata lists per-bundle training metadata for status reporting.
func (o *Orchestrator) BundleMetadata() []models.BundleMetadata {
	return o.bundles.Metadata()
}

// Reload swaps in a freshly loaded bundle set. In-flight requests keep the
// snapshot they started with.
func (o *Orchestrator) Reload(dir string) error {
	return o.bundles.Reload(dir)
}

// FeatureSchema describes the expected feature fields of the first loaded
// bundle for the features-listing endpoint.
func (o *Orchestrator) FeatureSchema() []features.FieldDescription {
	for _, cond := range models.Conditions() {
		if b, ok := o.bundles.Get(cond); ok {
			return features.DescribeSchema(b.Schema())
		}
	}
	return nil
}

type conditionOutcome struct {
	prediction      models.ConditionPrediction
	contributions   []models.FeatureContribution
	recommendations []models.Recommendation
	err             error
}

// Predict runs the whole pipeline for one profile. Encoder and schema errors
// abort the request; a single condition's inference failure degrades to an
// explicit error marker while the remaining conditions return full results.
func (o *Orchestrator) Predict(ctx context.Context, p profile.SubjectProfile) (*models.PredictionResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	conditions := models.Conditions()

	// All bundles share one schema in practice, but the contract must not
	// assume it: vectors are encoded once per distinct schema.
	vectors := make(map[string]features.Vector)
	bundles := make(map[models.Condition]*bundle.Bundle, len(conditions))
	for _, cond := range conditions {
		b, ok := o.bundles.Get(cond)
		if !ok {
			continue
		}
		bundles[cond] = b
		key := strings.Join(b.Schema(), "|")
		if _, done := vectors[key]; done {
			continue
		}
		vec, err := o.encoder.Encode(p, b.Schema())
		if err != nil {
			return nil, err
		}
		vectors[key] = vec
	}

	outcomes := make([]conditionOutcome, len(conditions))
	var wg sync.WaitGroup
	for i, cond := range conditions {
		wg.Add(1)
		go func(idx int, cond models.Condition) {
			defer wg.Done()
			// Cooperative abort between units, never mid-computation.
			if err := ctx.Err(); err != nil {
				outcomes[idx].err = err
				return
			}
			b, ok := bundles[cond]
			if !ok {
				outcomes[idx].err = &inference.ConditionInferenceError{Condition: cond, Err: fmt.Errorf("bundle not loaded")}
				return
			}
			vec := vectors[strings.Join(b.Schema(), "|")]
			outcomes[idx] = o.runCondition(cond, b, vec)
		}(i, cond)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, outcome := range outcomes {
		if inference.IsSchemaMismatch(outcome.err) {
			return nil, outcome.err
		}
	}

	result := &models.PredictionResult{
		Predictions:  make(map[models.Condition]models.ConditionPrediction, len(conditions)),
		Explanations: make(map[models.Condition][]models.FeatureContribution, len(conditions)),
		GeneratedAt:  time.Now().UTC(),
	}
	recommendations := []models.Recommendation{}
	scoreSum := 0.0
	scored := 0

	for i, cond := range conditions {
		outcome := outcomes[i]
		if outcome.err != nil {
			result.Predictions[cond] = models.ConditionPrediction{
				Condition:   cond,
				DisplayName: cond.DisplayName(),
				Error:       outcome.err.Error(),
			}
			continue
		}
		result.Predictions[cond] = outcome.prediction
		result.Explanations[cond] = outcome.contributions
		recommendations = append(recommendations, outcome.recommendations...)
		scoreSum += outcome.prediction.RiskScore
		scored++
	}

	recommendations = append(recommendations, o.recommender.Lifestyle(p)...)
	result.Recommendations = recommendations

	if scored > 0 {
		wellness := 1 - scoreSum/float64(scored)
		if wellness < 0 {
			wellness = 0
		}
		result.WellnessScore = wellness
	}

	return result, nil
}

func (o *Orchestrator) runCondition(cond models.Condition, b *bundle.Bundle, vec features.Vector) conditionOutcome {
	score, err := o.engine.Infer(b, vec)
	if err != nil {
		return conditionOutcome{err: err}
	}

	level, confidence := o.classifier.Classify(score, b.Metadata().CalibratedAUC)

	explanation, err := o.explainer.Explain(b, vec)
	if err != nil {
		return conditionOutcome{err: err}
	}

	recs := o.recommender.Recommend(cond, level, explanation.TopPositive(recommend.TopFeatureCount))

	return conditionOutcome{
		prediction: models.ConditionPrediction{
			Condition:   cond,
			DisplayName: cond.DisplayName(),
			RiskScore:   score,
			RiskLevel:   level,
			Confidence:  confidence,
			Note:        cond.ClinicalNote(),
		},
		contributions:   explanation.Contributions,
		recommendations: recs,
	}
}
