package explain

import (
	"sort"

	"github.com/nutriscan-ai/platform/pkg/bundle"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/features"
	"github.com/nutriscan-ai/platform/pkg/inference"
)

// Explanation carries the additive attribution for one prediction. The
// defining property: Baseline + sum(contributions) equals RawScore exactly
// up to floating-point rounding.
type Explanation struct {
	Baseline      float64
	RawScore      float64
	Contributions []models.FeatureContribution
}

// TopPositive returns up to n features with positive contribution, in
// ranking order. Positive contributions increase predicted risk; the
// recommendation rules gate on them.
func (e Explanation) TopPositive(n int) []string {
	out := make([]string, 0, n)
	for _, c := range e.Contributions {
		if c.Contribution <= 0 {
			continue
		}
		out = append(out, c.Feature)
		if len(out) == n {
			break
		}
	}
	return out
}

// Explainer computes per-feature contributions by walking each tree's
// decision path: every split credits its feature with the change in expected
// margin between the parent and the chosen child. Summed over the ensemble
// this reconstructs the raw score from the background baseline.
type Explainer struct{}

func NewExplainer() *Explainer {
	return &Explainer{}
}

func (e *Explainer) Explain(b *bundle.Bundle, vec features.Vector) (Explanation, error) {
	schema := b.Schema()
	if err := vec.MatchesSchema(schema); err != nil {
		return Explanation{}, &inference.SchemaMismatchError{Condition: b.Condition(), Detail: err}
	}

	ensemble := b.Model()
	contribs := make([]float64, len(schema))
	raw := ensemble.BaseScore

	for ti := range ensemble.Trees {
		tree := &ensemble.Trees[ti]
		path, err := tree.Descend(vec.Values)
		if err != nil {
			return Explanation{}, &inference.ConditionInferenceError{Condition: b.Condition(), Err: err}
		}
		for step := 0; step < len(path)-1; step++ {
			parent := path[step]
			child := path[step+1]
			feat := tree.Nodes[parent].Feature
			contribs[feat] += tree.Expected[child] - tree.Expected[parent]
		}
		raw += tree.Nodes[path[len(path)-1]].Value
	}

	entries := make([]models.FeatureContribution, len(schema))
	for i, name := range schema {
		entries[i] = models.FeatureContribution{
			Feature:      name,
			FeatureName:  features.Describe(name),
			Value:        vec.Values[i],
			Contribution: contribs[i],
		}
	}
	sortContributions(entries)

	return Explanation{
		Baseline:      ensemble.Baseline(),
		RawScore:      raw,
		Contributions: entries,
	}, nil
}

// sortContributions orders by descending absolute contribution, ties broken
// by feature name for determinism.
func sortContributions(entries []models.FeatureContribution) {
	sort.SliceStable(entries, func(i, j int) bool {
		ai, aj := abs(entries[i].Contribution), abs(entries[j].Contribution)
		if ai != aj {
			return ai > aj
		}
		return entries[i].Feature < entries[j].Feature
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
