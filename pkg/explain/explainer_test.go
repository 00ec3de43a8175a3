package explain

import (
	"math"
	"sort"
	"testing"

	"github.com/nutriscan-ai/platform/pkg/bundle"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/nutriscan-ai/platform/pkg/features"
	"github.com/nutriscan-ai/platform/pkg/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = []string{"RIDAGEYR", "RIAGENDR", "BMXWT", "BMXHT", "BMXBMI"}

func testBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	var art bundle.Artifact
	art.Model.Type = "gradient_boosted_trees"
	art.Model.FeatureNames = append([]string(nil), testSchema...)
	art.Model.BaseScore = -0.3
	art.Model.Trees = []bundle.Tree{
		// Age split, then BMI split on the older branch.
		{Nodes: []bundle.TreeNode{
			{Feature: 0, Threshold: 50, Left: 1, Right: 2},
			{Feature: -1, Value: -0.5, Cover: 60},
			{Feature: 4, Threshold: 28, Left: 3, Right: 4},
			{Feature: -1, Value: 0.3, Cover: 25},
			{Feature: -1, Value: 0.9, Cover: 15},
		}},
		// Pure BMI tree.
		{Nodes: []bundle.TreeNode{
			{Feature: 4, Threshold: 25, Left: 1, Right: 2},
			{Feature: -1, Value: -0.1, Cover: 55},
			{Feature: -1, Value: 0.4, Cover: 45},
		}},
	}
	art.Calibrator.Type = "sigmoid"
	art.Calibrator.A = -1
	art.Metadata.AUC = 0.8
	art.Metadata.CalibratedAUC = 0.79
	b, err := bundle.FromArtifact(models.ConditionB12, art)
	require.NoError(t, err)
	return b
}

func vectorFor(age, bmi float64) features.Vector {
	return features.Vector{
		Fields: append([]string(nil), testSchema...),
		Values: []float64{age, 2, 65, 165, bmi},
	}
}

func TestAdditivity(t *testing.T) {
	b := testBundle(t)
	e := NewExplainer()

	vectors := []features.Vector{
		vectorFor(25, 23.9),
		vectorFor(70, 31),
		vectorFor(55, 26),
		vectorFor(50, 25), // both thresholds exactly hit
	}
	for _, vec := range vectors {
		explanation, err := e.Explain(b, vec)
		require.NoError(t, err)

		raw, err := b.PredictRaw(vec.Values)
		require.NoError(t, err)
		assert.InDelta(t, raw, explanation.RawScore, 1e-12)

		sum := explanation.Baseline
		for _, c := range explanation.Contributions {
			sum += c.Contribution
		}
		// Baseline plus contributions reconstructs the raw score. This is
		// the defining correctness property of the attribution method.
		assert.InDelta(t, raw, sum, 1e-4)
	}
}

func TestOrderingAndTieBreak(t *testing.T) {
	b := testBundle(t)
	explanation, err := NewExplainer().Explain(b, vectorFor(70, 31))
	require.NoError(t, err)
	require.Len(t, explanation.Contributions, len(testSchema))

	for i := 1; i < len(explanation.Contributions); i++ {
		prev := explanation.Contributions[i-1]
		cur := explanation.Contributions[i]
		if math.Abs(prev.Contribution) == math.Abs(cur.Contribution) {
			assert.Less(t, prev.Feature, cur.Feature)
		} else {
			assert.Greater(t, math.Abs(prev.Contribution), math.Abs(cur.Contribution))
		}
	}

	// Unused features contribute exactly zero and sort by name.
	var zeros []string
	for _, c := range explanation.Contributions {
		if c.Contribution == 0 {
			zeros = append(zeros, c.Feature)
		}
	}
	assert.True(t, sort.StringsAreSorted(zeros))
}

func TestSignConvention(t *testing.T) {
	b := testBundle(t)
	e := NewExplainer()

	lowRisk, err := e.Explain(b, vectorFor(25, 20))
	require.NoError(t, err)
	highRisk, err := e.Explain(b, vectorFor(70, 31))
	require.NoError(t, err)

	contribution := func(ex Explanation, feature string) float64 {
		for _, c := range ex.Contributions {
			if c.Feature == feature {
				return c.Contribution
			}
		}
		t.Fatalf("feature %s missing", feature)
		return 0
	}

	// Young age pushes the margin down, old age pushes it up.
	assert.Negative(t, contribution(lowRisk, "RIDAGEYR"))
	assert.Positive(t, contribution(highRisk, "RIDAGEYR"))
	assert.Positive(t, contribution(highRisk, "BMXBMI"))
}

func TestTopPositive(t *testing.T) {
	b := testBundle(t)
	explanation, err := NewExplainer().Explain(b, vectorFor(70, 31))
	require.NoError(t, err)

	top := explanation.TopPositive(5)
	assert.Contains(t, top, "RIDAGEYR")
	assert.Contains(t, top, "BMXBMI")
	for _, feature := range top {
		for _, c := range explanation.Contributions {
			if c.Feature == feature {
				assert.Positive(t, c.Contribution)
			}
		}
	}

	assert.Len(t, explanation.TopPositive(1), 1)
}

func TestExplainRejectsSchemaMismatch(t *testing.T) {
	b := testBundle(t)
	vec := features.Vector{Fields: []string{"RIDAGEYR"}, Values: []float64{30}}

	_, err := NewExplainer().Explain(b, vec)
	require.Error(t, err)
	assert.True(t, inference.IsSchemaMismatch(err))
}
