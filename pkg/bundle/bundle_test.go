package bundle

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = []string{"RIDAGEYR", "BMXBMI", "RIAGENDR"}

func testArtifact() Artifact {
	var art Artifact
	art.Model.Type = "gradient_boosted_trees"
	art.Model.FeatureNames = append([]string(nil), testSchema...)
	art.Model.BaseScore = 0.1
	art.Model.Trees = []Tree{
		{Nodes: []TreeNode{
			{Feature: 0, Threshold: 50, Left: 1, Right: 2},
			{Feature: -1, Value: -0.6, Cover: 70},
			{Feature: -1, Value: 0.8, Cover: 30},
		}},
		{Nodes: []TreeNode{
			{Feature: 1, Threshold: 27, Left: 1, Right: 2},
			{Feature: -1, Value: -0.2, Cover: 60},
			{Feature: -1, Value: 0.5, Cover: 40},
		}},
	}
	art.Calibrator.Type = "sigmoid"
	art.Calibrator.A = -1
	art.Metadata.Version = "2024.1"
	art.Metadata.AUC = 0.82
	art.Metadata.CalibratedAUC = 0.80
	art.Metadata.TrainingSamples = 4500
	return art
}

func TestFromArtifact(t *testing.T) {
	b, err := FromArtifact(models.ConditionB12, testArtifact())
	require.NoError(t, err)

	assert.Equal(t, models.ConditionB12, b.Condition())
	assert.Equal(t, testSchema, b.Schema())

	meta := b.Metadata()
	assert.Equal(t, 0.82, meta.AUC)
	assert.Equal(t, 0.80, meta.CalibratedAUC)
	assert.Equal(t, 4500, meta.TrainingSamples)
}

func TestSchemaReturnsCopy(t *testing.T) {
	b, err := FromArtifact(models.ConditionB12, testArtifact())
	require.NoError(t, err)

	schema := b.Schema()
	schema[0] = "mutated"
	assert.Equal(t, testSchema, b.Schema())
}

func TestPredictRaw(t *testing.T) {
	b, err := FromArtifact(models.ConditionB12, testArtifact())
	require.NoError(t, err)

	// age 25 -> left leaf -0.6, BMI 23.9 -> left leaf -0.2, plus base 0.1.
	raw, err := b.PredictRaw([]float64{25, 23.9, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.1-0.6-0.2, raw, 1e-12)

	// age 70, BMI 31 -> both right leaves.
	raw, err = b.PredictRaw([]float64{70, 31, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.1+0.8+0.5, raw, 1e-12)
}

func TestCalibrateIsProbability(t *testing.T) {
	b, err := FromArtifact(models.ConditionB12, testArtifact())
	require.NoError(t, err)

	for _, raw := range []float64{-10, -1, 0, 1, 10} {
		p := b.Calibrate(raw)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	// Platt with negative slope is monotonically increasing in the margin.
	assert.Less(t, b.Calibrate(-1), b.Calibrate(1))
}

func TestExpectedValues(t *testing.T) {
	b, err := FromArtifact(models.ConditionB12, testArtifact())
	require.NoError(t, err)

	ensemble := b.Model()
	assert.InDelta(t, -0.18, ensemble.Trees[0].Expected[0], 1e-12)
	assert.InDelta(t, 0.08, ensemble.Trees[1].Expected[0], 1e-12)
	assert.InDelta(t, 0.1-0.18+0.08, ensemble.Baseline(), 1e-12)
}

func TestFromArtifactRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Artifact)
	}{
		{"unknown model type", func(a *Artifact) { a.Model.Type = "random_forest_pickle" }},
		{"no features", func(a *Artifact) { a.Model.FeatureNames = nil }},
		{"duplicate feature", func(a *Artifact) { a.Model.FeatureNames[1] = a.Model.FeatureNames[0] }},
		{"empty feature name", func(a *Artifact) { a.Model.FeatureNames[2] = "" }},
		{"no trees", func(a *Artifact) { a.Model.Trees = nil }},
		{"empty tree", func(a *Artifact) { a.Model.Trees = []Tree{{}} }},
		{"child before parent", func(a *Artifact) { a.Model.Trees[0].Nodes[0].Left = 0 }},
		{"child out of range", func(a *Artifact) { a.Model.Trees[0].Nodes[0].Right = 9 }},
		{"split feature out of schema", func(a *Artifact) { a.Model.Trees[0].Nodes[0].Feature = 7 }},
		{"missing calibrator", func(a *Artifact) { a.Calibrator.Type = "" }},
		{"unknown calibrator", func(a *Artifact) { a.Calibrator.Type = "beta" }},
		{"sigmoid zero slope", func(a *Artifact) { a.Calibrator.A = 0 }},
		{"auc out of range", func(a *Artifact) { a.Metadata.AUC = 1.2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			art := testArtifact()
			tc.mutate(&art)
			_, err := FromArtifact(models.ConditionB12, art)
			assert.Error(t, err)
		})
	}
}

func TestIsotonicCalibrator(t *testing.T) {
	art := testArtifact()
	art.Calibrator.Type = "isotonic"
	art.Calibrator.Thresholds = []float64{-2, 0, 2}
	art.Calibrator.Outputs = []float64{0.05, 0.4, 0.9}

	b, err := FromArtifact(models.ConditionIron, art)
	require.NoError(t, err)

	assert.Equal(t, 0.05, b.Calibrate(-5))
	assert.Equal(t, 0.9, b.Calibrate(5))
	assert.InDelta(t, 0.4, b.Calibrate(0), 1e-12)
	assert.InDelta(t, 0.65, b.Calibrate(1), 1e-12)
}

func writeArtifact(t *testing.T, dir string, cond models.Condition) {
	t.Helper()
	art := testArtifact()
	art.Condition = string(cond)
	content, err := json.Marshal(art)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(ArtifactPath(dir, cond), content, 0o644))
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, models.ConditionB12)

	b, err := Load(ArtifactPath(dir, models.ConditionB12), models.ConditionB12)
	require.NoError(t, err)
	assert.Equal(t, testSchema, b.Schema())

	_, err = Load(filepath.Join(dir, "missing.json"), models.ConditionIron)
	require.Error(t, err)
	assert.True(t, IsLoadError(err))

	// Condition declared inside the artifact must match the requested one.
	_, err = Load(ArtifactPath(dir, models.ConditionB12), models.ConditionDiabetes)
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
}

func TestLoadSetFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, models.ConditionB12)
	// iron and diabetes artifacts absent

	_, err := LoadSet(dir)
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
}

func TestSetLoadedAndMetadata(t *testing.T) {
	dir := t.TempDir()
	for _, cond := range models.Conditions() {
		writeArtifact(t, dir, cond)
	}

	set, err := LoadSet(dir)
	require.NoError(t, err)
	assert.True(t, set.Loaded())

	meta := set.Metadata()
	require.Len(t, meta, 3)
	assert.Equal(t, models.ConditionB12, meta[0].Condition)
	assert.Equal(t, models.ConditionIron, meta[1].Condition)
	assert.Equal(t, models.ConditionDiabetes, meta[2].Condition)

	partial := NewSet(map[models.Condition]*Bundle{})
	assert.False(t, partial.Loaded())
}

func TestReloadKeepsPreviousSetOnFailure(t *testing.T) {
	dir := t.TempDir()
	for _, cond := range models.Conditions() {
		writeArtifact(t, dir, cond)
	}
	set, err := LoadSet(dir)
	require.NoError(t, err)

	empty := t.TempDir()
	require.Error(t, set.Reload(empty))
	assert.True(t, set.Loaded())

	// A valid directory swaps in the new bundles.
	require.NoError(t, set.Reload(dir))
	assert.True(t, set.Loaded())
}

func TestScoreRejectsNonFinite(t *testing.T) {
	art := testArtifact()
	art.Model.Trees[0].Nodes[1].Value = math.NaN()
	b, err := FromArtifact(models.ConditionDiabetes, art)
	require.NoError(t, err)

	_, err = b.PredictRaw([]float64{25, 23.9, 2})
	assert.Error(t, err)
}
