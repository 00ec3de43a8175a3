package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nutriscan-ai/platform/pkg/common/models"
)

const modelTypeGBT = "gradient_boosted_trees"

// LoadError is fatal at startup: a process that cannot load all bundles must
// not report itself healthy.
type LoadError struct {
	Path      string
	Condition models.Condition
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load bundle %s (%s): %v", e.Condition, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Bundle is the immutable artifact set for one condition: classifier,
// calibrator, expected feature schema, and training metadata. Loaded once,
// shared read-only by all concurrent requests.
type Bundle struct {
	condition models.Condition
	schema    []string
	ensemble  *Ensemble
	cal       calibrator
	meta      models.BundleMetadata
}

// Load reads one bundle artifact from disk. The condition must match the
// artifact's own declaration.
func Load(path string, condition models.Condition) (*Bundle, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Condition: condition, Err: err}
	}
	var art Artifact
	if err := json.Unmarshal(content, &art); err != nil {
		return nil, &LoadError{Path: path, Condition: condition, Err: err}
	}
	if art.Condition != "" && art.Condition != string(condition) {
		return nil, &LoadError{Path: path, Condition: condition, Err: fmt.Errorf("artifact declares condition %q", art.Condition)}
	}
	b, err := FromArtifact(condition, art)
	if err != nil {
		return nil, &LoadError{Path: path, Condition: condition, Err: err}
	}
	return b, nil
}

// FromArtifact validates an artifact and builds the in-memory bundle.
func FromArtifact(condition models.Condition, art Artifact) (*Bundle, error) {
	if art.Model.Type != modelTypeGBT {
		return nil, fmt.Errorf("unsupported model type %q", art.Model.Type)
	}
	if len(art.Model.FeatureNames) == 0 {
		return nil, fmt.Errorf("artifact missing feature names")
	}
	seen := make(map[string]struct{}, len(art.Model.FeatureNames))
	for _, name := range art.Model.FeatureNames {
		if name == "" {
			return nil, fmt.Errorf("empty feature name in schema")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate feature %q in schema", name)
		}
		seen[name] = struct{}{}
	}

	ensemble, err := newEnsemble(art.Model.BaseScore, art.Model.Trees)
	if err != nil {
		return nil, err
	}
	for _, tree := range ensemble.Trees {
		for i, node := range tree.Nodes {
			if !node.Leaf() && node.Feature >= len(art.Model.FeatureNames) {
				return nil, fmt.Errorf("node %d splits on feature %d, schema has %d", i, node.Feature, len(art.Model.FeatureNames))
			}
		}
	}

	cal, err := newCalibrator(art)
	if err != nil {
		return nil, err
	}
	if art.Metadata.AUC < 0 || art.Metadata.AUC > 1 || art.Metadata.CalibratedAUC < 0 || art.Metadata.CalibratedAUC > 1 {
		return nil, fmt.Errorf("AUC metadata out of [0,1]")
	}

	schema := make([]string, len(art.Model.FeatureNames))
	copy(schema, art.Model.FeatureNames)

	return &Bundle{
		condition: condition,
		schema:    schema,
		ensemble:  ensemble,
		cal:       cal,
		meta: models.BundleMetadata{
			Condition:       condition,
			Version:         art.Metadata.Version,
			AUC:             art.Metadata.AUC,
			CalibratedAUC:   art.Metadata.CalibratedAUC,
			TrainingSamples: art.Metadata.TrainingSamples,
		},
	}, nil
}

func (b *Bundle) Condition() models.Condition {
	return b.condition
}

// Schema returns the ordered feature names the bundle expects. The returned
// slice is a copy; the bundle stays immutable.
func (b *Bundle) Schema() []string {
	out := make([]string, len(b.schema))
	copy(out, b.schema)
	return out
}

// PredictRaw scores a vector through the ensemble, returning the raw margin.
// The caller is responsible for schema validation.
func (b *Bundle) PredictRaw(values []float64) (float64, error) {
	return b.ensemble.Score(values)
}

// Calibrate maps a raw margin to a probability via the bundle's calibrator.
func (b *Bundle) Calibrate(raw float64) float64 {
	return b.cal.Apply(raw)
}

// Model exposes the ensemble for attribution walks. Read-only.
func (b *Bundle) Model() *Ensemble {
	return b.ensemble
}

func (b *Bundle) Metadata() models.BundleMetadata {
	return b.meta
}
