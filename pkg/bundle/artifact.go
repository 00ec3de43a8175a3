package bundle

// Artifact is the on-disk JSON layout of one trained model bundle. Bundles
// are produced offline by the training pipeline and are opaque to this
// service beyond the fields declared here.
type Artifact struct {
	Condition string `json:"condition"`
	Model     struct {
		Type         string   `json:"type"`
		FeatureNames []string `json:"feature_names"`
		BaseScore    float64  `json:"base_score"`
		Trees        []Tree   `json:"trees"`
	} `json:"model"`
	Calibrator struct {
		Type       string    `json:"type"`
		A          float64   `json:"a"`
		B          float64   `json:"b"`
		Thresholds []float64 `json:"thresholds,omitempty"`
		Outputs    []float64 `json:"outputs,omitempty"`
	} `json:"calibrator"`
	Metadata struct {
		Version         string  `json:"version"`
		AUC             float64 `json:"auc"`
		CalibratedAUC   float64 `json:"calibrated_auc"`
		TrainingSamples int     `json:"training_samples"`
	} `json:"metadata"`
}

// Tree is one regression tree of the ensemble, stored as a flat node array
// with the root at index 0. Children always have a larger index than their
// parent.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is either an internal split (Feature >= 0) or a leaf
// (Feature == -1, Value holds the leaf margin). Cover is the training sample
// weight that reached the node and drives the expected-value computation.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Cover     float64 `json:"cover"`
}

// Leaf reports whether the node is a terminal leaf.
func (n TreeNode) Leaf() bool {
	return n.Feature < 0
}
