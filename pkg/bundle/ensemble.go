package bundle

import (
	"fmt"
	"math"
)

// ScoredTree wraps one tree with the cover-weighted expected margin at every
// node, precomputed at load time. Expected[0] is the tree's contribution to
// the background baseline.
type ScoredTree struct {
	Nodes    []TreeNode
	Expected []float64
}

// Ensemble is the additive tree model behind one bundle. The raw score of a
// vector is BaseScore plus the leaf margin of every tree.
type Ensemble struct {
	BaseScore float64
	Trees     []ScoredTree
}

func newEnsemble(baseScore float64, trees []Tree) (*Ensemble, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("ensemble has no trees")
	}
	scored := make([]ScoredTree, len(trees))
	for i, tree := range trees {
		st, err := newScoredTree(tree)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		scored[i] = st
	}
	return &Ensemble{BaseScore: baseScore, Trees: scored}, nil
}

func newScoredTree(tree Tree) (ScoredTree, error) {
	n := len(tree.Nodes)
	if n == 0 {
		return ScoredTree{}, fmt.Errorf("empty tree")
	}
	for i, node := range tree.Nodes {
		if node.Leaf() {
			continue
		}
		// Children indexed after their parent keeps the structure acyclic
		// and lets expected values be filled in one reverse pass.
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return ScoredTree{}, fmt.Errorf("node %d has out-of-order children (%d, %d)", i, node.Left, node.Right)
		}
	}

	expected := make([]float64, n)
	covers := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		node := tree.Nodes[i]
		if node.Leaf() {
			expected[i] = node.Value
			covers[i] = node.Cover
			if covers[i] <= 0 {
				covers[i] = 1
			}
			continue
		}
		cl, cr := covers[node.Left], covers[node.Right]
		covers[i] = cl + cr
		expected[i] = (cl*expected[node.Left] + cr*expected[node.Right]) / (cl + cr)
	}
	return ScoredTree{Nodes: tree.Nodes, Expected: expected}, nil
}

// Descend walks the decision path for a vector, returning the visited node
// indices from root to leaf.
func (t ScoredTree) Descend(values []float64) ([]int, error) {
	path := make([]int, 0, 8)
	idx := 0
	for {
		path = append(path, idx)
		node := t.Nodes[idx]
		if node.Leaf() {
			return path, nil
		}
		if node.Feature >= len(values) {
			return nil, fmt.Errorf("split on feature %d, vector has %d values", node.Feature, len(values))
		}
		if values[node.Feature] < node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// LeafValue scores the vector through this tree.
func (t ScoredTree) LeafValue(values []float64) (float64, error) {
	path, err := t.Descend(values)
	if err != nil {
		return 0, err
	}
	return t.Nodes[path[len(path)-1]].Value, nil
}

// Score returns the raw (uncalibrated) margin for a vector.
func (e *Ensemble) Score(values []float64) (float64, error) {
	score := e.BaseScore
	for i := range e.Trees {
		leaf, err := e.Trees[i].LeafValue(values)
		if err != nil {
			return 0, err
		}
		score += leaf
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("non-finite raw score")
	}
	return score, nil
}

// Baseline is the expected raw score under the training background
// distribution: the base score plus every tree's root expectation.
func (e *Ensemble) Baseline() float64 {
	base := e.BaseScore
	for i := range e.Trees {
		base += e.Trees[i].Expected[0]
	}
	return base
}
