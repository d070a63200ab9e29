package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted classification tree stored as a flat node array.
// Node 0 is the root.
type DecisionTree struct {
	nodes     []TreeNode
	nFeatures int
	classes   []int
	params    map[string]any
}

// TreeNode is one split or leaf. Value holds the per-class sample weights
// that reached the node, in Classes order.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	Value      []float64 `json:"value"`
	IsLeaf     bool      `json:"is_leaf"`
}

func (dt *DecisionTree) Name() string {
	return TypeDecisionTree
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.nFeatures
}

func (dt *DecisionTree) Classes() []int {
	return append([]int(nil), dt.classes...)
}

func (dt *DecisionTree) Params() map[string]any {
	return copyParams(dt.params)
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	proba, err := dt.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return dt.classes[argmax(proba)], nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, v := range leaf.Value {
		total += v
	}
	if total <= 0 {
		return nil, errors.New("leaf has no samples")
	}
	proba := make([]float64, len(leaf.Value))
	for i, v := range leaf.Value {
		proba[i] = v / total
	}
	return proba, nil
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not trained")
	}
	if len(features) != dt.nFeatures {
		return TreeNode{}, fmt.Errorf("model expects %d features, got %d", dt.nFeatures, len(features))
	}
	idx := 0
	for range dt.nodes {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return TreeNode{}, errors.New("invalid tree state")
}

func (dt *DecisionTree) validate() error {
	if len(dt.nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	if dt.nFeatures <= 0 {
		return errors.New("tree n_features must be positive")
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			if len(node.Value) != len(dt.classes) {
				return fmt.Errorf("leaf %d has %d values for %d classes", i, len(node.Value), len(dt.classes))
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dt.nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(dt.nodes) ||
			node.RightChild <= i || node.RightChild >= len(dt.nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return nil
}
