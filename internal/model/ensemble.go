package model

import (
	"errors"
	"fmt"
	"math"
)

// Params are the boosting hyperparameters.
type Params struct {
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	NEstimators    int     `json:"n_estimators"`
	Lambda         float64 `json:"lambda"`           // L2 penalty on leaf weights
	MinChildWeight float64 `json:"min_child_weight"` // minimum hessian sum per child
	Seed           uint64  `json:"seed"`
}

// DefaultParams returns the hyperparameters the production model is trained with.
func DefaultParams() Params {
	return Params{
		LearningRate:   0.2,
		MaxDepth:       5,
		NEstimators:    100,
		Lambda:         1,
		MinChildWeight: 1,
		Seed:           42,
	}
}

func (p Params) validate() error {
	switch {
	case p.LearningRate <= 0:
		return errors.New("learning rate must be positive")
	case p.MaxDepth < 1:
		return errors.New("max depth must be at least 1")
	case p.NEstimators < 1:
		return errors.New("n_estimators must be at least 1")
	case p.Lambda < 0:
		return errors.New("lambda must not be negative")
	case p.MinChildWeight < 0:
		return errors.New("min child weight must not be negative")
	}
	return nil
}

// Ensemble is a gradient-boosted regression tree model. The prediction is
// BaseScore plus the leaf value reached in every tree; leaf values already
// include the learning rate.
type Ensemble struct {
	BaseScore    float64  `json:"base_score"`
	NumFeatures  int      `json:"num_features"`
	FeatureNames []string `json:"feature_names,omitempty"`
	Params       Params   `json:"params"`
	Trees        []Tree   `json:"trees"`
}

// Tree is a binary regression tree stored as a flat node array rooted at 0.
// Children always have larger indices than their parent.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split (x[Feature] < Threshold goes Left) or a leaf.
type Node struct {
	IsLeaf    bool    `json:"is_leaf,omitempty"`
	Leaf      float64 `json:"leaf,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Predict returns the model output for one scaled feature vector.
func (e *Ensemble) Predict(features []float64) (float64, error) {
	if len(features) != e.NumFeatures {
		return 0, fmt.Errorf("model expects %d features, got %d", e.NumFeatures, len(features))
	}
	sum := e.BaseScore
	for i := range e.Trees {
		sum += e.Trees[i].predict(features)
	}
	return sum, nil
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf {
			return n.Leaf
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks structural invariants so Predict cannot loop or index out
// of range on a hand-edited or truncated artifact.
func (e *Ensemble) validate() error {
	if e.NumFeatures <= 0 {
		return errors.New("model has no features")
	}
	if len(e.Trees) == 0 {
		return errors.New("model has no trees")
	}
	if math.IsNaN(e.BaseScore) || math.IsInf(e.BaseScore, 0) {
		return errors.New("model base score is not finite")
	}
	for ti, t := range e.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.IsLeaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= e.NumFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: invalid children %d/%d", ti, ni, n.Left, n.Right)
			}
		}
	}
	return nil
}
