package model

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// minSplitGain is the smallest loss reduction that justifies a split.
const minSplitGain = 1e-6

// FitEnsemble trains a squared-error gradient-boosted tree ensemble using
// exact greedy, level-wise split finding over presorted feature columns.
// The base score is the mean target. Training uses every row and column, so
// the result depends only on the data and params.
func FitEnsemble(x [][]float64, y []float64, names []string, p Params) (*Ensemble, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("fit ensemble: %w", err)
	}
	if len(x) == 0 {
		return nil, errors.New("fit ensemble: no rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit ensemble: %d rows but %d targets", len(x), len(y))
	}
	cols := len(x[0])
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("fit ensemble: row %d has %d columns, want %d", i, len(row), cols)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("fit ensemble: row %d has a non-finite feature", i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("fit ensemble: row %d has a non-finite target", i)
		}
	}

	e := &Ensemble{
		BaseScore:    floats.Sum(y) / float64(len(y)),
		NumFeatures:  cols,
		FeatureNames: names,
		Params:       p,
		Trees:        make([]Tree, 0, p.NEstimators),
	}

	order := presort(x)
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = e.BaseScore
	}
	grad := make([]float64, len(y))
	hess := make([]float64, len(y))

	for range p.NEstimators {
		for i := range y {
			grad[i] = pred[i] - y[i]
			hess[i] = 1
		}
		b := &treeBuilder{x: x, order: order, grad: grad, hess: hess, params: p}
		tree, leafOf := b.build()
		for i, leaf := range leafOf {
			pred[i] += tree.Nodes[leaf].Leaf
		}
		e.Trees = append(e.Trees, tree)
	}
	return e, nil
}

// presort returns, for every column, row indices ordered by ascending value.
func presort(x [][]float64) [][]int {
	cols := len(x[0])
	order := make([][]int, cols)
	for j := range cols {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Compare(x[a][j], x[b][j])
		})
		order[j] = idx
	}
	return order
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

type treeBuilder struct {
	x      [][]float64
	order  [][]int
	grad   []float64
	hess   []float64
	params Params
}

// build grows one tree level by level and returns it with the leaf index
// every training row ends in.
func (b *treeBuilder) build() (Tree, []int) {
	nodes := []Node{{}}
	pos := make([]int, len(b.grad)) // node each row currently sits in
	frontier := []int{0}
	lambda := b.params.Lambda
	eta := b.params.LearningRate

	for depth := 0; len(frontier) > 0; depth++ {
		open := make([]bool, len(nodes))
		for _, id := range frontier {
			open[id] = true
		}
		sumG := make([]float64, len(nodes))
		sumH := make([]float64, len(nodes))
		for i, id := range pos {
			if open[id] {
				sumG[id] += b.grad[i]
				sumH[id] += b.hess[i]
			}
		}

		leaf := func(id int) Node {
			return Node{IsLeaf: true, Leaf: -sumG[id] / (sumH[id] + lambda) * eta}
		}

		if depth == b.params.MaxDepth {
			for _, id := range frontier {
				nodes[id] = leaf(id)
			}
			break
		}

		best := b.findSplits(pos, open, sumG, sumH)

		var next []int
		for _, id := range frontier {
			s := best[id]
			if s.gain <= minSplitGain {
				nodes[id] = leaf(id)
				continue
			}
			left := len(nodes)
			nodes = append(nodes, Node{}, Node{})
			nodes[id] = Node{Feature: s.feature, Threshold: s.threshold, Left: left, Right: left + 1}
			next = append(next, left, left+1)
		}

		for i, id := range pos {
			n := nodes[id]
			if !open[id] || n.IsLeaf {
				continue
			}
			if b.x[i][n.Feature] < n.Threshold {
				pos[i] = n.Left
			} else {
				pos[i] = n.Right
			}
		}
		frontier = next
	}

	return Tree{Nodes: nodes}, pos
}

// findSplits scans every presorted column once, accumulating left-hand
// gradient statistics per open node, and keeps the best split per node.
func (b *treeBuilder) findSplits(pos []int, open []bool, sumG, sumH []float64) []split {
	n := len(open)
	lambda := b.params.Lambda
	mcw := b.params.MinChildWeight

	best := make([]split, n)
	parentScore := make([]float64, n)
	for id := range n {
		parentScore[id] = sumG[id] * sumG[id] / (sumH[id] + lambda)
	}

	gl := make([]float64, n)
	hl := make([]float64, n)
	last := make([]float64, n)
	seen := make([]bool, n)

	for j, idx := range b.order {
		clear(gl)
		clear(hl)
		clear(seen)
		for _, i := range idx {
			id := pos[i]
			if !open[id] {
				continue
			}
			v := b.x[i][j]
			if seen[id] && v != last[id] {
				hr := sumH[id] - hl[id]
				if hl[id] >= mcw && hr >= mcw {
					gr := sumG[id] - gl[id]
					gain := 0.5 * (gl[id]*gl[id]/(hl[id]+lambda) + gr*gr/(hr+lambda) - parentScore[id])
					if gain > best[id].gain {
						best[id] = split{feature: j, threshold: midpoint(last[id], v), gain: gain}
					}
				}
			}
			gl[id] += b.grad[i]
			hl[id] += b.hess[i]
			last[id] = v
			seen[id] = true
		}
	}
	return best
}

// midpoint returns a threshold t with lo < t <= hi.
func midpoint(lo, hi float64) float64 {
	t := lo + (hi-lo)/2
	if t <= lo {
		return hi
	}
	return t
}
