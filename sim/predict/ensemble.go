package predict

import "fmt"

// Leaf marks a missing child in a tree node.
const Leaf = -1

// Node is one node of a regression tree in array form. Internal nodes send
// x[Feature] <= Threshold to Left and everything else to Right; leaves have
// Left == Right == Leaf and predict Value.
type Node struct {
	Feature   int     `yaml:"feature" json:"feature"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Left      int     `yaml:"left" json:"left"`
	Right     int     `yaml:"right" json:"right"`
	Value     float64 `yaml:"value" json:"value"`
}

func (n Node) isLeaf() bool {
	return n.Left == Leaf && n.Right == Leaf
}

// Tree is a regression tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `yaml:"nodes" json:"nodes"`
}

func (t Tree) eval(x [NumFeatures]float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.isLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks that every internal node points at two later nodes, which
// rules out cycles and guarantees eval terminates.
func (t Tree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.isLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= NumFeatures {
			return fmt.Errorf("node %d: feature %d out of range", i, n.Feature)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d: child %d must follow it and be < %d", i, child, len(t.Nodes))
			}
		}
	}
	return nil
}

// Ensemble is a gradient-boosted regression tree model:
// Init + LearningRate * sum(tree(x)).
type Ensemble struct {
	Init         float64
	LearningRate float64
	Trees        []Tree
}

// Validate reports structural problems wrapped in ErrInvalidModel.
func (e *Ensemble) Validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("%w: ensemble has no trees", ErrInvalidModel)
	}
	if e.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be positive, got %v", ErrInvalidModel, e.LearningRate)
	}
	for i, t := range e.Trees {
		if err := t.validate(); err != nil {
			return fmt.Errorf("%w: tree %d: %v", ErrInvalidModel, i, err)
		}
	}
	return nil
}

// Predict implements sim.Predictor.
func (e *Ensemble) Predict(inventory, backlog int, demandTrend float64) float64 {
	x := features(inventory, backlog, demandTrend)
	sum := 0.0
	for _, t := range e.Trees {
		sum += t.eval(x)
	}
	return e.Init + e.LearningRate*sum
}
