// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// SyntheticName is the dataset name used for synthetic graphs.
const SyntheticName = "synthetic"

// SyntheticOptions configures a planted-partition graph.
type SyntheticOptions struct {
	NumNodes, NumClasses, FeatureDim int

	// AvgDegree is the average number of (directed) edges leaving each node.
	AvgDegree int

	// Homophily is the probability that an edge connects two nodes of the same class.
	Homophily float64

	// Noise is the standard deviation of the gaussian noise added to the class centers to
	// generate the node features.
	Noise float64

	// EdgeFeatures adds 2 edge features: a one-hot encoding of whether the edge is intra-class.
	EdgeFeatures bool

	// TrainFraction and ValidFraction of the nodes, the remaining ones are used for test.
	TrainFraction, ValidFraction float64

	Seed uint64
}

// DefaultSyntheticOptions returns a small graph that a model can learn in a few dozen epochs.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		NumNodes:      300,
		NumClasses:    3,
		FeatureDim:    8,
		AvgDegree:     4,
		Homophily:     0.9,
		Noise:         1.0,
		TrainFraction: 0.6,
		ValidFraction: 0.2,
		Seed:          42,
	}
}

// Synthetic generates a node classification graph where node features are noisy class centers
// and edges mostly connect nodes of the same class. The same options always generate the same graph.
func Synthetic(opts SyntheticOptions) (*Graph, error) {
	if opts.NumNodes <= 0 || opts.NumClasses <= 0 || opts.FeatureDim <= 0 || opts.AvgDegree < 0 {
		return nil, errors.Errorf("invalid synthetic dataset options %+v", opts)
	}
	if opts.TrainFraction < 0 || opts.ValidFraction < 0 || opts.TrainFraction+opts.ValidFraction > 1 {
		return nil, errors.Errorf("invalid synthetic split fractions: train=%g, valid=%g",
			opts.TrainFraction, opts.ValidFraction)
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	g := &Graph{
		Name:       SyntheticName,
		Nodes:      opts.NumNodes,
		FeatureDim: opts.FeatureDim,
		NumClasses: opts.NumClasses,
		Labels:     make([]int32, opts.NumNodes),
		Features:   make([]float32, opts.NumNodes*opts.FeatureDim),
	}

	centers := make([]float32, opts.NumClasses*opts.FeatureDim)
	for i := range centers {
		centers[i] = float32(rng.NormFloat64()) * 2
	}
	byClass := make([][]int32, opts.NumClasses)
	for node := range opts.NumNodes {
		class := int32(node % opts.NumClasses)
		g.Labels[node] = class
		byClass[class] = append(byClass[class], int32(node))
		for k := range opts.FeatureDim {
			g.Features[node*opts.FeatureDim+k] = centers[int(class)*opts.FeatureDim+k] +
				float32(rng.NormFloat64()*opts.Noise)
		}
	}

	if opts.EdgeFeatures {
		g.EdgeDim = 2
	}
	for node := range opts.NumNodes {
		class := g.Labels[node]
		for range opts.AvgDegree {
			var other int32
			if rng.Float64() < opts.Homophily {
				peers := byClass[class]
				other = peers[rng.IntN(len(peers))]
			} else {
				other = int32(rng.IntN(opts.NumNodes))
			}
			g.Sources = append(g.Sources, int32(node))
			g.Targets = append(g.Targets, other)
			if opts.EdgeFeatures {
				if g.Labels[other] == class {
					g.EdgeFeatures = append(g.EdgeFeatures, 1, 0)
				} else {
					g.EdgeFeatures = append(g.EdgeFeatures, 0, 1)
				}
			}
		}
	}

	perm := rng.Perm(opts.NumNodes)
	numTrain := int(opts.TrainFraction * float64(opts.NumNodes))
	numValid := int(opts.ValidFraction * float64(opts.NumNodes))
	for i, node := range perm {
		switch {
		case i < numTrain:
			g.Split.Train = append(g.Split.Train, int32(node))
		case i < numTrain+numValid:
			g.Split.Valid = append(g.Split.Valid, int32(node))
		default:
			g.Split.Test = append(g.Split.Test, int32(node))
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
