// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dataset holds the in-memory graphs the models are trained on, the loaders of OGB raw
// directories, a synthetic generator and the transforms applied before training
// (symmetrization, self-loops, node features extracted from edge features).
//
// Everything here is plain Go data: the graphs are converted to tensors by the full-batch runner.
package dataset

import (
	"slices"

	"github.com/pkg/errors"
)

// Split of the indices used for training, validation and test. For node tasks they index nodes,
// for graph tasks they index graphs.
type Split struct {
	Train, Valid, Test []int32
}

// Graph is a directed graph (or a batch of graphs, for graph tasks) with features, labels and a split.
type Graph struct {
	// Name of the dataset, informative only.
	Name string

	// Nodes is the number of nodes.
	Nodes int

	// Features of the nodes, row-major `[Nodes, FeatureDim]`. It can be empty (FeatureDim == 0) for
	// datasets whose node features are derived from the edges, see ExtractNodeFeatures.
	Features   []float32
	FeatureDim int

	// Sources and Targets of the directed edges. Duplicates are allowed.
	Sources, Targets []int32

	// EdgeFeatures row-major `[NumEdges(), EdgeDim]`. Optional.
	EdgeFeatures []float32
	EdgeDim      int

	// GraphIDs of each node, and the number of graphs. Only set for graph tasks.
	GraphIDs  []int32
	NumGraphs int

	// Labels, one per node for node tasks, one per graph for graph tasks.
	Labels     []int32
	NumClasses int

	Split Split
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return g.Nodes }

// NumEdges returns the number of (directed) edges, including duplicates and self-loops.
func (g *Graph) NumEdges() int { return len(g.Sources) }

// IsGraphTask returns whether the labels are per graph (as opposed to per node).
func (g *Graph) IsGraphTask() bool { return g.GraphIDs != nil }

// NumExamples returns the number of labeled items: graphs for graph tasks, nodes otherwise.
func (g *Graph) NumExamples() int {
	if g.IsGraphTask() {
		return g.NumGraphs
	}
	return g.Nodes
}

// Validate checks the consistency of all the dimensions, and that every edge endpoint, graph id,
// label and split index is in range.
func (g *Graph) Validate() error {
	if g.Nodes <= 0 {
		return errors.Errorf("dataset %q: graph has no nodes", g.Name)
	}
	if g.FeatureDim < 0 || len(g.Features) != g.Nodes*g.FeatureDim {
		return errors.Errorf("dataset %q: %d node feature values, expected %d nodes x %d features",
			g.Name, len(g.Features), g.Nodes, g.FeatureDim)
	}
	if len(g.Sources) != len(g.Targets) {
		return errors.Errorf("dataset %q: %d edge sources but %d edge targets", g.Name, len(g.Sources), len(g.Targets))
	}
	for e := range g.Sources {
		src, tgt := g.Sources[e], g.Targets[e]
		if src < 0 || int(src) >= g.Nodes || tgt < 0 || int(tgt) >= g.Nodes {
			return errors.Errorf("dataset %q: edge #%d (%d -> %d) has an endpoint out of range [0, %d)",
				g.Name, e, src, tgt, g.Nodes)
		}
	}
	if g.EdgeDim < 0 || len(g.EdgeFeatures) != g.NumEdges()*g.EdgeDim {
		return errors.Errorf("dataset %q: %d edge feature values, expected %d edges x %d features",
			g.Name, len(g.EdgeFeatures), g.NumEdges(), g.EdgeDim)
	}
	if g.IsGraphTask() {
		if len(g.GraphIDs) != g.Nodes {
			return errors.Errorf("dataset %q: %d graph ids for %d nodes", g.Name, len(g.GraphIDs), g.Nodes)
		}
		for node, id := range g.GraphIDs {
			if id < 0 || int(id) >= g.NumGraphs {
				return errors.Errorf("dataset %q: node %d has graph id %d out of range [0, %d)",
					g.Name, node, id, g.NumGraphs)
			}
		}
	}
	numExamples := g.NumExamples()
	if len(g.Labels) != numExamples {
		return errors.Errorf("dataset %q: %d labels for %d examples", g.Name, len(g.Labels), numExamples)
	}
	if g.NumClasses <= 0 {
		return errors.Errorf("dataset %q: invalid number of classes %d", g.Name, g.NumClasses)
	}
	for i, label := range g.Labels {
		if label < 0 || int(label) >= g.NumClasses {
			return errors.Errorf("dataset %q: label #%d is %d, out of range [0, %d)", g.Name, i, label, g.NumClasses)
		}
	}
	for _, part := range []struct {
		name string
		idx  []int32
	}{{"train", g.Split.Train}, {"valid", g.Split.Valid}, {"test", g.Split.Test}} {
		for _, idx := range part.idx {
			if idx < 0 || int(idx) >= numExamples {
				return errors.Errorf("dataset %q: %s split index %d out of range [0, %d)",
					g.Name, part.name, idx, numExamples)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := *g
	c.Features = slices.Clone(g.Features)
	c.Sources = slices.Clone(g.Sources)
	c.Targets = slices.Clone(g.Targets)
	c.EdgeFeatures = slices.Clone(g.EdgeFeatures)
	c.GraphIDs = slices.Clone(g.GraphIDs)
	c.Labels = slices.Clone(g.Labels)
	c.Split = Split{Train: slices.Clone(g.Split.Train), Valid: slices.Clone(g.Split.Valid), Test: slices.Clone(g.Split.Test)}
	return &c
}
