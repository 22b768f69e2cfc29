// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/gomlx/deepergcn/pkg/aggregation"
)

// ToUndirected returns a copy of g where every edge `(u, v)` has its reverse `(v, u)`.
//
// The resulting edge list is coalesced: it is sorted by source and then target, and duplicate
// pairs are merged into one edge, whose features are the sum of the merged ones.
// So an edge already present in both directions is kept once per direction.
func ToUndirected(g *Graph) *Graph {
	numEdges := g.NumEdges()
	sources := make([]int32, 0, 2*numEdges)
	targets := make([]int32, 0, 2*numEdges)
	sources = append(append(sources, g.Sources...), g.Targets...)
	targets = append(append(targets, g.Targets...), g.Sources...)
	var features []float32
	if g.EdgeDim > 0 {
		features = make([]float32, 0, 2*len(g.EdgeFeatures))
		features = append(append(features, g.EdgeFeatures...), g.EdgeFeatures...)
	}
	return coalesce(g, sources, targets, features)
}

// coalesce returns a copy of g with the given edges sorted and deduplicated.
func coalesce(g *Graph, sources, targets []int32, features []float32) *Graph {
	order := make([]int, len(sources))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if sources[a] != sources[b] {
			return sources[a] < sources[b]
		}
		return targets[a] < targets[b]
	})

	dim := g.EdgeDim
	c := g.Clone()
	c.Sources = c.Sources[:0]
	c.Targets = c.Targets[:0]
	c.EdgeFeatures = c.EdgeFeatures[:0]
	for i, e := range order {
		if i > 0 {
			prev := order[i-1]
			if sources[e] == sources[prev] && targets[e] == targets[prev] {
				// Duplicate: merge features into the last edge kept.
				if dim > 0 {
					last := c.EdgeFeatures[len(c.EdgeFeatures)-dim:]
					for k := range dim {
						last[k] += features[e*dim+k]
					}
				}
				continue
			}
		}
		c.Sources = append(c.Sources, sources[e])
		c.Targets = append(c.Targets, targets[e])
		if dim > 0 {
			c.EdgeFeatures = append(c.EdgeFeatures, features[e*dim:(e+1)*dim]...)
		}
	}
	return c
}

// AddSelfLoops returns a copy of g with an edge `(i, i)` appended for every node i, even for nodes
// that already have one. The features of the new edges are zeros.
func AddSelfLoops(g *Graph) *Graph {
	c := g.Clone()
	for i := range g.Nodes {
		c.Sources = append(c.Sources, int32(i))
		c.Targets = append(c.Targets, int32(i))
	}
	if g.EdgeDim > 0 {
		c.EdgeFeatures = append(c.EdgeFeatures, make([]float32, g.Nodes*g.EdgeDim)...)
	}
	return c
}

// ExtractNodeFeatures sets the node features of g to the aggregation of the features of the
// edges arriving at each node, for datasets without node features (e.g.: ogbg-ppa).
//
// Only the families aggregation.FamilyAdd, aggregation.FamilyMean and aggregation.FamilyMax are
// supported. Nodes without incoming edges get zero features.
func ExtractNodeFeatures(g *Graph, family aggregation.Family) error {
	if g.EdgeDim == 0 {
		return errors.Errorf("dataset %q: cannot extract node features, graph has no edge features", g.Name)
	}
	dim := g.EdgeDim
	features := make([]float32, g.Nodes*dim)
	counts := make([]int, g.Nodes)
	switch family {
	case aggregation.FamilyAdd, aggregation.FamilyMean:
	case aggregation.FamilyMax:
		for i := range features {
			features[i] = float32(math.Inf(-1))
		}
	default:
		return errors.Errorf("dataset %q: node features can only be extracted with add, mean or max, got %s",
			g.Name, family)
	}
	for e, tgt := range g.Targets {
		counts[tgt]++
		row := features[int(tgt)*dim : int(tgt+1)*dim]
		edge := g.EdgeFeatures[e*dim : (e+1)*dim]
		for k := range dim {
			if family == aggregation.FamilyMax {
				row[k] = max(row[k], edge[k])
			} else {
				row[k] += edge[k]
			}
		}
	}
	for node, count := range counts {
		row := features[node*dim : (node+1)*dim]
		switch {
		case count == 0:
			clear(row)
		case family == aggregation.FamilyMean:
			for k := range row {
				row[k] /= float32(count)
			}
		}
	}
	g.Features = features
	g.FeatureDim = dim
	return nil
}

// ConstantNodeFeatures sets one constant feature (1) per node, for datasets without node features
// where they are not extracted from the edges.
func ConstantNodeFeatures(g *Graph) {
	g.Features = make([]float32, g.Nodes)
	for i := range g.Features {
		g.Features[i] = 1
	}
	g.FeatureDim = 1
}
