// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/deepergcn/pkg/aggregation"
)

// tinyGraph has 3 nodes, 1 edge feature and one node without incoming edges.
func tinyGraph() *Graph {
	return &Graph{
		Name:         "tiny",
		Nodes:        3,
		Sources:      []int32{0, 1, 2, 0},
		Targets:      []int32{1, 2, 1, 1},
		EdgeFeatures: []float32{1, 10, 100, 1000},
		EdgeDim:      1,
		Labels:       []int32{0, 1, 0},
		NumClasses:   2,
		Split:        Split{Train: []int32{0}, Valid: []int32{1}, Test: []int32{2}},
	}
}

func TestToUndirected(t *testing.T) {
	g := tinyGraph()
	u := ToUndirected(g)
	require.NoError(t, u.Validate())
	assert.Equal(t, []int32{0, 1, 1, 2}, u.Sources)
	assert.Equal(t, []int32{1, 0, 2, 1}, u.Targets)
	// (0,1) appears twice in the input: features are summed, in both directions.
	// (1,2) and (2,1) are both in the input, so each direction merges its own edge with the reverse of the other.
	assert.Equal(t, []float32{1001, 1001, 110, 110}, u.EdgeFeatures)

	// Input is left untouched.
	assert.Equal(t, []int32{0, 1, 2, 0}, g.Sources)
	assert.Equal(t, 4, g.NumEdges())

	// Idempotent.
	assert.Equal(t, u.Sources, ToUndirected(u).Sources)
	assert.Equal(t, u.Targets, ToUndirected(u).Targets)
}

func TestToUndirectedWithoutEdgeFeatures(t *testing.T) {
	g := &Graph{Nodes: 3, Sources: []int32{2, 0}, Targets: []int32{0, 2}, Labels: []int32{0, 0, 0}, NumClasses: 1}
	u := ToUndirected(g)
	require.NoError(t, u.Validate())
	assert.Equal(t, []int32{0, 2}, u.Sources)
	assert.Equal(t, []int32{2, 0}, u.Targets)
	assert.Empty(t, u.EdgeFeatures)
}

func TestAddSelfLoops(t *testing.T) {
	g := &Graph{
		Nodes:        3,
		Sources:      []int32{0, 0},
		Targets:      []int32{0, 1},
		EdgeFeatures: []float32{1, 1, 2, 2},
		EdgeDim:      2,
		Labels:       []int32{0, 1, 1},
		NumClasses:   2,
	}
	s := AddSelfLoops(g)
	require.NoError(t, s.Validate())
	// Node 0 already had a self-loop: it gets a second one.
	assert.Equal(t, []int32{0, 0, 0, 1, 2}, s.Sources)
	assert.Equal(t, []int32{0, 1, 0, 1, 2}, s.Targets)
	assert.Equal(t, []float32{1, 1, 2, 2, 0, 0, 0, 0, 0, 0}, s.EdgeFeatures)
	assert.Equal(t, 2, g.NumEdges())
}

func TestExtractNodeFeatures(t *testing.T) {
	newGraph := func() *Graph {
		return &Graph{
			Nodes:        3,
			Sources:      []int32{0, 2, 1},
			Targets:      []int32{1, 1, 0},
			EdgeFeatures: []float32{1, 2, 3, 0, 5, 5},
			EdgeDim:      2,
			Labels:       []int32{0, 0, 0},
			NumClasses:   1,
		}
	}
	for _, tc := range []struct {
		family aggregation.Family
		want   []float32
	}{
		{aggregation.FamilyAdd, []float32{5, 5, 4, 2, 0, 0}},
		{aggregation.FamilyMean, []float32{5, 5, 2, 1, 0, 0}},
		{aggregation.FamilyMax, []float32{5, 5, 3, 2, 0, 0}},
	} {
		t.Run(tc.family.String(), func(t *testing.T) {
			g := newGraph()
			require.NoError(t, ExtractNodeFeatures(g, tc.family))
			assert.Equal(t, 2, g.FeatureDim)
			assert.Equal(t, tc.want, g.Features)
			require.NoError(t, g.Validate())
		})
	}

	require.Error(t, ExtractNodeFeatures(newGraph(), aggregation.FamilySoftmax))
	noEdgeFeatures := newGraph()
	noEdgeFeatures.EdgeFeatures, noEdgeFeatures.EdgeDim = nil, 0
	require.Error(t, ExtractNodeFeatures(noEdgeFeatures, aggregation.FamilyAdd))
}

func TestConstantNodeFeatures(t *testing.T) {
	g := tinyGraph()
	ConstantNodeFeatures(g)
	assert.Equal(t, 1, g.FeatureDim)
	assert.Equal(t, []float32{1, 1, 1}, g.Features)
	require.NoError(t, g.Validate())
}

func TestValidate(t *testing.T) {
	require.NoError(t, tinyGraph().Validate())

	g := tinyGraph()
	g.Targets[1] = 3
	assert.ErrorContains(t, g.Validate(), "out of range")

	g = tinyGraph()
	g.Sources = g.Sources[:3]
	assert.ErrorContains(t, g.Validate(), "edge sources")

	g = tinyGraph()
	g.Labels = append(g.Labels, 1)
	assert.ErrorContains(t, g.Validate(), "labels")

	g = tinyGraph()
	g.Split.Test = []int32{-1}
	assert.ErrorContains(t, g.Validate(), "test split")

	g = tinyGraph()
	g.EdgeFeatures = g.EdgeFeatures[:2]
	assert.ErrorContains(t, g.Validate(), "edge feature")

	g = tinyGraph()
	g.GraphIDs, g.NumGraphs = []int32{0, 0, 1}, 2
	g.Labels = []int32{0, 1}
	g.Split.Test = []int32{1}
	require.NoError(t, g.Validate())
	assert.True(t, g.IsGraphTask())
	assert.Equal(t, 2, g.NumExamples())
	g.GraphIDs[2] = 2
	assert.ErrorContains(t, g.Validate(), "graph id")
}
