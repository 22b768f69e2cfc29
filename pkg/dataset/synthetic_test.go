// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthetic(t *testing.T) {
	opts := DefaultSyntheticOptions()
	opts.EdgeFeatures = true
	g, err := Synthetic(opts)
	require.NoError(t, err)
	assert.Equal(t, opts.NumNodes, g.NumNodes())
	assert.Equal(t, opts.NumNodes*opts.AvgDegree, g.NumEdges())
	assert.Equal(t, 2, g.EdgeDim)
	assert.Len(t, g.Split.Train, 180)
	assert.Len(t, g.Split.Valid, 60)
	assert.Len(t, g.Split.Test, 60)

	var intra int
	for e := range g.Sources {
		if g.Labels[g.Sources[e]] == g.Labels[g.Targets[e]] {
			intra++
			assert.Equal(t, float32(1), g.EdgeFeatures[2*e])
		}
	}
	assert.Greater(t, float64(intra)/float64(g.NumEdges()), 0.8, "graph should be homophilous")

	again, err := Synthetic(opts)
	require.NoError(t, err)
	assert.Equal(t, g, again, "same options must generate the same graph")

	opts.Seed++
	other, err := Synthetic(opts)
	require.NoError(t, err)
	assert.NotEqual(t, g.Targets, other.Targets)
}

func TestSyntheticInvalidOptions(t *testing.T) {
	opts := DefaultSyntheticOptions()
	opts.NumClasses = 0
	_, err := Synthetic(opts)
	require.Error(t, err)

	opts = DefaultSyntheticOptions()
	opts.TrainFraction = 0.9
	_, err = Synthetic(opts)
	require.Error(t, err)
}
