// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles writes gzipped files (paths relative to dir) with the given contents.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	for name, contents := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		f, err := os.Create(path)
		require.NoError(t, err)
		gz := gzip.NewWriter(f)
		_, err = gz.Write([]byte(contents))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, f.Close())
	}
}

func TestLoadOGBNodeDataset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ogbn_tiny")
	writeFiles(t, dir, map[string]string{
		"raw/edge.csv.gz":         "0,1\n1,2\n2,3\n",
		"raw/node-feat.csv.gz":    "0.5,1\n1.5,2\n2.5,3\n3.5,4\n",
		"raw/node-label.csv.gz":   "0\n1\n0\n2\n",
		"split/time/train.csv.gz": "0\n1\n",
		"split/time/valid.csv.gz": "2\n",
		"split/time/test.csv.gz":  "3\n",
	})
	g, err := LoadOGBNodeDataset(dir)
	require.NoError(t, err)
	assert.Equal(t, "ogbn_tiny", g.Name)
	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, []int32{0, 1, 2}, g.Sources)
	assert.Equal(t, []int32{1, 2, 3}, g.Targets)
	assert.Equal(t, 2, g.FeatureDim)
	assert.Equal(t, []float32{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4}, g.Features)
	assert.Equal(t, []int32{0, 1, 0, 2}, g.Labels)
	assert.Equal(t, 3, g.NumClasses)
	assert.Equal(t, Split{Train: []int32{0, 1}, Valid: []int32{2}, Test: []int32{3}}, g.Split)
	assert.False(t, g.IsGraphTask())

	// An edge pointing to a missing node fails validation.
	writeFiles(t, dir, map[string]string{"raw/edge.csv.gz": "0,1\n1,7\n"})
	_, err = LoadOGBNodeDataset(dir)
	require.Error(t, err)
}

func TestLoadOGBGraphDataset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ogbg_tiny")
	writeFiles(t, dir, map[string]string{
		"raw/num-node-list.csv.gz":   "2\n3\n",
		"raw/num-edge-list.csv.gz":   "1\n2\n",
		"raw/edge.csv.gz":            "0,1\n0,2\n1,2\n",
		"raw/edge-feat.csv.gz":       "0.1,1\n0.2,2\n0.3,3\n",
		"raw/graph-label.csv.gz":     "0\n1\n",
		"split/species/train.csv.gz": "0\n",
		"split/species/valid.csv.gz": "1\n",
		"split/species/test.csv.gz":  "1\n",
	})
	g, err := LoadOGBGraphDataset(dir)
	require.NoError(t, err)
	assert.True(t, g.IsGraphTask())
	assert.Equal(t, 5, g.NumNodes())
	assert.Equal(t, 2, g.NumGraphs)
	assert.Equal(t, []int32{0, 0, 1, 1, 1}, g.GraphIDs)
	// Edges of the second graph are shifted by the 2 nodes of the first one.
	assert.Equal(t, []int32{0, 2, 3}, g.Sources)
	assert.Equal(t, []int32{1, 4, 4}, g.Targets)
	assert.Equal(t, 2, g.EdgeDim)
	assert.InDeltaSlice(t, []float32{0.1, 1, 0.2, 2, 0.3, 3}, g.EdgeFeatures, 1e-6)
	assert.Zero(t, g.FeatureDim)
	assert.Equal(t, []int32{0, 1}, g.Labels)
	assert.Equal(t, 2, g.NumClasses)

	// Inconsistent edge counts.
	writeFiles(t, dir, map[string]string{"raw/num-edge-list.csv.gz": "1\n1\n"})
	_, err = LoadOGBGraphDataset(dir)
	assert.ErrorContains(t, err, "edge counts")
}

func TestLoadOGBMissingDir(t *testing.T) {
	_, err := LoadOGBNodeDataset(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
