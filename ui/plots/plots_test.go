// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package plots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"

	"github.com/gomlx/deepergcn/pkg/trainloop"
)

func testHistory() *trainloop.History {
	h := &trainloop.History{}
	h.Append(trainloop.Accuracies{Train: 0.5, Valid: 0.4, Test: 0.3}, 1.5)
	h.Append(trainloop.Accuracies{Train: 0.7, Valid: 0.6, Test: 0.5}, 1.0)
	h.Append(trainloop.Accuracies{Train: 0.8, Valid: 0.55, Test: 0.6}, 0.7)
	return h
}

func TestFromHistory(t *testing.T) {
	points := NewPoints(FromHistory(testHistory(), ""))
	assert.Equal(t, []float64{1, 2, 3}, points.Steps())
	assert.Equal(t, []string{"Train", "Valid", "Test", "Loss"}, points.MetricsNames())
	assert.Equal(t, plotter.XYs{{X: 1, Y: 0.4}, {X: 2, Y: 0.6}, {X: 3, Y: 0.55}}, points.Series("Valid"))
	assert.Equal(t, MetricTypeLoss, points.metricType("Loss"))

	prefixed := NewPoints(FromHistory(testHistory(), "exp1"))
	assert.Equal(t, []string{"exp1 Train", "exp1 Valid", "exp1 Test", "exp1 Loss"}, prefixed.MetricsNames())
}

func TestTableForMetrics(t *testing.T) {
	table := NewPoints(FromHistory(testHistory(), "")).TableForMetrics("Valid", "Loss")
	assert.Contains(t, table, "Epoch")
	assert.Contains(t, table, "0.5500")
	assert.Contains(t, table, "0.7000")
	assert.NotContains(t, table, "Train")
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.png")
	points := NewPoints(FromHistory(testHistory(), ""))
	require.NoError(t, points.SavePNG(path, "test"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))

	assert.Error(t, NewPoints(nil).SavePNG(path, "empty"))
}
