// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/deepergcn/pkg/dataset"
	"github.com/gomlx/deepergcn/pkg/trainloop"
)

func TestAccuracy(t *testing.T) {
	yTrue := []int32{0, 1, 2, 1, 0}
	yPred := []int32{0, 2, 2, 1, 1}

	acc, err := Accuracy(yTrue, yPred, []int32{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	// Repeated indices count as many times as they appear.
	acc, err = Accuracy(yTrue, yPred, []int32{0, 0, 4})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, acc, 1e-12)

	acc, err = Accuracy(yTrue, yPred, nil)
	require.NoError(t, err)
	assert.Zero(t, acc)

	_, err = Accuracy(yTrue, yPred, []int32{5})
	assert.ErrorContains(t, err, "out of range")
	_, err = Accuracy(yTrue, yPred[:3], []int32{0})
	assert.Error(t, err)
}

func TestPartitions(t *testing.T) {
	yTrue := []int32{0, 1, 2, 1, 0, 2}
	yPred := []int32{0, 1, 0, 1, 0, 0}
	acc, err := Partitions(yTrue, yPred, dataset.Split{
		Train: []int32{0, 1},
		Valid: []int32{2, 3},
		Test:  []int32{4, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, trainloop.Accuracies{Train: 1, Valid: 0.5, Test: 0.5}, acc)

	_, err = Partitions(yTrue, yPred, dataset.Split{Valid: []int32{7}})
	assert.ErrorContains(t, err, "valid partition")
}
