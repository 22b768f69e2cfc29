// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package evaluate computes the accuracy of predicted classes over the partitions of a split, the way
// the OGB evaluators for multi-class datasets do.
package evaluate

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/dataset"
	"github.com/gomlx/deepergcn/pkg/trainloop"
)

// Accuracy returns the fraction of the indices in idx where yPred matches yTrue.
//
// An empty idx has accuracy 0.
func Accuracy(yTrue, yPred []int32, idx []int32) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, errors.Errorf("evaluate: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(idx) == 0 {
		return 0, nil
	}
	var correct int
	for _, i := range idx {
		if i < 0 || int(i) >= len(yTrue) {
			return 0, errors.Errorf("evaluate: index %d out of range [0, %d)", i, len(yTrue))
		}
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(idx)), nil
}

// Partitions returns the accuracies over the train, valid and test partitions of the split.
func Partitions(yTrue, yPred []int32, split dataset.Split) (acc trainloop.Accuracies, err error) {
	for _, part := range []struct {
		name string
		idx  []int32
		acc  *float64
	}{
		{"train", split.Train, &acc.Train},
		{"valid", split.Valid, &acc.Valid},
		{"test", split.Test, &acc.Test},
	} {
		if len(part.idx) == 0 {
			klog.Warningf("evaluate: %s partition is empty, its accuracy is reported as 0", part.name)
		}
		*part.acc, err = Accuracy(yTrue, yPred, part.idx)
		if err != nil {
			return acc, errors.WithMessagef(err, "%s partition", part.name)
		}
	}
	return acc, nil
}
