// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package trainloop

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// BestResult tracks the best validation accuracy, and the train and test accuracies at that epoch.
//
// HighestTrain is tracked independently: it may come from a different epoch.
type BestResult struct {
	HighestTrain float64 `json:"highest_train"`
	HighestValid float64 `json:"highest_valid"`
	FinalTrain   float64 `json:"final_train"`
	FinalTest    float64 `json:"final_test"`

	// BestEpoch is the (1-based) epoch of HighestValid, or 0 if no epoch improved it yet.
	BestEpoch int `json:"best_epoch"`
}

// Update with the accuracies of the given epoch. It returns true if the validation accuracy strictly
// improved, in which case FinalTrain and FinalTest are taken from acc.
func (b *BestResult) Update(epoch int, acc Accuracies) (improved bool) {
	if acc.Train > b.HighestTrain {
		b.HighestTrain = acc.Train
	}
	if acc.Valid > b.HighestValid {
		b.HighestValid = acc.Valid
		b.FinalTrain = acc.Train
		b.FinalTest = acc.Test
		b.BestEpoch = epoch
		improved = true
	}
	return
}

// History of the per-epoch accuracies and losses, stored column-wise.
type History struct {
	TrainAcc []float64 `json:"train_acc"`
	ValidAcc []float64 `json:"valid_acc"`
	TestAcc  []float64 `json:"test_acc"`
	Losses   []float64 `json:"losses"`
}

// Append the results of one epoch.
func (h *History) Append(acc Accuracies, loss float64) {
	h.TrainAcc = append(h.TrainAcc, acc.Train)
	h.ValidAcc = append(h.ValidAcc, acc.Valid)
	h.TestAcc = append(h.TestAcc, acc.Test)
	h.Losses = append(h.Losses, loss)
}

// Len returns the number of epochs recorded.
func (h *History) Len() int { return len(h.ValidAcc) }

// At returns the results of the epoch at index i (0-based).
func (h *History) At(i int) (acc Accuracies, loss float64) {
	acc = Accuracies{Train: h.TrainAcc[i], Valid: h.ValidAcc[i], Test: h.TestAcc[i]}
	if i < len(h.Losses) {
		loss = h.Losses[i]
	}
	return
}

// Best replays the history and returns the BestResult it yields.
func (h *History) Best() BestResult {
	var best BestResult
	for i := range h.Len() {
		acc, _ := h.At(i)
		best.Update(i+1, acc)
	}
	return best
}

// Validate checks that all the columns have the same length. Losses may be missing.
func (h *History) Validate() error {
	n := len(h.ValidAcc)
	if len(h.TrainAcc) != n || len(h.TestAcc) != n || (len(h.Losses) != 0 && len(h.Losses) != n) {
		return errors.Errorf("history columns have different lengths: train_acc=%d, valid_acc=%d, test_acc=%d, losses=%d",
			len(h.TrainAcc), n, len(h.TestAcc), len(h.Losses))
	}
	return nil
}

// FileHistoryWriter writes the history as JSON to Path. It writes to a temporary file first and renames
// it onto Path, so the file always holds a complete history.
type FileHistoryWriter struct {
	Path string
}

// WriteHistory implements HistoryWriter.
func (w FileHistoryWriter) WriteHistory(h *History) error {
	data, err := json.Marshal(h)
	if err != nil {
		return errors.Wrap(err, "encoding history")
	}
	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for history %q", w.Path)
	}
	tmpPath := w.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing history to %q", tmpPath)
	}
	if err := os.Rename(tmpPath, w.Path); err != nil {
		return errors.Wrapf(err, "renaming history %q to %q", tmpPath, w.Path)
	}
	return nil
}

// LoadHistory reads a history written by FileHistoryWriter.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading history from %q", path)
	}
	h := &History{}
	if err := json.Unmarshal(data, h); err != nil {
		return nil, errors.Wrapf(err, "parsing history from %q", path)
	}
	if err := h.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "history in %q", path)
	}
	return h, nil
}
