// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package trainloop

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted plays back a fixed sequence of losses and accuracies.
type scripted struct {
	losses     []float64
	accuracies []Accuracies
	step, eval int
}

func (s *scripted) TrainStep() (float64, error) {
	loss := s.losses[s.step]
	s.step++
	return loss, nil
}

func (s *scripted) Evaluate() (Accuracies, error) {
	acc := s.accuracies[s.eval]
	s.eval++
	return acc, nil
}

type saveCall struct {
	epoch int
	loss  float64
}

type recordingCheckpointer struct {
	calls []saveCall
	err   error
}

func (c *recordingCheckpointer) Save(epoch int, loss float64) error {
	c.calls = append(c.calls, saveCall{epoch, loss})
	return c.err
}

type recordingHistoryWriter struct {
	lengths []int
}

func (w *recordingHistoryWriter) WriteHistory(h *History) error {
	w.lengths = append(w.lengths, h.Len())
	return nil
}

func validOnly(valids ...float64) []Accuracies {
	accs := make([]Accuracies, len(valids))
	for i, v := range valids {
		accs[i] = Accuracies{Train: 0.1 * float64(i), Valid: v, Test: v / 2}
	}
	return accs
}

func TestCheckpointOnStrictImprovement(t *testing.T) {
	s := &scripted{
		losses:     []float64{1.234567, 1.1, 1.0, 0.9, 0.812345},
		accuracies: validOnly(0.5, 0.6, 0.6, 0.55, 0.7),
	}
	ckpt := &recordingCheckpointer{}
	hw := &recordingHistoryWriter{}
	loop := New(s, s, ckpt, hw)
	best, err := loop.Run(5)
	require.NoError(t, err)

	// Ties (epoch 3) and regressions (epoch 4) never trigger a checkpoint.
	assert.Equal(t, []saveCall{{1, 1.2346}, {2, 1.1}, {5, 0.8123}}, ckpt.calls)
	assert.Equal(t, 0.7, best.HighestValid)
	assert.Equal(t, 5, best.BestEpoch)
	assert.Equal(t, StateDone, loop.State)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, hw.lengths, "history must be written every epoch")
}

func TestCheckpointTriggers(t *testing.T) {
	// Epoch 1 improves on the initial 0, then only epoch 5 beats 0.6.
	s := &scripted{
		losses:     []float64{1, 1, 1, 1, 1},
		accuracies: validOnly(0.6, 0.6, 0.6, 0.55, 0.7),
	}
	ckpt := &recordingCheckpointer{}
	_, err := New(s, s, ckpt, nil).Run(5)
	require.NoError(t, err)
	require.Len(t, ckpt.calls, 2)
	assert.Equal(t, 1, ckpt.calls[0].epoch)
	assert.Equal(t, 5, ckpt.calls[1].epoch)
}

func TestFinalAccuraciesFromBestValidEpoch(t *testing.T) {
	s := &scripted{
		losses: []float64{1, 0.9, 0.8, 0.7},
		accuracies: []Accuracies{
			{Train: 0.5, Valid: 0.4, Test: 0.3},
			{Train: 0.6, Valid: 0.7, Test: 0.65},
			{Train: 0.99, Valid: 0.6, Test: 0.9}, // Highest train, but not the best valid.
			{Train: 0.7, Valid: 0.7, Test: 0.1},  // Tie on valid: ignored.
		},
	}
	best, err := New(s, s, nil, nil).Run(4)
	require.NoError(t, err)
	assert.Equal(t, BestResult{HighestTrain: 0.99, HighestValid: 0.7, FinalTrain: 0.6, FinalTest: 0.65, BestEpoch: 2}, best)
}

func TestZeroValidNeverTriggers(t *testing.T) {
	s := &scripted{losses: []float64{1, 1}, accuracies: validOnly(0, 0)}
	ckpt := &recordingCheckpointer{}
	best, err := New(s, s, ckpt, nil).Run(2)
	require.NoError(t, err)
	assert.Empty(t, ckpt.calls)
	assert.Zero(t, best.BestEpoch)
}

func TestHistoryPersisted(t *testing.T) {
	s := &scripted{
		losses:     []float64{3, 2, 1},
		accuracies: validOnly(0.2, 0.3, 0.1),
	}
	path := filepath.Join(t.TempDir(), "exp", "history")
	loop := New(s, s, nil, FileHistoryWriter{Path: path})
	_, err := loop.Run(3)
	require.NoError(t, err)

	h, err := LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.3, 0.1}, h.ValidAcc)
	assert.Equal(t, []float64{0, 0.1, 0.2}, h.TrainAcc)
	assert.Equal(t, []float64{0.1, 0.15, 0.05}, h.TestAcc)
	assert.Equal(t, []float64{3, 2, 1}, h.Losses)
	assert.Equal(t, loop.Best, h.Best())
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary history file should have been renamed")
}

func TestNonFiniteLoss(t *testing.T) {
	for _, badLoss := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s := &scripted{
			losses:     []float64{1, badLoss, 1},
			accuracies: validOnly(0.1, 0.2, 0.3),
		}
		hw := &recordingHistoryWriter{}
		loop := New(s, s, nil, hw)
		_, err := loop.Run(3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNonFiniteLoss), "got %v", err)
		assert.Contains(t, err.Error(), "epoch 2")
		assert.Equal(t, []int{1}, hw.lengths)
		assert.Equal(t, StateTrainingEpoch, loop.State)
	}
}

func TestCheckpointErrorAborts(t *testing.T) {
	s := &scripted{losses: []float64{1, 1}, accuracies: validOnly(0.1, 0.2)}
	ckpt := &recordingCheckpointer{err: errors.New("disk full")}
	_, err := New(s, s, ckpt, nil).Run(2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epoch 1")
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, ckpt.calls, 1)
}

func TestOnEndCalledWhenAborted(t *testing.T) {
	s := &scripted{losses: []float64{1, math.NaN()}, accuracies: validOnly(0.3, 0.4)}
	loop := New(s, s, nil, nil)
	var endCalls int
	var endErr error
	loop.OnEnd("cleanup", 0, func(l *Loop, best BestResult) error {
		endCalls++
		endErr = l.Err
		assert.Equal(t, 1, best.BestEpoch)
		return errors.New("ignored on aborted runs")
	})
	_, err := loop.Run(2)
	require.Error(t, err)
	assert.Equal(t, 1, endCalls)
	assert.Equal(t, err, endErr)
	assert.True(t, errors.Is(endErr, ErrNonFiniteLoss))

	// A failing OnStart hook also triggers the OnEnd hooks.
	s = &scripted{losses: []float64{1}, accuracies: validOnly(0.1)}
	loop = New(s, s, nil, nil)
	endCalls = 0
	loop.OnStart("failing", 0, func(*Loop) error { return errors.New("no terminal") })
	loop.OnEnd("cleanup", 0, func(*Loop, BestResult) error {
		endCalls++
		return nil
	})
	_, err = loop.Run(1)
	assert.ErrorContains(t, err, `OnStart(hook "failing")`)
	assert.Equal(t, 1, endCalls)
	assert.Zero(t, s.step, "no epoch must run")

	// Successful runs leave Err unset.
	s = &scripted{losses: []float64{1}, accuracies: validOnly(0.1)}
	loop = New(s, s, nil, nil)
	_, err = loop.Run(1)
	require.NoError(t, err)
	assert.NoError(t, loop.Err)
}

func TestHooksPriority(t *testing.T) {
	s := &scripted{losses: []float64{1, 1}, accuracies: validOnly(0.1, 0.05)}
	loop := New(s, s, nil, nil)
	var calls []string
	loop.OnEpochEnd("second", 10, func(_ *Loop, epoch int, improved bool) error {
		calls = append(calls, "second")
		return nil
	})
	loop.OnEpochEnd("first", -1, func(l *Loop, epoch int, improved bool) error {
		calls = append(calls, "first")
		assert.Equal(t, epoch == 1, improved)
		assert.Equal(t, epoch, l.History.Len())
		return nil
	})
	loop.OnStart("start", 0, func(l *Loop) error {
		calls = append(calls, "start")
		assert.Equal(t, 2, l.NumEpochs)
		return nil
	})
	loop.OnEnd("end", 0, func(_ *Loop, best BestResult) error {
		calls = append(calls, "end")
		assert.Equal(t, 1, best.BestEpoch)
		return nil
	})
	_, err := loop.Run(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "first", "second", "first", "second", "end"}, calls)
	assert.Len(t, loop.EpochDurations, 2)

	s = &scripted{losses: []float64{1}, accuracies: validOnly(0.1)}
	loop = New(s, s, nil, nil)
	loop.OnEpochEnd("failing", 0, func(*Loop, int, bool) error { return errors.New("boom") })
	_, err = loop.Run(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `OnEpochEnd(hook "failing")`)
}

func TestRoundLoss(t *testing.T) {
	assert.Equal(t, 0.1235, RoundLoss(0.123456))
	assert.Equal(t, 2.0, RoundLoss(1.99999))
	assert.Equal(t, -0.5, RoundLoss(-0.50001))
}
