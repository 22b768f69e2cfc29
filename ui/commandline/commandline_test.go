// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/deepergcn/pkg/trainloop"
)

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "00:01:05", FormatClock(65*time.Second+900*time.Millisecond))
	assert.Equal(t, "27:46:40", FormatClock(100_000*time.Second))
	assert.Equal(t, "00:00:00", FormatClock(-time.Second))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.23ms", FormatDuration(1234567*time.Nanosecond))
	assert.Equal(t, "2.50s", FormatDuration(2500*time.Millisecond))
	assert.Equal(t, "1m30s", FormatDuration(90*time.Second))
}

func TestMedianDuration(t *testing.T) {
	assert.Zero(t, MedianDuration(nil))
	durations := []time.Duration{3, 1, 2}
	assert.Equal(t, time.Duration(2), MedianDuration(durations))
	assert.Equal(t, []time.Duration{3, 1, 2}, durations, "input must not be sorted in place")
}

func TestReportResults(t *testing.T) {
	var out strings.Builder
	best := trainloop.BestResult{HighestTrain: 0.9, HighestValid: 0.71234, FinalTrain: 0.85, FinalTest: 0.7, BestEpoch: 12}
	require.NoError(t, ReportResults(&out, best, time.Hour+2*time.Minute+3*time.Second))
	for _, want := range []string{"Highest Valid", "71.23%", "Final Test", "70.00%", "12", "01:02:03"} {
		assert.Contains(t, out.String(), want)
	}

	out.Reset()
	require.NoError(t, ReportEval(&out, trainloop.Accuracies{Train: 1, Valid: 0.5, Test: 0.25}))
	assert.Contains(t, out.String(), "25.00%")
}

// fakeRunner is a trainloop.Trainer and trainloop.Evaluator with fixed results.
type fakeRunner struct{ epoch int }

func (f *fakeRunner) TrainStep() (float64, error) {
	f.epoch++
	return 1 / float64(f.epoch), nil
}

func (f *fakeRunner) Evaluate() (trainloop.Accuracies, error) {
	return trainloop.Accuracies{Train: 0.5, Valid: float64(f.epoch) / 10, Test: 0.4}, nil
}

func TestProgressBar(t *testing.T) {
	runner := &fakeRunner{}
	loop := trainloop.New(runner, runner, nil, nil)
	AttachProgressBar(loop, func() (string, string) { return "Extra", "value" })
	best, err := loop.Run(3)
	require.NoError(t, err)
	assert.Equal(t, 3, best.BestEpoch)
}

// failingRunner fails the training step of the given epoch.
type failingRunner struct {
	fakeRunner
	failAt int
}

func (f *failingRunner) TrainStep() (float64, error) {
	if f.epoch+1 == f.failAt {
		return 0, errors.New("device lost")
	}
	return f.fakeRunner.TrainStep()
}

func TestProgressBarClosedWhenAborted(t *testing.T) {
	runner := &failingRunner{failAt: 2}
	loop := trainloop.New(runner, runner, nil, nil)
	var extraCalls []int
	pBar := attachProgressBar(loop, func() (string, string) {
		// Called from the training goroutine, so it may read the loop.
		extraCalls = append(extraCalls, loop.Epoch)
		return "Epoch seen", fmt.Sprint(loop.Epoch)
	})
	_, err := loop.Run(3)
	require.ErrorContains(t, err, "device lost")
	assert.Nil(t, pBar.updates, "display must be closed and its goroutine finished")
	assert.Equal(t, []int{1}, extraCalls)
}
