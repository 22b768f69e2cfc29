// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package trainloop implements the epoch loop of a full-batch training: train, evaluate, checkpoint on
// validation improvement and record the history, for a fixed number of epochs.
//
// The loop only talks to its collaborators (Trainer, Evaluator, Checkpointer and HistoryWriter) through
// interfaces, so it doesn't depend on the model or on the engine.
package trainloop

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// State of the loop. The loop goes `Idle -> {TrainingEpoch -> EvaluatingEpoch -> CheckpointIfImproved ->
// AppendHistory} x N -> Done`.
type State int

const (
	StateIdle State = iota
	StateTrainingEpoch
	StateEvaluatingEpoch
	StateCheckpointIfImproved
	StateAppendHistory
	StateDone
)

//go:generate go tool enumer -type State -trimprefix=State -transform=snake -values -text -json -yaml -output=gen_state_enumer.go loop.go

// Accuracies of one evaluation, one per split.
type Accuracies struct {
	Train, Valid, Test float64
}

// Trainer runs one full training step (forward, loss, backward and optimizer update) and returns the loss.
type Trainer interface {
	TrainStep() (loss float64, err error)
}

// Evaluator computes the accuracies of the current model in inference mode.
type Evaluator interface {
	Evaluate() (Accuracies, error)
}

// Checkpointer saves the model and optimizer state. It is called on every improvement of the validation
// accuracy, with the epoch (1-based) and the loss rounded to 4 decimal places.
type Checkpointer interface {
	Save(epoch int, loss float64) error
}

// HistoryWriter persists the whole history. It is called at the end of every epoch.
type HistoryWriter interface {
	WriteHistory(h *History) error
}

// ErrNonFiniteLoss is returned (wrapped) when the training loss is NaN or infinite.
var ErrNonFiniteLoss = errors.New("non-finite training loss")

// Loop runs the epochs and holds their results.
//
// The public attributes are meant for reading only, typically from hooks.
type Loop struct {
	Trainer       Trainer
	Evaluator     Evaluator
	Checkpointer  Checkpointer
	HistoryWriter HistoryWriter

	// State currently being executed.
	State State

	// Epoch being executed, starting from 1. It is 0 before the first epoch.
	Epoch int

	// NumEpochs of the current run.
	NumEpochs int

	// Best results so far.
	Best BestResult

	// History of all epochs run so far.
	History *History

	// LastLoss and LastAccuracies are the results of the last epoch.
	LastLoss       float64
	LastAccuracies Accuracies

	// EpochDurations of the epochs run so far.
	EpochDurations []time.Duration

	// Err is the error that aborted the run, if any. It is set before the OnEnd hooks are called.
	Err error

	onStart    *priorityHooks[*hookWithName[OnStartFn]]
	onEpochEnd *priorityHooks[*hookWithName[OnEpochEndFn]]
	onEnd      *priorityHooks[*hookWithName[OnEndFn]]
}

// New creates a loop. The checkpointer and the history writer can be nil, in which case nothing is saved.
func New(trainer Trainer, evaluator Evaluator, checkpointer Checkpointer, historyWriter HistoryWriter) *Loop {
	return &Loop{
		Trainer:       trainer,
		Evaluator:     evaluator,
		Checkpointer:  checkpointer,
		HistoryWriter: historyWriter,
		History:       &History{},
		onStart:       newPriorityHooks[*hookWithName[OnStartFn]](),
		onEpochEnd:    newPriorityHooks[*hookWithName[OnEpochEndFn]](),
		onEnd:         newPriorityHooks[*hookWithName[OnEndFn]](),
	}
}

// RoundLoss rounds the loss to 4 decimal places, as it is stored in checkpoints.
func RoundLoss(loss float64) float64 {
	return math.Round(loss*1e4) / 1e4
}

// Run executes numEpochs epochs and returns the best results.
//
// Any error from a collaborator or a hook aborts the run, and it is returned annotated with the epoch.
// The OnEnd hooks are called also when the run is aborted, with loop.Err set, so they can release
// their resources. Errors of OnEnd hooks on an aborted run are only logged.
func (loop *Loop) Run(numEpochs int) (BestResult, error) {
	if loop.Trainer == nil || loop.Evaluator == nil {
		return loop.Best, errors.New("trainloop: Trainer and Evaluator must be set")
	}
	if numEpochs < 0 {
		return loop.Best, errors.Errorf("trainloop: number of epochs must be >= 0, got %d", numEpochs)
	}
	loop.NumEpochs = numEpochs
	loop.State = StateIdle
	loop.Err = nil
	for hook := range loop.onStart.All() {
		if err := hook.fn(loop); err != nil {
			return loop.Best, loop.abort(errors.WithMessagef(err, "OnStart(hook %q)", hook.name))
		}
	}
	for epoch := 1; epoch <= numEpochs; epoch++ {
		if err := loop.runEpoch(epoch); err != nil {
			return loop.Best, loop.abort(errors.WithMessagef(err, "epoch %d", epoch))
		}
	}
	loop.State = StateDone
	for hook := range loop.onEnd.All() {
		if err := hook.fn(loop, loop.Best); err != nil {
			return loop.Best, errors.WithMessagef(err, "OnEnd(hook %q)", hook.name)
		}
	}
	return loop.Best, nil
}

// abort records err and calls the OnEnd hooks. It returns err.
func (loop *Loop) abort(err error) error {
	loop.Err = err
	for hook := range loop.onEnd.All() {
		if hookErr := hook.fn(loop, loop.Best); hookErr != nil {
			klog.Warningf("trainloop: OnEnd(hook %q) failed on aborted run: %+v", hook.name, hookErr)
		}
	}
	return err
}

// runEpoch goes through the states of one epoch.
func (loop *Loop) runEpoch(epoch int) error {
	start := time.Now()
	loop.Epoch = epoch

	loop.State = StateTrainingEpoch
	loss, err := loop.Trainer.TrainStep()
	if err != nil {
		return errors.WithMessage(err, "training")
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return errors.Wrapf(ErrNonFiniteLoss, "loss=%g, training interrupted", loss)
	}
	loop.LastLoss = loss

	loop.State = StateEvaluatingEpoch
	acc, err := loop.Evaluator.Evaluate()
	if err != nil {
		return errors.WithMessage(err, "evaluating")
	}
	loop.LastAccuracies = acc

	loop.State = StateCheckpointIfImproved
	improved := loop.Best.Update(epoch, acc)
	if improved {
		klog.V(1).Infof("epoch %d: new best valid accuracy %.4f", epoch, acc.Valid)
		if loop.Checkpointer != nil {
			if err := loop.Checkpointer.Save(epoch, RoundLoss(loss)); err != nil {
				return errors.WithMessage(err, "saving checkpoint")
			}
		}
	}

	loop.State = StateAppendHistory
	loop.History.Append(acc, loss)
	if loop.HistoryWriter != nil {
		if err := loop.HistoryWriter.WriteHistory(loop.History); err != nil {
			return errors.WithMessage(err, "writing history")
		}
	}
	loop.EpochDurations = append(loop.EpochDurations, time.Since(start))

	for hook := range loop.onEpochEnd.All() {
		if err := hook.fn(loop, epoch, improved); err != nil {
			return errors.WithMessagef(err, "OnEpochEnd(hook %q)", hook.name)
		}
	}
	return nil
}
