// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package checkpoint saves the model and optimizer state when the validation accuracy improves.
//
// Each checkpoint location `<BaseDir>/<subdir>/<suffix>` holds exactly one GoMLX checkpoint: every new save
// overwrites the previous one. Along with all the variables it stores the epoch and the loss (rounded to
// 4 decimal places) as context parameters.
package checkpoint

import (
	"os"
	"path/filepath"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/trainloop"
)

const (
	// ParamEpoch is the context parameter (an int) with the epoch of the checkpoint.
	ParamEpoch = "checkpoint_epoch"

	// ParamLoss is the context parameter (a float64) with the loss of the checkpoint, rounded to 4 decimal places.
	ParamLoss = "checkpoint_loss"

	// DefaultSuffix is the name of the checkpoint of the best validation accuracy.
	DefaultSuffix = "valid_best"
)

// SubdirForSelfLoop returns the sub-directory used for models trained with or without self-loops.
func SubdirForSelfLoop(selfLoop bool) string {
	if selfLoop {
		return "SL_True"
	}
	return "SL_False"
}

// Manager of the checkpoints under BaseDir.
type Manager struct {
	BaseDir string

	handlers map[string]*boundHandler
}

type boundHandler struct {
	ctx     *context.Context
	handler *checkpoints.Handler
}

// NewManager returns a Manager saving checkpoints under baseDir.
func NewManager(baseDir string) *Manager {
	return &Manager{BaseDir: baseDir}
}

// Path returns the directory of the checkpoint for subdir and suffix.
func (m *Manager) Path(subdir, suffix string) string {
	return filepath.Join(m.BaseDir, subdir, suffix)
}

// Save all variables and parameters of ctx to the checkpoint at Path(subdir, suffix), replacing what was
// there before.
//
// The first save to a path, for a given ctx, removes stale content left by a previous run.
func (m *Manager) Save(ctx *context.Context, loss float64, epoch int, subdir, suffix string) error {
	path := m.Path(subdir, suffix)
	bound, found := m.handlers[path]
	if !found || bound.ctx != ctx {
		if err := os.RemoveAll(path); err != nil {
			return errors.Wrapf(err, "removing stale checkpoint in %q", path)
		}
		handler, err := checkpoints.Build(ctx).Dir(path).Keep(1).Done()
		if err != nil {
			return errors.WithMessagef(err, "creating checkpoint handler for %q", path)
		}
		bound = &boundHandler{ctx: ctx, handler: handler}
		if m.handlers == nil {
			m.handlers = make(map[string]*boundHandler)
		}
		m.handlers[path] = bound
	}

	rootCtx := ctx.InAbsPath(context.RootScope)
	rootCtx.SetParam(ParamEpoch, epoch)
	rootCtx.SetParam(ParamLoss, trainloop.RoundLoss(loss))
	if err := bound.handler.Save(); err != nil {
		return errors.WithMessagef(err, "saving checkpoint to %q", path)
	}
	klog.V(1).Infof("saved checkpoint of epoch %d (loss %.4f) to %q", epoch, trainloop.RoundLoss(loss), path)
	return nil
}

// Bind returns a trainloop.Checkpointer that saves ctx to Path(subdir, suffix).
func (m *Manager) Bind(ctx *context.Context, subdir, suffix string) trainloop.Checkpointer {
	return &checkpointer{manager: m, ctx: ctx, subdir: subdir, suffix: suffix}
}

type checkpointer struct {
	manager        *Manager
	ctx            *context.Context
	subdir, suffix string
}

// Save implements trainloop.Checkpointer.
func (c *checkpointer) Save(epoch int, loss float64) error {
	return c.manager.Save(c.ctx, loss, epoch, c.subdir, c.suffix)
}

// Load the checkpoint in dir into ctx: the variables are set immediately, and the parameters are
// merged into ctx. It returns the epoch and the loss recorded in the checkpoint.
func Load(ctx *context.Context, dir string) (epoch int, loss float64, err error) {
	_, err = checkpoints.Load(ctx).Dir(dir).Immediate().Done()
	if err != nil {
		return 0, 0, errors.WithMessagef(err, "loading checkpoint from %q", dir)
	}
	err = exceptions.TryCatch[error](func() {
		rootCtx := ctx.InAbsPath(context.RootScope)
		epoch = context.GetParamOr(rootCtx, ParamEpoch, 0)
		loss = context.GetParamOr(rootCtx, ParamLoss, 0.0)
	})
	if err != nil {
		return 0, 0, errors.WithMessagef(err, "reading checkpoint metadata from %q", dir)
	}
	return
}

// Info reads the epoch and loss of the checkpoint in dir, without keeping its variables.
func Info(dir string) (epoch int, loss float64, err error) {
	return Load(context.New(), dir)
}
