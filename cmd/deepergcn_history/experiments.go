// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/checkpoint"
	"github.com/gomlx/deepergcn/pkg/experiment"
	"github.com/gomlx/deepergcn/pkg/trainloop"
)

// Experiment holds what was saved in one experiment directory.
type Experiment struct {
	Dir     string
	Name    string
	Options *experiment.Options
	History *trainloop.History

	// CheckpointDir of the best validation accuracy. Ctx is nil if it couldn't be loaded.
	CheckpointDir   string
	CheckpointEpoch int
	CheckpointLoss  float64
	Ctx             *context.Context
}

// LoadExperiment from its directory, or from the path to its history file. The history is required, the
// configuration and the checkpoint are optional (a warning is logged if they are missing).
func LoadExperiment(path string, loadVariables bool) (*Experiment, error) {
	dir, historyPath := path, filepath.Join(path, experiment.HistoryFileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir, historyPath = filepath.Dir(path), path
	}
	e := &Experiment{Dir: dir, Name: filepath.Base(dir), Options: experiment.DefaultOptions()}
	var err error
	e.History, err = trainloop.LoadHistory(historyPath)
	if err != nil {
		return nil, errors.WithMessagef(err, "experiment %q", dir)
	}
	if err = e.Options.LoadYAML(filepath.Join(dir, experiment.ConfigFileName)); err != nil {
		klog.Warningf("using default options for %q: %v", dir, err)
	}

	// The checkpoints are looked for within dir, in case the experiment was moved.
	e.CheckpointDir = filepath.Join(dir, filepath.Base(e.Options.ModelSavePath),
		checkpoint.SubdirForSelfLoop(e.Options.SelfLoop), checkpoint.DefaultSuffix)
	if loadVariables {
		ctx := context.New()
		e.CheckpointEpoch, e.CheckpointLoss, err = checkpoint.Load(ctx, e.CheckpointDir)
		if err == nil {
			e.Ctx = ctx
		}
	} else {
		e.CheckpointEpoch, e.CheckpointLoss, err = checkpoint.Info(e.CheckpointDir)
	}
	if err != nil {
		klog.Warningf("no checkpoint for %q: %v", dir, err)
	}
	return e, nil
}

// optionsDiff returns the options (by their YAML keys) that differ among the experiments, and their
// values per experiment. The experiment directory options are ignored.
func optionsDiff(experiments []*Experiment) (keys []string, values map[string][]string, err error) {
	ignore := map[string]bool{"save_dir": true, "model_save_path": true}
	values = make(map[string][]string)
	for ii, e := range experiments {
		data, err := yaml.Marshal(e.Options)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "encoding options of %q", e.Dir)
		}
		var asMap map[string]any
		if err = yaml.Unmarshal(data, &asMap); err != nil {
			return nil, nil, errors.Wrapf(err, "decoding options of %q", e.Dir)
		}
		for key, value := range asMap {
			if ignore[key] {
				continue
			}
			if _, found := values[key]; !found {
				values[key] = make([]string, len(experiments))
			}
			values[key][ii] = yamlScalar(value)
		}
	}
	for key, v := range values {
		if !isAllEqual(v) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, values, nil
}

func yamlScalar(value any) string {
	data, err := yaml.Marshal(value)
	if err != nil {
		return "?"
	}
	return string(data[:len(data)-1]) // Drop the trailing newline.
}
