// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// File names within the experiment directory.
const (
	ConfigFileName  = "config.yaml"
	LogFileName     = "log.txt"
	HistoryFileName = "history"
	PlotFileName    = "history.png"
)

// DirTimeLayout is the layout of the time in the experiment directory name.
const DirTimeLayout = "20060102-150405"

// Setup creates the experiment directory `<log_dir>/<name>-<YYYYmmdd-HHMMSS>-<uuid>`, and updates
// o.SaveDir and o.ModelSavePath (which becomes relative to the experiment directory).
//
// The resolved options are written to config.yaml in the new directory, and klog is directed to
// log.txt there, besides stderr.
func Setup(o *Options, now time.Time) error {
	dir := filepath.Join(o.LogDir, fmt.Sprintf("%s-%s-%s", Name(o), now.Format(DirTimeLayout), uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating experiment directory %q", dir)
	}
	o.SaveDir = dir
	o.ModelSavePath = filepath.Join(dir, o.ModelSavePath)
	if err := o.SaveYAML(filepath.Join(dir, ConfigFileName)); err != nil {
		return err
	}
	if err := logToFile(filepath.Join(dir, LogFileName)); err != nil {
		return err
	}
	klog.Infof("experiment directory: %s", dir)
	return nil
}

// logToFile directs klog to path, while still logging to stderr.
func logToFile(path string) error {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	for name, value := range map[string]string{
		"logtostderr":     "false",
		"alsologtostderr": "true",
		"one_output":      "true",
		"log_file":        path,
	} {
		if err := fs.Set(name, value); err != nil {
			return errors.Wrapf(err, "configuring klog -%s=%s", name, value)
		}
	}
	return nil
}

// HistoryPath is where the training history of the experiment is saved.
func (o *Options) HistoryPath() string {
	return filepath.Join(o.SaveDir, HistoryFileName)
}

// PlotPath is where the plot of the training history is saved.
func (o *Options) PlotPath() string {
	return filepath.Join(o.SaveDir, PlotFileName)
}
