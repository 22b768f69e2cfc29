// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// deepergcn trains and evaluates DeeperGCN models on OGB datasets (or on a synthetic graph), with full-batch
// training.
//
// All the options can be given as flags or in a YAML file with -config. Training creates an experiment
// directory under -log_dir, with the resolved config.yaml, the log.txt, the history, its plot and the
// checkpoint of the best validation accuracy.
//
// Examples:
//
//	deepergcn -dataset=ogbn-arxiv -data_dir=~/data/ogb -block=res+ -num_layers=7 -gcn_aggr=softmax_sg -t=0.1
//	deepergcn -dataset=ogbn-arxiv -data_dir=~/data/ogb -mode=eval -model_load_path=log/.../model_ckpt/SL_False/valid_best
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/checkpoint"
	"github.com/gomlx/deepergcn/pkg/dataset"
	"github.com/gomlx/deepergcn/pkg/experiment"
	"github.com/gomlx/deepergcn/pkg/fullbatch"
	"github.com/gomlx/deepergcn/pkg/gcn"
	"github.com/gomlx/deepergcn/pkg/trainloop"
	"github.com/gomlx/deepergcn/ui/commandline"
	"github.com/gomlx/deepergcn/ui/plots"

	_ "github.com/gomlx/gomlx/backends/default"
)

var flagProgressBar = flag.Bool("progress_bar", true, "Display a progress bar with the results of each epoch.")

func main() {
	klog.InitFlags(nil)
	opts, err := experiment.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		klog.Exitf("Invalid options: %+v", err)
	}
	err = exceptions.TryCatch[error](func() {
		must.M(run(opts))
	})
	klog.Flush()
	if err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

func run(opts *experiment.Options) error {
	start := time.Now()
	if opts.Mode == experiment.ModeTrain {
		if err := experiment.Setup(opts, start); err != nil {
			return err
		}
	}
	if opts.UseGPU && opts.Backend == "" {
		must.M(os.Setenv("CUDA_VISIBLE_DEVICES", strconv.Itoa(opts.Device)))
	}
	backend := newBackend(opts)
	klog.Infof("backend: %s", backend.Description())

	g, err := loadDataset(opts)
	if err != nil {
		return err
	}
	model, err := gcn.New(opts.ModelConfig().WithDimensions(g.FeatureDim, g.NumClasses, g.EdgeDim))
	if err != nil {
		return err
	}
	ctx := opts.NewContext()
	if opts.Mode == experiment.ModeEval {
		epoch, loss, err := checkpoint.Load(ctx, opts.ModelLoadPath)
		if err != nil {
			return err
		}
		klog.Infof("loaded checkpoint %q from epoch %d (loss %.4f)", opts.ModelLoadPath, epoch, loss)
	}
	runner, err := fullbatch.New(backend, ctx, model, g, nil)
	if err != nil {
		return err
	}
	klog.Infof("model %s: %s parameters", experiment.Name(opts), humanize.Comma(int64(runner.NumParameters())))

	if opts.Mode == experiment.ModeEval {
		acc, err := runner.Evaluate()
		if err != nil {
			return err
		}
		runner.LogLearnedScalars(0)
		return commandline.ReportEval(os.Stdout, acc)
	}
	return train(opts, ctx, runner, start)
}

func train(opts *experiment.Options, ctx *context.Context, runner *fullbatch.Runner, start time.Time) error {
	manager := checkpoint.NewManager(opts.ModelSavePath)
	ckpt := manager.Bind(ctx, checkpoint.SubdirForSelfLoop(opts.SelfLoop), checkpoint.DefaultSuffix)
	loop := trainloop.New(runner, runner, ckpt, trainloop.FileHistoryWriter{Path: opts.HistoryPath()})
	loop.OnEpochEnd("log", 10, func(loop *trainloop.Loop, epoch int, improved bool) error {
		if epoch%opts.EvalSteps != 0 && epoch != loop.NumEpochs {
			return nil
		}
		acc := loop.LastAccuracies
		klog.Infof("epoch %d: loss=%.4f train=%.4f valid=%.4f test=%.4f (best valid %.4f at epoch %d)",
			epoch, loop.LastLoss, acc.Train, acc.Valid, acc.Test, loop.Best.HighestValid, loop.Best.BestEpoch)
		runner.LogLearnedScalars(epoch)
		return nil
	})
	if *flagProgressBar {
		commandline.AttachProgressBar(loop)
	}

	best, err := loop.Run(opts.Epochs)
	if err != nil {
		return err
	}
	total := time.Since(start)
	klog.Infof("best results: %+v", best)
	klog.Infof("total time: %s", commandline.FormatClock(total))
	if err := commandline.ReportResults(os.Stdout, best, total); err != nil {
		return err
	}
	if loop.History.Len() == 0 {
		return nil
	}
	points := plots.NewPoints(plots.FromHistory(loop.History, ""))
	if err := points.SavePNG(opts.PlotPath(), experiment.Name(opts)); err != nil {
		return err
	}
	fmt.Printf("Experiment saved to %s\n", opts.SaveDir)
	return nil
}

func newBackend(opts *experiment.Options) backends.Backend {
	if config := opts.BackendConfig(); config != "" {
		return must.M1(backends.NewWithConfig(config))
	}
	return must.M1(backends.New())
}

// loadDataset loads the dataset and applies the transformations: undirected edges for node tasks,
// node features for datasets without them and self-loops.
func loadDataset(opts *experiment.Options) (*dataset.Graph, error) {
	var g *dataset.Graph
	var err error
	switch {
	case opts.Dataset == dataset.SyntheticName:
		synthOpts := dataset.DefaultSyntheticOptions()
		synthOpts.EdgeFeatures = opts.ConvEncodeEdge
		if opts.Seed != 0 {
			synthOpts.Seed = uint64(opts.Seed)
		}
		g, err = dataset.Synthetic(synthOpts)
	case opts.IsGraphTask():
		g, err = dataset.LoadOGBGraphDataset(ogbDir(opts))
	default:
		g, err = dataset.LoadOGBNodeDataset(ogbDir(opts))
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "loading dataset %q", opts.Dataset)
	}
	if !g.IsGraphTask() {
		g = dataset.ToUndirected(g)
	}
	if g.FeatureDim == 0 {
		if opts.NotExtractNodeFeature {
			dataset.ConstantNodeFeatures(g)
		} else if err := dataset.ExtractNodeFeatures(g, opts.Aggr); err != nil {
			return nil, err
		}
	}
	if opts.SelfLoop {
		g = dataset.AddSelfLoops(g)
	}
	klog.Infof("dataset %q: %s nodes, %s edges, %d node features, %d edge features, %d classes",
		g.Name, humanize.Comma(int64(g.Nodes)), humanize.Comma(int64(g.NumEdges())), g.FeatureDim, g.EdgeDim,
		g.NumClasses)
	return g, nil
}

// ogbDir returns the directory of the extracted OGB dataset, named like the OGB downloads: "ogbn_arxiv".
func ogbDir(opts *experiment.Options) string {
	return filepath.Join(opts.DataDir, strings.ReplaceAll(opts.Dataset, "-", "_"))
}
