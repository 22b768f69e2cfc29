// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// deepergcn_history reports on the experiment directories created by deepergcn: the best results, the
// checkpoint of the best validation accuracy and the options that differ among them.
//
// Usage:
//
//	deepergcn_history [-metrics] [-vars] [-plot=compare.png] <experiment_dir> [<experiment_dir> ...]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gomlx/gomlx/backends"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/fullbatch"
	"github.com/gomlx/deepergcn/ui/plots"

	_ "github.com/gomlx/gomlx/backends/default"
)

var (
	flagMetrics = flag.Bool("metrics", false, "Lists the accuracies and loss of every epoch.")
	flagVars    = flag.Bool("vars", false, "Lists the model variables of the best checkpoint, with their statistics.")
	flagPlot    = flag.String("plot", "", "If set, saves a plot of the histories of all experiments to this PNG file.")
	flagScope   = flag.String("scope", "/"+fullbatch.ModelScope, "Scope of the variables listed with -vars.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() == 0 {
		klog.Errorf("Missing experiment directories to read from. See 'deepergcn_history -help'")
		os.Exit(1)
	}

	var experiments []*Experiment
	for _, dir := range flag.Args() {
		experiments = append(experiments, must.M1(LoadExperiment(dir, true)))
	}
	must.M(Summary(experiments))

	if *flagMetrics {
		for _, e := range experiments {
			fmt.Println(titleStyle.Render(fmt.Sprintf("History of %s", e.Name)))
			fmt.Println(plots.NewPoints(plots.FromHistory(e.History, "")))
		}
	}
	if *flagVars {
		must.M(ListVariables(must.M1(backends.New()), experiments, *flagScope))
	}
	if *flagPlot != "" {
		var points []plots.Point
		prefix := func(e *Experiment) string {
			if len(experiments) == 1 {
				return ""
			}
			return e.Name
		}
		for _, e := range experiments {
			points = append(points, plots.FromHistory(e.History, prefix(e))...)
		}
		must.M(plots.NewPoints(points).SavePNG(*flagPlot, "DeeperGCN experiments"))
		fmt.Printf("Plot saved to %s\n", *flagPlot)
	}
}
