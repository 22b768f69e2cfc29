// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/pkg/ml/context"

	"github.com/gomlx/deepergcn/pkg/fullbatch"
	"github.com/gomlx/deepergcn/ui/commandline"
)

// Summary prints one column per experiment, with the best results, the checkpoint and the options that
// differ among the experiments (highlighted).
func Summary(experiments []*Experiment) error {
	fmt.Println(titleStyle.Render("Summary"))
	table := newPlainTableWithReds(true, lipgloss.Right, lipgloss.Left)
	headers := []string{"experiment"}
	for _, e := range experiments {
		headers = append(headers, e.Name)
	}
	table.Table.Headers(headers...)

	row := func(isRed bool, title string, fn func(e *Experiment) string) {
		r := []string{title}
		for _, e := range experiments {
			r = append(r, fn(e))
		}
		table.Row(isRed, r...)
	}
	row(false, "dataset", func(e *Experiment) string { return e.Options.Dataset })
	row(false, "epochs", func(e *Experiment) string { return fmt.Sprintf("%d", e.History.Len()) })
	row(false, "best epoch", func(e *Experiment) string { return fmt.Sprintf("%d", e.History.Best().BestEpoch) })
	row(false, "highest train", func(e *Experiment) string {
		return commandline.FormatAccuracy(e.History.Best().HighestTrain)
	})
	row(false, "highest valid", func(e *Experiment) string {
		return commandline.FormatAccuracy(e.History.Best().HighestValid)
	})
	row(false, "final train", func(e *Experiment) string {
		return commandline.FormatAccuracy(e.History.Best().FinalTrain)
	})
	row(false, "final test", func(e *Experiment) string {
		return commandline.FormatAccuracy(e.History.Best().FinalTest)
	})
	row(false, "last loss", func(e *Experiment) string {
		if e.History.Len() == 0 {
			return "-"
		}
		_, loss := e.History.At(e.History.Len() - 1)
		return fmt.Sprintf("%.4f", loss)
	})
	row(false, "checkpoint epoch / loss", func(e *Experiment) string {
		if e.CheckpointEpoch == 0 {
			return "-"
		}
		return fmt.Sprintf("%d / %.4f", e.CheckpointEpoch, e.CheckpointLoss)
	})
	row(false, "# parameters", func(e *Experiment) string {
		if e.Ctx == nil {
			return "-"
		}
		return humanize.Comma(int64(numParameters(e.Ctx)))
	})

	keys, values, err := optionsDiff(experiments)
	if err != nil {
		return err
	}
	for _, key := range keys {
		table.Row(true, append([]string{key}, values[key]...)...)
	}
	fmt.Println(table.Table.Render())
	return nil
}

// numParameters counts the scalars of all the model variables saved in the checkpoint.
func numParameters(ctx *context.Context) int {
	var total int
	for v := range ctx.InAbsPath(context.RootScope + fullbatch.ModelScope).IterVariablesInScope() {
		total += v.Shape().Size()
	}
	return total
}
