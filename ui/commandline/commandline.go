// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline contains convenience UI training tools for the command line.
package commandline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/gomlx/deepergcn/pkg/trainloop"
)

var (
	normalStyle       = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	tableBorderColor  = "#705090"
)

// newTable returns a two-column table with the row titles right-aligned.
func newTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(tableBorderColor))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return rightAlignedStyle
			}
			return normalStyle
		})
}

// FormatAccuracy as a percentage with 2 decimal places.
func FormatAccuracy(acc float64) string {
	return fmt.Sprintf("%.2f%%", 100*acc)
}

// ReportResults writes a table with the best results of a run to w.
// If total is > 0 it is included as the total time.
func ReportResults(w io.Writer, best trainloop.BestResult, total time.Duration) error {
	table := newTable().
		Row("Highest Train", FormatAccuracy(best.HighestTrain)).
		Row("Highest Valid", FormatAccuracy(best.HighestValid)).
		Row("Final Train", FormatAccuracy(best.FinalTrain)).
		Row("Final Test", FormatAccuracy(best.FinalTest)).
		Row("Best Epoch", fmt.Sprintf("%d", best.BestEpoch))
	if total > 0 {
		table.Row("Total time", FormatClock(total))
	}
	_, err := fmt.Fprintln(w, table.String())
	return err
}

// ReportEval writes a table with the accuracies of one evaluation to w.
func ReportEval(w io.Writer, acc trainloop.Accuracies) error {
	table := newTable().
		Row("Train", FormatAccuracy(acc.Train)).
		Row("Valid", FormatAccuracy(acc.Valid)).
		Row("Test", FormatAccuracy(acc.Test))
	_, err := fmt.Fprintln(w, table.String())
	return err
}
