// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"

	"github.com/gomlx/deepergcn/pkg/trainloop"
)

// ExtraMetricFn is any function that will give extra values to display along the progress bar.
// It is called at each time the progress bar is updated, and it should return a name and the current value.
type ExtraMetricFn func() (name, value string)

// ProgressBarName is the name of the progress bar hooks in the trainloop.Loop.
const ProgressBarName = "deepergcn.ui.commandline.progressBar"

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version.
// But it requires some of the graphical symbols to be supported.
var ProgressbarStyle = progressbar.ThemeASCII

// maxUpdateFrequency is the time between updates to the commandline display of stats.
const maxUpdateFrequency = time.Millisecond * 200

type progressBarUpdate struct {
	epoch, numEpochs int
	loss             float64
	last             trainloop.Accuracies
	best             trainloop.BestResult
	medianEpoch      time.Duration

	// extra metrics, as (name, value) pairs.
	extra [][2]string
}

// progressBar holds a progressbar being displayed, and the table of stats drawn above it.
type progressBar struct {
	bar              *progressbar.ProgressBar
	termenv          *termenv.Output
	statsStyle       lipgloss.Style
	statsTable       *lgtable.Table
	isFirstOutput    bool
	numRowsPrinted   int
	updates          chan progressBarUpdate
	asyncUpdatesDone sync.WaitGroup

	extraMetricFns []ExtraMetricFn
}

// AttachProgressBar creates a commandline progress bar over the epochs and attaches it to the loop.
// Above the bar it displays a table with the last loss and accuracies, and the best results so far.
//
// Optionally, one can provide extraMetrics: functions that are called at the end of every epoch,
// in the training goroutine, and should return a name (title) and a value to be included in the
// updated print-out.
//
// The display is also closed when the loop is aborted by an error.
func AttachProgressBar(loop *trainloop.Loop, extraMetrics ...ExtraMetricFn) {
	attachProgressBar(loop, extraMetrics...)
}

func attachProgressBar(loop *trainloop.Loop, extraMetrics ...ExtraMetricFn) *progressBar {
	pBar := &progressBar{extraMetricFns: extraMetrics}
	loop.OnStart(ProgressBarName, 0, pBar.onStart)
	loop.OnEpochEnd(ProgressBarName, 0, pBar.onEpochEnd)
	loop.OnEnd(ProgressBarName, 0, pBar.onEnd)
	return pBar
}

func (pBar *progressBar) onStart(loop *trainloop.Loop) error {
	pBar.isFirstOutput = true
	pBar.termenv = termenv.NewOutput(os.Stdout)
	pBar.statsStyle = lipgloss.NewStyle().PaddingLeft(8)
	pBar.statsTable = newTable()
	pBar.bar = progressbar.NewOptions(loop.NumEpochs,
		progressbar.OptionSetDescription("      [bold]"),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("epochs"),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionSetWriter(os.Stdout),
	)
	pBar.updates = make(chan progressBarUpdate, 100) // Large buffer so training is never blocked.
	pBar.asyncUpdatesDone.Add(1)
	go pBar.drawUpdates()
	return nil
}

func (pBar *progressBar) onEpochEnd(loop *trainloop.Loop, epoch int, _ bool) error {
	update := progressBarUpdate{
		epoch:       epoch,
		numEpochs:   loop.NumEpochs,
		loss:        loop.LastLoss,
		last:        loop.LastAccuracies,
		best:        loop.Best,
		medianEpoch: MedianDuration(loop.EpochDurations),
	}
	for _, extraMetric := range pBar.extraMetricFns {
		name, value := extraMetric()
		update.extra = append(update.extra, [2]string{name, value})
	}
	pBar.updates <- update
	return nil
}

// onEnd is also called when the loop is aborted, and it must not assume onStart succeeded.
func (pBar *progressBar) onEnd(_ *trainloop.Loop, _ trainloop.BestResult) error {
	if pBar.updates != nil {
		close(pBar.updates)
		pBar.asyncUpdatesDone.Wait()
		pBar.updates = nil
	}
	if pBar.termenv != nil {
		pBar.termenv.ShowCursor()
	}
	fmt.Println()
	return nil
}

// drawUpdates asynchronously, so a slow terminal (e.g. over a remote connection) doesn't slow down training.
func (pBar *progressBar) drawUpdates() {
	defer pBar.asyncUpdatesDone.Done()
	lastEpochDrawn := 0
	for update := range pBar.updates {
		// Exhaust the updates in the buffer, only the last one is drawn.
	exhaust:
		for {
			select {
			case newUpdate, ok := <-pBar.updates:
				if !ok {
					break exhaust
				}
				update = newUpdate
			default:
				break exhaust
			}
		}

		pBar.statsTable.Data(lgtable.NewStringData())
		pBar.statsTable.Row("Epoch", fmt.Sprintf("%s of %s", humanize.Comma(int64(update.epoch)),
			humanize.Comma(int64(update.numEpochs))))
		pBar.statsTable.Row("Median epoch duration", FormatDuration(update.medianEpoch))
		pBar.statsTable.Row("Loss", fmt.Sprintf("%.4f", update.loss))
		pBar.statsTable.Row("Train / Valid / Test", fmt.Sprintf("%s / %s / %s",
			FormatAccuracy(update.last.Train), FormatAccuracy(update.last.Valid), FormatAccuracy(update.last.Test)))
		pBar.statsTable.Row("Best Valid (epoch)", fmt.Sprintf("%s (%d)",
			FormatAccuracy(update.best.HighestValid), update.best.BestEpoch))
		pBar.statsTable.Row("Final Test", FormatAccuracy(update.best.FinalTest))
		numRows := 6
		for _, extra := range update.extra {
			pBar.statsTable.Row(extra[0], extra[1])
			numRows++
		}

		// Move the cursor back over the previous table, so it is overwritten.
		pBar.termenv.HideCursor()
		if !pBar.isFirstOutput {
			pBar.termenv.CursorPrevLine(pBar.numRowsPrinted + 2 + 2)
		}
		pBar.isFirstOutput = false
		pBar.numRowsPrinted = numRows

		fmt.Println(pBar.statsStyle.Render(pBar.statsTable.String()))
		_ = pBar.bar.Add(update.epoch - lastEpochDrawn) // Prints progress bar line.
		lastEpochDrawn = update.epoch
		fmt.Println()
		pBar.termenv.ShowCursor()
		time.Sleep(maxUpdateFrequency)
	}
}
