// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package plots converts training histories to plot points, and renders them as tables or PNG images.
package plots

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/gomlx/deepergcn/pkg/trainloop"
)

// Metric types: metrics of the same type are drawn in the same plot.
const (
	MetricTypeAccuracy = "accuracy"
	MetricTypeLoss     = "loss"
)

// Point represents a training plot point.
type Point struct {
	// MetricName of this point, e.g.: "Valid".
	MetricName string

	// MetricType is either MetricTypeAccuracy or MetricTypeLoss.
	MetricType string

	// Step is the 1-based epoch this metric was measured.
	Step float64

	// Value is the metric captured.
	Value float64
}

// FromHistory converts a training history to points. If prefix is not empty, it is prepended
// to the metric names, e.g. to compare histories of different experiments.
func FromHistory(h *trainloop.History, prefix string) []Point {
	name := func(n string) string {
		if prefix == "" {
			return n
		}
		return prefix + " " + n
	}
	var points []Point
	for _, series := range []struct {
		name, metricType string
		values           []float64
	}{
		{"Train", MetricTypeAccuracy, h.TrainAcc},
		{"Valid", MetricTypeAccuracy, h.ValidAcc},
		{"Test", MetricTypeAccuracy, h.TestAcc},
		{"Loss", MetricTypeLoss, h.Losses},
	} {
		for ii, v := range series.values {
			points = append(points, Point{
				MetricName: name(series.name),
				MetricType: series.metricType,
				Step:       float64(ii + 1),
				Value:      v,
			})
		}
	}
	return points
}

// Points is a collection of Point objects organized by their Step value.
type Points map[float64][]Point

// NewPoints create a Points object from a collection of individual `Point`.
func NewPoints(rawPoints []Point) (points Points) {
	points = make(Points)
	for _, p := range rawPoints {
		points[p.Step] = append(points[p.Step], p)
	}
	return points
}

// Steps returns the steps in increasing order.
func (points Points) Steps() []float64 {
	return slices.Sorted(maps.Keys(points))
}

// MetricsNames return the list of metrics names in the whole collection, sorted by their type and
// then in order of appearance.
func (points Points) MetricsNames() []string {
	var names []string
	nameToType := make(map[string]string)
	for _, step := range points.Steps() {
		for _, p := range points[step] {
			if _, found := nameToType[p.MetricName]; !found {
				names = append(names, p.MetricName)
				nameToType[p.MetricName] = p.MetricType
			}
		}
	}
	slices.SortStableFunc(names, func(a, b string) int {
		return strings.Compare(nameToType[a], nameToType[b])
	})
	return names
}

// Series returns the (step, value) pairs of the metric, sorted by step.
func (points Points) Series(metricName string) plotter.XYs {
	var xys plotter.XYs
	for _, step := range points.Steps() {
		for _, p := range points[step] {
			if p.MetricName == metricName {
				xys = append(xys, plotter.XY{X: p.Step, Y: p.Value})
			}
		}
	}
	return xys
}

// metricType returns the type of the metric, or "" if not found.
func (points Points) metricType(metricName string) string {
	for _, stepPoints := range points {
		for _, p := range stepPoints {
			if p.MetricName == metricName {
				return p.MetricType
			}
		}
	}
	return ""
}

// TableForMetrics returns a table with the first column being the `Step` followed
// by the columns given by the `metrics` names.
// If `metrics` is empty, it will include all metrics in the table.
func (points Points) TableForMetrics(metrics ...string) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if len(metrics) == 0 {
		metrics = points.MetricsNames()
	}
	table.Headers(append([]string{"Epoch"}, metrics...)...)
	for _, step := range points.Steps() {
		row := make([]string, 1+len(metrics))
		row[0] = fmt.Sprintf("%.0f", step)
		for _, pt := range points[step] {
			if idx := slices.Index(metrics, pt.MetricName); idx != -1 {
				row[idx+1] = fmt.Sprintf("%.4f", pt.Value)
			}
		}
		table.Row(row...)
	}
	return table.String()
}

func (points Points) String() string {
	return points.TableForMetrics()
}

// Plot size of each metric type.
var (
	PlotWidth  = 10 * vg.Inch
	PlotHeight = 4 * vg.Inch
)

// SavePNG draws one plot per metric type (accuracies on top, losses below), and saves them to a PNG file.
func (points Points) SavePNG(filePath, title string) error {
	metrics := points.MetricsNames()
	if len(metrics) == 0 {
		return errors.Errorf("no points to plot in %q", filePath)
	}
	var types []string
	byType := make(map[string][]string)
	for _, m := range metrics {
		t := points.metricType(m)
		if _, found := byType[t]; !found {
			types = append(types, t)
		}
		byType[t] = append(byType[t], m)
	}

	rows := make([][]*plot.Plot, len(types))
	for ii, t := range types {
		p := plot.New()
		if ii == 0 {
			p.Title.Text = title
		}
		p.X.Label.Text = "epoch"
		p.Y.Label.Text = t
		p.Add(plotter.NewGrid())
		var lines []any
		for _, m := range byType[t] {
			lines = append(lines, m, points.Series(m))
		}
		if err := plotutil.AddLines(p, lines...); err != nil {
			return errors.Wrapf(err, "adding %s lines", t)
		}
		p.Legend.Top = t == MetricTypeAccuracy
		rows[ii] = []*plot.Plot{p}
	}

	img := vgimg.New(PlotWidth, PlotHeight*vg.Length(len(rows)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(rows),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadX:      vg.Points(4),
		PadY:      vg.Points(8),
	}
	canvases := plot.Align(rows, tiles, dc)
	for ii := range rows {
		rows[ii][0].Draw(canvases[ii][0])
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating plot file %q", filePath)
	}
	if _, err = (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "writing plot file %q", filePath)
	}
	return errors.Wrapf(f.Close(), "closing plot file %q", filePath)
}
