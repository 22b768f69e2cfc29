// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/pkg/errors"
)

// variableStats returns the rows describing the variables under the model scope: scope, name, shape, size,
// and either the value (scalars) or the MAV (mean absolute value), the RMS (root-mean-square) and the
// MaxAV (max absolute value).
func variableStats(backend backends.Backend, ctx *context.Context, scope string) ([][]string, error) {
	statsExec, err := NewExec(backend, func(x *Node) (mav, rms, maxAV *Node) {
		x = ConvertDType(x, dtypes.Float64)
		mav = ReduceAllMean(Abs(x))
		rms = Sqrt(ReduceAllMean(Square(x)))
		maxAV = ReduceAllMax(Abs(x))
		return
	})
	if err != nil {
		return nil, err
	}
	defer statsExec.Finalize()
	statsExec.SetMaxCache(-1)

	var rows [][]string
	for v := range ctx.InAbsPath(scope).IterVariablesInScope() {
		shape := v.Shape()
		value, err := v.Value()
		if err != nil {
			return nil, errors.WithMessagef(err, "variable %s%s%s", v.Scope(), context.ScopeSeparator, v.Name())
		}
		var mav, rms, maxAV string
		switch {
		case shape.Size() == 1:
			mav = fmt.Sprintf("%8v", value.Value())
		case shape.DType.IsFloat():
			stats, err := statsExec.Exec(value)
			if err != nil {
				return nil, err
			}
			mav = fmt.Sprintf("%.3g", stats[0].Value().(float64))
			rms = fmt.Sprintf("%.3g", stats[1].Value().(float64))
			maxAV = fmt.Sprintf("%.3g", stats[2].Value().(float64))
		}
		rows = append(rows, []string{
			v.Scope(), v.Name(), shape.String(), humanize.Comma(int64(shape.Size())), mav, rms, maxAV,
		})
	}
	slices.SortFunc(rows, func(a, b []string) int {
		if cmp := strings.Compare(a[0], b[0]); cmp != 0 {
			return cmp
		}
		return strings.Compare(a[1], b[1])
	})
	return rows, nil
}

// ListVariables of the model of each experiment with a checkpoint.
func ListVariables(backend backends.Backend, experiments []*Experiment, scope string) error {
	for _, e := range experiments {
		if e.Ctx == nil {
			continue
		}
		rows, err := variableStats(backend, e.Ctx, scope)
		if err != nil {
			return errors.WithMessagef(err, "experiment %q", e.Name)
		}
		fmt.Println(titleStyle.Render(fmt.Sprintf("Variables of %s (epoch %d)", e.Name, e.CheckpointEpoch)))
		table := newPlainTable(true)
		table.Headers("Scope", "Name", "Shape", "Size", "Scalar/MAV", "RMS", "MaxAV")
		for _, row := range rows {
			table.Row(row...)
		}
		fmt.Println(table.Render())
	}
	return nil
}
