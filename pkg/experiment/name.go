// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Name of the experiment, built from the model options. It is the prefix of the experiment directory.
//
// Floats and booleans are formatted as "1.0" and "True", so names are comparable with the ones of
// experiments run with the reference DeeperGCN scripts.
func Name(o *Options) string {
	return fmt.Sprintf("%s-B_%s-C_%s-L_%d-F_%d-DP_%s-A_%s-GA_%s-T_%s-LT_%s-P_%s-LP_%s-MN_%s-LS_%s",
		o.Save, o.Block, o.Conv, o.NumLayers, o.HiddenChannels, formatFloat(o.Dropout),
		o.Aggr, o.GCNAggr, formatFloat(o.T), formatBool(o.LearnT), formatFloat(o.P), formatBool(o.LearnP),
		formatBool(o.MsgNorm), formatBool(o.LearnMsgScale))
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// formatFloat uses the shortest representation that round-trips, always with a decimal point or an
// exponent, and switches to the exponent form for magnitudes below 1e-4 or from 1e16 on.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	exp := int(math.Floor(math.Log10(math.Abs(f))))
	if exp < -4 || exp >= 16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
