// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package experiment

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/aggregation"
	"github.com/gomlx/deepergcn/pkg/gcn"
)

func TestName(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "EXP-B_res+-C_gen-L_3-F_128-DP_0.5-A_add-GA_max-T_1.0-LT_False-P_1.0-LP_False-MN_False-LS_False",
		Name(opts))

	opts.Block = gcn.BlockPlain
	opts.GCNAggr = aggregation.FamilySoftmaxSG
	opts.T = 0.1
	opts.LearnT = true
	opts.MsgNorm = true
	opts.NumLayers = 112
	assert.Equal(t, "EXP-B_plain-C_gen-L_112-F_128-DP_0.5-A_add-GA_softmax_sg-T_0.1-LT_True-P_1.0-LP_False-MN_True-LS_False",
		Name(opts))
}

func TestFormatFloat(t *testing.T) {
	for value, want := range map[float64]string{
		1:       "1.0",
		0.5:     "0.5",
		-2:      "-2.0",
		0.0001:  "0.0001",
		0.00001: "1e-05",
		1e6:     "1000000.0",
		1e16:    "1e+16",
		0:       "0.0",
	} {
		assert.Equal(t, want, formatFloat(value), "formatFloat(%g)", value)
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultOptions(), opts)
	})

	t.Run("flags", func(t *testing.T) {
		opts, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError),
			[]string{"-block=dense", "-gcn_aggr=power", "-learn_p", "-num_layers=7", "-lr=0.001"})
		require.NoError(t, err)
		assert.Equal(t, gcn.BlockDense, opts.Block)
		assert.Equal(t, aggregation.FamilyPower, opts.GCNAggr)
		assert.True(t, opts.LearnP)
		assert.Equal(t, 7, opts.NumLayers)
		assert.Equal(t, 0.001, opts.LR)
	})

	t.Run("config file and flags precedence", func(t *testing.T) {
		config := writeConfig(t, "num_layers: 7\nblock: res\nlr: 0.001\ngcn_aggr: softmax\n")
		opts, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError),
			[]string{"-num_layers=14", "-config", config})
		require.NoError(t, err)
		assert.Equal(t, 14, opts.NumLayers, "explicit flag wins over config file")
		assert.Equal(t, gcn.BlockRes, opts.Block)
		assert.Equal(t, 0.001, opts.LR)
		assert.Equal(t, aggregation.FamilySoftmax, opts.GCNAggr)
		assert.Equal(t, 0.5, opts.Dropout, "default kept")
		assert.Equal(t, config, opts.ConfigFile)
	})

	t.Run("unknown key", func(t *testing.T) {
		config := writeConfig(t, "num_layer: 7\n")
		_, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-config", config})
		assert.ErrorContains(t, err, "num_layer")
	})

	t.Run("invalid", func(t *testing.T) {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.SetOutput(&strings.Builder{})
		_, err := Parse(fs, []string{"-block=resnet"})
		assert.Error(t, err)

		_, err = Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-mode=eval"})
		assert.ErrorContains(t, err, "model_load_path")

		_, err = Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-aggr=softmax"})
		assert.ErrorContains(t, err, "-aggr")

		_, err = Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-conv=gcn"})
		assert.ErrorContains(t, err, "gen")
	})
}

func TestModelConfig(t *testing.T) {
	opts := DefaultOptions()
	opts.Dataset = "ogbg-ppa"
	opts.GraphPooling = gcn.PoolingSum
	opts.MsgNorm = true
	cfg := opts.ModelConfig()
	assert.Equal(t, gcn.TaskGraph, cfg.Task)
	assert.Equal(t, gcn.PoolingSum, cfg.GraphPooling)
	assert.Equal(t, 128, cfg.Hidden)
	assert.True(t, cfg.MsgNorm)

	opts.Dataset = "ogbn-arxiv"
	assert.Equal(t, gcn.TaskNode, opts.ModelConfig().Task)
}

func TestBackendConfig(t *testing.T) {
	opts := DefaultOptions()
	assert.Empty(t, opts.BackendConfig())
	opts.UseGPU = true
	assert.Equal(t, "xla:cuda", opts.BackendConfig())
	opts.Backend = "go"
	assert.Equal(t, "go", opts.BackendConfig())
}

func TestSetup(t *testing.T) {
	opts := DefaultOptions()
	opts.LogDir = t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, Setup(opts, now))
	defer klog.Flush()

	base := filepath.Base(opts.SaveDir)
	assert.True(t, strings.HasPrefix(base, Name(DefaultOptions())+"-20260304-050607-"), base)
	assert.Equal(t, filepath.Join(opts.SaveDir, "model_ckpt"), opts.ModelSavePath)
	assert.Equal(t, filepath.Join(opts.SaveDir, "history"), opts.HistoryPath())

	loaded := DefaultOptions()
	require.NoError(t, loaded.LoadYAML(filepath.Join(opts.SaveDir, ConfigFileName)))
	assert.Equal(t, opts, loaded)
}
