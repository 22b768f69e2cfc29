// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package experiment holds the options of a DeeperGCN experiment, their sources (defaults, YAML
// configuration file and command-line flags), the naming of the experiment and its directory layout.
package experiment

import (
	"bytes"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gomlx/deepergcn/pkg/aggregation"
	"github.com/gomlx/deepergcn/pkg/gcn"
	"github.com/gomlx/deepergcn/pkg/optim"
)

// Modes of the program.
const (
	ModeTrain = "train"
	ModeEval  = "eval"
)

// Options of an experiment. The YAML keys are also the names of the command-line flags.
type Options struct {
	// ConfigFile is the YAML file the options were read from, if any.
	ConfigFile string `yaml:"-"`

	// Dataset name: an OGB name (e.g.: "ogbn-arxiv", "ogbg-ppa") or "synthetic".
	Dataset string `yaml:"dataset"`

	// DataDir holds the extracted OGB datasets, one sub-directory per dataset.
	DataDir  string `yaml:"data_dir"`
	SelfLoop bool   `yaml:"self_loop"`

	// Aggr is used to extract node features from edge features, for datasets without node features.
	Aggr                  aggregation.Family `yaml:"aggr"`
	NotExtractNodeFeature bool               `yaml:"not_extract_node_feature"`

	Block          gcn.BlockType      `yaml:"block"`
	Conv           string             `yaml:"conv"`
	GCNAggr        aggregation.Family `yaml:"gcn_aggr"`
	NumLayers      int                `yaml:"num_layers"`
	MLPLayers      int                `yaml:"mlp_layers"`
	HiddenChannels int                `yaml:"hidden_channels"`
	Dropout        float64            `yaml:"dropout"`
	Norm           gcn.NormType       `yaml:"norm"`
	T              float64            `yaml:"t"`
	LearnT         bool               `yaml:"learn_t"`
	P              float64            `yaml:"p"`
	LearnP         bool               `yaml:"learn_p"`
	MsgNorm        bool               `yaml:"msg_norm"`
	LearnMsgScale  bool               `yaml:"learn_msg_scale"`
	ConvEncodeEdge bool               `yaml:"conv_encode_edge"`
	GraphPooling   gcn.Pooling        `yaml:"graph_pooling"`

	LR          float64 `yaml:"lr"`
	WeightDecay float64 `yaml:"weight_decay"`
	Epochs      int     `yaml:"epochs"`

	// EvalSteps is the interval, in epochs, of the detailed progress logs.
	EvalSteps int `yaml:"eval_steps"`

	UseGPU bool `yaml:"use_gpu"`
	Device int  `yaml:"device"`

	// Backend configuration for GoMLX, e.g.: "xla:cpu". If empty it is derived from UseGPU.
	Backend string `yaml:"backend"`

	Seed int64 `yaml:"seed"`

	// Save is the prefix of the experiment name, see Name.
	Save   string `yaml:"save"`
	LogDir string `yaml:"log_dir"`

	// ModelSavePath is the checkpoints directory. Setup moves it under the experiment directory.
	ModelSavePath string `yaml:"model_save_path"`
	ModelLoadPath string `yaml:"model_load_path"`
	Mode          string `yaml:"mode"`

	// SaveDir is the experiment directory, set by Setup.
	SaveDir string `yaml:"save_dir,omitempty"`
}

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		Dataset:        "ogbn-arxiv",
		DataDir:        "dataset",
		Aggr:           aggregation.FamilyAdd,
		Block:          gcn.BlockResPlus,
		Conv:           "gen",
		GCNAggr:        aggregation.FamilyMax,
		NumLayers:      3,
		MLPLayers:      2,
		HiddenChannels: 128,
		Dropout:        0.5,
		Norm:           gcn.NormLayer,
		T:              1.0,
		P:              1.0,
		GraphPooling:   gcn.PoolingMean,
		LR:             0.01,
		Epochs:         200,
		EvalSteps:      5,
		Save:           "EXP",
		LogDir:         "log",
		ModelSavePath:  "model_ckpt",
		Mode:           ModeTrain,
	}
}

// registerFlags binds the options to flags in fs, and returns the names of the flags.
func (o *Options) registerFlags(fs *flag.FlagSet) []string {
	before := make(map[string]bool)
	fs.VisitAll(func(f *flag.Flag) { before[f.Name] = true })

	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "YAML file with the options. Flags given explicitly take precedence.")
	fs.StringVar(&o.Dataset, "dataset", o.Dataset, `Dataset name: "ogbn-*", "ogbg-*" or "synthetic".`)
	fs.StringVar(&o.DataDir, "data_dir", o.DataDir, "Directory with the extracted OGB datasets.")
	fs.BoolVar(&o.SelfLoop, "self_loop", o.SelfLoop, "Add self-loops to every node.")
	fs.TextVar(&o.Aggr, "aggr", o.Aggr, "Aggregation used to extract node features from edge features: add, mean or max.")
	fs.BoolVar(&o.NotExtractNodeFeature, "not_extract_node_feature", o.NotExtractNodeFeature,
		"Don't extract node features from edge features (use constant features instead).")
	fs.TextVar(&o.Block, "block", o.Block, "Backbone block type: res+, res, dense or plain.")
	fs.StringVar(&o.Conv, "conv", o.Conv, `Graph convolution type, only "gen" is supported.`)
	fs.TextVar(&o.GCNAggr, "gcn_aggr", o.GCNAggr,
		"Aggregation of the messages in GENConv: "+strings.Join(aggregation.FamilyStrings(), ", ")+".")
	fs.IntVar(&o.NumLayers, "num_layers", o.NumLayers, "Number of GENConv layers.")
	fs.IntVar(&o.MLPLayers, "mlp_layers", o.MLPLayers, "Number of layers of the MLP in each GENConv.")
	fs.IntVar(&o.HiddenChannels, "hidden_channels", o.HiddenChannels, "Dimension of the node embeddings.")
	fs.Float64Var(&o.Dropout, "dropout", o.Dropout, "Dropout rate.")
	fs.TextVar(&o.Norm, "norm", o.Norm, "Normalization: batch, layer or none.")
	fs.Float64Var(&o.T, "t", o.T, "Initial temperature of the softmax aggregation.")
	fs.BoolVar(&o.LearnT, "learn_t", o.LearnT, "Learn the temperature.")
	fs.Float64Var(&o.P, "p", o.P, "Initial power of the power mean aggregation.")
	fs.BoolVar(&o.LearnP, "learn_p", o.LearnP, "Learn the power.")
	fs.BoolVar(&o.MsgNorm, "msg_norm", o.MsgNorm, "Enable message normalization.")
	fs.BoolVar(&o.LearnMsgScale, "learn_msg_scale", o.LearnMsgScale, "Learn the message normalization scale.")
	fs.BoolVar(&o.ConvEncodeEdge, "conv_encode_edge", o.ConvEncodeEdge, "Encode edge features in the messages.")
	fs.TextVar(&o.GraphPooling, "graph_pooling", o.GraphPooling, "Graph pooling for graph tasks: mean, max or sum.")
	fs.Float64Var(&o.LR, "lr", o.LR, "Learning rate.")
	fs.Float64Var(&o.WeightDecay, "weight_decay", o.WeightDecay,
		"Decoupled weight decay. Aggregation scalars are never decayed.")
	fs.IntVar(&o.Epochs, "epochs", o.Epochs, "Number of epochs to train.")
	fs.IntVar(&o.EvalSteps, "eval_steps", o.EvalSteps, "Interval, in epochs, of the detailed progress logs.")
	fs.BoolVar(&o.UseGPU, "use_gpu", o.UseGPU, "Use a GPU backend.")
	fs.IntVar(&o.Device, "device", o.Device, "Which GPU to use, if -use_gpu is set.")
	fs.StringVar(&o.Backend, "backend", o.Backend, `GoMLX backend configuration, e.g. "xla:cpu". Overrides -use_gpu.`)
	fs.Int64Var(&o.Seed, "seed", o.Seed, "Random seed.")
	fs.StringVar(&o.Save, "save", o.Save, "Prefix of the experiment name.")
	fs.StringVar(&o.LogDir, "log_dir", o.LogDir, "Directory under which the experiment directories are created.")
	fs.StringVar(&o.ModelSavePath, "model_save_path", o.ModelSavePath,
		"Checkpoints directory, relative to the experiment directory.")
	fs.StringVar(&o.ModelLoadPath, "model_load_path", o.ModelLoadPath, "Checkpoint to load, required for -mode=eval.")
	fs.StringVar(&o.Mode, "mode", o.Mode, `Either "train" or "eval".`)

	var names []string
	fs.VisitAll(func(f *flag.Flag) {
		if !before[f.Name] {
			names = append(names, f.Name)
		}
	})
	return names
}

// Parse the options from the command-line arguments (without the program name).
//
// The options are the defaults, overridden by the YAML file given with `-config`, overridden by the
// flags given explicitly in args.
func Parse(fs *flag.FlagSet, args []string) (*Options, error) {
	opts := DefaultOptions()
	names := opts.registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.ConfigFile != "" {
		isOption := make(map[string]bool, len(names))
		for _, name := range names {
			isOption[name] = true
		}
		explicit := make(map[string]string)
		fs.Visit(func(f *flag.Flag) {
			if isOption[f.Name] {
				explicit[f.Name] = f.Value.String()
			}
		})

		// Flags are bound to the fields of opts, so it is reset in place.
		configFile := opts.ConfigFile
		*opts = *DefaultOptions()
		if err := opts.LoadYAML(configFile); err != nil {
			return nil, err
		}
		opts.ConfigFile = configFile
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return nil, errors.Wrapf(err, "re-applying flag -%s=%s", name, value)
			}
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// LoadYAML overrides the options with the ones in the YAML file. Unknown keys are an error.
func (o *Options) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading configuration %q", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(o); err != nil && err != io.EOF {
		return errors.Wrapf(err, "parsing configuration %q", path)
	}
	return nil
}

// SaveYAML writes the options to path.
func (o *Options) SaveYAML(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return errors.Wrap(err, "encoding options to YAML")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing configuration %q", path)
	}
	return nil
}

// Validate the options that are not validated by the model configuration.
func (o *Options) Validate() error {
	switch {
	case o.Conv != "gen":
		return errors.Errorf("invalid -conv=%q: only \"gen\" is supported", o.Conv)
	case o.Mode != ModeTrain && o.Mode != ModeEval:
		return errors.Errorf("invalid -mode=%q: valid values are %q and %q", o.Mode, ModeTrain, ModeEval)
	case o.Mode == ModeEval && o.ModelLoadPath == "":
		return errors.New("-mode=eval requires -model_load_path")
	case o.Epochs < 0:
		return errors.Errorf("invalid -epochs=%d", o.Epochs)
	case o.EvalSteps < 1:
		return errors.Errorf("invalid -eval_steps=%d, it must be >= 1", o.EvalSteps)
	case o.Aggr != aggregation.FamilyAdd && o.Aggr != aggregation.FamilyMean && o.Aggr != aggregation.FamilyMax:
		return errors.Errorf("invalid -aggr=%s: valid values are add, mean and max", o.Aggr)
	}
	return nil
}

// IsGraphTask returns whether the dataset is a graph property prediction one.
func (o *Options) IsGraphTask() bool {
	return strings.HasPrefix(o.Dataset, "ogbg-")
}

// ModelConfig returns the model configuration, without the dataset dimensions.
func (o *Options) ModelConfig() gcn.Config {
	cfg := gcn.DefaultConfig()
	if o.IsGraphTask() {
		cfg.Task = gcn.TaskGraph
	}
	cfg.Block = o.Block
	cfg.NumLayers = o.NumLayers
	cfg.MLPLayers = o.MLPLayers
	cfg.Hidden = o.HiddenChannels
	cfg.Dropout = o.Dropout
	cfg.Norm = o.Norm
	cfg.Aggregation = o.GCNAggr
	cfg.Temperature = o.T
	cfg.LearnTemperature = o.LearnT
	cfg.Power = o.P
	cfg.LearnPower = o.LearnP
	cfg.MsgNorm = o.MsgNorm
	cfg.LearnMsgScale = o.LearnMsgScale
	cfg.EncodeEdge = o.ConvEncodeEdge
	cfg.GraphPooling = o.GraphPooling
	return cfg
}

// NewContext returns a context with the training hyperparameters set, and its random number generator
// seeded.
func (o *Options) NewContext() *context.Context {
	ctx := context.New()
	ctx.SetParams(map[string]any{
		optimizers.ParamLearningRate: o.LR,
		optim.ParamWeightDecay:       o.WeightDecay,
	})
	must.M(ctx.SetRNGStateFromSeed(o.Seed))
	return ctx
}

// BackendConfig returns the GoMLX backend configuration. An empty string means the default backend.
func (o *Options) BackendConfig() string {
	if o.Backend != "" {
		return o.Backend
	}
	if o.UseGPU {
		return "xla:cuda"
	}
	return ""
}
