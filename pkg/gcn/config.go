// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gcn

import (
	"fmt"

	"github.com/gomlx/deepergcn/pkg/aggregation"
)

// BlockType defines how the GENConv layers of the backbone are connected.
type BlockType int

const (
	// BlockResPlus is the pre-activation residual block: norm, ReLU and dropout come before each convolution.
	BlockResPlus BlockType = iota // res+

	// BlockRes is the post-activation residual block.
	BlockRes // res

	// BlockDense concatenates the outputs of all previous layers as the input of the next.
	BlockDense // dense

	// BlockPlain stacks the layers without skip connections.
	BlockPlain // plain
)

//go:generate go tool enumer -type BlockType -trimprefix=Block -linecomment -values -text -json -yaml -output=gen_blocktype_enumer.go config.go

// NormType is the normalization applied between layers.
type NormType int

const (
	NormBatch NormType = iota
	NormLayer
	NormNone
)

//go:generate go tool enumer -type NormType -trimprefix=Norm -transform=snake -values -text -json -yaml -output=gen_normtype_enumer.go config.go

// Pooling of the node states into one state per graph, for graph-level tasks.
type Pooling int

const (
	PoolingMean Pooling = iota
	PoolingMax
	PoolingSum
)

//go:generate go tool enumer -type Pooling -trimprefix=Pooling -transform=snake -values -text -json -yaml -output=gen_pooling_enumer.go config.go

// Task is what the model predicts: one class per node or one class per graph.
type Task int

const (
	TaskNode Task = iota
	TaskGraph
)

//go:generate go tool enumer -type Task -trimprefix=Task -transform=snake -values -text -json -yaml -output=gen_task_enumer.go config.go

// Config of a DeeperGCN model. It is passed by value, and once validated by New it is never changed.
//
// The dimensions (InChannels, NumClasses and EdgeDim) depend on the dataset, and are usually filled
// in with WithDimensions.
type Config struct {
	Task      Task
	Block     BlockType
	NumLayers int

	// MLPLayers is the number of dense layers in the MLP at the end of each GENConv layer.
	MLPLayers int

	Hidden  int
	Dropout float64
	Norm    NormType

	Aggregation      aggregation.Family
	Temperature      float64
	LearnTemperature bool
	Power            float64
	LearnPower       bool

	MsgNorm       bool
	LearnMsgScale bool

	// EncodeEdge enables the encoding of the edge features into the messages.
	EncodeEdge bool

	GraphPooling Pooling

	InChannels, NumClasses, EdgeDim int
}

// DefaultConfig returns the default configuration of a node-prediction model. The dimensions are left unset.
func DefaultConfig() Config {
	return Config{
		Task:         TaskNode,
		Block:        BlockResPlus,
		NumLayers:    3,
		MLPLayers:    2,
		Hidden:       128,
		Dropout:      0.5,
		Norm:         NormLayer,
		Aggregation:  aggregation.FamilyMax,
		Temperature:  1.0,
		Power:        1.0,
		GraphPooling: PoolingMean,
	}
}

// WithDimensions returns a copy of the configuration with the dataset dependent dimensions set.
func (c Config) WithDimensions(inChannels, numClasses, edgeDim int) Config {
	c.InChannels = inChannels
	c.NumClasses = numClasses
	c.EdgeDim = edgeDim
	return c
}

// ConfigurationError is returned for an invalid Config.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gcn: invalid configuration %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Validate returns a *ConfigurationError describing the first problem found, or nil.
func (c Config) Validate() error {
	invalid := func(field string, value any, reason string) error {
		return &ConfigurationError{Field: field, Value: value, Reason: reason}
	}
	switch {
	case !c.Task.IsATask():
		return invalid("Task", c.Task, fmt.Sprintf("valid values are %v", TaskStrings()))
	case !c.Block.IsABlockType():
		return invalid("Block", c.Block, fmt.Sprintf("valid values are %v", BlockTypeStrings()))
	case !c.Norm.IsANormType():
		return invalid("Norm", c.Norm, fmt.Sprintf("valid values are %v", NormTypeStrings()))
	case !c.GraphPooling.IsAPooling():
		return invalid("GraphPooling", c.GraphPooling, fmt.Sprintf("valid values are %v", PoolingStrings()))
	case !c.Aggregation.IsAFamily():
		return invalid("Aggregation", c.Aggregation, fmt.Sprintf("valid values are %v", aggregation.FamilyStrings()))
	case c.NumLayers < 1:
		return invalid("NumLayers", c.NumLayers, "must be >= 1")
	case c.MLPLayers < 1:
		return invalid("MLPLayers", c.MLPLayers, "must be >= 1")
	case c.Hidden < 1:
		return invalid("Hidden", c.Hidden, "must be >= 1")
	case c.InChannels < 1:
		return invalid("InChannels", c.InChannels, "must be >= 1, see Config.WithDimensions")
	case c.NumClasses < 1:
		return invalid("NumClasses", c.NumClasses, "must be >= 1, see Config.WithDimensions")
	case c.Dropout < 0 || c.Dropout >= 1:
		return invalid("Dropout", c.Dropout, "must be in [0, 1)")
	case c.Aggregation == aggregation.FamilyPower && c.Power == 0:
		return invalid("Power", c.Power, "the power mean is undefined for p=0")
	case c.EncodeEdge && c.EdgeDim < 1:
		return invalid("EdgeDim", c.EdgeDim, "edge encoding requires edge features")
	}
	return nil
}

// convConfig returns the configuration shared by all the GENConv layers of the model.
func (c Config) convConfig() ConvConfig {
	return ConvConfig{
		OutChannels:      c.Hidden,
		MLPLayers:        c.MLPLayers,
		Norm:             c.Norm,
		Aggregation:      c.Aggregation,
		Temperature:      c.Temperature,
		LearnTemperature: c.LearnTemperature,
		Power:            c.Power,
		LearnPower:       c.LearnPower,
		MsgNorm:          c.MsgNorm,
		LearnMsgScale:    c.LearnMsgScale,
		EncodeEdge:       c.EncodeEdge,
	}
}
