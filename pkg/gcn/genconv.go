// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gcn

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	"github.com/gomlx/gomlx/pkg/ml/layers/batchnorm"

	"github.com/gomlx/deepergcn/pkg/aggregation"
)

// MessageEpsilon is added to every message after the ReLU, so messages are strictly positive.
const MessageEpsilon = 1e-7

// ConvConfig configures one GENConv layer.
type ConvConfig struct {
	OutChannels int
	MLPLayers   int
	Norm        NormType

	Aggregation      aggregation.Family
	Temperature      float64
	LearnTemperature bool
	Power            float64
	LearnPower       bool

	MsgNorm, LearnMsgScale bool
	EncodeEdge             bool
}

// GENConv is the generalized graph convolution of DeeperGCN.
//
// Args:
//   - ctx: the layer variables, including the aggregation scalars `t`, `p` and `msg_scale`, are created in
//     this scope, so each layer owns its own.
//   - x: node states, shaped `[num_nodes, in_dim]`.
//   - sources, targets: the edges, integer nodes shaped `[num_edges]`. Messages flow from source to target.
//   - edgeFeatures: optional, shaped `[num_edges, edge_dim]`. Only used if cfg.EncodeEdge is set.
//
// It returns the new node states, shaped `[num_nodes, cfg.OutChannels]`.
func GENConv(ctx *context.Context, cfg ConvConfig, x, sources, targets, edgeFeatures *Node) *Node {
	if x.Rank() != 2 {
		Panicf("GENConv: node states must be shaped [num_nodes, dim], got %s", x.Shape())
	}
	if !sources.Shape().Equal(targets.Shape()) {
		Panicf("GENConv: sources and targets must have the same shape, got %s and %s", sources.Shape(), targets.Shape())
	}
	numNodes := x.Shape().Dimensions[0]
	out := cfg.OutChannels

	xSrc, xDst := x, x
	if x.Shape().Dimensions[1] != out {
		xSrc = layers.DenseWithBias(ctx.In("lin_src"), x, out)
		xDst = layers.DenseWithBias(ctx.In("lin_dst"), x, out)
	}

	messages := Gather(xSrc, Reshape(sources, -1, 1))
	if cfg.EncodeEdge && edgeFeatures != nil {
		messages = Add(messages, layers.DenseWithBias(ctx.In("edge_encoder"), edgeFeatures, out))
	}
	messages = AddScalar(activations.Relu(messages), MessageEpsilon)

	h := aggregation.New(ctx, messages, targets, numNodes).
		Family(cfg.Aggregation).
		Temperature(cfg.Temperature, cfg.LearnTemperature).
		Power(cfg.Power, cfg.LearnPower).
		Done()
	if cfg.MsgNorm {
		h = aggregation.MessageNorm(ctx, xDst, h, cfg.LearnMsgScale)
	}
	h = Add(h, xDst)
	return mlp(ctx.In("mlp"), cfg, h)
}

// mlp applies cfg.MLPLayers dense layers, with hidden width 2*out and a norm and a ReLU in between.
func mlp(ctx *context.Context, cfg ConvConfig, x *Node) *Node {
	for ii := range cfg.MLPLayers - 1 {
		layerCtx := ctx.In(fmt.Sprintf("%d", ii))
		x = layers.DenseWithBias(layerCtx, x, 2*cfg.OutChannels)
		x = normalize(layerCtx, cfg.Norm, x)
		x = activations.Relu(x)
	}
	return layers.DenseWithBias(ctx.In(fmt.Sprintf("%d", cfg.MLPLayers-1)), x, cfg.OutChannels)
}

// normalize the node states over the feature axis.
func normalize(ctx *context.Context, norm NormType, x *Node) *Node {
	switch norm {
	case NormBatch:
		return batchnorm.New(ctx.In("batch_norm"), x, -1).Done()
	case NormLayer:
		return layers.LayerNormalization(ctx, x, -1).Done()
	case NormNone:
		return x
	default:
		Panicf("unknown normalization %s, valid values are %v", norm, NormTypeStrings())
	}
	return nil
}
