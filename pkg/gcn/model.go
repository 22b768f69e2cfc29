// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gcn implements the DeeperGCN model: a stack of GENConv layers connected by residual (`res+`, `res`),
// dense or plain blocks, followed by a node or a graph prediction head.
//
// The model is configured with a Config, validated once by New. All variables are created in the scope of the
// context given to Model.Logits.
package gcn

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"

	"github.com/gomlx/deepergcn/pkg/aggregation"
)

// Model is a validated DeeperGCN model configuration, used to build the model graph.
type Model struct {
	cfg Config
}

// New validates the configuration and returns the model.
// It returns a *ConfigurationError if the configuration is invalid.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg}, nil
}

// Config returns a copy of the model configuration.
func (m *Model) Config() Config { return m.cfg }

// Inputs of the model graph.
type Inputs struct {
	// Features of the nodes, shaped `[num_nodes, in_channels]`.
	Features *Node

	// Sources and Targets of the edges, integer nodes shaped `[num_edges]`.
	Sources, Targets *Node

	// EdgeFeatures shaped `[num_edges, edge_dim]`. Optional.
	EdgeFeatures *Node

	// GraphIDs of each node, shaped `[num_nodes]`, and the number of graphs. Only used by TaskGraph.
	GraphIDs  *Node
	NumGraphs int
}

// Logits returns the unnormalized predictions: shaped `[num_nodes, num_classes]` for TaskNode
// and `[num_graphs, num_classes]` for TaskGraph.
func (m *Model) Logits(ctx *context.Context, inputs Inputs) *Node {
	cfg := m.cfg
	x := inputs.Features
	if x.Rank() != 2 || x.Shape().Dimensions[1] != cfg.InChannels {
		Panicf("gcn: features must be shaped [num_nodes, %d], got %s", cfg.InChannels, x.Shape())
	}
	if cfg.EncodeEdge && inputs.EdgeFeatures == nil {
		Panicf("gcn: edge encoding configured, but no edge features given")
	}
	if inputs.EdgeFeatures != nil && cfg.EncodeEdge && inputs.EdgeFeatures.Shape().Dimensions[1] != cfg.EdgeDim {
		Panicf("gcn: edge features must be shaped [num_edges, %d], got %s", cfg.EdgeDim, inputs.EdgeFeatures.Shape())
	}

	h := layers.DenseWithBias(ctx.In("node_encoder"), x, cfg.Hidden)
	h = m.backbone(ctx.In("backbone"), h, inputs)

	if cfg.Task == TaskGraph {
		if inputs.GraphIDs == nil || inputs.NumGraphs < 1 {
			Panicf("gcn: graph task requires GraphIDs and NumGraphs >= 1, got NumGraphs=%d", inputs.NumGraphs)
		}
		h = pool(cfg.GraphPooling, h, inputs.GraphIDs, inputs.NumGraphs)
	}
	return layers.DenseWithBias(ctx.In("head"), h, cfg.NumClasses)
}

// LogProbabilities returns the log-softmax of Logits over the classes.
func (m *Model) LogProbabilities(ctx *context.Context, inputs Inputs) *Node {
	return LogSoftmax(m.Logits(ctx, inputs), -1)
}

// layerCtx returns the scope of the layer l.
func layerCtx(ctx *context.Context, l int) *context.Context {
	return ctx.In(fmt.Sprintf("layer_%03d", l))
}

// conv runs the GENConv of layer l.
func (m *Model) conv(ctx *context.Context, l int, h *Node, inputs Inputs) *Node {
	return GENConv(layerCtx(ctx, l).In("conv"), m.cfg.convConfig(), h, inputs.Sources, inputs.Targets, inputs.EdgeFeatures)
}

// activate applies the norm of layer l, the ReLU and the dropout.
func (m *Model) activate(ctx *context.Context, l int, h *Node) *Node {
	lCtx := layerCtx(ctx, l)
	h = normalize(lCtx.In("norm"), m.cfg.Norm, h)
	h = activations.Relu(h)
	return m.dropout(lCtx, h)
}

func (m *Model) dropout(ctx *context.Context, h *Node) *Node {
	return layers.DropoutStatic(ctx.In("dropout"), h, m.cfg.Dropout)
}

// backbone stacks the GENConv layers according to the block type.
func (m *Model) backbone(ctx *context.Context, h *Node, inputs Inputs) *Node {
	numLayers := m.cfg.NumLayers
	switch m.cfg.Block {
	case BlockResPlus:
		h = m.conv(ctx, 0, h, inputs)
		for l := 1; l < numLayers; l++ {
			h = Add(m.conv(ctx, l, m.activate(ctx, l-1, h), inputs), h)
		}
		return m.activate(ctx, numLayers-1, h)

	case BlockRes:
		h = m.activate(ctx, 0, m.conv(ctx, 0, h, inputs))
		for l := 1; l < numLayers; l++ {
			lCtx := layerCtx(ctx, l)
			updated := activations.Relu(normalize(lCtx.In("norm"), m.cfg.Norm, m.conv(ctx, l, h, inputs)))
			h = m.dropout(lCtx, Add(updated, h))
		}
		return h

	case BlockDense:
		states := []*Node{h}
		for l := range numLayers {
			input := h
			if len(states) > 1 {
				input = Concatenate(states, -1)
			}
			states = append(states, m.activate(ctx, l, m.conv(ctx, l, input, inputs)))
		}
		return layers.DenseWithBias(ctx.In("dense_projection"), Concatenate(states, -1), m.cfg.Hidden)

	case BlockPlain:
		for l := range numLayers {
			h = m.activate(ctx, l, m.conv(ctx, l, h, inputs))
		}
		return h

	default:
		Panicf("gcn: unknown block %s, valid values are %v", m.cfg.Block, BlockTypeStrings())
	}
	return nil
}

// pool reduces the node states to one state per graph.
func pool(pooling Pooling, h, graphIDs *Node, numGraphs int) *Node {
	switch pooling {
	case PoolingMean:
		return aggregation.Mean(h, graphIDs, numGraphs)
	case PoolingMax:
		return aggregation.MaxReduce(h, graphIDs, numGraphs)
	case PoolingSum:
		return aggregation.Sum(h, graphIDs, numGraphs)
	default:
		Panicf("gcn: unknown graph pooling %s, valid values are %v", pooling, PoolingStrings())
	}
	return nil
}
