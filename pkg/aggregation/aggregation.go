// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package aggregation implements the generalized message aggregation used by GENConv layers.
//
// Messages are given flat, shaped `[num_edges, message_dim]`, together with the destination node
// of each message, shaped `[num_edges]` or `[num_edges, 1]`. The result is shaped
// `[num_nodes, message_dim]`: one reduced vector per destination node. The destination ids
// don't need to be sorted or contiguous, and the same id can appear any number of times
// (multi-edges, self-loops): the grouping is done with scatter operations.
//
// Nodes that receive no messages are set to zero, for every family.
package aggregation

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
)

const (
	// TemperatureVarName is the name of the variable holding the softmax temperature `t`, when learnable.
	TemperatureVarName = "t"

	// PowerVarName is the name of the variable holding the power mean exponent `p`, when learnable.
	PowerVarName = "p"

	// Epsilon is the floor applied to magnitudes before taking powers in FamilyPower.
	Epsilon = 1e-7
)

// Config for an aggregation. Create it with New, configure it and call Done to build the
// aggregation graph.
type Config struct {
	ctx                    *context.Context
	messages, destinations *Node
	numNodes               int

	family                       Family
	temperature, power           float64
	learnTemperature, learnPower bool
}

// New creates the configuration of an aggregation of `messages` (shaped `[num_edges, message_dim]`)
// into `numNodes` destinations, given by `destinations` (an integer node shaped `[num_edges]` or
// `[num_edges, 1]`).
//
// The default is FamilyMean. Variables for learnable parameters (see Config.Temperature and
// Config.Power) are created in the scope of `ctx`.
func New(ctx *context.Context, messages, destinations *Node, numNodes int) *Config {
	return &Config{
		ctx:          ctx,
		messages:     messages,
		destinations: destinations,
		numNodes:     numNodes,
		family:       FamilyMean,
		temperature:  1.0,
		power:        1.0,
	}
}

// Family sets the reduction to use. Default is FamilyMean.
func (c *Config) Family(family Family) *Config {
	c.family = family
	return c
}

// Temperature sets the initial value of the softmax temperature `t` and whether it is trained.
// Only used by FamilySoftmax and FamilySoftmaxSG. Default is 1.0, not learnable.
func (c *Config) Temperature(value float64, learnable bool) *Config {
	c.temperature = value
	c.learnTemperature = learnable
	return c
}

// Power sets the initial value of the power mean exponent `p` and whether it is trained.
// Only used by FamilyPower. Default is 1.0, not learnable.
func (c *Config) Power(value float64, learnable bool) *Config {
	c.power = value
	c.learnPower = learnable
	return c
}

// Done builds the aggregation graph and returns the aggregated messages, shaped `[numNodes, message_dim]`.
func (c *Config) Done() *Node {
	messages := c.messages
	if messages.Rank() != 2 {
		Panicf("aggregation: messages must be shaped [num_edges, message_dim], got %s", messages.Shape())
	}
	if !messages.DType().IsFloat() {
		Panicf("aggregation: messages must be float, got %s", messages.Shape())
	}
	if c.destinations.Shape().Size() != messages.Shape().Dimensions[0] {
		Panicf("aggregation: %d destinations given for %d messages (destinations.shape=%s)",
			c.destinations.Shape().Size(), messages.Shape().Dimensions[0], c.destinations.Shape())
	}
	if c.numNodes <= 0 {
		Panicf("aggregation: numNodes must be > 0, got %d", c.numNodes)
	}

	switch c.family {
	case FamilyAdd:
		return Sum(messages, c.destinations, c.numNodes)
	case FamilyMean:
		return Mean(messages, c.destinations, c.numNodes)
	case FamilyMax:
		return MaxReduce(messages, c.destinations, c.numNodes)
	case FamilySoftmax, FamilySoftmaxSG:
		t := c.scalar(TemperatureVarName, c.temperature, c.learnTemperature)
		return SoftmaxReduce(messages, c.destinations, c.numNodes, t, c.family == FamilySoftmaxSG)
	case FamilyPower:
		if c.power == 0 && !c.learnPower {
			Panicf("aggregation: power mean with p=0 is undefined")
		}
		p := c.scalar(PowerVarName, c.power, c.learnPower)
		return PowerMean(messages, c.destinations, c.numNodes, p)
	default:
		Panicf("aggregation: unknown family %s, valid values are %v", c.family, FamilyStrings())
	}
	return nil
}

// scalar returns a learnable variable's value, or a constant if not learnable.
func (c *Config) scalar(name string, value float64, learnable bool) *Node {
	g := c.messages.Graph()
	dtype := c.messages.DType()
	if !learnable {
		return Scalar(g, dtype, value)
	}
	v := c.ctx.VariableWithValue(name, shapes.CastAsDType(value, dtype))
	v.SetTrainable(true)
	return v.ValueGraph(g)
}

// groupIndices returns the destinations shaped `[num_edges, 1]`, as expected by Gather and the Scatter ops.
func groupIndices(destinations *Node) *Node {
	if !destinations.DType().IsInt() {
		Panicf("aggregation: destinations must be of an integer dtype, got %s", destinations.Shape())
	}
	if destinations.Rank() == 2 && destinations.Shape().Dimensions[1] == 1 {
		return destinations
	}
	return Reshape(destinations, -1, 1)
}

// Count returns the number of messages per destination node, shaped `[numNodes, 1]`.
func Count(destinations *Node, numNodes int, dtype dtypes.DType) *Node {
	g := destinations.Graph()
	indices := groupIndices(destinations)
	numEdges := indices.Shape().Dimensions[0]
	ones := Ones(g, shapes.Make(dtype, numEdges, 1))
	return ScatterSum(Zeros(g, shapes.Make(dtype, numNodes, 1)), indices, ones, false, false)
}

// Sum of the messages per destination node.
func Sum(messages, destinations *Node, numNodes int) *Node {
	g := messages.Graph()
	indices := groupIndices(destinations)
	outputShape := shapes.Make(messages.DType(), numNodes, messages.Shape().Dimensions[1])
	return ScatterSum(Zeros(g, outputShape), indices, messages, false, false)
}

// Mean of the messages per destination node.
func Mean(messages, destinations *Node, numNodes int) *Node {
	count := Count(destinations, numNodes, messages.DType())
	return Div(Sum(messages, destinations, numNodes), MaxScalar(count, 1))
}

// scatterMax returns the per destination maximum, with -inf for nodes without messages.
func scatterMax(messages, indices *Node, numNodes int) *Node {
	g := messages.Graph()
	initial := BroadcastToDims(Infinity(g, messages.DType(), -1), numNodes, messages.Shape().Dimensions[1])
	return ScatterMax(initial, indices, messages, false, false)
}

// MaxReduce takes the elementwise maximum of the messages per destination node.
func MaxReduce(messages, destinations *Node, numNodes int) *Node {
	indices := groupIndices(destinations)
	maxed := scatterMax(messages, indices, numNodes)
	count := Count(destinations, numNodes, messages.DType())
	hasMessages := BroadcastToShape(GreaterThan(count, ZerosLike(count)), shapes.Make(dtypes.Bool, maxed.Shape().Dimensions...))
	return Where(hasMessages, maxed, ZerosLike(maxed))
}

// SoftmaxReduce weights each message by the softmax over the messages of its group, per dimension,
// and sums them up: `w_i = exp(t*m_i) / sum_j exp(t*m_j)` and the output is `sum_i w_i*m_i`.
//
// The group maximum of `t*m` is subtracted before exponentiation, so no overflow happens for large
// `t`. The `temperature` must be a scalar.
//
// If stopGradient is set, the weights are treated as constants for differentiation, while the
// messages they multiply still carry gradient. The temperature then gets no gradient.
func SoftmaxReduce(messages, destinations *Node, numNodes int, temperature *Node, stopGradient bool) *Node {
	if !temperature.IsScalar() {
		Panicf("aggregation: temperature must be a scalar, got %s", temperature.Shape())
	}
	indices := groupIndices(destinations)
	logits := Mul(messages, temperature)

	// Nodes without messages get -inf as max, but they are never gathered back.
	normalizingMax := StopGradient(scatterMax(logits, indices, numNodes))
	normalizingMax = Gather(normalizingMax, indices)
	numerators := Exp(Sub(logits, normalizingMax))
	denominators := Gather(Sum(numerators, indices, numNodes), indices)
	weights := Div(numerators, denominators)
	if stopGradient {
		weights = StopGradient(weights)
	}
	return Sum(Mul(weights, messages), indices, numNodes)
}

// PowerMean is the signed generalized power mean of the messages per destination node:
// `sign(u)*|u|^(1/p)`, where `u` is the mean of `sign(m)*|m|^p`.
//
// Messages are divided by the largest magnitude of their group before taking powers, and the result
// is scaled back, so every term is bounded by 1 and no overflow happens for any p > 0. A single
// message is returned unchanged. Magnitudes are floored at Epsilon, so neither the forward nor the
// backward pass produces NaN. The power `p` must be a scalar and non-zero.
func PowerMean(messages, destinations *Node, numNodes int, power *Node) *Node {
	if !power.IsScalar() {
		Panicf("aggregation: power must be a scalar, got %s", power.Shape())
	}
	indices := groupIndices(destinations)
	magnitudes := MaxScalar(Abs(messages), Epsilon)

	// Nodes without messages get -inf as max, floored to Epsilon, and their mean is 0 anyway.
	scale := MaxScalar(StopGradient(scatterMax(magnitudes, indices, numNodes)), Epsilon)
	edgeScale := Gather(scale, indices)
	signedPower := Mul(Sign(messages), Pow(Div(magnitudes, edgeScale), power))
	mean := Mean(signedPower, destinations, numNodes)
	return Mul(scale, Mul(Sign(mean), Pow(MaxScalar(Abs(mean), Epsilon), Reciprocal(power))))
}
