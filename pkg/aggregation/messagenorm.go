// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package aggregation

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
)

// MessageScaleVarName is the name of the scale variable used by MessageNorm.
const MessageScaleVarName = "msg_scale"

// MessageNorm rescales the aggregated messages of each node to the norm of the node's own features:
// `s * msg/|msg| * |x|`, with the L2 norms taken over the last axis.
//
// The scale `s` is a variable initialized to 1, created in `ctx` and trained only if learnScale is set.
//
// Nodes whose aggregated message is zero get a zero vector. Both the forward and the backward pass are
// free of NaN in that case.
func MessageNorm(ctx *context.Context, x, msg *Node, learnScale bool) *Node {
	if !x.Shape().Equal(msg.Shape()) {
		Panicf("MessageNorm: node features and aggregated messages must have the same shape, got x.shape=%s, msg.shape=%s",
			x.Shape(), msg.Shape())
	}
	g := msg.Graph()
	dtype := msg.DType()
	scaleVar := ctx.VariableWithValue(MessageScaleVarName, shapes.CastAsDType(1.0, dtype))
	scaleVar.SetTrainable(learnScale)
	scale := scaleVar.ValueGraph(g)

	msgNorm, msgIsZero := safeL2Norm(msg)
	xNorm, xIsZero := safeL2Norm(x)
	xNorm = Where(xIsZero, ZerosLike(xNorm), xNorm)
	normalized := Div(msg, msgNorm)
	normalized = Where(BroadcastToShape(msgIsZero, shapes.Make(msgIsZero.DType(), msg.Shape().Dimensions...)),
		ZerosLike(normalized), normalized)
	return Mul(scale, Mul(normalized, xNorm))
}

// safeL2Norm returns the L2 norm over the last axis (keeping the axis), with 1 in place of zero norms,
// and a boolean mask of where the norm was zero.
func safeL2Norm(x *Node) (norm, isZero *Node) {
	sumSquares := ReduceAndKeep(Square(x), ReduceSum, -1)
	isZero = Equal(sumSquares, ZerosLike(sumSquares))
	norm = Sqrt(Where(isZero, OnesLike(sumSquares), sumSquares))
	return
}
