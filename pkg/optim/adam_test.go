// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package optim

import (
	"strings"
	"testing"

	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/graph/graphtest"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/gomlx/gomlx/backends/default"
)

func scalarVar(t *testing.T, ctx *context.Context, scope, name string) float32 {
	v := ctx.GetVariableByScopeAndName(scope, name)
	require.NotNilf(t, v, "variable %s/%s", scope, name)
	return tensors.ToScalar[float32](v.MustValue())
}

func TestAdamConverges(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	ctx := context.New()
	opt := Adam().LearningRate(0.1).Done()
	exec, err := context.NewExec(backend, ctx, func(ctx *context.Context, g *Graph) *Node {
		x := ctx.VariableWithValue("x", float32(0)).ValueGraph(g)
		loss := Square(AddScalar(x, -3))
		opt.UpdateGraph(ctx, g, loss)
		return loss
	})
	require.NoError(t, err)
	var loss *tensors.Tensor
	for range 300 {
		loss, err = exec.Exec1()
		require.NoError(t, err)
	}
	assert.Less(t, tensors.ToScalar[float32](loss), float32(1e-3))
	assert.InDelta(t, 3.0, scalarVar(t, ctx, "/", "x"), 0.05)
	assert.Equal(t, int64(300), optimizers.GetGlobalStep(ctx))

	// Moments are stored under the optimizer scope.
	require.Equal(t, 2, countMoments(ctx))
	require.NoError(t, opt.Clear(ctx))
	assert.Equal(t, 0, countMoments(ctx))
}

func countMoments(ctx *context.Context) (count int) {
	for v := range ctx.IterVariables() {
		if strings.HasPrefix(v.Scope(), "/adam") && strings.HasPrefix(v.Name(), "x_") {
			count++
		}
	}
	return
}

func TestWeightDecayExemption(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	const lr, wd = 0.5, 0.1
	for _, exempt := range []ExemptFn{nil, AggregationScalars} {
		ctx := context.New()
		opt := Adam().LearningRate(lr).WeightDecay(wd).Exempt(exempt).Done()
		_, err := context.ExecOnce(backend, ctx, func(ctx *context.Context, g *Graph) *Node {
			// Zero gradients: only the weight decay moves the variables.
			w := ctx.In("conv").VariableWithValue("weights", float32(2)).ValueGraph(g)
			temperature := ctx.In("conv").VariableWithValue("t", float32(2)).ValueGraph(g)
			scale := ctx.In("conv").VariableWithValue("msg_scale", float32(2)).ValueGraph(g)
			loss := Add(Add(MulScalar(w, 0), MulScalar(temperature, 0)), MulScalar(scale, 0))
			opt.UpdateGraph(ctx, g, loss)
			return loss
		})
		require.NoError(t, err)

		decayed := float32(2 - lr*wd*2)
		assert.InDelta(t, decayed, scalarVar(t, ctx, "/conv", "weights"), 1e-5)
		if exempt == nil {
			assert.InDelta(t, decayed, scalarVar(t, ctx, "/conv", "t"), 1e-5)
			assert.InDelta(t, decayed, scalarVar(t, ctx, "/conv", "msg_scale"), 1e-5)
		} else {
			assert.Equal(t, float32(2), scalarVar(t, ctx, "/conv", "t"))
			assert.Equal(t, float32(2), scalarVar(t, ctx, "/conv", "msg_scale"))
		}
	}
}

func TestLearningRateFromContext(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	ctx := context.New()
	ctx.SetParam(optimizers.ParamLearningRate, 0.25)
	opt := Adam().FromContext(ctx).Done()
	_, err := context.ExecOnce(backend, ctx, func(ctx *context.Context, g *Graph) *Node {
		x := ctx.VariableWithValue("x", float32(1)).ValueGraph(g)
		loss := MulScalar(x, 2)
		opt.UpdateGraph(ctx, g, loss)
		return loss
	})
	require.NoError(t, err)
	// The first Adam step has magnitude ~lr, regardless of the gradient scale.
	assert.InDelta(t, 0.75, scalarVar(t, ctx, "/", "x"), 1e-4)
}

func TestAggregationScalars(t *testing.T) {
	ctx := context.New()
	for name, want := range map[string]bool{"t": true, "p": true, "msg_scale": true, "weights": false, "tp": false} {
		v := ctx.VariableWithValue(name, float32(1))
		assert.Equalf(t, want, AggregationScalars(v), "variable %q", name)
	}
}
