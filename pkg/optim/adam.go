// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package optim implements the Adam optimizer used to train DeeperGCN models, with decoupled weight
// decay (AdamW) that can skip selected variables.
//
// The aggregation scalars of the GENConv layers (temperature `t`, power `p` and the message norm scale)
// should never be decayed towards zero: use AggregationScalars as the exemption predicate.
package optim

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/initializers"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"

	"github.com/gomlx/deepergcn/pkg/aggregation"
)

const (
	// DefaultLearningRate used if none is configured, either with Config.LearningRate or with the
	// optimizers.ParamLearningRate hyperparameter.
	DefaultLearningRate = 0.01

	// DefaultScope where the moments and the step counter are stored.
	DefaultScope = "adam"

	// ParamWeightDecay is the context hyperparameter for the decoupled weight decay. It must be a float64.
	ParamWeightDecay = "weight_decay"

	// ParamBeta1 and ParamBeta2 are the context hyperparameters for the moving averages of the moments.
	ParamBeta1 = "adam_beta1"
	ParamBeta2 = "adam_beta2"

	// ParamEpsilon is the context hyperparameter for the denominator epsilon.
	ParamEpsilon = "adam_epsilon"
)

// ExemptFn returns true for variables that must not be weight decayed.
type ExemptFn func(v *context.Variable) bool

// AggregationScalars exempts the learnable scalars of the aggregation (`t` and `p`) and of the message
// normalization (`msg_scale`).
func AggregationScalars(v *context.Variable) bool {
	switch v.Name() {
	case aggregation.TemperatureVarName, aggregation.PowerVarName, aggregation.MessageScaleVarName:
		return true
	}
	return false
}

// Config of the optimizer. Create it with Adam, and call Done when finished configuring.
type Config struct {
	scopeName    string
	learningRate float64
	beta1, beta2 float64
	epsilon      float64
	weightDecay  float64
	exempt       ExemptFn
}

// Adam returns the configuration of an Adam optimizer with default values: learning rate 0.01,
// betas (0.9, 0.999), epsilon 1e-8 and no weight decay.
func Adam() *Config {
	return &Config{
		scopeName:    DefaultScope,
		learningRate: -1, // < 0 means read from context or use the default.
		beta1:        0.9,
		beta2:        0.999,
		epsilon:      1e-8,
	}
}

// FromContext reads the weight decay, betas and epsilon from the context hyperparameters, using the
// current values as defaults.
func (c *Config) FromContext(ctx *context.Context) *Config {
	c.weightDecay = context.GetParamOr(ctx, ParamWeightDecay, c.weightDecay)
	c.beta1 = context.GetParamOr(ctx, ParamBeta1, c.beta1)
	c.beta2 = context.GetParamOr(ctx, ParamBeta2, c.beta2)
	c.epsilon = context.GetParamOr(ctx, ParamEpsilon, c.epsilon)
	return c
}

// Scope sets the absolute scope where the optimizer keeps its variables. Default is DefaultScope.
func (c *Config) Scope(name string) *Config {
	c.scopeName = name
	return c
}

// LearningRate sets the learning rate. If not set, it uses the optimizers.ParamLearningRate hyperparameter,
// or DefaultLearningRate.
func (c *Config) LearningRate(value float64) *Config {
	c.learningRate = value
	return c
}

// Betas sets the moving average coefficients of the 1st and 2nd moments.
func (c *Config) Betas(beta1, beta2 float64) *Config {
	c.beta1, c.beta2 = beta1, beta2
	return c
}

// Epsilon added to the denominator.
func (c *Config) Epsilon(epsilon float64) *Config {
	c.epsilon = epsilon
	return c
}

// WeightDecay sets the decoupled weight decay, applied as `lr * wd * value` to every trainable
// variable not exempt.
func (c *Config) WeightDecay(weightDecay float64) *Config {
	c.weightDecay = weightDecay
	return c
}

// Exempt sets the predicate of variables that are not weight decayed. They are still trained.
func (c *Config) Exempt(fn ExemptFn) *Config {
	c.exempt = fn
	return c
}

// Done returns the optimizer.
func (c *Config) Done() optimizers.Interface {
	if c.weightDecay < 0 {
		Panicf("optim: weight decay must be >= 0, got %g", c.weightDecay)
	}
	return &adam{config: *c}
}

type adam struct {
	config Config
}

// UpdateGraph implements optimizers.Interface.
func (o *adam) UpdateGraph(ctx *context.Context, g *Graph, loss *Node) {
	if !loss.IsScalar() {
		Panicf("optim: loss must be a scalar, got loss.shape=%s", loss.Shape())
	}
	grads := ctx.BuildTrainableVariablesGradientsGraph(loss)
	if len(grads) == 0 {
		Panicf("optim: no trainable variables to optimize")
	}
	dtype := loss.DType()

	lrValue := o.config.learningRate
	if lrValue < 0 {
		lrValue = context.GetParamOr(ctx, optimizers.ParamLearningRate, DefaultLearningRate)
	}
	learningRate := optimizers.LearningRateVar(ctx, dtype, lrValue).ValueGraph(g)

	// The global step is kept for checkpoint naming, while Adam's own step drives the debiasing.
	_ = optimizers.IncrementGlobalStepGraph(ctx, g, dtype)
	step := optimizers.IncrementGlobalStepGraph(ctx.InAbsPath(context.ScopeSeparator+o.config.scopeName), g, dtype)

	beta1 := Const(g, shapes.CastAsDType(o.config.beta1, dtype))
	beta2 := Const(g, shapes.CastAsDType(o.config.beta2, dtype))
	debias1 := Reciprocal(OneMinus(Pow(beta1, step)))
	debias2 := Reciprocal(OneMinus(Pow(beta2, step)))
	epsilon := Const(g, shapes.CastAsDType(o.config.epsilon, dtype))

	idx := 0
	for v := range ctx.IterVariables() {
		if !v.Trainable || !v.InUseByGraph(g) {
			continue
		}
		if idx >= len(grads) {
			Panicf("optim: more trainable variables in use than gradients (%d), were variables created in between?", len(grads))
		}
		grad := grads[idx]
		idx++
		if grad.DType() != dtype {
			grad = ConvertDType(grad, dtype)
		}
		grad = optimizers.ClipNaNsInGradients(ctx, grad)

		m1Var, m2Var := o.moments(ctx, v, dtype)
		m1 := Add(Mul(beta1, m1Var.ValueGraph(g)), Mul(OneMinus(beta1), grad))
		m2 := Add(Mul(beta2, m2Var.ValueGraph(g)), Mul(OneMinus(beta2), Square(grad)))
		m1Var.SetValueGraph(m1)
		m2Var.SetValueGraph(m2)

		value := v.ValueGraph(g)
		if value.DType() != dtype {
			value = ConvertDType(value, dtype)
		}
		stepDirection := Div(Mul(learningRate, Mul(m1, debias1)), Add(Sqrt(Mul(m2, debias2)), epsilon))
		if o.config.weightDecay > 0 && (o.config.exempt == nil || !o.config.exempt(v)) {
			stepDirection = Add(stepDirection, Mul(learningRate, MulScalar(value, o.config.weightDecay)))
		}
		stepDirection = optimizers.ClipStepByValue(ctx, stepDirection)
		updated := optimizers.ClipNaNsInUpdates(ctx, value, Sub(value, stepDirection))
		if v.Shape().DType != dtype {
			updated = ConvertDType(updated, v.Shape().DType)
		}
		v.SetValueGraph(updated)
	}
	if idx != len(grads) {
		Panicf("optim: got gradients for %d variables, but only %d trainable variables are in use", len(grads), idx)
	}
}

// moments returns the 1st and 2nd moment variables of the trainable variable v, creating them if needed.
func (o *adam) moments(ctx *context.Context, v *context.Variable, dtype dtypes.DType) (m1, m2 *context.Variable) {
	scopePath := fmt.Sprintf("%s%s%s", context.ScopeSeparator, o.config.scopeName, v.Scope())
	shape := v.Shape().Clone()
	shape.DType = dtype
	ctx = ctx.Checked(false).InAbsPath(scopePath).WithInitializer(initializers.Zero)
	m1 = ctx.VariableWithShape(v.Name()+"_1st_moment", shape).SetTrainable(false)
	m2 = ctx.VariableWithShape(v.Name()+"_2nd_moment", shape).SetTrainable(false)
	return
}

// Clear deletes the optimizer variables. It implements optimizers.Interface.
func (o *adam) Clear(ctx *context.Context) error {
	return ctx.InAbsPath(context.ScopeSeparator + o.config.scopeName).DeleteVariablesInScope()
}
