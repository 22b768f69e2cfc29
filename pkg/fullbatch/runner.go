// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fullbatch trains and evaluates a gcn.Model on a whole graph at once: every training step
// runs the full graph forward, computes the loss over the training partition and updates the variables.
//
// Runner implements trainloop.Trainer and trainloop.Evaluator.
package fullbatch

import (
	"fmt"
	"slices"
	"strings"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/deepergcn/pkg/dataset"
	"github.com/gomlx/deepergcn/pkg/evaluate"
	"github.com/gomlx/deepergcn/pkg/gcn"
	"github.com/gomlx/deepergcn/pkg/optim"
	"github.com/gomlx/deepergcn/pkg/trainloop"
)

// ModelScope is the context scope of the model variables.
const ModelScope = "model"

// Runner holds the graph tensors and the compiled train and eval executables.
type Runner struct {
	backend backends.Backend
	ctx     *context.Context
	model   *gcn.Model
	graph   *dataset.Graph

	// inputs are the graph tensors, in the order: features, sources, targets, [edge features], [graph ids].
	inputs       []any
	hasEdgeFeats bool
	hasGraphIDs  bool
	labels       *tensors.Tensor
	trainIdx     *tensors.Tensor
	trainExec    *context.Exec
	evalExec     *context.Exec
}

var (
	_ trainloop.Trainer   = (*Runner)(nil)
	_ trainloop.Evaluator = (*Runner)(nil)
)

// New creates a Runner for the model on graph g, with the variables in ctx.
//
// The graph must already be transformed (undirected, self-loops, node features), and its dimensions
// must match the model configuration. If optimizer is nil, optim.Adam() configured from ctx is used.
//
// The evaluation graph is run once, so the model variables are created and initialized on return.
func New(backend backends.Backend, ctx *context.Context, model *gcn.Model, g *dataset.Graph,
	optimizer optimizers.Interface) (*Runner, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	cfg := model.Config()
	switch {
	case g.FeatureDim != cfg.InChannels:
		return nil, errors.Errorf("fullbatch: graph has %d node features, model expects %d", g.FeatureDim, cfg.InChannels)
	case g.NumClasses > cfg.NumClasses:
		return nil, errors.Errorf("fullbatch: graph has %d classes, model only predicts %d", g.NumClasses, cfg.NumClasses)
	case cfg.EncodeEdge && g.EdgeDim != cfg.EdgeDim:
		return nil, errors.Errorf("fullbatch: graph has %d edge features, model expects %d", g.EdgeDim, cfg.EdgeDim)
	case (cfg.Task == gcn.TaskGraph) != g.IsGraphTask():
		return nil, errors.Errorf("fullbatch: model task is %s, but graph task mismatch (graph ids given: %v)",
			cfg.Task, g.IsGraphTask())
	case len(g.Split.Train) == 0:
		return nil, errors.Errorf("fullbatch: dataset %q has an empty train split", g.Name)
	}
	if optimizer == nil {
		optimizer = optim.Adam().FromContext(ctx).Exempt(optim.AggregationScalars).Done()
	}

	r := &Runner{
		backend: backend,
		ctx:     ctx,
		model:   model,
		graph:   g,
		inputs: []any{
			tensors.FromFlatDataAndDimensions(g.Features, g.Nodes, g.FeatureDim),
			tensors.FromFlatDataAndDimensions(g.Sources, g.NumEdges()),
			tensors.FromFlatDataAndDimensions(g.Targets, g.NumEdges()),
		},
		labels:   tensors.FromFlatDataAndDimensions(g.Labels, len(g.Labels)),
		trainIdx: tensors.FromFlatDataAndDimensions(g.Split.Train, len(g.Split.Train), 1),
	}
	if cfg.EncodeEdge {
		r.hasEdgeFeats = true
		r.inputs = append(r.inputs, tensors.FromFlatDataAndDimensions(g.EdgeFeatures, g.NumEdges(), g.EdgeDim))
	}
	if g.IsGraphTask() {
		r.hasGraphIDs = true
		r.inputs = append(r.inputs, tensors.FromFlatDataAndDimensions(g.GraphIDs, g.Nodes))
	}

	// The eval graph runs first and creates the model variables, unless they were loaded from a checkpoint.
	// The train graph reuses them, and only creates the optimizer variables.
	evalCtx := ctx
	if r.NumParameters() > 0 {
		evalCtx = ctx.Reuse()
	}
	var err error
	r.evalExec, err = context.NewExec(backend, evalCtx, func(ctx *context.Context, nodes []*Node) *Node {
		ctx.SetTraining(nodes[0].Graph(), false)
		inputs, _ := r.modelInputs(nodes)
		logits := r.model.Logits(ctx.In(ModelScope), inputs)
		return ArgMax(logits, -1, dtypes.Int32)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "fullbatch: creating eval executable")
	}
	if _, err = r.Predict(); err != nil {
		return nil, err
	}
	r.trainExec, err = context.NewExec(backend, ctx.Reuse(), func(ctx *context.Context, nodes []*Node) *Node {
		g := nodes[0].Graph()
		ctx.SetTraining(g, true)
		inputs, rest := r.modelInputs(nodes)
		labels, trainIdx := rest[0], rest[1]
		loss := r.lossGraph(ctx, inputs, labels, trainIdx)
		optimizer.UpdateGraph(ctx, g, loss)
		return loss
	})
	if err != nil {
		return nil, errors.WithMessage(err, "fullbatch: creating train executable")
	}
	return r, nil
}

// modelInputs converts the graph nodes to the model inputs, and returns the nodes not used.
func (r *Runner) modelInputs(nodes []*Node) (inputs gcn.Inputs, rest []*Node) {
	inputs = gcn.Inputs{Features: nodes[0], Sources: nodes[1], Targets: nodes[2]}
	rest = nodes[3:]
	if r.hasEdgeFeats {
		inputs.EdgeFeatures, rest = rest[0], rest[1:]
	}
	if r.hasGraphIDs {
		inputs.GraphIDs, rest = rest[0], rest[1:]
		inputs.NumGraphs = r.graph.NumGraphs
	}
	return
}

// lossGraph is the negative log-likelihood of the labels in the train partition.
func (r *Runner) lossGraph(ctx *context.Context, inputs gcn.Inputs, labels, trainIdx *Node) *Node {
	logProbs := r.model.LogProbabilities(ctx.In(ModelScope), inputs)
	if logProbs.Shape().Dimensions[0] != labels.Shape().Dimensions[0] {
		Panicf("fullbatch: model returned %d predictions for %d labels", logProbs.Shape().Dimensions[0],
			labels.Shape().Dimensions[0])
	}
	trainLogProbs := Gather(logProbs, trainIdx)
	trainLabels := Gather(InsertAxes(labels, -1), trainIdx)
	trainLabels = Reshape(trainLabels, -1)
	oneHot := OneHot(trainLabels, logProbs.Shape().Dimensions[1], logProbs.DType())
	return Neg(ReduceAllMean(ReduceSum(Mul(oneHot, trainLogProbs), -1)))
}

// TrainStep implements trainloop.Trainer: one full forward and backward pass, and an optimizer update.
func (r *Runner) TrainStep() (float64, error) {
	args := append(slices.Clone(r.inputs), r.labels, r.trainIdx)
	lossT, err := r.trainExec.Exec1(args...)
	if err != nil {
		return 0, errors.WithMessage(err, "fullbatch: train step")
	}
	defer func() { _ = lossT.FinalizeAll() }()
	return float64(tensors.ToScalar[float32](lossT)), nil
}

// Predict returns the predicted class of every node (node tasks) or graph (graph tasks), in inference mode.
func (r *Runner) Predict() ([]int32, error) {
	predT, err := r.evalExec.Exec1(r.inputs...)
	if err != nil {
		return nil, errors.WithMessage(err, "fullbatch: predicting")
	}
	defer func() { _ = predT.FinalizeAll() }()
	return tensors.MustCopyFlatData[int32](predT), nil
}

// Evaluate implements trainloop.Evaluator.
func (r *Runner) Evaluate() (trainloop.Accuracies, error) {
	pred, err := r.Predict()
	if err != nil {
		return trainloop.Accuracies{}, err
	}
	return evaluate.Partitions(r.graph.Labels, pred, r.graph.Split)
}

// NumParameters returns the number of trainable scalars of the model.
func (r *Runner) NumParameters() int {
	var total int
	prefix := context.RootScope + ModelScope
	for v := range r.ctx.IterVariables() {
		if v.Trainable && strings.HasPrefix(v.Scope(), prefix) {
			total += v.Shape().Size()
		}
	}
	return total
}

// LearnedScalar is the current value of a learnable aggregation scalar.
type LearnedScalar struct {
	Scope, Name string
	Value       float64
}

// String implements fmt.Stringer.
func (s LearnedScalar) String() string {
	return fmt.Sprintf("%s%s%s=%.4f", s.Scope, context.ScopeSeparator, s.Name, s.Value)
}

// LearnedScalars returns the aggregation scalars (temperature, power and message scale) of all layers,
// ordered by scope.
func (r *Runner) LearnedScalars() []LearnedScalar {
	var scalars []LearnedScalar
	for v := range r.ctx.IterVariables() {
		if !optim.AggregationScalars(v) || v.Shape().Size() != 1 {
			continue
		}
		var value float64
		switch x := v.MustValue().Value().(type) {
		case float32:
			value = float64(x)
		case float64:
			value = x
		default:
			continue
		}
		scalars = append(scalars, LearnedScalar{Scope: v.Scope(), Name: v.Name(), Value: value})
	}
	slices.SortFunc(scalars, func(a, b LearnedScalar) int {
		if c := strings.Compare(a.Scope, b.Scope); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return scalars
}

// LogLearnedScalars logs the learnable aggregation scalars, if verbosity >= 1.
func (r *Runner) LogLearnedScalars(epoch int) {
	if !klog.V(1).Enabled() {
		return
	}
	for _, s := range r.LearnedScalars() {
		klog.Infof("epoch %d: %s", epoch, s)
	}
}
