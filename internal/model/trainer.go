package model

import (
	"context"
	"fmt"
	"math"
	"strings"

	"omnisync/internal/services"
)

// Optimizer updates parameters from gradients.
type Optimizer interface {
	Step(ctx context.Context, params, grads []float32) error
}

// Loss scores a prediction against its target.
type Loss interface {
	Compute(prediction, target []float32) (float64, error)
}

// TrainRequest describes a training job.
type TrainRequest struct {
	DataPath string
	Epochs   int
	Output   string
}

// Trainer produces weights from a dataset.
type Trainer interface {
	Train(ctx context.Context, req TrainRequest) (Weights, error)
}

// ScaffoldTrainer holds the training collaborators but has no training loop.
type ScaffoldTrainer struct {
	Optimizer Optimizer
	Loss      Loss
}

// Train validates req and reports that training is not implemented.
func (t ScaffoldTrainer) Train(ctx context.Context, req TrainRequest) (Weights, error) {
	if err := ctx.Err(); err != nil {
		return Weights{}, err
	}
	if strings.TrimSpace(req.DataPath) == "" {
		return Weights{}, services.Wrap(services.ErrInvalidArgument, "train", "", "data path required", nil)
	}
	if req.Epochs <= 0 {
		return Weights{}, services.Wrap(services.ErrInvalidArgument, "train", "", "epochs must be positive", nil)
	}
	if t.Optimizer == nil || t.Loss == nil {
		return Weights{}, services.Wrap(services.ErrConfiguration, "train", "", "optimizer and loss are required", nil)
	}
	return Weights{}, services.Wrap(services.ErrNotImplemented, "train", "", "training loop is not implemented", nil)
}

// Adam defaults, matching the usual first and second moment decay rates.
const (
	DefaultLearningRate = 0.001
	defaultBeta1        = 0.9
	defaultBeta2        = 0.999
	defaultEpsilon      = 1e-8
)

// Adam is the Adam optimizer. Moment state is sized on the first Step and
// reset when the parameter count changes. Not safe for concurrent use.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v []float64
	t    int
}

// NewAdam returns an Adam optimizer with the default moment decay rates. A
// non-positive lr selects DefaultLearningRate.
func NewAdam(lr float64) *Adam {
	if lr <= 0 {
		lr = DefaultLearningRate
	}
	return &Adam{LearningRate: lr, Beta1: defaultBeta1, Beta2: defaultBeta2, Epsilon: defaultEpsilon}
}

// Step applies one bias-corrected Adam update to params in place.
func (o *Adam) Step(ctx context.Context, params, grads []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(params) != len(grads) {
		return services.Wrap(services.ErrInvalidArgument, "train", "optimizer step",
			fmt.Sprintf("%d params for %d grads", len(params), len(grads)), nil)
	}
	if len(o.m) != len(params) {
		o.m = make([]float64, len(params))
		o.v = make([]float64, len(params))
		o.t = 0
	}
	o.t++
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))
	for i := range params {
		g := float64(grads[i])
		o.m[i] = o.Beta1*o.m[i] + (1-o.Beta1)*g
		o.v[i] = o.Beta2*o.v[i] + (1-o.Beta2)*g*g
		mHat := o.m[i] / c1
		vHat := o.v[i] / c2
		params[i] -= float32(o.LearningRate * mHat / (math.Sqrt(vHat) + o.Epsilon))
	}
	return nil
}

// MSE is the mean squared error.
type MSE struct{}

// Compute returns mean((prediction - target)^2).
func (MSE) Compute(prediction, target []float32) (float64, error) {
	if len(prediction) != len(target) {
		return 0, services.Wrap(services.ErrInvalidArgument, "train", "loss",
			fmt.Sprintf("%d predictions for %d targets", len(prediction), len(target)), nil)
	}
	if len(prediction) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range prediction {
		d := float64(prediction[i] - target[i])
		sum += d * d
	}
	return sum / float64(len(prediction)), nil
}
