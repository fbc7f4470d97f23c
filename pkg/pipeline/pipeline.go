package pipeline

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type orderKey struct {
	before, after string
}

// Pipeline assembles a graph of steps. It is not safe for concurrent use.
type Pipeline struct {
	info  model.PipelineInfo
	opts  []model.PipelineOption
	steps []*model.Step
	index map[string]*model.Step

	ordering     []model.Edge
	orderingSeen map[orderKey]struct{}
	built        bool
}

// New creates a new pipeline.
func New(info model.PipelineInfo, opts ...model.PipelineOption) (*Pipeline, error) {
	if info.Name == "" {
		return nil, NewConfigurationError("pipeline.name", "is required")
	}

	pipe := &Pipeline{
		info:         info,
		opts:         opts,
		index:        make(map[string]*model.Step),
		orderingSeen: make(map[orderKey]struct{}),
	}

	for _, opt := range opts {
		err := opt.New(&pipe.info)
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// StepOption configures a step while it is defined.
type StepOption func(s *model.Step)

// StepDisplayName sets the name shown for the step by the executor.
func StepDisplayName(name string) StepOption {
	return func(s *model.Step) {
		s.DisplayName = name
	}
}

// DefineStep records a step invoking op. Inputs reference outputs of other
// steps; those steps do not need to exist yet, references are resolved by Build.
func (p *Pipeline) DefineStep(
	name string,
	op model.OpType,
	params model.Params,
	inputs map[string]model.OutputRef,
	opts ...StepOption,
) (*model.Step, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if p.built {
		return nil, ErrPipelineBuilt
	}

	if name == "" {
		return nil, NewConfigurationError("step.name", "is required")
	}

	if _, ok := p.index[name]; ok {
		return nil, NewConfigurationError(name, "step already defined")
	}

	for _, required := range op.Required {
		_, inParams := params[required]
		_, inInputs := inputs[required]

		if !inParams && !inInputs {
			return nil, NewConfigurationError(name, "%s requires %q", op.Name, required)
		}
	}

	step := &model.Step{
		Name:   name,
		Op:     op,
		Params: model.Params{},
		Inputs: make(map[string]model.OutputRef, len(inputs)),
		Index:  len(p.steps),
	}

	for k, v := range params {
		step.Params[k] = v
	}

	for k, v := range inputs {
		step.Inputs[k] = v
	}

	for _, opt := range opts {
		opt(step)
	}

	for _, opt := range p.opts {
		err := opt.PrepareStep(step)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to prepare step %s", name)
		}
	}

	p.steps = append(p.steps, step)
	p.index[name] = step

	return step, nil
}

// AddOrderingEdge records that the after step must not start before the
// before step completes. Recording the same edge twice is a no-op.
func (p *Pipeline) AddOrderingEdge(before, after string) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if p.built {
		return ErrPipelineBuilt
	}

	if before == "" || after == "" {
		return NewConfigurationError("ordering", "both ends of an ordering edge must be named")
	}

	key := orderKey{before: before, after: after}
	if _, ok := p.orderingSeen[key]; ok {
		return nil
	}

	p.orderingSeen[key] = struct{}{}
	p.ordering = append(p.ordering, model.Edge{From: before, To: after, Kind: model.OrderEdge})

	return nil
}

// After makes step wait for every step in before.
func (p *Pipeline) After(step *model.Step, before ...*model.Step) error {
	if step == nil {
		return ErrStepMustBeSet
	}

	for _, b := range before {
		if b == nil {
			return ErrStepMustBeSet
		}

		err := p.AddOrderingEdge(b.Name, step.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

// Steps returns the steps defined so far, in definition order.
func (p *Pipeline) Steps() []*model.Step {
	res := make([]*model.Step, len(p.steps))
	copy(res, p.steps)

	return res
}
