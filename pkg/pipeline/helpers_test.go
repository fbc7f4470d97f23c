package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

var (
	queryOp = model.OpType{
		Name:     "query",
		Outputs:  []string{"table"},
		Required: []string{"query"},
	}
	extractOp = model.OpType{
		Name:     "extract",
		Outputs:  []string{"uri"},
		Required: []string{"table"},
	}
	joinOp = model.OpType{
		Name:    "join",
		Outputs: []string{"out", "report"},
	}
)

func newPipeline(t *testing.T, opts ...model.PipelineOption) *pipeline.Pipeline {
	t.Helper()

	pipe, err := pipeline.New(model.PipelineInfo{Name: "test", Root: "gs://bucket/root"}, opts...)
	require.NoError(t, err)

	return pipe
}

func defineStep(t *testing.T, pipe *pipeline.Pipeline, name string, op model.OpType, inputs map[string]model.OutputRef) *model.Step {
	t.Helper()

	params := model.Params{}
	if op.Name == "query" {
		params["query"] = "SELECT 1"
	}

	step, err := pipe.DefineStep(name, op, params, inputs)
	require.NoError(t, err)

	return step
}

type recordingOption struct {
	info  *model.PipelineInfo
	steps []string
	edges []model.Edge
	order []string
	err   error
}

func (r *recordingOption) New(info *model.PipelineInfo) error {
	r.info = info

	return r.err
}

func (r *recordingOption) PrepareStep(step *model.Step) error {
	r.steps = append(r.steps, step.Name)

	return nil
}

func (r *recordingOption) PrepareEdge(edge model.Edge) error {
	r.edges = append(r.edges, edge)

	return nil
}

func (r *recordingOption) Finish(order []string) error {
	r.order = order

	return nil
}
