package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

func TestNewMissingName(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(model.PipelineInfo{})
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
}

func TestNewOptionError(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(model.PipelineInfo{Name: "test"}, &recordingOption{err: assert.AnError})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDefineStepNilPipe(t *testing.T) {
	t.Parallel()

	var pipe *pipeline.Pipeline
	_, err := pipe.DefineStep("a", joinOp, nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)
}

func TestDefineStepDuplicate(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	defineStep(t, pipe, "a", joinOp, nil)

	_, err := pipe.DefineStep("a", joinOp, nil, nil)
	var cfgErr *pipeline.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "a", cfgErr.Field)
}

func TestDefineStepEmptyName(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	_, err := pipe.DefineStep("", joinOp, nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
}

func TestDefineStepMissingRequired(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	_, err := pipe.DefineStep("q", queryOp, model.Params{"project": "p"}, nil)
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
	assert.Contains(t, err.Error(), `"query"`)

	// a required value may come from an input reference instead of a parameter
	_, err = pipe.DefineStep("e", extractOp, nil, map[string]model.OutputRef{"table": model.Ref("q", "table")})
	assert.NoError(t, err)
}

func TestDefineStepCopiesPayload(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	params := model.Params{"query": "SELECT 1"}
	step, err := pipe.DefineStep("q", queryOp, params, nil, pipeline.StepDisplayName("Query"))
	require.NoError(t, err)

	params["query"] = "DROP TABLE x"
	assert.Equal(t, "SELECT 1", step.Params["query"])
	assert.Equal(t, "Query", step.Label())
	assert.Equal(t, model.Ref("q", "table"), step.Output("table"))
}

func TestDefineStepForwardReference(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	defineStep(t, pipe, "extract", extractOp, map[string]model.OutputRef{"table": model.Ref("query", "table")})
	defineStep(t, pipe, "query", queryOp, nil)

	g, err := pipe.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"query", "extract"}, g.Order)
}

func TestBuildDataEdges(t *testing.T) {
	t.Parallel()

	rec := &recordingOption{}
	pipe := newPipeline(t, rec)
	query := defineStep(t, pipe, "query", queryOp, nil)
	extract := defineStep(t, pipe, "extract", extractOp, map[string]model.OutputRef{"table": query.Output("table")})
	join := defineStep(t, pipe, "join", joinOp, map[string]model.OutputRef{
		"left":  extract.Output("uri"),
		"right": query.Output("table"),
	})
	defineStep(t, pipe, "final", joinOp, map[string]model.OutputRef{
		"data":   join.Output("out"),
		"report": join.Output("report"),
	})

	g, err := pipe.Build()
	require.NoError(t, err)

	// one data edge per reference, even when two references share a producer
	assert.Equal(t, []model.Edge{
		{From: "query", To: "extract", Kind: model.DataEdge, Input: "table", Output: "table"},
		{From: "extract", To: "join", Kind: model.DataEdge, Input: "left", Output: "uri"},
		{From: "query", To: "join", Kind: model.DataEdge, Input: "right", Output: "table"},
		{From: "join", To: "final", Kind: model.DataEdge, Input: "data", Output: "out"},
		{From: "join", To: "final", Kind: model.DataEdge, Input: "report", Output: "report"},
	}, g.Edges)
	assert.Equal(t, []string{"query", "extract", "join", "final"}, g.Order)
	assert.Equal(t, []string{"query", "extract"}, g.Upstream("join"))
	assert.Equal(t, []string{"join"}, g.Upstream("final"))
	assert.Len(t, g.EdgesInto("final"), 2)
	assert.Equal(t, [][]string{{"query"}, {"extract"}, {"join"}, {"final"}}, g.Levels())

	assert.Equal(t, []string{"query", "extract", "join", "final"}, rec.steps)
	assert.Equal(t, g.Edges, rec.edges)
	assert.Equal(t, g.Order, rec.order)
	assert.Equal(t, "test", rec.info.Name)
}

func TestAddOrderingEdgeIdempotent(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	a := defineStep(t, pipe, "a", joinOp, nil)
	b := defineStep(t, pipe, "b", joinOp, nil)
	c := defineStep(t, pipe, "c", joinOp, nil)

	require.NoError(t, pipe.AddOrderingEdge("a", "c"))
	require.NoError(t, pipe.AddOrderingEdge("a", "c"))
	require.NoError(t, pipe.After(c, a, b))

	g, err := pipe.Build()
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{
		{From: "a", To: "c", Kind: model.OrderEdge},
		{From: "b", To: "c", Kind: model.OrderEdge},
	}, g.Edges)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, g.Levels())

	step, ok := g.Step("b")
	require.True(t, ok)
	assert.Same(t, b, step)
}

func TestAfterNilStep(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	a := defineStep(t, pipe, "a", joinOp, nil)

	assert.ErrorIs(t, pipe.After(nil, a), pipeline.ErrStepMustBeSet)
	assert.ErrorIs(t, pipe.After(a, nil), pipeline.ErrStepMustBeSet)
	assert.ErrorIs(t, pipe.AddOrderingEdge("", "a"), pipeline.ErrConfiguration)
}

func TestOrderingEdgeAlongsideDataEdge(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	query := defineStep(t, pipe, "query", queryOp, nil)
	extract := defineStep(t, pipe, "extract", extractOp, map[string]model.OutputRef{"table": query.Output("table")})
	require.NoError(t, pipe.After(extract, query))

	g, err := pipe.Build()
	require.NoError(t, err)
	assert.Len(t, g.Edges, 2)
	assert.Equal(t, []string{"query"}, g.Upstream("extract"))
}

func TestBuildUnknownStep(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	defineStep(t, pipe, "extract", extractOp, map[string]model.OutputRef{"table": model.Ref("missing", "table")})

	_, err := pipe.Build()
	var cfgErr *pipeline.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "extract", cfgErr.Field)
	assert.Contains(t, cfgErr.Reason, "missing")
}

func TestBuildUnknownOutput(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	query := defineStep(t, pipe, "query", queryOp, nil)
	defineStep(t, pipe, "extract", extractOp, map[string]model.OutputRef{"table": query.Output("rows")})

	_, err := pipe.Build()
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
	assert.Contains(t, err.Error(), "query.rows")
}

func TestBuildOrderingUnknownStep(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	defineStep(t, pipe, "a", joinOp, nil)
	require.NoError(t, pipe.AddOrderingEdge("a", "ghost"))

	_, err := pipe.Build()
	assert.ErrorIs(t, err, pipeline.ErrConfiguration)
}

func TestBuildSelfReference(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	defineStep(t, pipe, "loop", joinOp, map[string]model.OutputRef{"in": model.Ref("loop", "out")})

	_, err := pipe.Build()
	var cycleErr *pipeline.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"loop", "loop"}, cycleErr.Path)
}

func TestBuildCycleThroughOrderingEdge(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	a := defineStep(t, pipe, "a", joinOp, nil)
	b := defineStep(t, pipe, "b", joinOp, map[string]model.OutputRef{"in": a.Output("out")})
	defineStep(t, pipe, "c", joinOp, map[string]model.OutputRef{"in": b.Output("out")})
	require.NoError(t, pipe.AddOrderingEdge("c", "a"))

	_, err := pipe.Build()
	var cycleErr *pipeline.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"c", "a", "b", "c"}, cycleErr.Path)
	assert.ErrorIs(t, err, pipeline.ErrCycle)
}

func TestBuildTwice(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t)
	defineStep(t, pipe, "a", joinOp, nil)

	_, err := pipe.Build()
	require.NoError(t, err)

	_, err = pipe.Build()
	assert.ErrorIs(t, err, pipeline.ErrPipelineBuilt)

	_, err = pipe.DefineStep("b", joinOp, nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrPipelineBuilt)
	assert.ErrorIs(t, pipe.AddOrderingEdge("a", "b"), pipeline.ErrPipelineBuilt)
}

func TestBuildFailureIsFinal(t *testing.T) {
	t.Parallel()

	rec := &recordingOption{}

	pipe, err := pipeline.New(model.PipelineInfo{Name: "test"}, rec)
	require.NoError(t, err)

	a := defineStep(t, pipe, "a", joinOp, nil)
	defineStep(t, pipe, "b", joinOp, map[string]model.OutputRef{"in": a.Output("out")})
	require.NoError(t, pipe.AddOrderingEdge("b", "a"))

	_, err = pipe.Build()
	require.ErrorIs(t, err, pipeline.ErrCycle)
	require.Len(t, rec.edges, 2)

	_, err = pipe.Build()
	assert.ErrorIs(t, err, pipeline.ErrPipelineBuilt)
	assert.Len(t, rec.edges, 2)
	assert.Nil(t, rec.order)
}
