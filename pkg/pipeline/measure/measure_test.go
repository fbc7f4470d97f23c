package measure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/measure"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

var (
	queryOp   = model.OpType{Name: "query", Outputs: []string{"table", "schema"}}
	extractOp = model.OpType{Name: "extract", Outputs: []string{"uri"}}
)

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()

	pipe, err := pipeline.New(model.PipelineInfo{Name: "measured"}, measure.PipelineMeasure(msr))
	require.NoError(t, err)

	a, err := pipe.DefineStep("a", queryOp, nil, nil)
	require.NoError(t, err)

	_, err = pipe.DefineStep("b", extractOp, nil, map[string]model.OutputRef{
		"table":  a.Output("table"),
		"schema": a.Output("schema"),
	})
	require.NoError(t, err)

	_, err = pipe.DefineStep("c", queryOp, nil, nil)
	require.NoError(t, err)

	_, err = pipe.DefineStep("d", extractOp, nil, map[string]model.OutputRef{"table": model.Ref("c", "table")})
	require.NoError(t, err)

	require.NoError(t, pipe.AddOrderingEdge("b", "d"))

	_, err = pipe.Build()
	require.NoError(t, err)

	assert.Equal(t, 0, msr.GetMetric("a").Level())
	assert.Equal(t, 1, msr.GetMetric("b").Level())
	assert.Equal(t, 0, msr.GetMetric("c").Level())
	assert.Equal(t, 2, msr.GetMetric("d").Level())
	assert.Equal(t, map[string][]model.EdgeKind{
		"c": {model.DataEdge},
		"b": {model.OrderEdge},
	}, msr.GetMetric("d").Upstream())

	assert.Equal(t, measure.Summary{
		Steps:  4,
		PerOp:  map[string]int{"query": 2, "extract": 2},
		Edges:  map[model.EdgeKind]int{model.DataEdge: 3, model.OrderEdge: 1},
		Depth:  3,
		Roots:  []string{"a", "c"},
		Leaves: []string{"d"},
	}, measure.Summarize(msr))
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	sum := measure.Summarize(measure.NewDefaultMeasure())

	assert.Zero(t, sum.Steps)
	assert.Zero(t, sum.Depth)
	assert.Empty(t, sum.Roots)
}

func TestMetricUpstreamIsACopy(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	mt := msr.AddMetric("a", "query")
	mt.AddUpstream("b", model.DataEdge)

	up := mt.Upstream()
	up["b"][0] = model.OrderEdge

	assert.Equal(t, []model.EdgeKind{model.DataEdge}, mt.Upstream()["b"])
	assert.Equal(t, "query", msr.AllMetrics()["a"].Op())
}
