package measure

import "github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"

// Measure collects figures about an assembled pipeline.
type Measure interface {
	AddMetric(name, op string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric holds the figures of one step.
type Metric interface {
	Op() string
	AddUpstream(stepName string, kind model.EdgeKind)
	Upstream() map[string][]model.EdgeKind
	SetLevel(level int)
	Level() int
}
