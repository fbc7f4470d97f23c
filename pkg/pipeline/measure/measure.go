package measure

import (
	"sort"
	"sync"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type DefaultMeasure struct {
	mu    sync.Mutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name, op string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	mt := &DefaultMetric{
		mu:       &sync.Mutex{},
		op:       op,
		upstream: make(map[string][]model.EdgeKind),
	}
	m.Steps[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := make(map[string]Metric, len(m.Steps))
	for name, mt := range m.Steps {
		res[name] = mt
	}

	return res
}

// Summary describes the shape of an assembled graph.
type Summary struct {
	Steps int
	// PerOp counts the steps invoking each operation.
	PerOp map[string]int
	// Edges counts the edges of each kind, one per input reference or ordering edge.
	Edges map[model.EdgeKind]int
	// Depth is the number of steps on the longest path.
	Depth int
	// Roots and Leaves are sorted by name.
	Roots  []string
	Leaves []string
}

// Summarize computes the summary of every metric recorded so far.
func Summarize(m Measure) Summary {
	metrics := m.AllMetrics()

	sum := Summary{
		Steps: len(metrics),
		PerOp: make(map[string]int),
		Edges: make(map[model.EdgeKind]int),
	}

	hasDownstream := make(map[string]bool, len(metrics))

	for name, mt := range metrics {
		sum.PerOp[mt.Op()]++

		upstream := mt.Upstream()
		if len(upstream) == 0 {
			sum.Roots = append(sum.Roots, name)
		}

		for up, kinds := range upstream {
			hasDownstream[up] = true

			for _, kind := range kinds {
				sum.Edges[kind]++
			}
		}

		if mt.Level()+1 > sum.Depth {
			sum.Depth = mt.Level() + 1
		}
	}

	for name := range metrics {
		if !hasDownstream[name] {
			sum.Leaves = append(sum.Leaves, name)
		}
	}

	sort.Strings(sum.Roots)
	sort.Strings(sum.Leaves)

	return sum
}

var _ Measure = (*DefaultMeasure)(nil)
