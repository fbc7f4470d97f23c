package measure

import (
	"sync"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type DefaultMetric struct {
	mu       *sync.Mutex
	op       string
	upstream map[string][]model.EdgeKind
	level    int
}

func (mt *DefaultMetric) Op() string {
	return mt.op
}

func (mt *DefaultMetric) AddUpstream(stepName string, kind model.EdgeKind) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.upstream[stepName] = append(mt.upstream[stepName], kind)
}

// Upstream returns the kinds of the edges received from every upstream step.
func (mt *DefaultMetric) Upstream() map[string][]model.EdgeKind {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	res := make(map[string][]model.EdgeKind, len(mt.upstream))
	for name, kinds := range mt.upstream {
		res[name] = append([]model.EdgeKind(nil), kinds...)
	}

	return res
}

func (mt *DefaultMetric) SetLevel(level int) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.level = level
}

func (mt *DefaultMetric) Level() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.level
}

var _ Metric = (*DefaultMetric)(nil)
