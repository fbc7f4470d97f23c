package measure

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New(*model.PipelineInfo) error {
	return nil
}

func (pm *pipelineMeasure) PrepareStep(step *model.Step) error {
	pm.AddMetric(step.Name, step.Op.Name)

	return nil
}

func (pm *pipelineMeasure) PrepareEdge(edge model.Edge) error {
	mt := pm.GetMetric(edge.To)
	if mt == nil {
		return errors.Errorf("no metric for step %s", edge.To)
	}

	mt.AddUpstream(edge.From, edge.Kind)

	return nil
}

// Finish sets the level of every step: the length of the longest path reaching it.
func (pm *pipelineMeasure) Finish(order []string) error {
	for _, name := range order {
		if pm.GetMetric(name) == nil {
			return errors.Errorf("no metric for step %s", name)
		}
	}

	level := model.Levels(order, func(name string) []string {
		upstream := pm.GetMetric(name).Upstream()

		names := make([]string, 0, len(upstream))
		for up := range upstream {
			names = append(names, up)
		}

		return names
	})

	for _, name := range order {
		pm.GetMetric(name).SetLevel(level[name])
	}

	return nil
}

// PipelineMeasure records the shape of the graph into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
