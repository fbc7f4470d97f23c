package drawer

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	upstream map[string][]string
}

func (pd *pipelineDrawer) New(*model.PipelineInfo) error {
	pd.upstream = make(map[string][]string)

	return nil
}

func (pd *pipelineDrawer) PrepareStep(step *model.Step) error {
	return pd.AddStep(step)
}

func (pd *pipelineDrawer) PrepareEdge(edge model.Edge) error {
	pd.upstream[edge.To] = append(pd.upstream[edge.To], edge.From)

	return pd.AddLink(edge)
}

// Finish labels every step with its level, then draws the graph.
func (pd *pipelineDrawer) Finish(order []string) error {
	level := model.Levels(order, func(name string) []string { return pd.upstream[name] })

	for _, name := range order {
		err := pd.SetLevel(name, level[name])
		if err != nil {
			return errors.Wrapf(err, "unable to set level of %s", name)
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the graph once it is built.
func PipelineDrawer(drawer Drawer) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer}
}
