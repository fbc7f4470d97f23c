package drawer

import "github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"

// Drawer is an interface that defines the methods for drawing a pipeline graph.
type Drawer interface {
	// AddStep adds a step to the pipeline drawer.
	AddStep(step *model.Step) error
	// AddLink adds a link between two steps. Several links between the same
	// steps are drawn as a single arrow.
	AddLink(edge model.Edge) error
	// SetLevel records the depth of the step in the graph.
	SetLevel(stepName string, level int) error
	// Draw renders the pipeline graph.
	Draw() error
}
