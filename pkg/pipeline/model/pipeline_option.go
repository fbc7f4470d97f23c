package model

// PipelineOption defines the interface for options observing the assembly of a pipeline.
type PipelineOption interface {
	// New initialises the pipeline option.
	New(info *PipelineInfo) error
	// PrepareStep runs every time a step is defined.
	PrepareStep(step *Step) error
	// PrepareEdge runs every time an edge is resolved while building the graph.
	PrepareEdge(edge Edge) error
	// Finish runs after the graph is built, with the steps in topological order.
	Finish(order []string) error
}
