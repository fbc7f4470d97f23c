package model

type EdgeKind string

const (
	// DataEdge is implied by a step consuming the output of another.
	DataEdge EdgeKind = "data"
	// OrderEdge is an explicit must-run-after constraint without data flow.
	OrderEdge EdgeKind = "order"
)

// Edge links two steps: To must not start before From completes.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
	// Input and Output are only set on data edges.
	Input  string
	Output string
}

// PipelineInfo holds the pipeline level metadata.
type PipelineInfo struct {
	Name        string
	Description string
	Root        string
	// Parameters are pipeline wide values exposed to the executor.
	Parameters Params
}
