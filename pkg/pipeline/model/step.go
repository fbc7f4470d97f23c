package model

import "sort"

// Params is the parameter payload handed to a managed operation. Values are
// strings, numbers, slices, nested maps or structs with yaml/json tags.
type Params map[string]any

// OpType describes a managed operation a step invokes.
type OpType struct {
	// Name is the short identifier of the operation, e.g. "bigquery-query-job".
	Name string
	// Component is the fully qualified name of the vendor component.
	Component string
	// Outputs lists the named outputs the operation produces.
	Outputs []string
	// Required lists the parameters or inputs that must be provided.
	Required []string
}

// HasOutput reports whether the operation declares the named output.
func (o OpType) HasOutput(name string) bool {
	for _, out := range o.Outputs {
		if out == name {
			return true
		}
	}

	return false
}

// OutputRef points at a named output of a step.
type OutputRef struct {
	Step   string `json:"producerTask" yaml:"producerTask"`
	Output string `json:"outputKey" yaml:"outputKey"`
}

// Ref builds a reference to the output of the named step.
func Ref(step, output string) OutputRef {
	return OutputRef{Step: step, Output: output}
}

func (r OutputRef) String() string {
	return r.Step + "." + r.Output
}

// Step is a named unit of externally executed work.
type Step struct {
	Name        string
	DisplayName string
	Op          OpType
	Params      Params
	Inputs      map[string]OutputRef
	// Index is the position of the step in definition order.
	Index int
}

// Output returns a reference to the named output of the step.
func (s *Step) Output(name string) OutputRef {
	return Ref(s.Name, name)
}

// InputNames returns the input names of the step sorted alphabetically.
func (s *Step) InputNames() []string {
	names := make([]string, 0, len(s.Inputs))
	for name := range s.Inputs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Label returns the display name of the step, or its name when unset.
func (s *Step) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}

	return s.Name
}
