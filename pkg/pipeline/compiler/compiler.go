// Package compiler turns a built pipeline graph into the document handed to
// the managed pipeline service.
package compiler

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown document format")

type PipelineInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Task is one step of the compiled document.
type Task struct {
	Name           string                     `json:"name" yaml:"name"`
	DisplayName    string                     `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Op             string                     `json:"op" yaml:"op"`
	Component      string                     `json:"component" yaml:"component"`
	Parameters     model.Params               `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Inputs         map[string]model.OutputRef `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	DependentTasks []string                   `json:"dependentTasks,omitempty" yaml:"dependentTasks,omitempty"`
}

// Document is the compiled pipeline.
type Document struct {
	PipelineInfo        PipelineInfo `json:"pipelineInfo" yaml:"pipelineInfo"`
	DefaultPipelineRoot string       `json:"defaultPipelineRoot" yaml:"defaultPipelineRoot"`
	Parameters          model.Params `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Tasks are listed in execution order.
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// Compile converts gra into a Document.
func Compile(gra *pipeline.Graph) (*Document, error) {
	if gra == nil {
		return nil, errors.New("graph must be set")
	}

	doc := &Document{
		PipelineInfo: PipelineInfo{
			Name:        gra.Info.Name,
			Description: gra.Info.Description,
		},
		DefaultPipelineRoot: gra.Info.Root,
		Parameters:          gra.Info.Parameters,
		Tasks:               make([]Task, 0, len(gra.Order)),
	}

	for _, name := range gra.Order {
		step, ok := gra.Step(name)
		if !ok {
			return nil, errors.Errorf("step %s is missing from the graph", name)
		}

		deps := gra.Upstream(name)
		sort.Strings(deps)

		task := Task{
			Name:           step.Name,
			DisplayName:    step.DisplayName,
			Op:             step.Op.Name,
			Component:      step.Op.Component,
			DependentTasks: deps,
		}

		if len(step.Params) > 0 {
			task.Parameters = step.Params
		}

		if len(step.Inputs) > 0 {
			task.Inputs = step.Inputs
		}

		doc.Tasks = append(doc.Tasks, task)
	}

	return doc, nil
}

// Task returns the named task.
func (d *Document) Task(name string) (Task, bool) {
	for _, task := range d.Tasks {
		if task.Name == name {
			return task, true
		}
	}

	return Task{}, false
}

// Write encodes the document to w in the given format.
func (d *Document) Write(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		err := enc.Encode(d)
		if err != nil {
			return errors.Wrap(err, "unable to encode yaml document")
		}

		return errors.Wrap(enc.Close(), "unable to flush yaml document")
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return errors.Wrap(enc.Encode(d), "unable to encode json document")
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// ParseFormat accepts the names of the supported formats.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}
