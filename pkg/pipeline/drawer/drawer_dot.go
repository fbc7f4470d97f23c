package drawer

import (
	"fmt"
	"html"
	"io"
	"math"
	"sort"
	"strings"
	"text/template"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

// DOTDrawer renders the pipeline graph in the Graphviz DOT language. Steps
// invoking the same operation share a fill colour, ordering edges are dashed.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	steps    []string
	position map[string]int
	colours  map[string]string
	options  []func(*description)
	wrt      io.Writer
}

// NewDOTDrawer creates a new DOT drawer writing to wrt.
func NewDOTDrawer(wrt io.Writer, options ...func(*description)) *DOTDrawer {
	return &DOTDrawer{
		graph:    graph.New(graph.StringHash, graph.Directed()),
		position: make(map[string]int),
		colours:  make(map[string]string),
		options:  options,
		wrt:      wrt,
	}
}

// AddStep adds a step to the pipeline graph.
func (d *DOTDrawer) AddStep(step *model.Step) error {
	colour, err := d.colour(step.Op.Name)
	if err != nil {
		return err
	}

	err = d.graph.AddVertex(step.Name,
		graph.VertexAttribute("label", step.Label()),
		graph.VertexAttribute("xlabel", step.Op.Name),
		graph.VertexAttribute("shape", "box"),
		graph.VertexAttribute("style", "filled"),
		graph.VertexAttribute("fillcolor", colour),
	)
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	d.position[step.Name] = len(d.steps)
	d.steps = append(d.steps, step.Name)

	return nil
}

// AddLink adds a link between two steps.
func (d *DOTDrawer) AddLink(edge model.Edge) error {
	attrs := edgeAttributes(edge)

	err := d.graph.AddEdge(edge.From, edge.To, graph.EdgeAttributes(attrs))
	if !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", edge.From, edge.To)
	}

	existing, err := d.graph.Edge(edge.From, edge.To)
	if err != nil {
		return errors.Wrapf(err, "unable to get edge from %s to %s", edge.From, edge.To)
	}

	merged := mergeAttributes(existing.Properties.Attributes, attrs)

	err = d.graph.UpdateEdge(edge.From, edge.To, graph.EdgeAttributes(merged))
	if err != nil {
		return errors.Wrapf(err, "unable to update edge from %s to %s", edge.From, edge.To)
	}

	return nil
}

// SetLevel appends the level of the step to its caption.
func (d *DOTDrawer) SetLevel(stepName string, level int) error {
	_, properties, err := d.graph.VertexWithProperties(stepName)
	if err != nil {
		return errors.Wrap(err, "unable to get vertex properties")
	}

	properties.Attributes["xlabel"] += fmt.Sprintf(", level %d", level)

	return nil
}

// Draw writes the DOT description of the graph.
func (d *DOTDrawer) Draw() error {
	desc, err := d.generateDOT()
	if err != nil {
		return errors.Wrap(err, "unable to generate dot description")
	}

	return renderDOT(d.wrt, desc)
}

const (
	goldenAngle = 137.508
	saturation  = 0.35
	brightness  = 0.95
)

// colour returns the fill colour of op. Colours are handed out in the order
// operations are first seen.
func (d *DOTDrawer) colour(op string) (string, error) {
	if c, ok := d.colours[op]; ok {
		return c, nil
	}

	hue := math.Mod(float64(len(d.colours))*goldenAngle, 360)
	r, g, b := hsvToRGB(hue, saturation, brightness)

	rgb, err := colors.RGB(r, g, b) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	d.colours[op] = rgb.ToHEX().String()

	return d.colours[op], nil
}

func hsvToRGB(hue, sat, val float64) (uint8, uint8, uint8) {
	chroma := val * sat
	x := chroma * (1 - math.Abs(math.Mod(hue/60, 2)-1))
	m := val - chroma

	var r, g, b float64

	switch {
	case hue < 60:
		r, g, b = chroma, x, 0
	case hue < 120:
		r, g, b = x, chroma, 0
	case hue < 180:
		r, g, b = 0, chroma, x
	case hue < 240:
		r, g, b = 0, x, chroma
	case hue < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}

	scale := func(v float64) uint8 {
		return uint8(math.Round((v + m) * 255))
	}

	return scale(r), scale(g), scale(b)
}

func edgeAttributes(edge model.Edge) map[string]string {
	if edge.Kind == model.OrderEdge {
		return map[string]string{"style": "dashed", "color": "grey40"}
	}

	return map[string]string{"style": "solid", "label": edge.Output}
}

// mergeAttributes combines the attributes of two edges between the same
// steps. A data edge wins over an ordering edge.
func mergeAttributes(existing, added map[string]string) map[string]string {
	res := make(map[string]string, len(existing))
	for k, v := range existing {
		res[k] = v
	}

	if added["style"] == "dashed" {
		return res
	}

	delete(res, "color")
	res["style"] = "solid"

	labels := []string{}
	if res["label"] != "" {
		labels = strings.Split(res["label"], ", ")
	}

	for _, l := range labels {
		if l == added["label"] {
			return res
		}
	}

	res["label"] = strings.Join(append(labels, added["label"]), ", ")

	return res
}

const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{esc $v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{esc .Source}}" {{if .Target}}{{$.EdgeOperator}} "{{esc .Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{esc $v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{esc $v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

// quotedEscaper escapes the content of a double-quoted DOT string.
var quotedEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

// GraphAttribute is a functional option for [NewDOTDrawer].
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

// generateDOT lists the steps in definition order, each followed by its
// outgoing edges.
func (d *DOTDrawer) generateDOT() (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "TB"},
		EdgeOperator: "->",
		Statements:   make([]statement, 0),
	}

	for _, option := range d.options {
		option(&desc)
	}

	adjacencyMap, err := d.graph.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for _, vertex := range d.steps {
		_, sourceProperties, err := d.graph.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(sourceProperties.Attributes))
		htmlAttributes := make(map[string]string)

		for k, v := range sourceProperties.Attributes {
			attributes[k] = v
		}

		if xlabel, ok := attributes["xlabel"]; ok {
			htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="10">%s</FONT>>`,
				html.EscapeString(attributes["label"]), html.EscapeString(xlabel))

			delete(attributes, "xlabel")
			delete(attributes, "label")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		targets := make([]string, 0, len(adjacencyMap[vertex]))
		for target := range adjacencyMap[vertex] {
			targets = append(targets, target)
		}

		sort.Slice(targets, func(i, j int) bool {
			return d.position[targets[i]] < d.position[targets[j]]
		})

		for _, target := range targets {
			edge := adjacencyMap[vertex][target]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         target,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").
		Funcs(template.FuncMap{"esc": quotedEscaper.Replace}).
		Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
