package pipeline

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/internal/store"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

var ErrPipelineBuilt = errors.New("pipeline already built")

func stepHash(s *model.Step) string {
	return s.Name
}

// Graph is the finalised set of steps and the edges between them.
type Graph struct {
	Info  model.PipelineInfo
	Steps []*model.Step
	// Edges holds one data edge per input reference, then the ordering edges.
	Edges []model.Edge
	// Order lists the step names in topological order, ties broken by definition order.
	Order []string

	index map[string]*model.Step
	store store.CustomStore[string, *model.Step]
}

// Build resolves every input reference and ordering edge into the step graph.
// It fails with a ConfigurationError when a reference points at an unknown
// step or output, and with a CycleError when an edge closes a cycle.
// Build runs once, failed or not: the hooks have seen a partial graph after
// a failure, so the pipeline must be discarded.
func (p *Pipeline) Build() (*Graph, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if p.built {
		return nil, ErrPipelineBuilt
	}

	p.built = true

	st := store.NewMemoryStore[string, *model.Step]()
	gra := graph.NewWithStore[string, *model.Step](stepHash, st, graph.Directed(), graph.PreventCycles())

	for _, step := range p.steps {
		err := gra.AddVertex(step, graph.VertexAttribute("op", step.Op.Name))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add step %s", step.Name)
		}
	}

	edges := make([]model.Edge, 0, len(p.ordering))

	for _, step := range p.steps {
		for _, input := range step.InputNames() {
			ref := step.Inputs[input]

			producer, ok := p.index[ref.Step]
			if !ok {
				return nil, NewConfigurationError(step.Name, "input %q references unknown step %q", input, ref.Step)
			}

			if !producer.Op.HasOutput(ref.Output) {
				return nil, NewConfigurationError(step.Name, "input %q references undeclared output %s", input, ref)
			}

			edge := model.Edge{
				From:   ref.Step,
				To:     step.Name,
				Kind:   model.DataEdge,
				Input:  input,
				Output: ref.Output,
			}

			err := p.link(gra, edge)
			if err != nil {
				return nil, err
			}

			edges = append(edges, edge)
		}
	}

	for _, edge := range p.ordering {
		for _, name := range []string{edge.From, edge.To} {
			if _, ok := p.index[name]; !ok {
				return nil, NewConfigurationError(name, "ordering edge %s -> %s references unknown step", edge.From, edge.To)
			}
		}

		err := p.link(gra, edge)
		if err != nil {
			return nil, err
		}

		edges = append(edges, edge)
	}

	order, err := graph.StableTopologicalSort(gra, func(a, b string) bool {
		return p.index[a].Index < p.index[b].Index
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort steps")
	}

	for _, opt := range p.opts {
		err := opt.Finish(order)
		if err != nil {
			return nil, errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return &Graph{
		Info:  p.info,
		Steps: p.Steps(),
		Edges: edges,
		Order: order,
		index: p.index,
		store: st,
	}, nil
}

// link adds the edge to gra. Several edges between the same pair of steps
// share one graph edge.
func (p *Pipeline) link(gra graph.Graph[string, *model.Step], edge model.Edge) error {
	for _, opt := range p.opts {
		err := opt.PrepareEdge(edge)
		if err != nil {
			return errors.Wrapf(err, "unable to prepare edge %s -> %s", edge.From, edge.To)
		}
	}

	err := gra.AddEdge(edge.From, edge.To)

	switch {
	case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return &CycleError{Path: cyclePath(gra, edge.From, edge.To)}
	default:
		return errors.Wrapf(err, "unable to link %s to %s", edge.From, edge.To)
	}
}

// cyclePath returns the cycle the edge from -> to would close, starting and ending at from.
func cyclePath(gra graph.Graph[string, *model.Step], from, to string) []string {
	if from == to {
		return []string{from, to}
	}

	path, err := graph.ShortestPath(gra, to, from)
	if err != nil {
		return []string{from, to, from}
	}

	return append([]string{from}, path...)
}

// Step returns the named step.
func (g *Graph) Step(name string) (*model.Step, bool) {
	step, ok := g.index[name]

	return step, ok
}

// Upstream returns the steps name directly depends on, in definition order.
func (g *Graph) Upstream(name string) []string {
	return g.store.Predecessors(name)
}

// EdgesInto returns the edges ending at name.
func (g *Graph) EdgesInto(name string) []model.Edge {
	var res []model.Edge

	for _, edge := range g.Edges {
		if edge.To == name {
			res = append(res, edge)
		}
	}

	return res
}

// Levels groups the steps by the length of the longest path reaching them.
// Steps of the same level have no dependency on each other.
func (g *Graph) Levels() [][]string {
	level := model.Levels(g.Order, g.Upstream)

	var res [][]string

	for _, name := range g.Order {
		for len(res) <= level[name] {
			res = append(res, nil)
		}

		res[level[name]] = append(res[level[name]], name)
	}

	return res
}
