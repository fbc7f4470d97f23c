package logger

import (
	"github.com/rs/zerolog"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

type pipelineLogger struct {
	log zerolog.Logger
}

// PipelineLogger logs every step and edge of the assembled graph at debug level.
func PipelineLogger(log zerolog.Logger) model.PipelineOption {
	return &pipelineLogger{log: log}
}

func (pl *pipelineLogger) New(info *model.PipelineInfo) error {
	pl.log = pl.log.With().Str("pipeline", info.Name).Logger()
	pl.log.Debug().Str("root", info.Root).Msg("assembling pipeline")

	return nil
}

func (pl *pipelineLogger) PrepareStep(step *model.Step) error {
	pl.log.Debug().
		Str("step", step.Name).
		Str("op", step.Op.Name).
		Int("inputs", len(step.Inputs)).
		Msg("step defined")

	return nil
}

func (pl *pipelineLogger) PrepareEdge(edge model.Edge) error {
	evt := pl.log.Debug().
		Str("from", edge.From).
		Str("to", edge.To).
		Str("kind", string(edge.Kind))
	if edge.Kind == model.DataEdge {
		evt = evt.Str("output", edge.Output).Str("input", edge.Input)
	}

	evt.Msg("linking dependency")

	return nil
}

func (pl *pipelineLogger) Finish(order []string) error {
	pl.log.Debug().Strs("order", order).Msg("pipeline graph built")

	return nil
}
