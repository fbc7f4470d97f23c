package pipeline

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrStepMustBeSet     = errors.New("step must be set")

	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrCycle is matched by every CycleError.
	ErrCycle = errors.New("cycle detected")
)

// ConfigurationError reports malformed or missing configuration, or a payload
// that cannot be built. It is raised while assembling the graph.
type ConfigurationError struct {
	// Field names the offending setting, step or parameter.
	Field  string
	Reason string
}

// NewConfigurationError returns a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return ErrConfiguration.Error() + ": " + e.Reason
	}

	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// CycleError reports an edge that would make a step transitively depend on itself.
type CycleError struct {
	// Path starts and ends with the same step.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
