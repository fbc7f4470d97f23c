// Package pipeline assembles the step graph of a managed ML pipeline.
//
// Steps are defined with DefineStep and reference the named outputs of other
// steps through model.OutputRef values. Explicit ordering edges cover the
// dependencies that carry no data. Build resolves every reference into a
// directed acyclic graph, rejecting unknown steps or outputs with a
// ConfigurationError and any edge that closes a cycle with a CycleError.
//
// Nothing is executed: the built Graph is handed to a compiler and then to
// the service running the pipeline.
package pipeline
