// Package model provides the data structures and methods for the pipeline package.
// It defines the steps of a pipeline graph, the references between their outputs
// and inputs, the edges derived from them and the options that observe the assembly.
package model
