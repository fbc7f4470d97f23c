// Package components is the catalogue of managed operations a pipeline step
// can invoke, together with builders for the nested payloads they accept.
package components
