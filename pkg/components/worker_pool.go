package components

import (
	"fmt"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

// MachineSpec selects the machine of a worker pool. The accelerator is
// only sent when AcceleratorType is set.
type MachineSpec struct {
	MachineType      string `json:"machine_type" yaml:"machine_type"`
	AcceleratorType  string `json:"accelerator_type,omitempty" yaml:"accelerator_type,omitempty"`
	AcceleratorCount int    `json:"accelerator_count,omitempty" yaml:"accelerator_count,omitempty"`
}

type ContainerSpec struct {
	ImageURI string   `json:"image_uri" yaml:"image_uri"`
	Args     []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// WorkerPoolSpec is one pool of a custom or tuning job.
type WorkerPoolSpec struct {
	MachineSpec   MachineSpec   `json:"machine_spec" yaml:"machine_spec"`
	ReplicaCount  int           `json:"replica_count" yaml:"replica_count"`
	ContainerSpec ContainerSpec `json:"container_spec" yaml:"container_spec"`
}

// Validate checks the pool can be submitted.
func (w WorkerPoolSpec) Validate() error {
	switch {
	case w.MachineSpec.MachineType == "":
		return pipeline.NewConfigurationError("worker_pool_specs.machine_spec.machine_type", "is required")
	case w.ReplicaCount < 1:
		return pipeline.NewConfigurationError("worker_pool_specs.replica_count", "must be at least 1 (got: %d)", w.ReplicaCount)
	case w.ContainerSpec.ImageURI == "":
		return pipeline.NewConfigurationError("worker_pool_specs.container_spec.image_uri", "is required")
	case (w.MachineSpec.AcceleratorType == "") != (w.MachineSpec.AcceleratorCount == 0):
		return pipeline.NewConfigurationError("worker_pool_specs.machine_spec",
			"accelerator type and count must be set together (got: %q, %d)",
			w.MachineSpec.AcceleratorType, w.MachineSpec.AcceleratorCount)
	}

	return nil
}

// Flag renders a --name=value container argument.
func Flag(name string, value any) string {
	return fmt.Sprintf("--%s=%v", name, value)
}
