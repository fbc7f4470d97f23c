package components_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-vertex-pipeline/pkg/components"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

func validPool() components.WorkerPoolSpec {
	return components.WorkerPoolSpec{
		MachineSpec:   components.MachineSpec{MachineType: "n1-standard-4"},
		ReplicaCount:  1,
		ContainerSpec: components.ContainerSpec{ImageURI: "gcr.io/p/trainer:latest"},
	}
}

func TestWorkerPoolSpecValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(w *components.WorkerPoolSpec)
		valid  bool
	}{
		{name: "valid", mutate: func(w *components.WorkerPoolSpec) {}, valid: true},
		{name: "with accelerator", mutate: func(w *components.WorkerPoolSpec) {
			w.MachineSpec.AcceleratorType = "NVIDIA_TESLA_T4"
			w.MachineSpec.AcceleratorCount = 1
		}, valid: true},
		{name: "no machine", mutate: func(w *components.WorkerPoolSpec) { w.MachineSpec.MachineType = "" }},
		{name: "no replica", mutate: func(w *components.WorkerPoolSpec) { w.ReplicaCount = 0 }},
		{name: "no image", mutate: func(w *components.WorkerPoolSpec) { w.ContainerSpec.ImageURI = "" }},
		{name: "accelerator without count", mutate: func(w *components.WorkerPoolSpec) {
			w.MachineSpec.AcceleratorType = "NVIDIA_TESLA_T4"
		}},
		{name: "count without accelerator", mutate: func(w *components.WorkerPoolSpec) {
			w.MachineSpec.AcceleratorCount = 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := validPool()
			tt.mutate(&pool)

			err := pool.Validate()
			if tt.valid {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, pipeline.ErrConfiguration)
		})
	}
}

func TestFlag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "--training_dataset_path=/train.csv", components.Flag("training_dataset_path", "/train.csv"))
	assert.Equal(t, "--max_iter=2", components.Flag("max_iter", 2))
}

func TestCatalogOutputs(t *testing.T) {
	t.Parallel()

	names := map[string]struct{}{}
	for _, op := range components.All() {
		assert.NotEmpty(t, op.Component, op.Name)
		assert.NotContains(t, names, op.Name)
		names[op.Name] = struct{}{}
	}

	assert.True(t, components.ModelUpload.HasOutput(components.OutputModel))
	assert.False(t, components.ExtractBigQuery.HasOutput(components.OutputDestinationTable))
}
