// Package covertype defines the pipeline that tunes, trains, deploys and
// evaluates the covertype classifier on Vertex AI.
package covertype

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/internal/config"
	"github.com/askiada/go-vertex-pipeline/internal/query"
	"github.com/askiada/go-vertex-pipeline/pkg/components"
	"github.com/askiada/go-vertex-pipeline/pkg/hptune"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

// Step names.
const (
	TrainingSplit   = "training-data-split"
	ValidationSplit = "validation-data-split"
	TrainingExtract = "training-data-extract"
	ValidExtract    = "validation-data-extract"
	Tuning          = "hp-tuning"
	RetrieveBest    = "retrieve-best-trial"
	Training        = "training"
	ModelImporter   = "model-importer"
	Upload          = "model-upload"
	CreateEndpoint  = "endpoint-create"
	Deploy          = "model-deploy"
	BatchPredict    = "batch-predict"
	Metrics         = "classification-metrics"
)

const (
	dataset          = "covertype_dataset"
	sourceTable      = "covertype"
	queryLocation    = "US"
	tuningMachine    = "n1-standard-4"
	predictMachine   = "n1-standard-8"
	labelColumn      = "Cover_Type"
	artifactClass    = "google.UnmanagedContainerModel"
	predictionFormat = "bigquery"
)

var (
	trainingBuckets   = []int{1, 2, 3, 4}
	validationBuckets = []int{8}
	classNames        = []string{"0", "1", "2", "3", "4", "5", "6"}
)

// Metrics and search space of the tuning job.
var (
	StudyMetrics = []hptune.MetricSpec{{ID: "accuracy", Goal: hptune.Maximize}}
	StudyParams  = []hptune.ParameterSpec{
		hptune.DoubleParameter("alpha", 1.0e-4, 1.0e-1, hptune.ScaleLog),
		hptune.DiscreteParameter("max_iter", []float64{1, 2}, hptune.ScaleLinear),
	}
)

type assembler struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
}

// Assemble fills the derived defaults of a copy of in, validates it and
// builds the pipeline graph. No step is defined when the configuration is
// invalid.
func Assemble(in *config.Config, opts ...model.PipelineOption) (*pipeline.Graph, error) {
	if in == nil {
		return nil, pipeline.NewConfigurationError("", "configuration is required")
	}

	cfg := *in
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pipe, err := pipeline.New(model.PipelineInfo{
		Name:        cfg.PipelineName + "-kfp-pipeline",
		Description: "Kubeflow pipeline that tunes, trains, and deploys on Vertex",
		Root:        cfg.PipelineRoot,
		Parameters: model.Params{
			"threshold": cfg.Threshold,
			"timestamp": cfg.Timestamp,
		},
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pipeline")
	}

	a := &assembler{cfg: &cfg, pipe: pipe}

	for _, fn := range []func() error{a.prepareData, a.tune, a.train, a.serve, a.evaluate} {
		if err := fn(); err != nil {
			return nil, err
		}
	}

	return pipe.Build()
}

func (a *assembler) table(name string) query.Table {
	return query.Table{Project: a.cfg.ProjectID, Dataset: dataset, Name: name}
}

func (a *assembler) name(suffix string) string {
	return fmt.Sprintf("%s-kfp-%s", a.cfg.PipelineName, suffix)
}

func (a *assembler) prepareData() error {
	splits := []struct {
		step, extract, display, table, uri string
		buckets                            []int
	}{
		{TrainingSplit, TrainingExtract, "Training", "training", a.cfg.TrainingFilePath, trainingBuckets},
		{ValidationSplit, ValidExtract, "Validation", "validation", a.cfg.ValidationFilePath, validationBuckets},
	}

	for _, s := range splits {
		q, err := query.Split{
			Source:      a.table(sourceTable),
			Destination: a.table(s.table),
			Buckets:     s.buckets,
		}.Build()
		if err != nil {
			return err
		}

		split, err := a.pipe.DefineStep(s.step, components.BigQueryQueryJob, model.Params{
			"project":          a.cfg.ProjectID,
			"location":         queryLocation,
			"query":            q.SQL,
			"query_parameters": q.Parameters,
		}, nil, pipeline.StepDisplayName(s.display+" Data Split"))
		if err != nil {
			return err
		}

		_, err = a.pipe.DefineStep(s.extract, components.ExtractBigQuery, model.Params{
			"destination_uri": s.uri,
		}, map[string]model.OutputRef{
			"bq_table": split.Output(components.OutputDestinationTable),
		}, pipeline.StepDisplayName(s.display+" Data Extract"))
		if err != nil {
			return err
		}
	}

	return nil
}

// workerPool is the pool every trial of the tuning job runs on.
func (a *assembler) workerPool() (components.WorkerPoolSpec, error) {
	pool := components.WorkerPoolSpec{
		MachineSpec: components.MachineSpec{
			MachineType:      tuningMachine,
			AcceleratorType:  a.cfg.AcceleratorType,
			AcceleratorCount: a.cfg.AcceleratorCount,
		},
		ReplicaCount: 1,
		ContainerSpec: components.ContainerSpec{
			ImageURI: a.cfg.TrainingContainerImageURI,
			Args: []string{
				components.Flag("training_dataset_path", a.cfg.TrainingFilePath),
				components.Flag("validation_dataset_path", a.cfg.ValidationFilePath),
				"--hptune",
			},
		},
	}

	return pool, pool.Validate()
}

func (a *assembler) tune() error {
	pool, err := a.workerPool()
	if err != nil {
		return err
	}

	metrics, err := hptune.SerializeMetrics(StudyMetrics)
	if err != nil {
		return err
	}

	params, err := hptune.SerializeParameters(StudyParams)
	if err != nil {
		return err
	}

	tuning, err := a.pipe.DefineStep(Tuning, components.HyperparameterTuningJob, model.Params{
		"display_name":          a.name("tuning-job"),
		"project":               a.cfg.ProjectID,
		"location":              a.cfg.Region,
		"worker_pool_specs":     []components.WorkerPoolSpec{pool},
		"study_spec_metrics":    metrics,
		"study_spec_parameters": params,
		"max_trial_count":       a.cfg.MaxTrialCount,
		"parallel_trial_count":  a.cfg.ParallelTrialCount,
		"base_output_directory": a.cfg.PipelineRoot,
	}, nil)
	if err != nil {
		return err
	}

	// the tuning job reads the extracted files, which no output references
	if err := a.pipe.AddOrderingEdge(TrainingExtract, Tuning); err != nil {
		return err
	}

	if err := a.pipe.AddOrderingEdge(ValidExtract, Tuning); err != nil {
		return err
	}

	_, err = a.pipe.DefineStep(RetrieveBest, components.RetrieveBestTrial, model.Params{
		"project":              a.cfg.ProjectID,
		"location":             a.cfg.Region,
		"container_uri":        a.cfg.TrainingContainerImageURI,
		"training_file_path":   a.cfg.TrainingFilePath,
		"validation_file_path": a.cfg.ValidationFilePath,
	}, map[string]model.OutputRef{
		"gcp_resources": tuning.Output(components.OutputGCPResources),
	})

	return err
}

func (a *assembler) train() error {
	_, err := a.pipe.DefineStep(Training, components.CustomTrainingJob, model.Params{
		"project":               a.cfg.ProjectID,
		"location":              a.cfg.Region,
		"display_name":          a.name("training-job"),
		"base_output_directory": a.cfg.BaseOutputDir,
	}, map[string]model.OutputRef{
		"worker_pool_specs": model.Ref(RetrieveBest, components.OutputBestWorkerPoolSpec),
	})

	return err
}

func (a *assembler) serve() error {
	importer, err := a.pipe.DefineStep(ModelImporter, components.Importer, model.Params{
		"artifact_uri":   a.cfg.BaseOutputDir + "/model",
		"artifact_class": artifactClass,
		"metadata": map[string]any{
			"containerSpec": map[string]any{"imageUri": a.cfg.ServingContainerImageURI},
		},
	}, nil)
	if err != nil {
		return err
	}

	// the model files are written by the training job
	if err := a.pipe.AddOrderingEdge(Training, ModelImporter); err != nil {
		return err
	}

	upload, err := a.pipe.DefineStep(Upload, components.ModelUpload, model.Params{
		"project":      a.cfg.ProjectID,
		"display_name": a.name("model-upload-job"),
	}, map[string]model.OutputRef{
		"unmanaged_container_model": importer.Output(components.OutputArtifact),
	})
	if err != nil {
		return err
	}

	endpoint, err := a.pipe.DefineStep(CreateEndpoint, components.EndpointCreate, model.Params{
		"project":      a.cfg.ProjectID,
		"display_name": a.name("create-endpoint-job"),
	}, nil)
	if err != nil {
		return err
	}

	if err := a.pipe.After(endpoint, upload); err != nil {
		return err
	}

	_, err = a.pipe.DefineStep(Deploy, components.ModelDeploy, model.Params{
		"deployed_model_display_name":          a.cfg.ModelDisplayName,
		"dedicated_resources_machine_type":     a.cfg.ServingMachineType,
		"dedicated_resources_min_replica_count": 1,
		"dedicated_resources_max_replica_count": 1,
	}, map[string]model.OutputRef{
		"model":    upload.Output(components.OutputModel),
		"endpoint": endpoint.Output(components.OutputEndpoint),
	})

	return err
}

func (a *assembler) evaluate() error {
	batch, err := a.pipe.DefineStep(BatchPredict, components.ModelBatchPredict, model.Params{
		"project":                         a.cfg.ProjectID,
		"location":                        a.cfg.Region,
		"job_display_name":                "batch_prediction-" + a.cfg.PipelineName,
		"bigquery_source_input_uri":       a.table("validation").URI(),
		"bigquery_destination_output_uri": a.table("batch_predict").URI(),
		"instances_format":                predictionFormat,
		"predictions_format":              predictionFormat,
		"excluded_fields":                 []string{labelColumn},
		"machine_type":                    predictMachine,
		"starting_replica_count":          2,
		"max_replica_count":               10,
	}, map[string]model.OutputRef{
		"model": model.Ref(Upload, components.OutputModel),
	}, pipeline.StepDisplayName("Batch Prediction"))
	if err != nil {
		return err
	}

	_, err = a.pipe.DefineStep(Metrics, components.ClassificationMetrics, model.Params{
		"class_names":  classNames,
		"label_column": labelColumn,
	}, map[string]model.OutputRef{
		"batch_pred_result": batch.Output(components.OutputBigQueryOutputTable),
	}, pipeline.StepDisplayName("Log Confusion Matrix"))

	return err
}
