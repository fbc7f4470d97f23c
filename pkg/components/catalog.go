package components

import "github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"

const gcpc = "google_cloud_pipeline_components.v1."

// Output names shared by several operations.
const (
	OutputGCPResources        = "gcp_resources"
	OutputDestinationTable    = "destination_table"
	OutputBestWorkerPoolSpec  = "best_worker_pool_spec"
	OutputArtifact            = "artifact"
	OutputModel               = "model"
	OutputEndpoint            = "endpoint"
	OutputBigQueryOutputTable = "bigquery_output_table"
	OutputMetrics             = "metrics"
)

var (
	BigQueryQueryJob = model.OpType{
		Name:      "bigquery-query-job",
		Component: gcpc + "bigquery.BigqueryQueryJobOp",
		Outputs:   []string{OutputDestinationTable, OutputGCPResources},
		Required:  []string{"project", "location", "query"},
	}

	// ExtractBigQuery exports a table to a storage URI.
	ExtractBigQuery = model.OpType{
		Name:      "extract-bigquery-table",
		Component: "extract_bq.extract_bq_op",
		Outputs:   []string{},
		Required:  []string{"bq_table", "destination_uri"},
	}

	HyperparameterTuningJob = model.OpType{
		Name:      "hyperparameter-tuning-job",
		Component: gcpc + "hyperparameter_tuning_job.HyperparameterTuningJobRunOp",
		Outputs:   []string{OutputGCPResources},
		Required: []string{
			"project", "location", "display_name", "worker_pool_specs",
			"study_spec_metrics", "study_spec_parameters", "max_trial_count", "parallel_trial_count",
		},
	}

	// RetrieveBestTrial reads the tuning job result and returns the worker
	// pool spec of its best trial, without the tuning flag.
	RetrieveBestTrial = model.OpType{
		Name:      "retrieve-best-hptune-result",
		Component: "retrieve_best_hptune_component.retrieve_best_hptune_result",
		Outputs:   []string{OutputBestWorkerPoolSpec},
		Required:  []string{"project", "location", "gcp_resources", "container_uri"},
	}

	CustomTrainingJob = model.OpType{
		Name:      "custom-training-job",
		Component: gcpc + "custom_job.CustomTrainingJobOp",
		Outputs:   []string{OutputGCPResources},
		Required:  []string{"project", "location", "display_name", "worker_pool_specs"},
	}

	// Importer registers an existing artifact so later steps can consume it.
	Importer = model.OpType{
		Name:      "importer",
		Component: "kfp.dsl.importer",
		Outputs:   []string{OutputArtifact},
		Required:  []string{"artifact_uri", "artifact_class"},
	}

	ModelUpload = model.OpType{
		Name:      "model-upload",
		Component: gcpc + "model.ModelUploadOp",
		Outputs:   []string{OutputModel, OutputGCPResources},
		Required:  []string{"project", "display_name", "unmanaged_container_model"},
	}

	EndpointCreate = model.OpType{
		Name:      "endpoint-create",
		Component: gcpc + "endpoint.EndpointCreateOp",
		Outputs:   []string{OutputEndpoint, OutputGCPResources},
		Required:  []string{"project", "display_name"},
	}

	ModelDeploy = model.OpType{
		Name:      "model-deploy",
		Component: gcpc + "endpoint.ModelDeployOp",
		Outputs:   []string{OutputGCPResources},
		Required:  []string{"model", "endpoint", "dedicated_resources_machine_type"},
	}

	ModelBatchPredict = model.OpType{
		Name:      "model-batch-predict",
		Component: gcpc + "batch_predict_job.ModelBatchPredictOp",
		Outputs:   []string{OutputBigQueryOutputTable, OutputGCPResources},
		Required:  []string{"project", "location", "model", "job_display_name"},
	}

	// ClassificationMetrics computes a confusion matrix from a prediction table.
	ClassificationMetrics = model.OpType{
		Name:      "classification-metrics",
		Component: "cls_metrics.compute_cls_metrics",
		Outputs:   []string{OutputMetrics},
		Required:  []string{"batch_pred_result", "class_names", "label_column"},
	}
)

// All lists every operation of the catalogue.
func All() []model.OpType {
	return []model.OpType{
		BigQueryQueryJob,
		ExtractBigQuery,
		HyperparameterTuningJob,
		RetrieveBestTrial,
		CustomTrainingJob,
		Importer,
		ModelUpload,
		EndpointCreate,
		ModelDeploy,
		ModelBatchPredict,
		ClassificationMetrics,
	}
}
