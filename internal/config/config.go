// Package config loads the settings of the covertype pipeline from the
// environment, an optional .env file, an optional config file and command
// line flags, in increasing order of precedence.
package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/internal/logger"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

const (
	DefaultServingMachineType = "n1-standard-16"
	DefaultMaxTrialCount      = 5
	DefaultParallelTrialCount = 5
	DefaultThreshold          = 0.6
	DefaultPipelineName       = "covertype"
)

// Config holds every value the pipeline definition depends on.
type Config struct {
	ProjectID    string `mapstructure:"project_id" validate:"required"`
	Region       string `mapstructure:"region" validate:"required"`
	PipelineRoot string `mapstructure:"pipeline_root" validate:"required"`

	TrainingContainerImageURI string `mapstructure:"training_container_image_uri" validate:"required"`
	ServingContainerImageURI  string `mapstructure:"serving_container_image_uri" validate:"required"`
	ServingMachineType        string `mapstructure:"serving_machine_type" validate:"required"`

	TrainingFilePath   string `mapstructure:"training_file_path" validate:"required"`
	ValidationFilePath string `mapstructure:"validation_file_path" validate:"required"`

	MaxTrialCount      int     `mapstructure:"max_trial_count" validate:"gte=1"`
	ParallelTrialCount int     `mapstructure:"parallel_trial_count" validate:"gte=1,ltefield=MaxTrialCount"`
	Threshold          float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`

	PipelineName     string `mapstructure:"pipeline_name" validate:"required"`
	BaseOutputDir    string `mapstructure:"base_output_dir"`
	ModelDisplayName string `mapstructure:"model_display_name"`
	Timestamp        string `mapstructure:"timestamp"`

	// AcceleratorType and AcceleratorCount are unset unless the training
	// pool should run on GPUs.
	AcceleratorType  string `mapstructure:"accelerator_type" validate:"required_with=AcceleratorCount"`
	AcceleratorCount int    `mapstructure:"accelerator_count" validate:"gte=0,required_with=AcceleratorType"`

	Logging logger.Config `mapstructure:"logging"`
}

// ApplyDefaults fills the values derived from other settings.
func (c *Config) ApplyDefaults() {
	if c.ServingMachineType == "" {
		c.ServingMachineType = DefaultServingMachineType
	}

	if c.PipelineName == "" {
		c.PipelineName = DefaultPipelineName
	}

	if c.BaseOutputDir == "" {
		c.BaseOutputDir = c.PipelineRoot
	}

	if c.ModelDisplayName == "" {
		c.ModelDisplayName = c.PipelineName
	}

	c.Logging.ApplyDefaults()
}

// Validate reports every invalid field in a single ConfigurationError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return errors.Wrap(err, "unable to validate config")
		}

		fields := make([]string, 0, len(validationErrors))
		messages := make([]string, 0, len(validationErrors))

		for _, fe := range validationErrors {
			fields = append(fields, fe.Field())
			messages = append(messages, fe.Field()+" "+formatValidationError(fe))
		}

		return &pipeline.ConfigurationError{
			Field:  strings.Join(fields, ","),
			Reason: strings.Join(messages, "; "),
		}
	}

	return c.Logging.Validate()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report the configuration key rather than the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	return v
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required (environment variable " + strings.ToUpper(fe.Field()) + ")"
	case "required_with":
		return "must be set together with " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "ltefield":
		return "must not exceed " + fe.Param()
	default:
		return "is invalid"
	}
}
