package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

// defaults lists every configuration key. Keys without a default are
// registered with their zero value so the environment can provide them.
var defaults = map[string]any{
	"project_id":                   "",
	"region":                       "",
	"pipeline_root":                "",
	"training_container_image_uri": "",
	"serving_container_image_uri":  "",
	"serving_machine_type":         DefaultServingMachineType,
	"training_file_path":           "",
	"validation_file_path":         "",
	"max_trial_count":              DefaultMaxTrialCount,
	"parallel_trial_count":         DefaultParallelTrialCount,
	"threshold":                    DefaultThreshold,
	"pipeline_name":                DefaultPipelineName,
	"base_output_dir":              "",
	"model_display_name":           "",
	"timestamp":                    "",
	"accelerator_type":             "",
	"accelerator_count":            0,
	"logging.level":                "info",
	"logging.format":               "console",
	"logging.no_color":             false,
}

// envAliases binds keys whose environment variable does not follow the
// KEY_WITH_UNDERSCORES convention.
var envAliases = map[string][]string{
	"logging.level":    {"LOG_LEVEL"},
	"logging.format":   {"LOG_FORMAT"},
	"logging.no_color": {"LOG_NO_COLOR"},
}

// LoaderConfig holds the optional sources of a Load call.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile reads a YAML, JSON or TOML file before the environment.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile loads a .env file into the environment. Variables already set win.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithFlags binds the flags registered by RegisterFlags. Flags set on the
// command line take precedence over every other source.
func WithFlags(fs *pflag.FlagSet) LoaderOption {
	return func(lc *LoaderConfig) { lc.Flags = fs }
}

// FlagName returns the command line flag of a configuration key.
func FlagName(key string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

// RegisterFlags declares one flag per configuration key.
func RegisterFlags(fs *pflag.FlagSet) {
	for key, def := range defaults {
		name := FlagName(key)
		usage := "overrides " + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))

		switch def.(type) {
		case int:
			fs.Int(name, 0, usage)
		case float64:
			fs.Float64(name, 0, usage)
		case bool:
			fs.Bool(name, false, usage)
		default:
			fs.String(name, "", usage)
		}
	}
}

// Load builds and validates the configuration. Any missing or malformed value
// is reported as a pipeline.ConfigurationError.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, pipeline.NewConfigurationError("env_file", "unable to load %s: %v", lc.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, def := range defaults {
		v.SetDefault(key, def)
	}

	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)...); err != nil {
			return nil, errors.Wrapf(err, "unable to bind %s", key)
		}
	}

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, pipeline.NewConfigurationError("config_file", "unable to read %s: %v", lc.ConfigFile, err)
		}
	}

	if lc.Flags != nil {
		for key := range defaults {
			flag := lc.Flags.Lookup(FlagName(key))
			if flag == nil || !flag.Changed {
				continue
			}

			if err := v.BindPFlag(key, flag); err != nil {
				return nil, errors.Wrapf(err, "unable to bind flag %s", flag.Name)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, pipeline.NewConfigurationError("", "unable to decode configuration: %v", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
