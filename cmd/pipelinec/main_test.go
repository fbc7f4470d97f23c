package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

func setEnv(t *testing.T) {
	t.Helper()

	for key, value := range map[string]string{
		"PROJECT_ID":                   "p",
		"REGION":                       "us-central1",
		"PIPELINE_ROOT":                "gs://p-bucket/pipeline",
		"TRAINING_CONTAINER_IMAGE_URI": "gcr.io/p/trainer",
		"SERVING_CONTAINER_IMAGE_URI":  "gcr.io/p/server",
		"TRAINING_FILE_PATH":           "gs://p-bucket/train.csv",
		"VALIDATION_FILE_PATH":         "gs://p-bucket/valid.csv",
		"LOG_FORMAT":                   "json",
		"LOG_LEVEL":                    "info",
	} {
		t.Setenv(key, value)
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	setEnv(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "out", "pipeline.json")
	dot := filepath.Join(dir, "pipeline.dot")

	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-o", out, "--format=json", "--dot", dot, "--pipeline-name=forest"}, &stdout, &stderr)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "forest-kfp-pipeline", doc["pipelineInfo"].(map[string]any)["name"])
	assert.Len(t, doc["tasks"], 13)

	drawn, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(drawn), "strict digraph"))
	assert.Equal(t, 13, strings.Count(string(drawn), " -> "))

	assert.Contains(t, stderr.String(), `"message":"pipeline compiled"`)
	assert.Contains(t, stderr.String(), `"steps":13`)
	assert.Empty(t, stdout.String())
}

func TestRunStdout(t *testing.T) {
	setEnv(t)

	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--output=-"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "pipelineInfo:")
	assert.Contains(t, stdout.String(), "name: covertype-kfp-pipeline")
}

func TestRunMissingConfiguration(t *testing.T) {
	setEnv(t)
	require.NoError(t, os.Unsetenv("PROJECT_ID"))

	out := filepath.Join(t.TempDir(), "pipeline.yaml")

	err := run(context.Background(), []string{"-o", out}, &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, pipeline.ErrConfiguration)
	assert.Equal(t, exitConfiguration, exitCode(err))
	assert.NoFileExists(t, out)
}

func TestRunFlags(t *testing.T) {
	setEnv(t)

	err := run(context.Background(), []string{"--help"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	err = run(context.Background(), []string{"--unknown"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))

	err = run(context.Background(), []string{"--format=toml"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	setEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "pipeline.yaml")

	err := run(ctx, []string{"-o", out}, &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitCycle, exitCode(&pipeline.CycleError{Path: []string{"a", "a"}}))
	assert.Equal(t, exitConfiguration, exitCode(pipeline.NewConfigurationError("x", "bad")))
}
