// Command pipelinec assembles the covertype pipeline graph from the
// environment and writes the compiled document, and optionally its DOT
// rendering, to disk.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-vertex-pipeline/internal/config"
	"github.com/askiada/go-vertex-pipeline/internal/covertype"
	"github.com/askiada/go-vertex-pipeline/internal/logger"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/compiler"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/drawer"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/measure"
	"github.com/askiada/go-vertex-pipeline/pkg/pipeline/model"
)

const (
	exitFailure       = 1
	exitConfiguration = 2
	exitCycle         = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrConfiguration):
		return exitConfiguration
	case errors.Is(err, pipeline.ErrCycle):
		return exitCycle
	default:
		return exitFailure
	}
}

type flags struct {
	configFile string
	envFile    string
	output     string
	format     string
	dot        string
}

func parseFlags(args []string, stderr io.Writer) (*pflag.FlagSet, *flags, error) {
	fl := &flags{}

	fs := pflag.NewFlagSet("pipelinec", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&fl.configFile, "config", "", "YAML or JSON configuration file")
	fs.StringVar(&fl.envFile, "env-file", "", ".env file loaded before reading the environment")
	fs.StringVarP(&fl.output, "output", "o", "pipeline.yaml", `compiled document path, "-" for stdout`)
	fs.StringVarP(&fl.format, "format", "f", string(compiler.FormatYAML), "document format: yaml or json")
	fs.StringVar(&fl.dot, "dot", "", "write the graph in DOT format to this path")
	config.RegisterFlags(fs)

	err := fs.Parse(args)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to parse flags")
	}

	return fs, fl, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, fl, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}

	if err != nil {
		return err
	}

	format, err := compiler.ParseFormat(fl.format)
	if err != nil {
		return err
	}

	loadOpts := []config.LoaderOption{config.WithFlags(fs)}
	if fl.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(fl.configFile))
	}

	if fl.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(fl.envFile))
	}

	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging, stderr)

	var dot bytes.Buffer

	msr := measure.NewDefaultMeasure()
	opts := []model.PipelineOption{logger.PipelineLogger(log), measure.PipelineMeasure(msr)}

	if fl.dot != "" {
		opts = append(opts, drawer.PipelineDrawer(drawer.NewDOTDrawer(&dot, drawer.GraphAttribute("label", cfg.PipelineName))))
	}

	gra, err := covertype.Assemble(cfg, opts...)
	if err != nil {
		return errors.Wrap(err, "unable to assemble pipeline")
	}

	doc, err := compiler.Compile(gra)
	if err != nil {
		return errors.Wrap(err, "unable to compile pipeline")
	}

	var encoded bytes.Buffer

	err = doc.Write(&encoded, format)
	if err != nil {
		return err
	}

	errs, ctx := errgroup.WithContext(ctx)

	errs.Go(func() error {
		if fl.output == "-" {
			_, err := stdout.Write(encoded.Bytes())

			return errors.Wrap(err, "unable to write document")
		}

		return writeFile(ctx, fl.output, encoded.Bytes())
	})

	if fl.dot != "" {
		errs.Go(func() error {
			return writeFile(ctx, fl.dot, dot.Bytes())
		})
	}

	err = errs.Wait()
	if err != nil {
		return err
	}

	sum := measure.Summarize(msr)
	log.Info().
		Str("pipeline", gra.Info.Name).
		Int("steps", sum.Steps).
		Int("data_edges", sum.Edges[model.DataEdge]).
		Int("order_edges", sum.Edges[model.OrderEdge]).
		Int("depth", sum.Depth).
		Strs("roots", sum.Roots).
		Str("output", fl.output).
		Msg("pipeline compiled")

	return nil
}

func writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "not writing %s", path)
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", path)
	}

	err = os.WriteFile(path, data, 0o644) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	return nil
}
