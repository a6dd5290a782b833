// Command falcon selects, renames and reorders CSV columns, replaces cell
// values and evaluates numeric transforms, driven by a TOML/YAML/JSON config.
//
// Usage:
//
//	falcon IN.csv                      writes IN_1.csv, config from FALCON_CONF
//	falcon IN.csv OUT.csv              config from FALCON_CONF
//	falcon IN.csv OUT.csv CONF.toml    explicit config
//	falcon validate [CONF]             checks a config file
//	falcon probe IN.csv                prints a starter config
//	falcon version
//
// Inputs and outputs may carry a .gz, .zst or .lz4 suffix after .csv.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"falcon/internal/codec"
	"falcon/internal/config"
	"falcon/internal/logging"
	"falcon/internal/metrics"
	"falcon/internal/probe"
	"falcon/internal/runner"

	// register every sink kind with the storage registry.
	_ "falcon/internal/storage/all"
)

var version = "0.3.0"

const (
	projectURL  = "https://github.com/Russiarain/falcon"
	logLevelEnv = "FALCON_LOG_LEVEL"
)

// jobRunner is the part of *runner.Runner the CLI drives.
type jobRunner interface {
	Run(ctx context.Context, job runner.Job) (runner.Stats, error)
}

// appDeps holds the side-effecting collaborators of runMain.
type appDeps struct {
	loadConfig  func(path string) (config.Config, error)
	newLogger   func(cfg logging.Config, w io.Writer) (*zap.Logger, error)
	initMetrics func(ctx context.Context, m config.Metrics, log *zap.Logger) (func(), error)
	newRunner   func(log *zap.Logger) jobRunner
	probe       func(ctx context.Context, opt probe.Options) (probe.Result, error)
	now         func() time.Time
}

func defaultDeps() appDeps {
	return appDeps{
		loadConfig:  config.Load,
		newLogger:   logging.New,
		initMetrics: initMetrics,
		newRunner:   func(log *zap.Logger) jobRunner { return runner.New(log) },
		probe:       probe.Probe,
		now:         time.Now,
	}
}

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr, defaultDeps())
	stop()
	os.Exit(code)
}

// usageError marks command-line mistakes; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

var (
	errInputNotCSV  = errors.New("Input must be a csv file!")
	errOutputNotCSV = errors.New("Output must be a csv file!")
	errInvalidConf  = errors.New("invalid configuration")
)

// runMain executes the CLI and returns the process exit code.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	root := newRootCmd(ctx, stdout, stderr, deps)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}
	printError(stderr, err.Error())

	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr, "Run 'falcon --help' for usage.")
		return 2
	}
	return 1
}

func newRootCmd(ctx context.Context, stdout, stderr io.Writer, deps appDeps) *cobra.Command {
	var (
		cfgFlag     string
		logLevel    string
		summaryJSON bool
	)

	root := &cobra.Command{
		Use:           "falcon [input].csv [output].csv [conf.toml]",
		Short:         "CSV toolkit for column/row selecting, cell replacing/transforming and number rounding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 3 {
				return usageError{fmt.Errorf("accepts at most 3 args, received %d", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printHelp(stdout)
				return nil
			}

			in := args[0]
			if !codec.IsCSV(in) {
				return errInputNotCSV
			}
			out := defaultOutput(in)
			if len(args) > 1 {
				out = args[1]
			}
			if !codec.IsCSV(out) {
				return errOutputNotCSV
			}

			explicit := cfgFlag
			if explicit == "" && len(args) > 2 {
				explicit = args[2]
			}
			path, err := config.ResolvePath(explicit)
			if err != nil {
				return err
			}

			return runJob(ctx, stdout, stderr, deps, runOptions{
				input:       in,
				output:      out,
				configPath:  path,
				logLevel:    logLevel,
				summaryJSON: summaryJSON,
			})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	root.PersistentFlags().StringVarP(&cfgFlag, "config", "c", "", "config file (overrides the positional config and "+config.EnvVar+")")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default "+logLevelEnv+", then log.level, else warn)")
	root.Flags().BoolVar(&summaryJSON, "summary-json", false, "print run statistics as JSON instead of the timing line")

	root.AddCommand(
		newValidateCmd(stdout, stderr, deps, &cfgFlag),
		newProbeCmd(ctx, stdout, deps),
		newVersionCmd(stdout),
	)
	return root
}

type runOptions struct {
	input, output string
	configPath    string
	logLevel      string
	summaryJSON   bool
}

func runJob(ctx context.Context, stdout, stderr io.Writer, deps appDeps, opt runOptions) error {
	cfg, err := deps.loadConfig(opt.configPath)
	if err != nil {
		return err
	}
	issues := config.Validate(cfg)
	printIssues(stderr, issues)
	if config.HasErrors(issues) {
		return fmt.Errorf("%w: %s", errInvalidConf, opt.configPath)
	}

	level := opt.logLevel
	if level == "" {
		level = os.Getenv(logLevelEnv)
	}
	if level == "" {
		level = cfg.Log.Level
	}
	log, err := deps.newLogger(logging.Config{Level: level, Encoding: cfg.Log.Encoding}, stderr)
	if err != nil {
		return usageError{err}
	}
	logging.Set(log)
	defer logging.Sync()

	cleanup, err := deps.initMetrics(ctx, cfg.Metrics, log)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer cleanup()

	start := deps.now()
	stats, err := deps.newRunner(log).Run(ctx, runner.Job{
		Input:  opt.input,
		Output: opt.output,
		Config: cfg,
	})
	metrics.RecordRun(err)
	if err != nil {
		return err
	}

	if opt.summaryJSON {
		enc := gojson.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	printTimeCost(stdout, deps.now().Sub(start))
	return nil
}

func newValidateCmd(stdout, stderr io.Writer, deps appDeps, cfgFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [conf.toml]",
		Short: "Check a config file and print every issue",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError{fmt.Errorf("accepts at most 1 arg, received %d", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := *cfgFlag
			if explicit == "" && len(args) == 1 {
				explicit = args[0]
			}
			path, err := config.ResolvePath(explicit)
			if err != nil {
				return err
			}
			cfg, err := deps.loadConfig(path)
			if err != nil {
				return err
			}
			issues := config.Validate(cfg)
			printIssues(stderr, issues)
			if config.HasErrors(issues) {
				return fmt.Errorf("%w: %s", errInvalidConf, path)
			}
			color.New(color.FgGreen).Fprintf(stdout, "Configuration is valid: %s\n", path)
			return nil
		},
	}
}

func newProbeCmd(ctx context.Context, stdout io.Writer, deps appDeps) *cobra.Command {
	var (
		format    string
		rows      int
		maxBytes  int64
		delimiter string
		encoding  string
		report    bool
	)
	cmd := &cobra.Command{
		Use:   "probe [input].csv",
		Short: "Sample an input and print a starter config",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError{fmt.Errorf("accepts 1 arg, received %d", len(args))}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !codec.IsCSV(args[0]) {
				return errInputNotCSV
			}
			var comma rune
			if delimiter != "" {
				r := []rune(delimiter)
				if len(r) != 1 {
					return usageError{fmt.Errorf("delimiter must be a single character, got %q", delimiter)}
				}
				comma = r[0]
			}

			res, err := deps.probe(ctx, probe.Options{
				Path:      args[0],
				Encoding:  encoding,
				Delimiter: comma,
				Rows:      rows,
				MaxBytes:  maxBytes,
				Format:    format,
			})
			if err != nil {
				return err
			}
			if report {
				_, err = io.WriteString(stdout, res.Summary())
				return err
			}
			_, err = stdout.Write(res.Config)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", "config format: toml or yaml")
	cmd.Flags().IntVar(&rows, "rows", 1000, "number of data rows to sample")
	cmd.Flags().Int64Var(&maxBytes, "bytes", 1<<20, "maximum number of bytes to sample")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "input delimiter (default ,)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "input charset, e.g. windows-1252")
	cmd.Flags().BoolVar(&report, "report", false, "print the inferred column types instead of a config")
	return cmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "falcon v%s\n", version)
			fmt.Fprintf(stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// defaultOutput derives "IN_1.csv" from "IN.csv", keeping a compression
// suffix: "IN.csv.gz" becomes "IN_1.csv.gz".
func defaultOutput(in string) string {
	base := codec.Strip(in)
	comp := in[len(base):]
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_1" + ext + comp
}
