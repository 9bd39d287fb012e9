package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/saturnines/repsly-export/pkg/catalog"
	"github.com/saturnines/repsly-export/pkg/config"
	"github.com/saturnines/repsly-export/pkg/export"
	"github.com/saturnines/repsly-export/pkg/logging"
)

const defaultConfigPath = "repsly.yaml"

type flags struct {
	configPath  string
	envFile     string
	outputDir   string
	cursorStore string
	cursorPath  string
	concurrency int
	importJob   string
	schedule    string
	metricsFile string
	logLevel    string
	logFormat   string
	list        bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&flags{})
}

func newRootCmdWith(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repsly-export [flags] [endpoint...]",
		Short: "Exports Repsly data into a combined Excel workbook",
		Long: `repsly-export pages through the Repsly export API, resuming every endpoint
from the cursor saved by the previous run, and writes one combined workbook
with a sheet per endpoint plus a LastIDs sheet.

With no endpoint arguments every endpoint in the catalog is exported.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.list {
				for _, name := range catalog.Default().Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return run(cmd, f, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", defaultConfigPath, "config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file with credentials")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for workbooks")
	fs.StringVar(&f.cursorStore, "cursor-store", "", "cursor backend (file or sqlite)")
	fs.StringVar(&f.cursorPath, "cursor-path", "", "cursor store location")
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "endpoints exported at once (0 = all)")
	fs.StringVar(&f.importJob, "import-job", "", "also export the status of this import job")
	fs.StringVar(&f.schedule, "schedule", "", "cron expression; run repeatedly until interrupted")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after each run")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "log format (text or json)")
	fs.BoolVar(&f.list, "list", false, "list endpoint names and exit")
	return cmd
}

// loadConfig reads the config file, then applies flags that were set on the
// command line.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return nil, err
	}

	loader := config.NewLoader(&config.EnvExpander{}, &config.Defaults{})
	optional := !cmd.Flags().Changed("config")
	cfg, err := loader.Load(f.configPath, optional)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if changed("cursor-store") {
		cfg.Cursors.Backend = f.cursorStore
		if !changed("cursor-path") {
			cfg.Cursors.Path = ""
		}
	}
	if changed("cursor-path") {
		cfg.Cursors.Path = f.cursorPath
	}
	if changed("concurrency") {
		cfg.Export.Concurrency = f.concurrency
	}
	if changed("import-job") {
		cfg.Export.ImportJobID = f.importJob
	}
	if changed("schedule") {
		cfg.Schedule = f.schedule
	}
	if changed("metrics-file") {
		cfg.Metrics.Textfile = f.metricsFile
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}

	// Flags may have cleared values, so defaults and validation run again.
	(&config.Defaults{}).SetDefaults(cfg)
	if err := config.DefaultLoader().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	exporter, err := export.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("cannot start exporter")
		return err
	}
	defer exporter.Close()

	once := func(ctx context.Context) error {
		summary, err := exporter.Run(ctx, args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary.Workbook)
		return nil
	}

	ctx := cmd.Context()
	if cfg.Schedule == "" {
		if err := once(ctx); err != nil {
			logger.WithError(err).Error("export failed")
			return err
		}
		return nil
	}

	ctx = logging.WithLogger(ctx, logrus.NewEntry(logger))
	return export.Schedule(ctx, cfg.Schedule, once)
}
