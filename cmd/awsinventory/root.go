package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yairfalse/awsinventory/internal/config"
)

var version = "0.1.0"

// options holds the command line flags. Flags that were set override
// the matching config file values.
type options struct {
	configPath  string
	output      string
	homeRegion  string
	profile     string
	regions     []string
	concurrency int
	timeout     time.Duration
	s3URI       string
	strict      bool
	progress    bool
	logLevel    string
	logFormat   string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "awsinventory",
		Short: "Export an inventory of EC2, Auto Scaling and RDS resources",
		Long: `awsinventory - AWS resource inventory

Lists every enabled region of the account, collects EC2 instances,
Auto Scaling groups with their target groups, RDS instances and RDS
clusters, and writes them to an xlsx workbook with one sheet per
resource family.`,
		Example: `  awsinventory                                   # All regions into data.xlsx
  awsinventory --regions us-east-1,eu-west-1     # Selected regions
  awsinventory --concurrency 4 --progress        # Four regions at a time
  awsinventory --config awsinventory.toml --strict
  awsinventory --s3-uri s3://reports/inventory/  # Also upload the workbook`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return execute(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.SetVersionTemplate(`awsinventory {{.Version}}
`)

	bindFlags(cmd.Flags(), opts)

	return cmd
}

func bindFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVar(&opts.configPath, "config", "", "Config file (.toml, .yaml or .yml)")
	flags.StringVarP(&opts.output, "output", "o", "data.xlsx", "Workbook output path")
	flags.StringVar(&opts.homeRegion, "home-region", "us-east-1", "Region used to list the enabled regions")
	flags.StringVar(&opts.profile, "profile", "", "AWS shared config profile")
	flags.StringSliceVar(&opts.regions, "regions", nil, "Collect only these regions (comma separated)")
	flags.IntVar(&opts.concurrency, "concurrency", 1, "Regions collected in parallel")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Abort the collection after this long (0 = no limit)")
	flags.StringVar(&opts.s3URI, "s3-uri", "", "Upload the workbook to s3://bucket/key")
	flags.BoolVar(&opts.strict, "strict", false, "Exit non-zero when a collector or the export failed")
	flags.BoolVar(&opts.progress, "progress", false, "Show a progress bar on stderr")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "Log format (console, json)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("output") {
		cfg.Report.Path = opts.output
	}
	if flags.Changed("home-region") {
		cfg.AWS.HomeRegion = opts.homeRegion
	}
	if flags.Changed("profile") {
		cfg.AWS.Profile = opts.profile
	}
	if flags.Changed("regions") {
		cfg.AWS.Regions = opts.regions
	}
	if flags.Changed("concurrency") {
		cfg.Scanner.Concurrency = opts.concurrency
	}
	if flags.Changed("timeout") {
		cfg.Scanner.Timeout = opts.timeout
	}
	if flags.Changed("s3-uri") {
		cfg.Report.S3URI = opts.s3URI
	}
	if flags.Changed("strict") {
		cfg.Scanner.Strict = opts.strict
	}
	if flags.Changed("progress") {
		cfg.Scanner.Progress = opts.progress
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.OTEL.Metrics.Textfile = opts.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
