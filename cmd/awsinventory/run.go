package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/oklog/run"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/awsinventory/internal/config"
	"github.com/yairfalse/awsinventory/internal/export"
	"github.com/yairfalse/awsinventory/internal/filter"
	"github.com/yairfalse/awsinventory/internal/orchestrator"
	"github.com/yairfalse/awsinventory/internal/plugin"
	awsplugin "github.com/yairfalse/awsinventory/internal/plugin/aws"
	"github.com/yairfalse/awsinventory/internal/progress"
	"github.com/yairfalse/awsinventory/internal/telemetry"
	"github.com/yairfalse/awsinventory/pkg/inventory"
)

const shutdownTimeout = 5 * time.Second

// execute sets up logging, then runs the collection next to a signal handler.
// The first actor to return stops the other.
func execute(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger, err := telemetry.NewLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log.Logger = logger.With().Str("run_id", runID).Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group
	g.Add(func() error {
		return collect(ctx, cfg, runID, stdout, stderr)
	}, func(error) {
		cancel()
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) {
		log.Warn().Str("signal", sig.Signal.String()).Msg("interrupted, no report written")
		return fmt.Errorf("interrupted by %s", sig.Signal)
	}
	return err
}

// collect runs one inventory pass and exports the result.
func collect(ctx context.Context, cfg *config.Config, runID string, stdout, stderr io.Writer) error {
	if cfg.Scanner.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scanner.Timeout)
		defer cancel()
	}

	provider, err := telemetry.NewProvider(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	awsCfg, err := awsplugin.LoadConfig(ctx, awsplugin.Config{
		HomeRegion: cfg.AWS.HomeRegion,
		Profile:    cfg.AWS.Profile,
	})
	if err != nil {
		return err
	}

	f := filter.New(cfg.Filter.ExcludeTypes, cfg.Filter.IncludeTags, cfg.Filter.ExcludeTags)
	if !f.IsEmpty() {
		log.Info().
			Strs("exclude_types", cfg.Filter.ExcludeTypes).
			Bool("tag_filters", f.HasTagFilters()).
			Msg("resource filter active")
	}

	regionLister := awsplugin.NewRegionLister(awsCfg, cfg.AWS.HomeRegion)
	var lister plugin.RegionLister = regionLister
	if len(cfg.AWS.Regions) > 0 {
		lister = plugin.StaticRegions(cfg.AWS.Regions)
	}
	lister = plugin.ExcludeRegions(lister, cfg.AWS.ExcludeRegions)

	accountID, err := regionLister.AccountID(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("account id lookup failed")
		accountID = "unknown"
	}

	opts := []orchestrator.Option{
		orchestrator.WithConcurrency(cfg.Scanner.Concurrency),
		orchestrator.WithFilter(f),
		orchestrator.WithTelemetry(provider),
		orchestrator.WithRunID(runID),
		orchestrator.WithAccountID(accountID),
	}
	if cfg.Scanner.Progress {
		opts = append(opts, orchestrator.WithProgress(progress.NewBar(stderr)))
	}

	log.Info().
		Str("home_region", cfg.AWS.HomeRegion).
		Str("account_id", accountID).
		Str("output", cfg.Report.Path).
		Msg("awsinventory starting")

	inv, err := orchestrator.New(lister, awsplugin.NewFactory(awsCfg, f), opts...).Run(ctx)
	if err != nil {
		return fmt.Errorf("collect inventory: %w", err)
	}

	provider.SetInventory(inv)
	if path := cfg.OTEL.Metrics.Textfile; path != "" {
		if err := provider.WriteTextfile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("metrics textfile not written")
		}
	}

	exportErr := exportInventory(ctx, awsCfg, cfg.Report, inv)
	if exportErr != nil {
		log.Error().Err(exportErr).Msg("export failed")
	} else {
		progress.PrintSummary(stdout, inv, cfg.Report.Path)
	}

	return outcome(cfg.Scanner.Strict, inv, exportErr)
}

func exportInventory(ctx context.Context, awsCfg aws.Config, report config.ReportConfig, inv *inventory.Inventory) error {
	w := export.NewWorkbookWriter(report.Path)
	if err := w.Write(inv); err != nil {
		return err
	}
	if report.S3URI == "" {
		return nil
	}
	return export.NewS3Uploader(awsCfg).Upload(ctx, w.Path(), report.S3URI)
}

// outcome decides the exit status once the report is handled.
// Without strict mode failures are reported but the run still succeeds.
func outcome(strict bool, inv *inventory.Inventory, exportErr error) error {
	if !strict {
		return nil
	}
	if exportErr != nil {
		return fmt.Errorf("export: %w", exportErr)
	}
	if n := len(inv.Failures); n > 0 {
		return fmt.Errorf("%d collector failure(s), first: %w", n, inv.Failures[0])
	}
	return nil
}
