// Package orchestrator drives the per-region collectors and merges their results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yairfalse/awsinventory/internal/filter"
	"github.com/yairfalse/awsinventory/internal/plugin"
	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// ErrNoRegions is returned when the region lister yields nothing to collect.
var ErrNoRegions = errors.New("no regions to collect")

// Orchestrator coordinates region listing, collection and accumulation.
type Orchestrator struct {
	lister      plugin.RegionLister
	factory     plugin.Factory
	concurrency int
	filter      *filter.Filter
	telemetry   Telemetry
	progress    Progress
	runID       string
	accountID   string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets how many regions are collected at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 1 {
			o.concurrency = n
		}
	}
}

// WithFilter skips collectors whose resource type the filter excludes.
func WithFilter(f *filter.Filter) Option {
	return func(o *Orchestrator) {
		o.filter = f
	}
}

// WithTelemetry sets the span and metric sink.
func WithTelemetry(t Telemetry) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.telemetry = t
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.progress = p
		}
	}
}

// WithRunID sets the run identifier. A random one is generated otherwise.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.runID = id
		}
	}
}

// WithAccountID stamps the account id on the resulting inventory.
func WithAccountID(id string) Option {
	return func(o *Orchestrator) {
		o.accountID = id
	}
}

// New creates an orchestrator listing regions with lister and
// building region plugins with factory.
func New(lister plugin.RegionLister, factory plugin.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		lister:      lister,
		factory:     factory,
		concurrency: 1,
		telemetry:   newNopTelemetry(),
		progress:    nopProgress{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	return o
}

// Run collects every region and returns the merged inventory.
// Collector failures are recorded in the inventory; Run only fails when
// regions cannot be listed or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*inventory.Inventory, error) {
	inv := &inventory.Inventory{
		RunID:     o.runID,
		AccountID: o.accountID,
		StartedAt: time.Now(),
	}

	regions, err := o.lister.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}
	inv.Regions = regions

	collectors := o.collectors()

	log.Info().
		Int("regions", len(regions)).
		Strs("collectors", collectors).
		Int("concurrency", o.concurrency).
		Msg("starting collection")

	o.progress.Start(len(regions) * len(collectors))
	results := o.collectRegions(ctx, regions, collectors)
	o.progress.Finish()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collection interrupted: %w", err)
	}

	// Merge in region order, never completion order.
	for _, r := range results {
		inv.Add(r)
	}
	inv.Duration = time.Since(inv.StartedAt)

	s := inv.Summary()
	log.Info().
		Int("ec2", s.Compute).
		Int("asg", s.Autoscaling).
		Int("rds_instances", s.DatabaseInstances).
		Int("rds_clusters", s.DatabaseClusters).
		Int("failures", s.Failures).
		Dur("duration", inv.Duration).
		Msg("collection complete")

	return inv, nil
}

func (o *Orchestrator) collectors() []string {
	var enabled []string
	for _, c := range inventory.Collectors {
		if o.filter.ShouldCollect(c) {
			enabled = append(enabled, c)
		}
	}
	return enabled
}

// collectRegions fills one result bucket per region, index-aligned with regions.
func (o *Orchestrator) collectRegions(ctx context.Context, regions, collectors []string) []inventory.RegionResult {
	results := make([]inventory.RegionResult, len(regions))

	if o.concurrency == 1 {
		for i, region := range regions {
			if ctx.Err() != nil {
				break
			}
			results[i] = o.collectRegion(ctx, region, collectors)
		}
		return results
	}

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	for i, region := range regions {
		wg.Add(1)
		go func(i int, region string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()
			results[i] = o.collectRegion(ctx, region, collectors)
		}(i, region)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) collectRegion(ctx context.Context, region string, collectors []string) inventory.RegionResult {
	ctx, span := o.telemetry.StartSpan(ctx, "collect.region", attribute.String("region", region))
	defer span.End()

	result := inventory.RegionResult{Region: region}

	p, err := o.factory(ctx, region)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		for _, c := range collectors {
			o.fail(ctx, &result, c, fmt.Errorf("create plugin: %w", err))
			o.progress.Step(region, c)
		}
		return result
	}

	for _, c := range collectors {
		o.runCollector(ctx, p, c, &result)
		o.progress.Step(region, c)
	}

	return result
}

func (o *Orchestrator) runCollector(ctx context.Context, p plugin.Plugin, collector string, result *inventory.RegionResult) {
	region := result.Region
	ctx, span := o.telemetry.StartSpan(ctx, "collect."+collector,
		attribute.String("region", region),
		attribute.String("collector", collector),
	)
	defer span.End()

	log.Info().Ctx(ctx).Str("region", region).Msg("searching " + strings.ToUpper(collector) + " data")

	start := time.Now()
	var count int
	var err error

	switch collector {
	case inventory.CollectorCompute:
		result.Compute, err = p.Compute(ctx)
		count = len(result.Compute)
	case inventory.CollectorAutoscaling:
		result.Autoscaling, err = p.Autoscaling(ctx)
		count = len(result.Autoscaling)
	case inventory.CollectorDatabase:
		result.DatabaseInstances, result.DatabaseClusters, err = p.Databases(ctx)
		count = len(result.DatabaseInstances) + len(result.DatabaseClusters)
	default:
		err = fmt.Errorf("unknown collector %q", collector)
	}

	duration := time.Since(start)
	o.telemetry.RecordCollectDuration(ctx, region, collector, duration)
	o.telemetry.RecordRecords(ctx, region, collector, count)
	span.SetAttributes(attribute.Int("records", count))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.fail(ctx, result, collector, err)
		return
	}

	log.Debug().Ctx(ctx).
		Str("region", region).
		Str("collector", collector).
		Int("records", count).
		Dur("duration", duration).
		Msg("collector finished")
}

func (o *Orchestrator) fail(ctx context.Context, result *inventory.RegionResult, collector string, err error) {
	result.Failures = append(result.Failures, inventory.Failure{
		Region:    result.Region,
		Collector: collector,
		Err:       err,
	})
	o.telemetry.RecordError(ctx, result.Region, collector)

	log.Warn().Ctx(ctx).
		Err(err).
		Str("region", result.Region).
		Str("collector", collector).
		Msg("collector failed, keeping partial records")
}
