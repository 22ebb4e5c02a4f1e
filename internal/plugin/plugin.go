// Package plugin defines the per-region collector contract the orchestrator drives.
package plugin

import (
	"context"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// Plugin collects the three resource families of one region.
// Each collector returns the records it built before failing, together with the error.
type Plugin interface {
	// Region returns the region this plugin is bound to.
	Region() string

	// Compute collects virtual machine instances.
	Compute(ctx context.Context) ([]inventory.ComputeRecord, error)

	// Autoscaling collects autoscaling groups and their target groups.
	Autoscaling(ctx context.Context) ([]inventory.AutoscalingRecord, error)

	// Databases collects standalone database instances and database clusters.
	Databases(ctx context.Context) ([]inventory.DatabaseInstanceRecord, []inventory.DatabaseClusterRecord, error)
}

// Factory builds the plugin for a region.
type Factory func(ctx context.Context, region string) (Plugin, error)

// RegionLister returns the regions to collect, in collection order.
type RegionLister interface {
	ListRegions(ctx context.Context) ([]string, error)
}

// RegionListerFunc adapts a function to RegionLister.
type RegionListerFunc func(ctx context.Context) ([]string, error)

// ListRegions calls f(ctx).
func (f RegionListerFunc) ListRegions(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// StaticRegions lists a fixed set of regions.
type StaticRegions []string

// ListRegions returns a copy of the configured regions.
func (s StaticRegions) ListRegions(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

// ExcludeRegions wraps a lister and drops the named regions from its result.
func ExcludeRegions(l RegionLister, exclude []string) RegionLister {
	if len(exclude) == 0 {
		return l
	}
	skip := make(map[string]bool, len(exclude))
	for _, r := range exclude {
		skip[r] = true
	}
	return RegionListerFunc(func(ctx context.Context) ([]string, error) {
		regions, err := l.ListRegions(ctx)
		if err != nil {
			return nil, err
		}
		kept := regions[:0]
		for _, r := range regions {
			if !skip[r] {
				kept = append(kept, r)
			}
		}
		return kept, nil
	})
}
