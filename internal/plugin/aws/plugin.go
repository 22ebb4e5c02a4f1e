// Package aws implements the AWS region collectors for awsinventory.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/yairfalse/awsinventory/internal/filter"
	"github.com/yairfalse/awsinventory/internal/plugin"
)

// Plugin collects the inventory of one region.
type Plugin struct {
	region string
	filter *filter.Filter

	// AWS clients (interfaces for testability)
	ec2Client EC2API
	asgClient AutoScalingAPI
	elbClient ELBAPI
	rdsClient RDSAPI
}

// Config holds AWS client settings shared by every region.
type Config struct {
	HomeRegion string
	Profile    string
}

// LoadConfig loads the SDK configuration from the default credential chain.
func LoadConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.HomeRegion)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// New creates the plugin for region from a shared SDK configuration.
func New(awsCfg aws.Config, region string, f *filter.Filter) *Plugin {
	return &Plugin{
		region: region,
		filter: f,
		ec2Client: ec2.NewFromConfig(awsCfg, func(o *ec2.Options) {
			o.Region = region
		}),
		asgClient: autoscaling.NewFromConfig(awsCfg, func(o *autoscaling.Options) {
			o.Region = region
		}),
		elbClient: elasticloadbalancingv2.NewFromConfig(awsCfg, func(o *elasticloadbalancingv2.Options) {
			o.Region = region
		}),
		rdsClient: rds.NewFromConfig(awsCfg, func(o *rds.Options) {
			o.Region = region
		}),
	}
}

// NewFactory returns a plugin.Factory building region plugins from awsCfg.
func NewFactory(awsCfg aws.Config, f *filter.Filter) plugin.Factory {
	return func(_ context.Context, region string) (plugin.Plugin, error) {
		if region == "" {
			return nil, fmt.Errorf("empty region")
		}
		return New(awsCfg, region, f), nil
	}
}

// Region returns the region the plugin collects.
func (p *Plugin) Region() string {
	return p.region
}

var _ plugin.Plugin = (*Plugin)(nil)
