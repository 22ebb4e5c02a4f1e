package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const unknownAccount = "unknown"

// RegionLister discovers the enabled regions through a client bound to the home region.
type RegionLister struct {
	client    EC2API
	stsClient STSAPI
}

// NewRegionLister creates a lister that queries homeRegion.
func NewRegionLister(awsCfg aws.Config, homeRegion string) *RegionLister {
	return &RegionLister{
		client: ec2.NewFromConfig(awsCfg, func(o *ec2.Options) {
			o.Region = homeRegion
		}),
		stsClient: sts.NewFromConfig(awsCfg, func(o *sts.Options) {
			o.Region = homeRegion
		}),
	}
}

// ListRegions returns the names of the regions enabled for the account, in API order.
func (l *RegionLister) ListRegions(ctx context.Context) ([]string, error) {
	output, err := l.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, fmt.Errorf("describe regions: %w", err)
	}

	regions := make([]string, 0, len(output.Regions))
	for _, r := range output.Regions {
		if name := aws.ToString(r.RegionName); name != "" {
			regions = append(regions, name)
		}
	}
	return regions, nil
}

// AccountID returns the account of the calling credentials,
// or "unknown" when STS does not report one.
func (l *RegionLister) AccountID(ctx context.Context) (string, error) {
	output, err := l.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}

	if id := aws.ToString(output.Account); id != "" {
		return id, nil
	}
	return unknownAccount, nil
}
