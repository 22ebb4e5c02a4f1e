package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	asgtypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// Autoscaling collects every Auto Scaling group of the region.
func (p *Plugin) Autoscaling(ctx context.Context) ([]inventory.AutoscalingRecord, error) {
	var records []inventory.AutoscalingRecord
	var nextToken *string

	for {
		output, err := p.asgClient.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{NextToken: nextToken})
		if err != nil {
			return records, fmt.Errorf("describe auto scaling groups: %w", err)
		}

		for _, asg := range output.AutoScalingGroups {
			if !p.filter.ShouldInclude(asgTags(asg.Tags)) {
				continue
			}
			targetGroups, err := p.resolveTargetGroups(ctx, asg.TargetGroupARNs)
			if err != nil {
				return records, err
			}
			records = append(records, convertASG(asg, targetGroups))
		}

		if !hasMore(output.NextToken) {
			break
		}
		nextToken = output.NextToken
	}

	return records, nil
}

// resolveTargetGroups looks each ARN up individually and returns the ARNs ELB reports back.
func (p *Plugin) resolveTargetGroups(ctx context.Context, arns []string) ([]string, error) {
	var resolved []string
	for _, arn := range arns {
		output, err := p.elbClient.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
			TargetGroupArns: []string{arn},
		})
		if err != nil {
			return nil, fmt.Errorf("describe target group %s: %w", arn, err)
		}
		for _, tg := range output.TargetGroups {
			resolved = append(resolved, deref(tg.TargetGroupArn))
		}
	}
	return resolved, nil
}

func convertASG(asg asgtypes.AutoScalingGroup, targetGroups []string) inventory.AutoscalingRecord {
	r := inventory.AutoscalingRecord{
		GroupName:          str(asg.AutoScalingGroupName),
		LaunchTemplateName: inventory.NotAvailable,
		InstanceCount:      len(asg.Instances),
		HealthCheckType:    str(asg.HealthCheckType),
		DesiredCapacity:    int32Str(asg.DesiredCapacity),
		MinSize:            int32Str(asg.MinSize),
		MaxSize:            int32Str(asg.MaxSize),
		AvailabilityZones:  inventory.NotAvailable,
		TargetGroupARNs:    join(targetGroups),
	}
	if asg.LaunchTemplate != nil {
		r.LaunchTemplateName = str(asg.LaunchTemplate.LaunchTemplateName)
	}
	if asg.AvailabilityZones != nil {
		r.AvailabilityZones = join(asg.AvailabilityZones)
	}
	return r
}

func asgTags(tags []asgtypes.TagDescription) map[string]string {
	return tagMap(tags, func(t asgtypes.TagDescription) (*string, *string) { return t.Key, t.Value })
}
