package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	asgtypes "github.com/aws/aws-sdk-go-v2/service/autoscaling/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/awsinventory/internal/filter"
	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// echoELB resolves every requested ARN to itself.
func echoELB() *mockELBClient {
	return &mockELBClient{
		DescribeTargetGroupsFunc: func(_ context.Context, params *elasticloadbalancingv2.DescribeTargetGroupsInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error) {
			var groups []elbtypes.TargetGroup
			for _, arn := range params.TargetGroupArns {
				groups = append(groups, elbtypes.TargetGroup{TargetGroupArn: aws.String(arn)})
			}
			return &elasticloadbalancingv2.DescribeTargetGroupsOutput{TargetGroups: groups}, nil
		},
	}
}

func asgOutput(groups ...asgtypes.AutoScalingGroup) func(context.Context, *autoscaling.DescribeAutoScalingGroupsInput, ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
	return func(context.Context, *autoscaling.DescribeAutoScalingGroupsInput, ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
		return &autoscaling.DescribeAutoScalingGroupsOutput{AutoScalingGroups: groups}, nil
	}
}

func TestAutoscaling(t *testing.T) {
	elb := echoELB()
	p := &Plugin{
		region: "us-east-1",
		asgClient: &mockASGClient{DescribeAutoScalingGroupsFunc: asgOutput(asgtypes.AutoScalingGroup{
			AutoScalingGroupName: aws.String("web-asg"),
			LaunchTemplate:       &asgtypes.LaunchTemplateSpecification{LaunchTemplateName: aws.String("web-lt")},
			Instances:            []asgtypes.Instance{{InstanceId: aws.String("i-1")}, {InstanceId: aws.String("i-2")}},
			HealthCheckType:      aws.String("ELB"),
			DesiredCapacity:      aws.Int32(2),
			MinSize:              aws.Int32(1),
			MaxSize:              aws.Int32(4),
			AvailabilityZones:    []string{"us-east-1a", "us-east-1b"},
			TargetGroupARNs:      []string{"arn:a", "arn:b"},
		})},
		elbClient: elb,
	}

	records, err := p.Autoscaling(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, inventory.AutoscalingRecord{
		GroupName:          "web-asg",
		LaunchTemplateName: "web-lt",
		InstanceCount:      2,
		HealthCheckType:    "ELB",
		DesiredCapacity:    "2",
		MinSize:            "1",
		MaxSize:            "4",
		AvailabilityZones:  "us-east-1a, us-east-1b",
		TargetGroupARNs:    "arn:a, arn:b",
	}, records[0])
	assert.Equal(t, 2, elb.calls, "one lookup per target group ARN")
}

func TestAutoscaling_NoTargetGroups(t *testing.T) {
	elb := echoELB()
	p := &Plugin{
		region:    "us-east-1",
		asgClient: &mockASGClient{DescribeAutoScalingGroupsFunc: asgOutput(asgtypes.AutoScalingGroup{})},
		elbClient: elb,
	}

	records, err := p.Autoscaling(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "", r.TargetGroupARNs)
	assert.Equal(t, 0, r.InstanceCount)
	assert.Equal(t, inventory.NotAvailable, r.GroupName)
	assert.Equal(t, inventory.NotAvailable, r.LaunchTemplateName)
	assert.Equal(t, inventory.NotAvailable, r.HealthCheckType)
	assert.Equal(t, inventory.NotAvailable, r.DesiredCapacity)
	assert.Equal(t, inventory.NotAvailable, r.MinSize)
	assert.Equal(t, inventory.NotAvailable, r.MaxSize)
	assert.Equal(t, inventory.NotAvailable, r.AvailabilityZones)
	assert.Zero(t, elb.calls)
}

func TestAutoscaling_TargetGroupLookupFails(t *testing.T) {
	p := &Plugin{
		region: "us-east-1",
		asgClient: &mockASGClient{DescribeAutoScalingGroupsFunc: asgOutput(
			asgtypes.AutoScalingGroup{AutoScalingGroupName: aws.String("first")},
			asgtypes.AutoScalingGroup{AutoScalingGroupName: aws.String("second"), TargetGroupARNs: []string{"arn:gone"}},
		)},
		elbClient: &mockELBClient{
			DescribeTargetGroupsFunc: func(context.Context, *elasticloadbalancingv2.DescribeTargetGroupsInput, ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error) {
				return nil, errors.New("TargetGroupNotFound")
			},
		},
	}

	records, err := p.Autoscaling(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "arn:gone")
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].GroupName)
}

func TestAutoscaling_Pagination(t *testing.T) {
	p := &Plugin{
		region: "us-east-1",
		asgClient: &mockASGClient{
			DescribeAutoScalingGroupsFunc: func(_ context.Context, params *autoscaling.DescribeAutoScalingGroupsInput, _ ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
				if params.NextToken == nil {
					return &autoscaling.DescribeAutoScalingGroupsOutput{
						AutoScalingGroups: []asgtypes.AutoScalingGroup{{AutoScalingGroupName: aws.String("a")}},
						NextToken:         aws.String("next"),
					}, nil
				}
				return &autoscaling.DescribeAutoScalingGroupsOutput{
					AutoScalingGroups: []asgtypes.AutoScalingGroup{{AutoScalingGroupName: aws.String("b")}},
				}, nil
			},
		},
		elbClient: echoELB(),
	}

	records, err := p.Autoscaling(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].GroupName)
	assert.Equal(t, "b", records[1].GroupName)
}

func TestAutoscaling_Error(t *testing.T) {
	p := &Plugin{
		region: "us-east-1",
		asgClient: &mockASGClient{
			DescribeAutoScalingGroupsFunc: func(context.Context, *autoscaling.DescribeAutoScalingGroupsInput, ...func(*autoscaling.Options)) (*autoscaling.DescribeAutoScalingGroupsOutput, error) {
				return nil, errors.New("access denied")
			},
		},
	}

	records, err := p.Autoscaling(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, records)
}

func TestAutoscaling_TagFilter(t *testing.T) {
	p := &Plugin{
		region: "us-east-1",
		asgClient: &mockASGClient{DescribeAutoScalingGroupsFunc: asgOutput(
			asgtypes.AutoScalingGroup{
				AutoScalingGroupName: aws.String("keep"),
				Tags:                 []asgtypes.TagDescription{{Key: aws.String("team"), Value: aws.String("web")}},
			},
			asgtypes.AutoScalingGroup{
				AutoScalingGroupName: aws.String("drop"),
				Tags:                 []asgtypes.TagDescription{{Key: aws.String("inventory:skip"), Value: aws.String("true")}},
			},
		)},
		elbClient: echoELB(),
		filter:    filter.New(nil, nil, map[string]string{"inventory:skip": "true"}),
	}

	records, err := p.Autoscaling(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "keep", records[0].GroupName)
}
