package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/awsinventory/internal/filter"
)

func TestListRegions(t *testing.T) {
	mock := &mockEC2Client{
		DescribeRegionsFunc: func(context.Context, *ec2.DescribeRegionsInput, ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
			return &ec2.DescribeRegionsOutput{Regions: []types.Region{
				{RegionName: aws.String("us-east-1")},
				{RegionName: aws.String("eu-west-1")},
				{},
			}}, nil
		},
	}

	l := &RegionLister{client: mock}
	regions, err := l.ListRegions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, regions)
}

func TestListRegions_Error(t *testing.T) {
	mock := &mockEC2Client{
		DescribeRegionsFunc: func(context.Context, *ec2.DescribeRegionsInput, ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
			return nil, errors.New("UnauthorizedOperation")
		},
	}

	l := &RegionLister{client: mock}
	_, err := l.ListRegions(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "describe regions")
}

func TestAccountID(t *testing.T) {
	mock := &mockSTSClient{
		GetCallerIdentityFunc: func(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return &sts.GetCallerIdentityOutput{
				Account: aws.String("123456789012"),
				Arn:     aws.String("arn:aws:iam::123456789012:user/auditor"),
			}, nil
		},
	}

	l := &RegionLister{stsClient: mock}
	id, err := l.AccountID(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "123456789012", id)
}

func TestAccountID_Missing(t *testing.T) {
	l := &RegionLister{stsClient: &mockSTSClient{}}
	id, err := l.AccountID(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "unknown", id)
}

func TestAccountID_Error(t *testing.T) {
	mock := &mockSTSClient{
		GetCallerIdentityFunc: func(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
			return nil, errors.New("ExpiredToken")
		},
	}

	l := &RegionLister{stsClient: mock}
	_, err := l.AccountID(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "get caller identity")
}

func TestNewRegionLister(t *testing.T) {
	l := NewRegionLister(aws.Config{Region: "us-east-1"}, "eu-west-1")
	assert.NotNil(t, l.client)
	assert.NotNil(t, l.stsClient)
}

func TestNewFactory(t *testing.T) {
	f := filter.New([]string{"asg"}, nil, nil)
	factory := NewFactory(aws.Config{Region: "us-east-1"}, f)

	p, err := factory(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", p.Region())

	ap, ok := p.(*Plugin)
	require.True(t, ok)
	assert.Same(t, f, ap.filter)
	assert.NotNil(t, ap.ec2Client)
	assert.NotNil(t, ap.asgClient)
	assert.NotNil(t, ap.elbClient)
	assert.NotNil(t, ap.rdsClient)

	_, err = factory(context.Background(), "")
	require.Error(t, err)
}
