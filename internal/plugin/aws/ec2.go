package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// rootDeviceNames are the device names root volumes are conventionally attached as.
var rootDeviceNames = map[string]bool{
	"/dev/xvda": true,
	"/dev/sda1": true,
}

// Compute collects every EC2 instance of the region.
func (p *Plugin) Compute(ctx context.Context) ([]inventory.ComputeRecord, error) {
	var records []inventory.ComputeRecord
	var nextToken *string

	for {
		output, err := p.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{NextToken: nextToken})
		if err != nil {
			return records, fmt.Errorf("describe instances: %w", err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				tags := ec2Tags(instance.Tags)
				if !p.filter.ShouldInclude(tags) {
					continue
				}
				records = append(records, p.convertInstance(instance, tags))
			}
		}

		if !hasMore(output.NextToken) {
			break
		}
		nextToken = output.NextToken
	}

	return records, nil
}

func (p *Plugin) convertInstance(instance ec2types.Instance, tags map[string]string) inventory.ComputeRecord {
	r := inventory.ComputeRecord{
		Name:            inventory.Or(tags["Name"]),
		InstanceID:      str(instance.InstanceId),
		InstanceType:    inventory.Or(string(instance.InstanceType)),
		State:           inventory.NotAvailable,
		KeyPair:         str(instance.KeyName),
		PrivateIP:       str(instance.PrivateIpAddress),
		Platform:        str(instance.PlatformDetails),
		MonitoringState: inventory.NotAvailable,
		RootVolumeID:    rootVolumeID(instance.BlockDeviceMappings),
		Region:          p.region,
	}
	if instance.State != nil {
		r.State = inventory.Or(string(instance.State.Name))
	}
	if instance.Monitoring != nil {
		r.MonitoringState = inventory.Or(string(instance.Monitoring.State))
	}
	return r
}

// rootVolumeID returns the EBS volume of the first mapping on a root device name.
func rootVolumeID(mappings []ec2types.InstanceBlockDeviceMapping) string {
	for _, m := range mappings {
		if !rootDeviceNames[aws.ToString(m.DeviceName)] {
			continue
		}
		if m.Ebs == nil {
			return inventory.NotAvailable
		}
		return str(m.Ebs.VolumeId)
	}
	return inventory.NotAvailable
}

func ec2Tags(tags []ec2types.Tag) map[string]string {
	return tagMap(tags, func(t ec2types.Tag) (*string, *string) { return t.Key, t.Value })
}
