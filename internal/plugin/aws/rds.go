package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// Databases collects RDS instances, then RDS clusters.
// Instances collected before a cluster failure are returned with the error.
func (p *Plugin) Databases(ctx context.Context) ([]inventory.DatabaseInstanceRecord, []inventory.DatabaseClusterRecord, error) {
	instances, err := p.dbInstances(ctx)
	if err != nil {
		return instances, nil, err
	}

	clusters, err := p.dbClusters(ctx)
	return instances, clusters, err
}

func (p *Plugin) dbInstances(ctx context.Context) ([]inventory.DatabaseInstanceRecord, error) {
	var records []inventory.DatabaseInstanceRecord
	var marker *string

	for {
		output, err := p.rdsClient.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{Marker: marker})
		if err != nil {
			return records, fmt.Errorf("describe db instances: %w", err)
		}

		for _, instance := range output.DBInstances {
			if !p.filter.ShouldInclude(rdsTags(instance.TagList)) {
				continue
			}
			records = append(records, convertDBInstance(instance))
		}

		if !hasMore(output.Marker) {
			break
		}
		marker = output.Marker
	}

	return records, nil
}

func convertDBInstance(instance rdstypes.DBInstance) inventory.DatabaseInstanceRecord {
	r := inventory.DatabaseInstanceRecord{
		Identifier:       str(instance.DBInstanceIdentifier),
		InstanceClass:    str(instance.DBInstanceClass),
		Engine:           str(instance.Engine),
		EngineVersion:    str(instance.EngineVersion),
		Status:           str(instance.DBInstanceStatus),
		AllocatedStorage: int32Str(instance.AllocatedStorage),
		AvailabilityZone: str(instance.AvailabilityZone),
		MultiAZ:          boolStr(instance.MultiAZ),
		VpcID:            inventory.NotAvailable,
	}
	if instance.DBSubnetGroup != nil {
		r.VpcID = str(instance.DBSubnetGroup.VpcId)
	}
	return r
}

func (p *Plugin) dbClusters(ctx context.Context) ([]inventory.DatabaseClusterRecord, error) {
	var records []inventory.DatabaseClusterRecord
	var marker *string
	vpcs := make(map[string]string)

	for {
		output, err := p.rdsClient.DescribeDBClusters(ctx, &rds.DescribeDBClustersInput{Marker: marker})
		if err != nil {
			return records, fmt.Errorf("describe db clusters: %w", err)
		}

		for _, cluster := range output.DBClusters {
			if !p.filter.ShouldInclude(rdsTags(cluster.TagList)) {
				continue
			}
			r := convertDBCluster(cluster)
			r.VpcID = p.subnetGroupVpc(ctx, aws.ToString(cluster.DBSubnetGroup), vpcs)
			records = append(records, r)
		}

		if !hasMore(output.Marker) {
			break
		}
		marker = output.Marker
	}

	return records, nil
}

func convertDBCluster(cluster rdstypes.DBCluster) inventory.DatabaseClusterRecord {
	return inventory.DatabaseClusterRecord{
		Identifier:        str(cluster.DBClusterIdentifier),
		Status:            str(cluster.Status),
		Engine:            str(cluster.Engine),
		EngineVersion:     str(cluster.EngineVersion),
		WriterEndpoint:    str(cluster.Endpoint),
		ReaderEndpoint:    str(cluster.ReaderEndpoint),
		VpcID:             inventory.NotAvailable,
		AvailabilityZones: join(cluster.AvailabilityZones),
	}
}

// subnetGroupVpc resolves the VPC of a DB subnet group, caching lookups in vpcs.
// Clusters only carry the subnet group name, so a failed lookup degrades to N/A.
func (p *Plugin) subnetGroupVpc(ctx context.Context, name string, vpcs map[string]string) string {
	if name == "" {
		return inventory.NotAvailable
	}
	if vpc, ok := vpcs[name]; ok {
		return vpc
	}

	vpc := inventory.NotAvailable
	output, err := p.rdsClient.DescribeDBSubnetGroups(ctx, &rds.DescribeDBSubnetGroupsInput{
		DBSubnetGroupName: aws.String(name),
	})
	if err != nil {
		log.Warn().Err(err).Str("region", p.region).Str("subnet_group", name).Msg("subnet group lookup failed")
	} else if len(output.DBSubnetGroups) > 0 {
		vpc = str(output.DBSubnetGroups[0].VpcId)
	}

	vpcs[name] = vpc
	return vpc
}

func rdsTags(tags []rdstypes.Tag) map[string]string {
	return tagMap(tags, func(t rdstypes.Tag) (*string, *string) { return t.Key, t.Value })
}
