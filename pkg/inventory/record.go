// Package inventory defines the flat record model of the AWS inventory report.
package inventory

// NotAvailable is written to any field the AWS response did not carry.
const NotAvailable = "N/A"

// Column sets, in sheet order.
var (
	ComputeColumns = []string{
		"Name", "Instance_Id", "Instance_Type", "State", "Instance_KeyPair",
		"Instance_PrivateIp", "Instance_Platform", "Monitor", "Root_Volume_Id", "Region",
	}
	AutoscalingColumns = []string{
		"ASG Name", "Launch Template", "Instances Count", "Status",
		"Desired Capacity", "Min", "Max", "Zone", "Target Groups",
	}
	DatabaseInstanceColumns = []string{
		"DBInstanceIdentifier", "InstanceClass", "Engine", "EngineVersion", "Status",
		"AllocatedStorage", "AvailabilityZone", "MultiAZ", "VPCId",
	}
	DatabaseClusterColumns = []string{
		"DBClusterIdentifier", "Status", "Engine", "EngineVersion",
		"Endpoint", "ReaderEndpoint", "VPCId", "AvailabilityZones",
	}
)

// ComputeRecord is one EC2 instance.
type ComputeRecord struct {
	Name            string `json:"name"`
	InstanceID      string `json:"instance_id"`
	InstanceType    string `json:"instance_type"`
	State           string `json:"state"`
	KeyPair         string `json:"key_pair"`
	PrivateIP       string `json:"private_ip"`
	Platform        string `json:"platform"`
	MonitoringState string `json:"monitoring_state"`
	RootVolumeID    string `json:"root_volume_id"`
	Region          string `json:"region"`
}

// Row returns the record's cells in ComputeColumns order.
func (r ComputeRecord) Row() []any {
	return []any{
		r.Name, r.InstanceID, r.InstanceType, r.State, r.KeyPair,
		r.PrivateIP, r.Platform, r.MonitoringState, r.RootVolumeID, r.Region,
	}
}

// AutoscalingRecord is one Auto Scaling group.
type AutoscalingRecord struct {
	GroupName          string `json:"group_name"`
	LaunchTemplateName string `json:"launch_template_name"`
	InstanceCount      int    `json:"instance_count"`
	HealthCheckType    string `json:"health_check_type"`
	DesiredCapacity    string `json:"desired_capacity"`
	MinSize            string `json:"min_size"`
	MaxSize            string `json:"max_size"`
	AvailabilityZones  string `json:"availability_zones"`
	TargetGroupARNs    string `json:"target_group_arns"` // ", " separated
}

// Row returns the record's cells in AutoscalingColumns order.
func (r AutoscalingRecord) Row() []any {
	return []any{
		r.GroupName, r.LaunchTemplateName, r.InstanceCount, r.HealthCheckType,
		r.DesiredCapacity, r.MinSize, r.MaxSize, r.AvailabilityZones, r.TargetGroupARNs,
	}
}

// DatabaseInstanceRecord is one standalone RDS instance.
type DatabaseInstanceRecord struct {
	Identifier       string `json:"identifier"`
	InstanceClass    string `json:"instance_class"`
	Engine           string `json:"engine"`
	EngineVersion    string `json:"engine_version"`
	Status           string `json:"status"`
	AllocatedStorage string `json:"allocated_storage"`
	AvailabilityZone string `json:"availability_zone"`
	MultiAZ          string `json:"multi_az"`
	VpcID            string `json:"vpc_id"`
}

// Row returns the record's cells in DatabaseInstanceColumns order.
func (r DatabaseInstanceRecord) Row() []any {
	return []any{
		r.Identifier, r.InstanceClass, r.Engine, r.EngineVersion, r.Status,
		r.AllocatedStorage, r.AvailabilityZone, r.MultiAZ, r.VpcID,
	}
}

// DatabaseClusterRecord is one RDS cluster.
type DatabaseClusterRecord struct {
	Identifier        string `json:"identifier"`
	Status            string `json:"status"`
	Engine            string `json:"engine"`
	EngineVersion     string `json:"engine_version"`
	WriterEndpoint    string `json:"writer_endpoint"`
	ReaderEndpoint    string `json:"reader_endpoint"`
	VpcID             string `json:"vpc_id"`
	AvailabilityZones string `json:"availability_zones"`
}

// Row returns the record's cells in DatabaseClusterColumns order.
func (r DatabaseClusterRecord) Row() []any {
	return []any{
		r.Identifier, r.Status, r.Engine, r.EngineVersion,
		r.WriterEndpoint, r.ReaderEndpoint, r.VpcID, r.AvailabilityZones,
	}
}

// Or returns s, or NotAvailable when s is empty.
func Or(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
