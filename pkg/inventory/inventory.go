package inventory

import "time"

// Sheet names of the exported workbook.
const (
	SheetCompute          = "EC2_Details"
	SheetAutoscaling      = "ASG_Details"
	SheetDatabaseInstance = "RDS_Details"
	SheetDatabaseCluster  = "RDS_Cluster_Details"
)

// Collector names, also used as resource type names by filters and metrics.
const (
	CollectorCompute     = "ec2"
	CollectorAutoscaling = "asg"
	CollectorDatabase    = "rds"
)

// Collectors lists the collectors in the order they run for a region.
var Collectors = []string{CollectorCompute, CollectorAutoscaling, CollectorDatabase}

// Failure records one collector that did not finish for a region.
type Failure struct {
	Region    string `json:"region"`
	Collector string `json:"collector"`
	Err       error  `json:"-"`
}

func (f Failure) Error() string {
	return f.Collector + " in " + f.Region + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

// RegionResult holds everything collected for a single region.
type RegionResult struct {
	Region            string
	Compute           []ComputeRecord
	Autoscaling       []AutoscalingRecord
	DatabaseInstances []DatabaseInstanceRecord
	DatabaseClusters  []DatabaseClusterRecord
	Failures          []Failure
}

// Inventory is the aggregated result of one collection run.
type Inventory struct {
	RunID     string
	AccountID string
	Regions   []string
	StartedAt time.Time
	Duration  time.Duration

	Compute           []ComputeRecord
	Autoscaling       []AutoscalingRecord
	DatabaseInstances []DatabaseInstanceRecord
	DatabaseClusters  []DatabaseClusterRecord
	Failures          []Failure
}

// Add appends a region's records to the accumulators.
func (inv *Inventory) Add(r RegionResult) {
	inv.Compute = append(inv.Compute, r.Compute...)
	inv.Autoscaling = append(inv.Autoscaling, r.Autoscaling...)
	inv.DatabaseInstances = append(inv.DatabaseInstances, r.DatabaseInstances...)
	inv.DatabaseClusters = append(inv.DatabaseClusters, r.DatabaseClusters...)
	inv.Failures = append(inv.Failures, r.Failures...)
}

// Summary holds per-family record counts.
type Summary struct {
	Regions           int
	Compute           int
	Autoscaling       int
	DatabaseInstances int
	DatabaseClusters  int
	Failures          int
}

// Summary counts the records of the inventory.
func (inv *Inventory) Summary() Summary {
	return Summary{
		Regions:           len(inv.Regions),
		Compute:           len(inv.Compute),
		Autoscaling:       len(inv.Autoscaling),
		DatabaseInstances: len(inv.DatabaseInstances),
		DatabaseClusters:  len(inv.DatabaseClusters),
		Failures:          len(inv.Failures),
	}
}

// Table is a row-oriented view of one record family.
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]any
}

type rower interface {
	Row() []any
}

func tabulate[T rower](sheet string, columns []string, records []T) Table {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return Table{Sheet: sheet, Columns: columns, Rows: rows}
}

// Tables returns the four report tables in sheet order.
func (inv *Inventory) Tables() []Table {
	return []Table{
		tabulate(SheetCompute, ComputeColumns, inv.Compute),
		tabulate(SheetAutoscaling, AutoscalingColumns, inv.Autoscaling),
		tabulate(SheetDatabaseInstance, DatabaseInstanceColumns, inv.DatabaseInstances),
		tabulate(SheetDatabaseCluster, DatabaseClusterColumns, inv.DatabaseClusters),
	}
}
