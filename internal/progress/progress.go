// Package progress renders console feedback for a collection run.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

// Bar advances one step per collector run.
type Bar struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewBar creates a bar writing to out. Nothing is drawn before Start.
func NewBar(out io.Writer) *Bar {
	return &Bar{out: out}
}

// Start sizes the bar for total steps.
func (b *Bar) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription("Collecting..."),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(b.out)
		}),
	)
}

// Step marks one collector of region as done.
func (b *Bar) Step(region, collector string) {
	if b.bar == nil {
		return
	}
	b.bar.Describe(fmt.Sprintf("%-3s %s", collector, region))
	_ = b.bar.Add(1)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}

// current reports how many steps were taken.
func (b *Bar) current() int64 {
	if b.bar == nil {
		return 0
	}
	return b.bar.State().CurrentNum
}

var (
	headerColor  = color.New(color.FgBlue, color.Bold)
	okColor      = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
)

// PrintSummary writes the end-of-run report: where the workbook went,
// the per-family counts and each recorded failure.
func PrintSummary(out io.Writer, inv *inventory.Inventory, path string) {
	s := inv.Summary()

	_, _ = headerColor.Fprintf(out, "AWS inventory report has been generated and saved into '%s'\n", path)
	_, _ = fmt.Fprintf(out, "  %-22s %d\n", "Regions:", s.Regions)
	_, _ = fmt.Fprintf(out, "  %-22s %d\n", "EC2 instances:", s.Compute)
	_, _ = fmt.Fprintf(out, "  %-22s %d\n", "Auto Scaling groups:", s.Autoscaling)
	_, _ = fmt.Fprintf(out, "  %-22s %d\n", "RDS instances:", s.DatabaseInstances)
	_, _ = fmt.Fprintf(out, "  %-22s %d\n", "RDS clusters:", s.DatabaseClusters)
	_, _ = fmt.Fprintf(out, "  %-22s %s\n", "Duration:", inv.Duration.Round(time.Millisecond))

	if s.Failures == 0 {
		_, _ = okColor.Fprintln(out, "  No collector failures")
		return
	}

	_, _ = failureColor.Fprintf(out, "  %d collector failure(s):\n", s.Failures)
	for _, f := range inv.Failures {
		_, _ = failureColor.Fprintf(out, "    - %s\n", f.Error())
	}
}
