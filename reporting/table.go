package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gridops/nc-check/suite"
)

// TableReporter renders a ReportData as a colored console table.
type TableReporter struct {
	out io.Writer
}

// NewTableReporter creates a table reporter writing to out.
func NewTableReporter(out io.Writer) *TableReporter {
	return &TableReporter{out: out}
}

// Render prints the report as a suite tree with a summary footer. The
// table style follows the overall status.
func (r *TableReporter) Render(data *ReportData) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("Check Results (%s)", data.DurationText))

	t.AppendHeader(table.Row{
		"Type", "ID", "Variable", "Checks", "Passed", "Failed", "Warned", "Status", "Detail",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50},
		{Name: "Detail", WidthMax: 60},
		{Name: "Checks", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Warned", Align: text.AlignRight},
	})

	for _, group := range data.Groups {
		t.AppendRow(table.Row{
			"Suite",
			group.Name,
			"",
			"-",
			group.Stats.Passed,
			group.Stats.Failed,
			group.Stats.Warned,
			getResultString(group.Status),
			group.Detail,
		})

		for i, item := range group.Checks {
			prefix := "├──"
			if i == len(group.Checks)-1 {
				prefix = "└──"
			}
			t.AppendRow(table.Row{
				"Check",
				fmt.Sprintf("%s %s", prefix, item.Name),
				item.Variable,
				"1",
				boolToInt(item.Status == suite.KindPass),
				boolToInt(item.Status == suite.KindFail),
				boolToInt(item.Status == suite.KindWarn || item.Status == suite.KindSkip),
				getResultString(item.Status),
				item.Detail,
			})
		}

		t.AppendSeparator()
	}

	switch data.Status {
	case suite.KindPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case suite.KindWarn, suite.KindSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		"",
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Failed,
		data.Stats.Warned,
		getResultString(data.Status),
		data.PassRateText,
	})

	t.Render()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func getResultString(status suite.Kind) string {
	switch status {
	case suite.KindPass:
		return "✓ pass"
	case suite.KindWarn, suite.KindSkip:
		return "- warn"
	default:
		return "✗ fail"
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatPassRate(rate float64) string {
	return fmt.Sprintf("%.0f%% pass", rate*100)
}
