// Package reporting renders combined reports as console tables, JSON
// documents and HTML summaries.
package reporting

import (
	"sort"
	"time"

	"github.com/gridops/nc-check/runner"
	"github.com/gridops/nc-check/suite"
)

// ReportStats contains aggregated statistics for a check run
type ReportStats struct {
	Total    int
	Failed   int
	Warned   int
	Passed   int
	PassRate float64
}

// ReportCheckItem represents a single atomic check in the report
type ReportCheckItem struct {
	ID       string
	Name     string
	Group    string
	Variable string
	Status   suite.Kind
	Detail   string
}

// ReportGroup represents one suite's slice of the report
type ReportGroup struct {
	Name    string
	Status  suite.Kind
	Detail  string
	Stats   ReportStats
	Checks  []ReportCheckItem
	Summary runner.GroupSummary
}

// ReportData contains all the structured data needed for any report format
type ReportData struct {
	RunID        string
	DatasetName  string
	Timestamp    time.Time
	Duration     time.Duration
	DurationText string

	Stats        ReportStats
	PassRateText string
	HasFailures  bool
	Status       suite.Kind
	OK           bool

	Groups []ReportGroup

	AllChecks    []ReportCheckItem
	FailedChecks []ReportCheckItem

	FailedCheckNames []string
}

// ReportBuilder constructs ReportData from a combined report
type ReportBuilder struct {
	datasetName string
}

// NewReportBuilder creates a new report builder
func NewReportBuilder(datasetName string) *ReportBuilder {
	return &ReportBuilder{datasetName: datasetName}
}

// Build flattens a combined report into the shape the sinks consume.
func (b *ReportBuilder) Build(report *runner.CombinedReport) *ReportData {
	data := &ReportData{
		RunID:        report.RunID,
		DatasetName:  b.datasetName,
		Timestamp:    time.Now(),
		Duration:     report.Duration,
		DurationText: formatDuration(report.Duration),
		Status:       report.Summary.OverallStatus,
		OK:           report.OK,
	}

	detailByKey := make(map[string]string, len(report.CheckSummary))
	for _, item := range report.CheckSummary {
		detailByKey[item.Check] = item.Detail
	}

	checksByGroup := make(map[string][]ReportCheckItem)
	for _, flat := range report.Checks {
		item := ReportCheckItem{
			ID:       flat.ID,
			Name:     flat.Name,
			Group:    flat.Group,
			Variable: flat.Variable,
			Status:   suite.KindOf(flat.Status),
			Detail:   flat.Detail,
		}
		checksByGroup[flat.Group] = append(checksByGroup[flat.Group], item)
		data.AllChecks = append(data.AllChecks, item)
		if item.Status == suite.KindFail {
			data.FailedChecks = append(data.FailedChecks, item)
			data.FailedCheckNames = append(data.FailedCheckNames, item.Name)
		}
	}

	groupNames := make([]string, 0, len(report.Groups))
	for name := range report.Groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	for _, name := range groupNames {
		summary := report.Groups[name]
		group := ReportGroup{
			Name:    name,
			Status:  summary.OverallStatus,
			Detail:  detailByKey[name],
			Checks:  checksByGroup[name],
			Summary: summary,
		}
		group.Stats = statsOf(group.Checks)
		data.Groups = append(data.Groups, group)
	}

	data.Stats = statsOf(data.AllChecks)
	data.PassRateText = formatPassRate(data.Stats.PassRate)
	data.HasFailures = data.Stats.Failed > 0
	return data
}

func statsOf(checks []ReportCheckItem) ReportStats {
	stats := ReportStats{Total: len(checks)}
	for _, item := range checks {
		switch item.Status {
		case suite.KindFail:
			stats.Failed++
		case suite.KindWarn, suite.KindSkip:
			stats.Warned++
		default:
			stats.Passed++
		}
	}
	if stats.Total > 0 {
		stats.PassRate = float64(stats.Passed) / float64(stats.Total)
	}
	return stats
}
