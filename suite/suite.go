// Package suite executes an ordered list of atomic checks and folds
// their results into one report with a suite-level summary. The same
// summary algorithm governs every report level in the engine, so this
// package is the single source of truth for status precedence:
// fail > warn/skip > pass.
package suite

import (
	"fmt"
	"strings"
)

// Kind is a normalized status bucket used by the summary algorithm.
type Kind string

const (
	KindPass Kind = "pass"
	KindWarn Kind = "warn"
	KindFail Kind = "fail"
	KindSkip Kind = "skip"
)

// KindOf normalizes an arbitrary status value into a Kind. Any value
// prefixed "skip" counts as a skip; unrecognized values count as pass,
// matching the truthy interpretation of unstructured results.
func KindOf(status any) Kind {
	normalized := strings.ToLower(strings.TrimSpace(fmt.Sprint(status)))
	switch normalized {
	case "fail", "failed", "error", "fatal", "false":
		return KindFail
	case "warn", "warning":
		return KindWarn
	}
	if normalized == "skip" || normalized == "skipped" || strings.HasPrefix(normalized, "skip") {
		return KindSkip
	}
	return KindPass
}

// RunFunc executes one atomic check. The dataset is captured by
// closure at construction time, keeping the suite itself
// dataset-agnostic.
type RunFunc func() (map[string]any, error)

// DetailFunc renders a short human-readable detail line for a result.
type DetailFunc func(result map[string]any) string

// Check is a named unit executed by a Suite.
type Check struct {
	ID     string
	Name   string
	Run    RunFunc
	Detail DetailFunc
}

// Item is the record a Suite appends for each executed check.
type Item struct {
	ID     string
	Name   string
	Status string
	Detail string
	Result map[string]any
	// Variable tags items that were fanned out per data variable.
	Variable string
}

// AsMap returns the item as a plain serializable mapping.
func (i Item) AsMap() map[string]any {
	out := map[string]any{
		"id":     i.ID,
		"name":   i.Name,
		"status": i.Status,
		"detail": i.Detail,
	}
	if i.Result != nil {
		out["result"] = i.Result
	}
	if i.Variable != "" {
		out["variable"] = i.Variable
	}
	return out
}

// Summary holds the suite-level aggregate counts and status.
type Summary struct {
	ChecksRun       int
	FailingChecks   int
	WarningsOrSkips int
	OverallStatus   Kind
	OverallOK       bool
}

// AsMap returns the summary as a plain serializable mapping.
func (s Summary) AsMap() map[string]any {
	return map[string]any{
		"checks_run":        s.ChecksRun,
		"failing_checks":    s.FailingChecks,
		"warnings_or_skips": s.WarningsOrSkips,
		"overall_status":    string(s.OverallStatus),
		"overall_ok":        s.OverallOK,
	}
}

// Summarize applies the status-precedence rule to a list of items:
// fail if any item failed, warn if any item warned or was skipped,
// pass otherwise. OverallOK is true unless the overall status is fail.
func Summarize(items []Item) Summary {
	summary := Summary{ChecksRun: len(items)}
	hasWarnOrSkip := false
	for _, item := range items {
		switch KindOf(item.Status) {
		case KindFail:
			summary.FailingChecks++
		case KindWarn, KindSkip:
			summary.WarningsOrSkips++
			hasWarnOrSkip = true
		}
	}
	switch {
	case summary.FailingChecks > 0:
		summary.OverallStatus = KindFail
	case hasWarnOrSkip:
		summary.OverallStatus = KindWarn
	default:
		summary.OverallStatus = KindPass
	}
	summary.OverallOK = summary.OverallStatus != KindFail
	return summary
}

// Report is the output of running one suite.
type Report struct {
	Group   string
	Suite   string
	Checks  []Item
	Summary Summary
	OK      bool
}

// AsMap returns the report as a plain serializable mapping, the shape
// consumed by formatters and by the top-level aggregator.
func (r Report) AsMap() map[string]any {
	checks := make([]map[string]any, 0, len(r.Checks))
	for _, item := range r.Checks {
		checks = append(checks, item.AsMap())
	}
	return map[string]any{
		"group":   r.Group,
		"suite":   r.Suite,
		"checks":  checks,
		"summary": r.Summary.AsMap(),
		"ok":      r.OK,
	}
}

// Suite runs an ordered sequence of checks against one dataset
// snapshot captured by the checks' closures.
type Suite struct {
	Name   string
	Checks []Check
}

// New creates a suite with the given checks. Order is significant and
// preserved in the output.
func New(name string, checks []Check) *Suite {
	return &Suite{Name: name, Checks: checks}
}

// Run executes each check in registration order. A check that returns
// an error or panics is captured as a failed item with the message as
// detail; one check's failure never aborts the suite.
func (s *Suite) Run() Report {
	items := make([]Item, 0, len(s.Checks))
	for _, c := range s.Checks {
		items = append(items, runOnce(c))
	}
	return ReportFromItems(s.Name, items)
}

// ReportFromItems builds a suite report from an already-flattened list
// of atomic items, applying the identical summary algorithm as Run.
func ReportFromItems(name string, items []Item) Report {
	summary := Summarize(items)
	return Report{
		Group:   name,
		Suite:   name,
		Checks:  items,
		Summary: summary,
		OK:      summary.OverallOK,
	}
}

func runOnce(c Check) (item Item) {
	item = Item{ID: c.ID, Name: c.Name}
	defer func() {
		if r := recover(); r != nil {
			item.Status = string(KindFail)
			item.Detail = fmt.Sprintf("check panicked: %v", r)
			item.Result = nil
		}
	}()

	result, err := c.Run()
	if err != nil {
		item.Status = string(KindFail)
		item.Detail = err.Error()
		item.Result = result
		return item
	}

	status := "unknown"
	if raw, ok := result["status"]; ok {
		status = fmt.Sprint(raw)
	}
	item.Status = status
	item.Result = result
	if c.Detail != nil {
		item.Detail = c.Detail(result)
	}
	return item
}
