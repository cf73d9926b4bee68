// Package runner aggregates suite-level checks into one combined
// report. Given a set of enabled suite keys and per-key options it
// invokes each registered check's report function, resolves a status
// and detail through the check's own resolvers, flattens every suite's
// atomic items, and computes a single overall status using the same
// precedence rule that governs suite summaries.
package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gridops/nc-check/dataset"
	"github.com/gridops/nc-check/suite"
)

// Status is the suite-level status a resolver reports.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// RunReportFunc produces a suite's raw report, a plain serializable
// mapping whose shape is owned by the suite itself.
type RunReportFunc func(ds *dataset.Dataset, options map[string]any) (map[string]any, error)

// ResolveStatusFunc derives a suite-level status from a raw report.
type ResolveStatusFunc func(report map[string]any) Status

// ResolveDetailFunc derives a one-line detail from a raw report.
type ResolveDetailFunc func(report map[string]any) string

// RegisteredCheck is a suite-level unit known to the runner. The
// resolver pair exists because different suites' raw report shapes
// differ; the aggregator never assumes a shape.
type RegisteredCheck struct {
	Key           string
	RunReport     RunReportFunc
	ResolveStatus ResolveStatusFunc
	ResolveDetail ResolveDetailFunc
}

// UnregisteredSuiteError reports an enabled-set key with no matching
// registration. Enabling an unknown key never silently no-ops, since a
// typo would otherwise invisibly drop coverage.
type UnregisteredSuiteError struct {
	Key   string
	Known []string
}

func (e *UnregisteredSuiteError) Error() string {
	return fmt.Sprintf("no registered check for suite key %q, registered keys: %s",
		e.Key, strings.Join(e.Known, ", "))
}

// IsUnregisteredSuiteError checks if the error is or wraps an UnregisteredSuiteError.
func IsUnregisteredSuiteError(err error) bool {
	var unregistered *UnregisteredSuiteError
	return err != nil && errors.As(err, &unregistered)
}

// Runner holds suite-level registrations. Registration order doubles
// as the deterministic processing order across suites.
type Runner struct {
	mu     sync.RWMutex
	checks map[string]RegisteredCheck
	order  []string
	log    logrus.FieldLogger
}

// New creates an empty runner.
func New(log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		checks: make(map[string]RegisteredCheck),
		log:    log,
	}
}

// Register adds a suite-level check. Re-registration under an existing
// key is rejected.
func (r *Runner) Register(rc RegisteredCheck) error {
	if rc.Key == "" {
		return fmt.Errorf("registered check requires a key")
	}
	if rc.RunReport == nil || rc.ResolveStatus == nil || rc.ResolveDetail == nil {
		return fmt.Errorf("registered check %q requires run-report and resolver functions", rc.Key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[rc.Key]; exists {
		return fmt.Errorf("suite key %q is already registered", rc.Key)
	}
	r.checks[rc.Key] = rc
	r.order = append(r.order, rc.Key)
	return nil
}

// Keys returns the registered suite keys in processing order.
func (r *Runner) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Has reports whether a suite key is registered.
func (r *Runner) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.checks[key]
	return ok
}

// CheckSummaryItem records one enabled suite's resolved outcome.
type CheckSummaryItem struct {
	Check  string
	Status Status
	Detail string
}

// FlatItem is one atomic item in the combined report, tagged with its
// originating suite key.
type FlatItem struct {
	suite.Item
	Group string
}

// GroupSummary is the per-suite summary recorded in the combined
// report.
type GroupSummary struct {
	ChecksRun       int
	FailingChecks   int
	WarningsOrSkips int
	OverallStatus   suite.Kind
	OverallOK       bool
}

// CombinedReport is the aggregation of all enabled suites.
type CombinedReport struct {
	RunID         string
	Duration      time.Duration
	ChecksEnabled map[string]bool
	CheckSummary  []CheckSummaryItem
	Groups        map[string]GroupSummary
	Reports       map[string]map[string]any
	Checks        []FlatItem
	Summary       suite.Summary
	OK            bool
}

// RunSuiteChecks executes every enabled registered check against the
// dataset and aggregates the results. Suite-level report errors
// propagate to the caller: they are configuration defects, distinct
// from an atomic check's runtime failure which the suite layer already
// absorbed into its report. Every invocation is independent and
// reentrant.
func (r *Runner) RunSuiteChecks(
	ds *dataset.Dataset,
	checksEnabled map[string]bool,
	optionsByCheck map[string]map[string]any,
) (*CombinedReport, error) {
	start := time.Now()
	runID := uuid.New().String()

	anyEnabled := false
	for _, enabled := range checksEnabled {
		if enabled {
			anyEnabled = true
			break
		}
	}
	if !anyEnabled {
		return nil, fmt.Errorf("at least one check must be enabled")
	}

	// Reject unknown keys up front so a typo cannot drop coverage.
	for key, enabled := range checksEnabled {
		if enabled && !r.Has(key) {
			return nil, &UnregisteredSuiteError{Key: key, Known: r.Keys()}
		}
	}

	report := &CombinedReport{
		RunID:         runID,
		ChecksEnabled: checksEnabled,
		Groups:        make(map[string]GroupSummary),
		Reports:       make(map[string]map[string]any),
	}

	for _, key := range r.Keys() {
		if !checksEnabled[key] {
			continue
		}
		r.mu.RLock()
		registration := r.checks[key]
		r.mu.RUnlock()

		r.log.WithFields(logrus.Fields{"run_id": runID, "suite": key}).Debug("running suite check")
		raw, err := registration.RunReport(ds, optionsByCheck[key])
		if err != nil {
			return nil, fmt.Errorf("running suite %q report: %w", key, err)
		}
		status := registration.ResolveStatus(raw)
		detail := registration.ResolveDetail(raw)

		report.Reports[key] = raw
		report.CheckSummary = append(report.CheckSummary, CheckSummaryItem{
			Check:  key,
			Status: status,
			Detail: detail,
		})

		items := itemsFromReport(raw)
		if len(items) == 0 {
			// Degraded mode: a suite that did not populate checks must
			// not vanish from the combined report. It loses per-atomic
			// granularity and contributes exactly one synthetic item.
			items = []suite.Item{{
				ID:     key,
				Name:   key,
				Status: string(status),
				Detail: detail,
			}}
		}
		for _, item := range items {
			report.Checks = append(report.Checks, FlatItem{Item: item, Group: key})
		}

		report.Groups[key] = groupSummary(raw, items)
		r.log.WithFields(logrus.Fields{
			"run_id": runID,
			"suite":  key,
			"status": status,
			"items":  len(items),
		}).Info("suite check complete")
	}

	flattened := make([]suite.Item, len(report.Checks))
	for i, item := range report.Checks {
		flattened[i] = item.Item
	}
	report.Summary = suite.Summarize(flattened)
	report.OK = report.Summary.OverallOK
	report.Duration = time.Since(start)
	return report, nil
}

// itemsFromReport extracts the atomic items a suite placed under its
// report's "checks" key, if any.
func itemsFromReport(raw map[string]any) []suite.Item {
	checks, ok := raw["checks"]
	if !ok {
		return nil
	}
	var items []suite.Item
	appendItem := func(m map[string]any) {
		item := suite.Item{
			ID:     stringAt(m, "id"),
			Name:   stringAt(m, "name"),
			Status: stringAt(m, "status"),
			Detail: stringAt(m, "detail"),
		}
		if item.Name == "" {
			item.Name = item.ID
		}
		if result, ok := m["result"].(map[string]any); ok {
			item.Result = result
		}
		item.Variable = stringAt(m, "variable")
		items = append(items, item)
	}
	switch typed := checks.(type) {
	case []suite.Item:
		return typed
	case []map[string]any:
		for _, m := range typed {
			appendItem(m)
		}
	case []any:
		for _, entry := range typed {
			if m, ok := entry.(map[string]any); ok {
				appendItem(m)
			}
		}
	}
	return items
}

// groupSummary derives the per-suite summary from the suite's own
// summary when present, else synthesizes one from the flattened items.
func groupSummary(raw map[string]any, items []suite.Item) GroupSummary {
	if summary, ok := raw["summary"].(map[string]any); ok {
		overall := suite.KindOf(stringAt(summary, "overall_status"))
		return GroupSummary{
			ChecksRun:       intAt(summary, "checks_run"),
			FailingChecks:   intAt(summary, "failing_checks"),
			WarningsOrSkips: intAt(summary, "warnings_or_skips"),
			OverallStatus:   overall,
			OverallOK:       overall != suite.KindFail,
		}
	}
	computed := suite.Summarize(items)
	return GroupSummary{
		ChecksRun:       computed.ChecksRun,
		FailingChecks:   computed.FailingChecks,
		WarningsOrSkips: computed.WarningsOrSkips,
		OverallStatus:   computed.OverallStatus,
		OverallOK:       computed.OverallOK,
	}
}

func stringAt(m map[string]any, key string) string {
	raw, ok := m[key]
	if !ok || raw == nil {
		return ""
	}
	return fmt.Sprint(raw)
}

func intAt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// AsMap returns the combined report as a plain serializable mapping so
// any formatter can consume it without depending on the runner's
// types.
func (c *CombinedReport) AsMap() map[string]any {
	summaryItems := make([]map[string]any, 0, len(c.CheckSummary))
	for _, entry := range c.CheckSummary {
		summaryItems = append(summaryItems, map[string]any{
			"check":  entry.Check,
			"status": string(entry.Status),
			"detail": entry.Detail,
		})
	}
	groups := make(map[string]any, len(c.Groups))
	for key, group := range c.Groups {
		groups[key] = map[string]any{
			"checks_run":        group.ChecksRun,
			"failing_checks":    group.FailingChecks,
			"warnings_or_skips": group.WarningsOrSkips,
			"overall_status":    string(group.OverallStatus),
			"overall_ok":        group.OverallOK,
		}
	}
	checks := make([]map[string]any, 0, len(c.Checks))
	for _, item := range c.Checks {
		m := item.AsMap()
		m["group"] = item.Group
		checks = append(checks, m)
	}
	reports := make(map[string]any, len(c.Reports))
	for key, raw := range c.Reports {
		reports[key] = raw
	}
	return map[string]any{
		"run_id":         c.RunID,
		"duration_ms":    c.Duration.Milliseconds(),
		"checks_enabled": c.ChecksEnabled,
		"check_summary":  summaryItems,
		"groups":         groups,
		"reports":        reports,
		"checks":         checks,
		"summary":        c.Summary.AsMap(),
		"ok":             c.OK,
	}
}
