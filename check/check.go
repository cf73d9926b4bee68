// Package check contains the result model shared by every atomic
// data-quality check.
package check

// Status represents the possible outcomes of one atomic check.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// String implements the Stringer interface for Status.
func (s Status) String() string {
	return string(s)
}

// AtomicResult is the standardized unit produced by one atomic check.
// Name is a stable, namespaced identifier (eg. "cf.latitude_units") and
// must be unique within one suite's check list.
type AtomicResult struct {
	Name    string
	Status  Status
	Info    string
	Details map[string]any
}

// SkippedResult builds a skipped AtomicResult.
func SkippedResult(name, info string, details map[string]any) AtomicResult {
	return AtomicResult{Name: name, Status: StatusSkipped, Info: info, Details: copyDetails(details)}
}

// PassedResult builds a passed AtomicResult.
func PassedResult(name, info string, details map[string]any) AtomicResult {
	return AtomicResult{Name: name, Status: StatusPassed, Info: info, Details: copyDetails(details)}
}

// FailedResult builds a failed AtomicResult.
func FailedResult(name, info string, details map[string]any) AtomicResult {
	return AtomicResult{Name: name, Status: StatusFailed, Info: info, Details: copyDetails(details)}
}

func copyDetails(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

// AsMap returns the result as a plain serializable mapping.
func (r AtomicResult) AsMap() map[string]any {
	details := r.Details
	if details == nil {
		details = map[string]any{}
	}
	return map[string]any{
		"name":    r.Name,
		"status":  r.Status.String(),
		"info":    r.Info,
		"details": details,
	}
}

// SuiteSummary aggregates the results of one registry-built suite.
type SuiteSummary struct {
	ChecksRun int
	Passed    int
	Skipped   int
	Failed    int
	Overall   Status
}

// Summarize computes a SuiteSummary over a list of atomic results.
// Any failure dominates; a run with at least one pass and no failures
// is passed; an all-skip run is skipped.
func Summarize(results []AtomicResult) SuiteSummary {
	summary := SuiteSummary{ChecksRun: len(results)}
	for _, result := range results {
		switch result.Status {
		case StatusPassed:
			summary.Passed++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
	}
	switch {
	case summary.Failed > 0:
		summary.Overall = StatusFailed
	case summary.Passed > 0:
		summary.Overall = StatusPassed
	default:
		summary.Overall = StatusSkipped
	}
	return summary
}

// AsMap returns the summary as a plain serializable mapping.
func (s SuiteSummary) AsMap() map[string]any {
	return map[string]any{
		"checks_run":     s.ChecksRun,
		"passed":         s.Passed,
		"skipped":        s.Skipped,
		"failed":         s.Failed,
		"overall_status": s.Overall.String(),
	}
}

// SuiteReport is the output of running one registry-built suite.
// Results groups every atomic result by data scope and scope item so
// callers can render per-variable tables.
type SuiteReport struct {
	SuiteName string
	Plugin    string
	Checks    []AtomicResult
	Summary   SuiteSummary
	Results   map[string]map[string]map[string]AtomicResult
}

// AsMap returns the report as a plain serializable mapping.
func (r SuiteReport) AsMap() map[string]any {
	checks := make([]map[string]any, 0, len(r.Checks))
	for _, item := range r.Checks {
		checks = append(checks, item.AsMap())
	}
	structured := make(map[string]any, len(r.Results))
	for scope, items := range r.Results {
		scopeMap := make(map[string]any, len(items))
		for item, byName := range items {
			nameMap := make(map[string]any, len(byName))
			for name, result := range byName {
				nameMap[name] = result.AsMap()
			}
			scopeMap[item] = nameMap
		}
		structured[scope] = scopeMap
	}
	return map[string]any{
		"suite_name": r.SuiteName,
		"plugin":     r.Plugin,
		"checks":     checks,
		"results":    structured,
		"summary":    r.Summary.AsMap(),
	}
}
