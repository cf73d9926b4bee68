package suite

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck(id string) Check {
	return Check{
		ID:   id,
		Name: id,
		Run: func() (map[string]any, error) {
			return map[string]any{"status": "pass"}, nil
		},
	}
}

func checkWithStatus(id, status string) Check {
	return Check{
		ID:   id,
		Name: id,
		Run: func() (map[string]any, error) {
			return map[string]any{"status": status}, nil
		},
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value    any
		expected Kind
	}{
		{"pass", KindPass},
		{"passed", KindPass},
		{"ok", KindPass},
		{true, KindPass},
		{"fail", KindFail},
		{"failed", KindFail},
		{"error", KindFail},
		{"fatal", KindFail},
		{false, KindFail},
		{"warn", KindWarn},
		{"warning", KindWarn},
		{"skip", KindSkip},
		{"skipped", KindSkip},
		{"skipped_no_time", KindSkip},
		{"unknown", KindPass},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.value), func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.value))
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name           string
		statuses       []string
		expectedStatus Kind
		expectedOK     bool
	}{
		{
			name:           "all passing",
			statuses:       []string{"pass", "pass"},
			expectedStatus: KindPass,
			expectedOK:     true,
		},
		{
			name:           "any failure dominates",
			statuses:       []string{"pass", "warn", "fail"},
			expectedStatus: KindFail,
			expectedOK:     false,
		},
		{
			name:           "warning without failure",
			statuses:       []string{"pass", "warn"},
			expectedStatus: KindWarn,
			expectedOK:     true,
		},
		{
			name:           "skip weighs as warning",
			statuses:       []string{"pass", "skipped_no_time"},
			expectedStatus: KindWarn,
			expectedOK:     true,
		},
		{
			name:           "empty set passes",
			statuses:       nil,
			expectedStatus: KindPass,
			expectedOK:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]Item, 0, len(tt.statuses))
			for i, status := range tt.statuses {
				items = append(items, Item{ID: fmt.Sprintf("c%d", i), Status: status})
			}

			summary := Summarize(items)

			assert.Equal(t, tt.expectedStatus, summary.OverallStatus)
			assert.Equal(t, tt.expectedOK, summary.OverallOK)
			assert.Equal(t, len(tt.statuses), summary.ChecksRun)
		})
	}
}

func TestSummarizeCounts(t *testing.T) {
	items := []Item{
		{ID: "a", Status: "pass"},
		{ID: "b", Status: "fail"},
		{ID: "c", Status: "warn"},
		{ID: "d", Status: "skipped"},
	}

	summary := Summarize(items)

	assert.Equal(t, 4, summary.ChecksRun)
	assert.Equal(t, 1, summary.FailingChecks)
	assert.Equal(t, 2, summary.WarningsOrSkips)
	assert.Equal(t, KindFail, summary.OverallStatus)
	assert.False(t, summary.OverallOK)
}

func TestSuiteRunPreservesOrder(t *testing.T) {
	s := New("ordered", []Check{
		passingCheck("first"),
		passingCheck("second"),
		passingCheck("third"),
	})

	report := s.Run()

	require.Len(t, report.Checks, 3)
	assert.Equal(t, "first", report.Checks[0].ID)
	assert.Equal(t, "second", report.Checks[1].ID)
	assert.Equal(t, "third", report.Checks[2].ID)
}

func TestSuiteRunIsolatesPanics(t *testing.T) {
	s := New("panicky", []Check{
		passingCheck("before"),
		{
			ID:   "boom",
			Name: "boom",
			Run: func() (map[string]any, error) {
				panic("kaboom")
			},
		},
		passingCheck("after"),
	})

	report := s.Run()

	require.Len(t, report.Checks, 3)
	assert.Equal(t, "fail", report.Checks[1].Status)
	assert.Contains(t, report.Checks[1].Detail, "kaboom")
	assert.Equal(t, "pass", report.Checks[0].Status)
	assert.Equal(t, "pass", report.Checks[2].Status)
	assert.False(t, report.OK)
}

func TestSuiteRunFoldsErrorsIntoFailures(t *testing.T) {
	s := New("erroring", []Check{
		{
			ID:   "broken",
			Name: "broken",
			Run: func() (map[string]any, error) {
				return nil, errors.New("no such coordinate")
			},
		},
	})

	report := s.Run()

	require.Len(t, report.Checks, 1)
	assert.Equal(t, "fail", report.Checks[0].Status)
	assert.Equal(t, "no such coordinate", report.Checks[0].Detail)
	assert.False(t, report.Summary.OverallOK)
}

func TestSuiteRunUsesDetailFunc(t *testing.T) {
	s := New("detailed", []Check{
		{
			ID:   "counted",
			Name: "counted",
			Run: func() (map[string]any, error) {
				return map[string]any{"status": "fail", "count": 3}, nil
			},
			Detail: func(result map[string]any) string {
				return fmt.Sprintf("count=%d", result["count"])
			},
		},
	})

	report := s.Run()

	require.Len(t, report.Checks, 1)
	assert.Equal(t, "count=3", report.Checks[0].Detail)
}

func TestReportFromItemsMatchesRun(t *testing.T) {
	s := New("both", []Check{
		checkWithStatus("a", "pass"),
		checkWithStatus("b", "fail"),
	})

	direct := s.Run()
	rebuilt := ReportFromItems("both", direct.Checks)

	assert.Equal(t, direct.Summary, rebuilt.Summary)
	assert.Equal(t, direct.OK, rebuilt.OK)
	assert.Equal(t, direct.Checks, rebuilt.Checks)
}

func TestReportAsMapShape(t *testing.T) {
	report := New("shape", []Check{passingCheck("only")}).Run()

	m := report.AsMap()

	assert.Equal(t, "shape", m["suite"])
	require.Contains(t, m, "checks")
	require.Contains(t, m, "summary")
	require.Contains(t, m, "ok")

	summary, ok := m["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, summary["checks_run"])
	assert.Equal(t, 0, summary["failing_checks"])
	assert.Equal(t, true, summary["overall_ok"])
}
