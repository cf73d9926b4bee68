package registry

import (
	"fmt"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/dataset"
)

// scopeOrder fixes the execution order across data scopes so reports
// are deterministic regardless of registration order.
var scopeOrder = []Scope{ScopeDataset, ScopeDataVars, ScopeCoords, ScopeDims}

// ScopeSuite runs a set of descriptors against one dataset, fanning
// each descriptor out over every item of its data scope.
type ScopeSuite struct {
	Name   string
	Plugin string
	Checks []Descriptor
}

// Run executes the suite. Checks execute grouped by scope, then by
// scope item, then in descriptor order. A check with no scope targets
// yields a skipped result rather than vanishing from the report.
func (s *ScopeSuite) Run(ds *dataset.Dataset) check.SuiteReport {
	var results []check.AtomicResult
	hierarchy := make(map[string]map[string]map[string]check.AtomicResult)

	byScope := make(map[Scope][]Descriptor)
	for _, desc := range s.Checks {
		byScope[desc.Scope] = append(byScope[desc.Scope], desc)
	}

	for _, scope := range scopeOrder {
		descs := byScope[scope]
		if len(descs) == 0 {
			continue
		}
		targets := scopeTargets(ds, scope)
		if len(targets) == 0 {
			for _, desc := range descs {
				results = append(results, emptyScopeResult(desc))
			}
			continue
		}
		scopeResults := make(map[string]map[string]check.AtomicResult)
		for _, target := range targets {
			itemResults := make(map[string]check.AtomicResult)
			for _, desc := range descs {
				result := RunAtomic(desc, target)
				results = append(results, result)
				itemResults[desc.Name] = result
			}
			scopeResults[target.Item] = itemResults
		}
		hierarchy[string(scope)] = scopeResults
	}

	return check.SuiteReport{
		SuiteName: s.Name,
		Plugin:    s.Plugin,
		Checks:    results,
		Summary:   check.Summarize(results),
		Results:   hierarchy,
	}
}

// RunAtomic executes one descriptor against one target with
// partial-failure isolation: a panicking check becomes a failed result
// instead of aborting the suite, and a result reported under the wrong
// name is re-attributed to the descriptor.
func RunAtomic(desc Descriptor, target Target) (result check.AtomicResult) {
	defer func() {
		if r := recover(); r != nil {
			details := map[string]any{"panic": fmt.Sprint(r)}
			annotateScope(details, desc, target)
			result = check.FailedResult(desc.Name, fmt.Sprintf("check panicked: %v", r), details)
		}
	}()

	result = desc.Fn(target)

	if target.Item != "" {
		if result.Details == nil {
			result.Details = map[string]any{}
		}
		if _, ok := result.Details["scope_item"]; !ok {
			annotateScope(result.Details, desc, target)
		}
	}
	if result.Name != desc.Name {
		details := result.Details
		if details == nil {
			details = map[string]any{}
		}
		details["reported_name"] = result.Name
		result.Name = desc.Name
		result.Details = details
	}
	return result
}

func annotateScope(details map[string]any, desc Descriptor, target Target) {
	details["data_scope"] = string(desc.Scope)
	if target.Item != "" {
		details["scope_item"] = target.Item
	}
}

func emptyScopeResult(desc Descriptor) check.AtomicResult {
	return check.SkippedResult(
		desc.Name,
		fmt.Sprintf("check skipped (dataset has no items in %q scope)", desc.Scope),
		map[string]any{
			"reason":     "no_scope_targets",
			"data_scope": string(desc.Scope),
		},
	)
}

func scopeTargets(ds *dataset.Dataset, scope Scope) []Target {
	switch scope {
	case ScopeDataset:
		return []Target{{Scope: scope, Dataset: ds}}
	case ScopeDataVars:
		var targets []Target
		for _, name := range ds.VarNames() {
			a, _ := ds.Var(name)
			targets = append(targets, Target{Scope: scope, Item: name, Array: a, Dataset: ds})
		}
		return targets
	case ScopeCoords:
		var targets []Target
		for _, name := range ds.CoordNames() {
			a, _ := ds.Coord(name)
			targets = append(targets, Target{Scope: scope, Item: name, Array: a, Dataset: ds})
		}
		return targets
	case ScopeDims:
		var targets []Target
		for _, dim := range ds.DimNames() {
			// Prefer the coordinate of the same name when present.
			if a, ok := ds.Coord(dim); ok {
				targets = append(targets, Target{Scope: scope, Item: dim, Array: a, Dataset: ds})
				continue
			}
			targets = append(targets, Target{Scope: scope, Item: dim, Dataset: ds})
		}
		return targets
	}
	return nil
}
