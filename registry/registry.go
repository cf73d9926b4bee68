// Package registry maintains the catalog of known atomic checks and
// supports plugin-based extension. A registry is the source of truth
// for "what checks exist"; it holds no dataset reference.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gridops/nc-check/check"
	"github.com/gridops/nc-check/dataset"
)

// Scope names the slice of a dataset a check applies to.
type Scope string

const (
	// ScopeDataset runs a check once against the whole dataset.
	ScopeDataset Scope = "dataset"
	// ScopeDataVars runs a check once per data variable.
	ScopeDataVars Scope = "data_vars"
	// ScopeCoords runs a check once per coordinate array.
	ScopeCoords Scope = "coords"
	// ScopeDims runs a check once per dimension.
	ScopeDims Scope = "dims"
)

// Target is the unit of data handed to an atomic check function.
// Array is nil for ScopeDataset targets.
type Target struct {
	Scope   Scope
	Item    string
	Array   *dataset.Array
	Dataset *dataset.Dataset
}

// CheckFunc executes one atomic check against a target.
type CheckFunc func(target Target) check.AtomicResult

// Descriptor binds a check identifier to its owning plugin, the data
// scope it applies to, and the callable that executes it.
type Descriptor struct {
	Name   string
	Plugin string
	Scope  Scope
	Fn     CheckFunc
}

// Plugin registers zero or more check descriptors with a registry.
// Register must be idempotent-safe to call once per registry instance.
type Plugin interface {
	Name() string
	Register(r *Registry) error
}

// DuplicateCheckError reports a registration collision. Registration
// is never silently overwritten.
type DuplicateCheckError struct {
	Name string
}

func (e *DuplicateCheckError) Error() string {
	return fmt.Sprintf("check %q is already registered", e.Name)
}

// IsDuplicateCheckError checks if the error is or wraps a DuplicateCheckError.
func IsDuplicateCheckError(err error) bool {
	var dup *DuplicateCheckError
	return err != nil && errors.As(err, &dup)
}

// UnknownCheckError reports a lookup of a nonexistent check.
type UnknownCheckError struct {
	Name  string
	Known []string
}

func (e *UnknownCheckError) Error() string {
	return fmt.Sprintf("unknown check %q, registered checks: %s", e.Name, strings.Join(e.Known, ", "))
}

// IsUnknownCheckError checks if the error is or wraps an UnknownCheckError.
func IsUnknownCheckError(err error) bool {
	var unknown *UnknownCheckError
	return err != nil && errors.As(err, &unknown)
}

// Registry holds named check descriptors. Reads are safe for
// concurrent use; registration is expected to happen during startup.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Descriptor
}

// New creates an empty registry. No plugins are discovered implicitly,
// which keeps construction deterministic for tests and embedding
// scenarios.
func New() *Registry {
	return &Registry{checks: make(map[string]Descriptor)}
}

// RegisterCheck inserts one descriptor. Registration is atomic: on a
// name collision the registry state is unchanged.
func (r *Registry) RegisterCheck(desc Descriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("check descriptor requires a name")
	}
	if desc.Fn == nil {
		return fmt.Errorf("check %q requires a check function", desc.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[desc.Name]; exists {
		return &DuplicateCheckError{Name: desc.Name}
	}
	r.checks[desc.Name] = desc
	return nil
}

// RegisterPlugin asks the plugin to register its checks. A plugin that
// collides with an existing name fails with DuplicateCheckError.
func (r *Registry) RegisterPlugin(p Plugin) error {
	if err := p.Register(r); err != nil {
		return fmt.Errorf("registering plugin %q: %w", p.Name(), err)
	}
	return nil
}

// GetCheck returns the descriptor for name.
func (r *Registry) GetCheck(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.checks[name]
	if !ok {
		return Descriptor{}, &UnknownCheckError{Name: name, Known: r.listLocked()}
	}
	return desc, nil
}

// GetChecks resolves a list of names, failing on the first unknown one.
func (r *Registry) GetChecks(names []string) ([]Descriptor, error) {
	descs := make([]Descriptor, 0, len(names))
	for _, name := range names {
		desc, err := r.GetCheck(name)
		if err != nil {
			return nil, err
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

// ListChecks returns the registered check names, sorted.
func (r *Registry) ListChecks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *Registry) listLocked() []string {
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildSuite resolves checkNames into a scope suite that can run
// against any dataset.
func (r *Registry) BuildSuite(name string, checkNames []string, plugin string) (*ScopeSuite, error) {
	descs, err := r.GetChecks(checkNames)
	if err != nil {
		return nil, err
	}
	return &ScopeSuite{Name: name, Plugin: plugin, Checks: descs}, nil
}
