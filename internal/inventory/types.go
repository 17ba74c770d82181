package inventory

import (
	"context"

	"github.com/temirov/gitm/internal/execshell"
	"github.com/temirov/gitm/internal/reconcile"
	"github.com/temirov/gitm/internal/repos/discovery"
	"github.com/temirov/gitm/internal/snapshot"
)

// TreeScanner walks a root and inspects every checkout below it.
type TreeScanner interface {
	Scan(executionContext context.Context, root string, options discovery.ScanOptions, visit func(discovery.ScanResult) error) error
}

// EntryReconciler classifies and optionally repairs one baseline entry.
type EntryReconciler interface {
	Reconcile(executionContext context.Context, key string, recorded snapshot.RepoIdentity) reconcile.Outcome
}

// BaselineLoader reads the first available baseline among candidate locations.
type BaselineLoader interface {
	LoadFirstAvailable(locations ...string) (*snapshot.Baseline, string, error)
}

// GitCommandRunner runs arbitrary git arguments inside a checkout.
type GitCommandRunner interface {
	Run(executionContext context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error)
}

// Phase names the step in which a per-checkout failure occurred.
type Phase string

// Run phases that report per-checkout failures.
const (
	PhaseReconcile   Phase = "reconcile"
	PhaseScan        Phase = "scan"
	PhasePassthrough Phase = "passthrough"
)

// EntryFailure records a per-checkout failure that did not stop the run.
type EntryFailure struct {
	Path  string
	Phase Phase
	Err   error
}

// RunReport summarizes a completed run.
type RunReport struct {
	Failures []EntryFailure
	// Mapping holds every emitted checkout with its state.
	Mapping *snapshot.Baseline
}

// HasFailures reports whether any checkout failed.
func (runReport RunReport) HasFailures() bool {
	return len(runReport.Failures) > 0
}

// Options configure a run.
type Options struct {
	// Root is the directory scanned and the base of baseline keys.
	Root string
	// Compare loads a baseline and reconciles every entry before scanning.
	Compare bool
	// BaselineLocations are tried in order; the first readable one is used.
	BaselineLocations []string
	// StandaloneRemoteOnly restricts output to standalone checkouts with a remote.
	StandaloneRemoteOnly bool
	// Vocabulary labels checkouts found on disk without a baseline entry.
	Vocabulary snapshot.Vocabulary
}
