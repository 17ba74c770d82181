package discovery

import (
	"context"
	"errors"

	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

// ErrInspectorNotConfigured indicates the inspector dependency was missing.
var ErrInspectorNotConfigured = errors.New("repository inspector not configured")

// ScanOptions narrows the scan results.
type ScanOptions struct {
	// StandaloneRemoteOnly keeps checkouts that have a remote and no worktree or link relationship.
	StandaloneRemoteOnly bool
}

// ScanResult carries one inspected checkout, or the failure to inspect it.
type ScanResult struct {
	Key      string
	Identity snapshot.RepoIdentity
	Err      error
}

// Scanner walks a tree and inspects every checkout it finds.
type Scanner struct {
	discoverer *FilesystemRepositoryDiscoverer
	inspector  shared.RepositoryInspector
}

// NewScanner constructs a Scanner.
func NewScanner(discoverer *FilesystemRepositoryDiscoverer, inspector shared.RepositoryInspector) (*Scanner, error) {
	if inspector == nil {
		return nil, ErrInspectorNotConfigured
	}
	if discoverer == nil {
		discoverer = NewFilesystemRepositoryDiscoverer(nil, nil)
	}
	return &Scanner{discoverer: discoverer, inspector: inspector}, nil
}

// Scan inspects each checkout below root as it is discovered and hands the result to visit.
// Identities carry their root-relative key as Path. Inspection failures are delivered as
// results rather than stopping the walk; filtered identities are not delivered.
func (scanner *Scanner) Scan(executionContext context.Context, root string, options ScanOptions, visit func(ScanResult) error) error {
	return scanner.discoverer.Walk(root, func(candidate Candidate) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		identity, inspectError := scanner.inspector.Inspect(executionContext, candidate.Path)
		if inspectError != nil {
			return visit(ScanResult{Key: candidate.Key, Err: inspectError})
		}
		identity.Path = candidate.Key
		if options.StandaloneRemoteOnly && !identity.IsStandaloneRemote() {
			return nil
		}
		return visit(ScanResult{Key: candidate.Key, Identity: identity})
	})
}
