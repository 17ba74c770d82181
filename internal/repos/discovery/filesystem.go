package discovery

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

// DefaultPrunedDirectoryNames lists directory names whose contents are never scanned.
var DefaultPrunedDirectoryNames = []string{shared.GitMetadataDirectoryNameConstant, "tmp"}

// Candidate is a directory that directly contains checkout metadata.
type Candidate struct {
	// Path is the directory location joined onto the walk root, suitable for filesystem access.
	Path string
	// Key is the slash separated location relative to the walk root.
	Key string
}

// WalkErrorHandler receives unreadable directories encountered below the root.
type WalkErrorHandler func(path string, walkError error)

// FilesystemRepositoryDiscoverer locates checkouts on disk.
type FilesystemRepositoryDiscoverer struct {
	prunedDirectoryNames map[string]struct{}
	onWalkError          WalkErrorHandler
}

// NewFilesystemRepositoryDiscoverer constructs a discoverer backed by filepath.WalkDir.
// An empty prune list falls back to DefaultPrunedDirectoryNames.
func NewFilesystemRepositoryDiscoverer(prunedDirectoryNames []string, onWalkError WalkErrorHandler) *FilesystemRepositoryDiscoverer {
	if len(prunedDirectoryNames) == 0 {
		prunedDirectoryNames = DefaultPrunedDirectoryNames
	}
	prunedNames := make(map[string]struct{}, len(prunedDirectoryNames)+1)
	prunedNames[shared.GitMetadataDirectoryNameConstant] = struct{}{}
	for _, directoryName := range prunedDirectoryNames {
		prunedNames[directoryName] = struct{}{}
	}
	if onWalkError == nil {
		onWalkError = func(string, error) {}
	}
	return &FilesystemRepositoryDiscoverer{prunedDirectoryNames: prunedNames, onWalkError: onWalkError}
}

// Walk visits every checkout below root in lexical walk order. A checkout is reported when
// its metadata entry is reached, which precedes the checkout's other children, and the walk
// continues into its ordinary subdirectories. A pruned directory is reported when it is a
// checkout itself but is never descended into. An error returned by visit stops the walk.
func (discoverer *FilesystemRepositoryDiscoverer) Walk(root string, visit func(Candidate) error) error {
	return filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if path == root {
				return walkError
			}
			discoverer.onWalkError(path, walkError)
			return nil
		}

		if directoryEntry.Name() == shared.GitMetadataDirectoryNameConstant && path != root {
			candidate, candidateError := newCandidate(root, filepath.Dir(path))
			if candidateError != nil {
				return candidateError
			}
			if visitError := visit(candidate); visitError != nil {
				return visitError
			}
			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if directoryEntry.IsDir() && path != root {
			if _, pruned := discoverer.prunedDirectoryNames[directoryEntry.Name()]; pruned {
				return discoverer.visitPrunedCheckout(root, path, visit)
			}
		}
		return nil
	})
}

// visitPrunedCheckout reports a pruned directory that is itself a checkout and stops descent.
func (discoverer *FilesystemRepositoryDiscoverer) visitPrunedCheckout(root string, path string, visit func(Candidate) error) error {
	if _, statError := os.Lstat(filepath.Join(path, shared.GitMetadataDirectoryNameConstant)); statError != nil {
		return fs.SkipDir
	}
	candidate, candidateError := newCandidate(root, path)
	if candidateError != nil {
		return candidateError
	}
	if visitError := visit(candidate); visitError != nil {
		return visitError
	}
	return fs.SkipDir
}

func newCandidate(root string, repositoryPath string) (Candidate, error) {
	relativePath, relativeError := filepath.Rel(root, repositoryPath)
	if relativeError != nil {
		return Candidate{}, relativeError
	}
	return Candidate{Path: repositoryPath, Key: snapshot.NormalizePath(relativePath)}, nil
}
