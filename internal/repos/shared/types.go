package shared

import (
	"context"
	"io/fs"
	"time"

	"github.com/temirov/gitm/internal/execshell"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	// GitMetadataDirectoryNameConstant names the per-checkout metadata entry.
	GitMetadataDirectoryNameConstant = ".git"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes the filesystem operations used by inspection and repair.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	EvalSymlinks(path string) (string, error)
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
}

// GitExecutor exposes the subset of shell execution used by repository services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryInspector reads the identity of one checkout.
type RepositoryInspector interface {
	Inspect(executionContext context.Context, repositoryPath string) (snapshot.RepoIdentity, error)
}

// RepositoryOperator performs the repair actions the reconciler needs.
type RepositoryOperator interface {
	CloneTo(executionContext context.Context, remoteURL string, destinationPath string) error
	Checkout(executionContext context.Context, repositoryPath string, reference string) error
}
