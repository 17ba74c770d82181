package gitrepo

import (
	"context"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/temirov/gitm/internal/execshell"
	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	gitCloneSubcommandConstant    = "clone"
	gitCheckoutSubcommandConstant = "checkout"
	remoteURLFieldConstant        = "remote_url"
	referenceFieldConstant        = "reference"
)

// RepositoryOperator performs repairs through the git CLI.
type RepositoryOperator struct {
	executor shared.GitExecutor
}

// NewRepositoryOperator constructs an operator.
func NewRepositoryOperator(executor shared.GitExecutor) (*RepositoryOperator, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RepositoryOperator{executor: executor}, nil
}

// CloneTo clones remoteURL into destinationPath. The parent directory must exist.
func (operator *RepositoryOperator) CloneTo(executionContext context.Context, remoteURL string, destinationPath string) error {
	_, cloneError := operator.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCloneSubcommandConstant, gitQuietFlagConstant, remoteURL, filepath.Base(destinationPath)},
		WorkingDirectory: filepath.Dir(destinationPath),
	})
	if cloneError != nil {
		return snapshot.WrapKind(snapshot.ErrReconcileError, cloneError, "clone failed", goerr.V(pathFieldConstant, destinationPath), goerr.V(remoteURLFieldConstant, remoteURL))
	}
	return nil
}

// Checkout switches the checkout to a branch name or commit identifier.
func (operator *RepositoryOperator) Checkout(executionContext context.Context, repositoryPath string, reference string) error {
	_, checkoutError := operator.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, gitQuietFlagConstant, reference},
		WorkingDirectory: repositoryPath,
	})
	if checkoutError != nil {
		return snapshot.WrapKind(snapshot.ErrReconcileError, checkoutError, "checkout failed", goerr.V(pathFieldConstant, repositoryPath), goerr.V(referenceFieldConstant, reference))
	}
	return nil
}

// Run executes arbitrary git arguments inside the checkout and returns the process result.
func (operator *RepositoryOperator) Run(executionContext context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error) {
	return operator.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
}
