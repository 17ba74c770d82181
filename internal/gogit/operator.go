package gogit

import (
	"context"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/m-mizutani/goerr/v2"

	"github.com/temirov/gitm/internal/snapshot"
)

const (
	originRemoteNameConstant = "origin"
	remoteURLFieldConstant   = "remote_url"
	referenceFieldConstant   = "reference"
)

// RepositoryOperator performs repairs with go-git.
type RepositoryOperator struct{}

// NewRepositoryOperator constructs an operator.
func NewRepositoryOperator() *RepositoryOperator {
	return &RepositoryOperator{}
}

// CloneTo clones remoteURL into destinationPath.
func (operator *RepositoryOperator) CloneTo(executionContext context.Context, remoteURL string, destinationPath string) error {
	_, cloneError := git.PlainCloneContext(executionContext, destinationPath, false, &git.CloneOptions{URL: remoteURL})
	if cloneError != nil {
		return snapshot.WrapKind(snapshot.ErrReconcileError, cloneError, "clone failed", goerr.V(pathFieldConstant, destinationPath), goerr.V(remoteURLFieldConstant, remoteURL))
	}
	return nil
}

// Checkout switches to a local branch, creates a local branch from the origin branch of the
// same name, or detaches at a commit, in that order of preference.
func (operator *RepositoryOperator) Checkout(executionContext context.Context, repositoryPath string, reference string) error {
	repository, openError := openRepository(repositoryPath)
	if openError != nil {
		return reconcileError(openError, repositoryPath, reference)
	}
	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return reconcileError(worktreeError, repositoryPath, reference)
	}

	checkoutOptions, resolveError := resolveCheckoutOptions(repository, reference)
	if resolveError != nil {
		return reconcileError(resolveError, repositoryPath, reference)
	}
	if checkoutError := worktree.Checkout(checkoutOptions); checkoutError != nil {
		return reconcileError(checkoutError, repositoryPath, reference)
	}
	return nil
}

func resolveCheckoutOptions(repository *git.Repository, reference string) (*git.CheckoutOptions, error) {
	localBranch := plumbing.NewBranchReferenceName(reference)
	if _, lookupError := repository.Reference(localBranch, true); lookupError == nil {
		return &git.CheckoutOptions{Branch: localBranch}, nil
	}
	if remoteBranch, lookupError := repository.Reference(plumbing.NewRemoteReferenceName(originRemoteNameConstant, reference), true); lookupError == nil {
		return &git.CheckoutOptions{Branch: localBranch, Hash: remoteBranch.Hash(), Create: true}, nil
	}
	commitHash, resolveError := repository.ResolveRevision(plumbing.Revision(reference))
	if resolveError != nil {
		return nil, resolveError
	}
	return &git.CheckoutOptions{Hash: *commitHash}, nil
}

func reconcileError(cause error, repositoryPath string, reference string) error {
	return snapshot.WrapKind(snapshot.ErrReconcileError, cause, "checkout failed", goerr.V(pathFieldConstant, repositoryPath), goerr.V(referenceFieldConstant, reference))
}
