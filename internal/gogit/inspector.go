package gogit

import (
	"context"
	"errors"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/m-mizutani/goerr/v2"

	"github.com/temirov/gitm/internal/gitrepo"
	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	pathFieldConstant          = "path"
	coreSectionConstant        = "core"
	worktreeOptionConstant     = "worktree"
	shortIdentifierLengthConst = 7
)

// ErrFileSystemNotConfigured indicates the filesystem dependency was missing.
var ErrFileSystemNotConfigured = errors.New("filesystem not configured")

// RepositoryInspector reads checkout identities with go-git.
type RepositoryInspector struct {
	fileSystem shared.FileSystem
}

// NewRepositoryInspector constructs an inspector.
func NewRepositoryInspector(fileSystem shared.FileSystem) (*RepositoryInspector, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &RepositoryInspector{fileSystem: fileSystem}, nil
}

// Inspect reads the identity of the checkout at repositoryPath. Revision falls back to the
// short identifier since go-git has no describe.
func (inspector *RepositoryInspector) Inspect(executionContext context.Context, repositoryPath string) (snapshot.RepoIdentity, error) {
	linkedFrom, linkageError := gitrepo.ResolveLinkage(inspector.fileSystem, repositoryPath)
	if linkageError != nil {
		return snapshot.RepoIdentity{}, linkageError
	}

	repository, openError := openRepository(repositoryPath)
	if openError != nil {
		return snapshot.RepoIdentity{}, openError
	}
	identity := snapshot.RepoIdentity{Path: repositoryPath, LinkedFrom: linkedFrom}

	headReference, headError := repository.Reference(plumbing.HEAD, false)
	if headError != nil {
		return snapshot.RepoIdentity{}, toolingError(headError, "unable to read HEAD", repositoryPath)
	}
	if headReference.Type() == plumbing.SymbolicReference && headReference.Target().IsBranch() {
		identity.Branch = headReference.Target().Short()
	}

	resolvedHead, resolveError := repository.Head()
	switch {
	case errors.Is(resolveError, plumbing.ErrReferenceNotFound):
	case resolveError != nil:
		return snapshot.RepoIdentity{}, toolingError(resolveError, "unable to resolve HEAD", repositoryPath)
	default:
		if commitError := readCommitMetadata(executionContext, repository, resolvedHead.Hash(), &identity); commitError != nil {
			return snapshot.RepoIdentity{}, toolingError(commitError, "unable to read commit metadata", repositoryPath)
		}
	}

	remotes, remotesError := repository.Remotes()
	if remotesError != nil {
		return snapshot.RepoIdentity{}, toolingError(remotesError, "unable to read remotes", repositoryPath)
	}
	if len(remotes) > 0 {
		sort.Slice(remotes, func(left, right int) bool {
			return remotes[left].Config().Name < remotes[right].Config().Name
		})
		remoteConfig := remotes[0].Config()
		identity.RemoteName = remoteConfig.Name
		if len(remoteConfig.URLs) > 0 {
			identity.RemoteURL = remoteConfig.URLs[0]
		}
	}

	repositoryConfig, configError := repository.Config()
	if configError != nil {
		return snapshot.RepoIdentity{}, toolingError(configError, "unable to read configuration", repositoryPath)
	}
	identity.WorktreeRoot = repositoryConfig.Raw.Section(coreSectionConstant).Option(worktreeOptionConstant)

	return identity, nil
}

func readCommitMetadata(executionContext context.Context, repository *git.Repository, headHash plumbing.Hash, identity *snapshot.RepoIdentity) error {
	headCommit, commitError := repository.CommitObject(headHash)
	if commitError != nil {
		return commitError
	}
	identity.CommitID = headHash.String()
	identity.ShortID = identity.CommitID[:shortIdentifierLengthConst]
	identity.Revision = identity.ShortID
	identity.CommitTime = headCommit.Committer.When.UTC()
	identity.CommitMessageSummary = strings.SplitN(headCommit.Message, "\n", 2)[0]

	history, logError := repository.Log(&git.LogOptions{From: headHash})
	if logError != nil {
		return logError
	}
	defer history.Close()
	commitCount := 0
	iterationError := history.ForEach(func(*object.Commit) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		commitCount++
		return nil
	})
	if iterationError != nil {
		return iterationError
	}
	identity.CommitCount = commitCount
	return nil
}

func openRepository(repositoryPath string) (*git.Repository, error) {
	repository, openError := git.PlainOpenWithOptions(repositoryPath, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if errors.Is(openError, git.ErrRepositoryNotExists) {
		return nil, goerr.Wrap(snapshot.ErrNotARepository, "no repository found", goerr.V(pathFieldConstant, repositoryPath))
	}
	if openError != nil {
		return nil, toolingError(openError, "unable to open repository", repositoryPath)
	}
	return repository, nil
}

func toolingError(cause error, message string, repositoryPath string) error {
	return snapshot.WrapKind(snapshot.ErrToolingError, cause, message, goerr.V(pathFieldConstant, repositoryPath))
}
