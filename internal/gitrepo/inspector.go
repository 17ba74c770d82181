package gitrepo

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/temirov/gitm/internal/execshell"
	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	gitRevParseSubcommandConstant    = "rev-parse"
	gitVerifyFlagConstant            = "--verify"
	gitQuietFlagConstant             = "--quiet"
	gitShortFlagConstant             = "--short"
	gitHeadReferenceConstant         = "HEAD"
	gitHeadCommitReferenceConstant   = "HEAD^{commit}"
	gitLogSubcommandConstant         = "log"
	gitMaxCountOneFlagConstant       = "-1"
	gitCommitFormatFlagConstant      = "--format=%h%x00%ct%x00%s"
	gitRevListSubcommandConstant     = "rev-list"
	gitCountFlagConstant             = "--count"
	gitSymbolicRefSubcommandConstant = "symbolic-ref"
	gitShowRefSubcommandConstant     = "show-ref"
	gitRemoteSubcommandConstant      = "remote"
	gitRemoteGetURLActionConstant    = "get-url"
	gitConfigSubcommandConstant      = "config"
	gitConfigGetFlagConstant         = "--get"
	gitCoreWorktreeKeyConstant       = "core.worktree"
	gitDescribeSubcommandConstant    = "describe"
	gitAlwaysFlagConstant            = "--always"
	commitFieldSeparatorConstant     = "\x00"
	commitFieldCountConstant         = 3
	unsetExitCodeConstant            = 1
	commandFieldConstant             = "command"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New("git executor not configured")

// ErrFileSystemNotConfigured indicates the filesystem dependency was missing.
var ErrFileSystemNotConfigured = errors.New("filesystem not configured")

// RepositoryInspector reads checkout identities through the git CLI.
type RepositoryInspector struct {
	executor   shared.GitExecutor
	fileSystem shared.FileSystem
}

// NewRepositoryInspector constructs an inspector.
func NewRepositoryInspector(executor shared.GitExecutor, fileSystem shared.FileSystem) (*RepositoryInspector, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &RepositoryInspector{executor: executor, fileSystem: fileSystem}, nil
}

// Inspect reads the identity of the checkout at repositoryPath. A checkout without
// commits yields an identity with a zero commit count and empty commit fields.
func (inspector *RepositoryInspector) Inspect(executionContext context.Context, repositoryPath string) (snapshot.RepoIdentity, error) {
	linkedFrom, linkageError := ResolveLinkage(inspector.fileSystem, repositoryPath)
	if linkageError != nil {
		return snapshot.RepoIdentity{}, linkageError
	}
	identity := snapshot.RepoIdentity{Path: repositoryPath, LinkedFrom: linkedFrom}

	commitID, hasCommits, headError := inspector.resolveHead(executionContext, repositoryPath)
	if headError != nil {
		return snapshot.RepoIdentity{}, headError
	}
	if hasCommits {
		identity.CommitID = commitID
		if commitError := inspector.readCommitMetadata(executionContext, repositoryPath, &identity); commitError != nil {
			return snapshot.RepoIdentity{}, commitError
		}
	}

	branchName, branchError := inspector.optionalValue(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitShortFlagConstant, gitHeadReferenceConstant)
	if branchError != nil {
		return snapshot.RepoIdentity{}, branchError
	}
	identity.Branch = branchName

	if remoteError := inspector.readFirstRemote(executionContext, repositoryPath, &identity); remoteError != nil {
		return snapshot.RepoIdentity{}, remoteError
	}

	worktreeRoot, worktreeError := inspector.optionalValue(executionContext, repositoryPath, gitConfigSubcommandConstant, gitConfigGetFlagConstant, gitCoreWorktreeKeyConstant)
	if worktreeError != nil {
		return snapshot.RepoIdentity{}, worktreeError
	}
	identity.WorktreeRoot = worktreeRoot

	return identity, nil
}

// resolveHead returns the commit HEAD points at. Only an unborn branch, where HEAD names a
// branch that does not exist yet, counts as a checkout without commits; a HEAD that names
// a missing or broken object is a tooling error.
func (inspector *RepositoryInspector) resolveHead(executionContext context.Context, repositoryPath string) (string, bool, error) {
	commitID, headError := inspector.optionalValue(executionContext, repositoryPath, gitRevParseSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, gitHeadCommitReferenceConstant)
	if headError != nil {
		return "", false, headError
	}
	if len(commitID) > 0 {
		return commitID, true, nil
	}

	headReference, referenceError := inspector.optionalValue(executionContext, repositoryPath, gitSymbolicRefSubcommandConstant, gitQuietFlagConstant, gitHeadReferenceConstant)
	if referenceError != nil {
		return "", false, referenceError
	}
	if len(headReference) > 0 {
		referenceExists, existsError := inspector.referenceExists(executionContext, repositoryPath, headReference)
		if existsError != nil {
			return "", false, existsError
		}
		if !referenceExists {
			return "", false, nil
		}
	}
	return "", false, goerr.Wrap(snapshot.ErrToolingError, "HEAD does not resolve to a commit", goerr.V(pathFieldConstant, repositoryPath), goerr.V(referenceFieldConstant, headReference))
}

// referenceExists reports whether a full reference name is present with a readable object.
func (inspector *RepositoryInspector) referenceExists(executionContext context.Context, repositoryPath string, reference string) (bool, error) {
	arguments := []string{gitShowRefSubcommandConstant, gitVerifyFlagConstant, gitQuietFlagConstant, reference}
	_, executionError := inspector.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError == nil {
		return true, nil
	}
	if exitCode, exited := execshell.ExitCodeOf(executionError); exited && exitCode == unsetExitCodeConstant {
		return false, nil
	}
	return false, snapshot.WrapKind(snapshot.ErrToolingError, executionError, "git query failed", goerr.V(pathFieldConstant, repositoryPath), goerr.V(commandFieldConstant, arguments))
}

func (inspector *RepositoryInspector) readCommitMetadata(executionContext context.Context, repositoryPath string, identity *snapshot.RepoIdentity) error {
	commitOutput, logError := inspector.requiredValue(executionContext, repositoryPath, gitLogSubcommandConstant, gitMaxCountOneFlagConstant, gitCommitFormatFlagConstant, gitHeadReferenceConstant)
	if logError != nil {
		return logError
	}
	commitFields := strings.SplitN(commitOutput, commitFieldSeparatorConstant, commitFieldCountConstant)
	if len(commitFields) != commitFieldCountConstant {
		return goerr.Wrap(snapshot.ErrToolingError, "unexpected commit metadata", goerr.V(pathFieldConstant, repositoryPath), goerr.V("output", commitOutput))
	}
	commitSeconds, parseError := strconv.ParseInt(commitFields[1], 10, 64)
	if parseError != nil {
		return goerr.Wrap(snapshot.ErrToolingError, "unexpected commit timestamp", goerr.V(pathFieldConstant, repositoryPath), goerr.V("timestamp", commitFields[1]))
	}
	identity.ShortID = commitFields[0]
	identity.CommitTime = time.Unix(commitSeconds, 0).UTC()
	identity.CommitMessageSummary = commitFields[2]

	countOutput, countError := inspector.requiredValue(executionContext, repositoryPath, gitRevListSubcommandConstant, gitCountFlagConstant, gitHeadReferenceConstant)
	if countError != nil {
		return countError
	}
	commitCount, parseError := strconv.Atoi(countOutput)
	if parseError != nil {
		return goerr.Wrap(snapshot.ErrToolingError, "unexpected commit count", goerr.V(pathFieldConstant, repositoryPath), goerr.V("count", countOutput))
	}
	identity.CommitCount = commitCount

	revision, describeError := inspector.requiredValue(executionContext, repositoryPath, gitDescribeSubcommandConstant, gitAlwaysFlagConstant)
	if describeError == nil {
		identity.Revision = revision
	}
	return nil
}

func (inspector *RepositoryInspector) readFirstRemote(executionContext context.Context, repositoryPath string, identity *snapshot.RepoIdentity) error {
	remoteOutput, remoteError := inspector.requiredValue(executionContext, repositoryPath, gitRemoteSubcommandConstant)
	if remoteError != nil {
		return remoteError
	}
	if len(remoteOutput) == 0 {
		return nil
	}
	remoteName := strings.TrimSpace(strings.SplitN(remoteOutput, "\n", 2)[0])
	remoteURL, urlError := inspector.optionalValue(executionContext, repositoryPath, gitRemoteSubcommandConstant, gitRemoteGetURLActionConstant, remoteName)
	if urlError != nil {
		return urlError
	}
	identity.RemoteName = remoteName
	identity.RemoteURL = remoteURL
	return nil
}

// requiredValue runs a query that must succeed and returns its trimmed output.
func (inspector *RepositoryInspector) requiredValue(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	executionResult, executionError := inspector.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		return "", snapshot.WrapKind(snapshot.ErrToolingError, executionError, "git query failed", goerr.V(pathFieldConstant, repositoryPath), goerr.V(commandFieldConstant, arguments))
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// optionalValue runs a query whose exit code 1 means the value is unset.
func (inspector *RepositoryInspector) optionalValue(executionContext context.Context, repositoryPath string, arguments ...string) (string, error) {
	executionResult, executionError := inspector.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	if executionError != nil {
		if exitCode, exited := execshell.ExitCodeOf(executionError); exited && exitCode == unsetExitCodeConstant {
			return "", nil
		}
		return "", snapshot.WrapKind(snapshot.ErrToolingError, executionError, "git query failed", goerr.V(pathFieldConstant, repositoryPath), goerr.V(commandFieldConstant, arguments))
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}
