package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	pathFieldConstant           = "path"
	stateFieldConstant          = "state"
	parentDirectoryModeConstant = 0o755
	reconciledMessageConstant   = "Reconciled checkout"
	repairedMessageConstant     = "Repaired checkout"
	repairFailedMessageConstant = "Repair failed"
)

var (
	// ErrInspectorNotConfigured indicates the inspector dependency was missing.
	ErrInspectorNotConfigured = errors.New("repository inspector not configured")
	// ErrOperatorNotConfigured indicates repair was enabled without an operator.
	ErrOperatorNotConfigured = errors.New("repository operator not configured")
	// ErrFileSystemNotConfigured indicates the filesystem dependency was missing.
	ErrFileSystemNotConfigured = errors.New("filesystem not configured")
)

// Dependencies enumerates collaborators required by the reconciler.
type Dependencies struct {
	Inspector  shared.RepositoryInspector
	Operator   shared.RepositoryOperator
	FileSystem shared.FileSystem
	Logger     *zap.Logger
}

// Options configure reconciliation.
type Options struct {
	// Root is the directory baseline keys are relative to.
	Root string
	// RepairEnabled clones absent checkouts and checks out recorded references.
	RepairEnabled bool
	// Vocabulary labels repaired checkouts.
	Vocabulary snapshot.Vocabulary
}

// Outcome is the result of reconciling one baseline entry.
type Outcome struct {
	Key string
	// Present reports whether the checkout exists on disk after reconciliation.
	Present bool
	// Identity is the live identity when present, otherwise the recorded one.
	Identity snapshot.RepoIdentity
	State    snapshot.DriftState
	Repaired bool
	// Err holds an inspection or repair failure. State then keeps the pre-repair classification,
	// or is empty when the checkout could not be inspected at all.
	Err error
}

// Reconciler compares baseline entries with the checkouts on disk.
type Reconciler struct {
	inspector  shared.RepositoryInspector
	operator   shared.RepositoryOperator
	fileSystem shared.FileSystem
	logger     *zap.Logger
	options    Options
}

// NewReconciler constructs a Reconciler.
func NewReconciler(dependencies Dependencies, options Options) (*Reconciler, error) {
	if dependencies.Inspector == nil {
		return nil, ErrInspectorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if options.RepairEnabled && dependencies.Operator == nil {
		return nil, ErrOperatorNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if len(options.Vocabulary.Repair) == 0 {
		options.Vocabulary.Repair = snapshot.RepairVerbSync
	}
	return &Reconciler{
		inspector:  dependencies.Inspector,
		operator:   dependencies.Operator,
		fileSystem: dependencies.FileSystem,
		logger:     dependencies.Logger,
		options:    options,
	}, nil
}

// Reconcile classifies one baseline entry and repairs it when the options allow.
func (reconciler *Reconciler) Reconcile(executionContext context.Context, key string, recorded snapshot.RepoIdentity) Outcome {
	checkoutPath := reconciler.resolvePath(key)
	outcome := Outcome{Key: key, Identity: recorded}
	outcome.Identity.Path = key

	present, presenceError := reconciler.checkoutExists(checkoutPath)
	if presenceError != nil {
		outcome.Err = goerr.Wrap(presenceError, "unable to check checkout", goerr.V(pathFieldConstant, checkoutPath))
		return outcome
	}

	var live snapshot.RepoIdentity
	if present {
		inspected, inspectError := reconciler.inspector.Inspect(executionContext, checkoutPath)
		if inspectError != nil {
			outcome.Err = inspectError
			return outcome
		}
		live = inspected
		live.Path = key
		outcome.Present = true
		outcome.Identity = live
	}

	outcome.State = Classify(present, live, recorded)
	reconciler.logger.Debug(reconciledMessageConstant, zap.String(pathFieldConstant, key), zap.String(stateFieldConstant, string(outcome.State)))
	if !outcome.State.RequiresRepair() || !reconciler.options.RepairEnabled {
		return outcome
	}

	repaired, repairError := reconciler.repair(executionContext, checkoutPath, present, recorded)
	if repairError != nil {
		reconciler.logger.Debug(repairFailedMessageConstant, zap.String(pathFieldConstant, key), zap.Error(repairError))
		outcome.Err = repairError
		return outcome
	}
	repaired.Path = key
	outcome.Present = true
	outcome.Repaired = true
	outcome.Identity = repaired
	outcome.State = reconciler.options.Vocabulary.RepairedState(repaired.CommitID == recorded.CommitID)
	reconciler.logger.Debug(repairedMessageConstant, zap.String(pathFieldConstant, key), zap.String(stateFieldConstant, string(outcome.State)))
	return outcome
}

func (reconciler *Reconciler) repair(executionContext context.Context, checkoutPath string, present bool, recorded snapshot.RepoIdentity) (snapshot.RepoIdentity, error) {
	if !present {
		if len(recorded.RemoteURL) == 0 {
			return snapshot.RepoIdentity{}, goerr.Wrap(snapshot.ErrReconcileError, "no remote url recorded", goerr.V(pathFieldConstant, checkoutPath))
		}
		if mkdirError := reconciler.fileSystem.MkdirAll(filepath.Dir(checkoutPath), parentDirectoryModeConstant); mkdirError != nil {
			return snapshot.RepoIdentity{}, snapshot.WrapKind(snapshot.ErrReconcileError, mkdirError, "unable to create parent directory", goerr.V(pathFieldConstant, checkoutPath))
		}
		if cloneError := reconciler.operator.CloneTo(executionContext, recorded.RemoteURL, checkoutPath); cloneError != nil {
			return snapshot.RepoIdentity{}, cloneError
		}
	}

	if !recorded.Detached() {
		if checkoutError := reconciler.operator.Checkout(executionContext, checkoutPath, recorded.Branch); checkoutError != nil {
			return snapshot.RepoIdentity{}, checkoutError
		}
	}

	live, inspectError := reconciler.inspector.Inspect(executionContext, checkoutPath)
	if inspectError != nil {
		return snapshot.RepoIdentity{}, inspectError
	}
	if live.CommitID == recorded.CommitID || !recorded.HasCommits() {
		return live, nil
	}

	if checkoutError := reconciler.operator.Checkout(executionContext, checkoutPath, recorded.CommitID); checkoutError != nil {
		return snapshot.RepoIdentity{}, checkoutError
	}
	return reconciler.inspector.Inspect(executionContext, checkoutPath)
}

func (reconciler *Reconciler) resolvePath(key string) string {
	return filepath.Join(reconciler.options.Root, filepath.FromSlash(key))
}

func (reconciler *Reconciler) checkoutExists(checkoutPath string) (bool, error) {
	_, lstatError := reconciler.fileSystem.Lstat(filepath.Join(checkoutPath, shared.GitMetadataDirectoryNameConstant))
	if lstatError == nil {
		return true, nil
	}
	if errors.Is(lstatError, fs.ErrNotExist) {
		return false, nil
	}
	return false, lstatError
}
