package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/reconcile"
	"github.com/temirov/gitm/internal/report"
	"github.com/temirov/gitm/internal/repos/discovery"
	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	runIdentifierFieldConstant        = "run_id"
	pathFieldConstant                 = "path"
	phaseFieldConstant                = "phase"
	stateFieldConstant                = "state"
	locationFieldConstant             = "location"
	entryCountFieldConstant           = "entries"
	failureCountFieldConstant         = "failures"
	passthroughHeaderTemplateConstant = "%s:\n"
	baselineLoadedMessageConstant     = "Loaded baseline"
	checkoutFailedMessageConstant     = "Checkout failed"
	checkoutEmittedMessageConstant    = "Emitted checkout"
	runCompletedMessageConstant       = "Run completed"
)

var (
	// ErrScannerNotConfigured indicates the scanner dependency was missing.
	ErrScannerNotConfigured = errors.New("tree scanner not configured")
	// ErrReconcilerNotConfigured indicates a comparison was requested without a reconciler.
	ErrReconcilerNotConfigured = errors.New("reconciler not configured")
	// ErrBaselineLoaderNotConfigured indicates a baseline was needed without a loader.
	ErrBaselineLoaderNotConfigured = errors.New("baseline loader not configured")
	// ErrGitCommandRunnerNotConfigured indicates pass-through was requested without a runner.
	ErrGitCommandRunnerNotConfigured = errors.New("git command runner not configured")
	// ErrEmitterNotConfigured indicates a run was started without an emitter.
	ErrEmitterNotConfigured = errors.New("report emitter not configured")
)

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	Scanner      TreeScanner
	Reconciler   EntryReconciler
	Loader       BaselineLoader
	GitRunner    GitCommandRunner
	Reporter     shared.Reporter
	Logger       *zap.Logger
	OutputWriter io.Writer
}

// Service runs inventory and pass-through operations.
type Service struct {
	scanner      TreeScanner
	reconciler   EntryReconciler
	loader       BaselineLoader
	gitRunner    GitCommandRunner
	reporter     shared.Reporter
	logger       *zap.Logger
	outputWriter io.Writer
}

// NewService constructs a Service. Collaborators needed only by some operations are checked
// when those operations run.
func NewService(dependencies ServiceDependencies) *Service {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = shared.NewWriterReporter(nil)
	}
	if dependencies.OutputWriter == nil {
		dependencies.OutputWriter = io.Discard
	}
	return &Service{
		scanner:      dependencies.Scanner,
		reconciler:   dependencies.Reconciler,
		loader:       dependencies.Loader,
		gitRunner:    dependencies.GitRunner,
		reporter:     dependencies.Reporter,
		logger:       dependencies.Logger,
		outputWriter: dependencies.OutputWriter,
	}
}

// runState accumulates the results of one run.
type runState struct {
	logger   *zap.Logger
	report   RunReport
	reporter shared.Reporter
}

func (state *runState) fail(checkoutPath string, phase Phase, failure error) {
	state.report.Failures = append(state.report.Failures, EntryFailure{Path: checkoutPath, Phase: phase, Err: failure})
	state.reporter.ReportFailure(checkoutPath, failure)
	state.logger.Info(checkoutFailedMessageConstant, zap.String(pathFieldConstant, checkoutPath), zap.String(phaseFieldConstant, string(phase)), zap.Error(failure))
}

// Run reconciles the baseline when comparing, scans the root, emits every classified checkout
// once and finally hands the complete mapping to the emitter. Per-checkout failures are
// collected in the report; a baseline load failure or an unreadable root aborts the run.
func (service *Service) Run(executionContext context.Context, options Options, emitter report.Emitter) (RunReport, error) {
	if service.scanner == nil {
		return RunReport{}, ErrScannerNotConfigured
	}
	if emitter == nil {
		return RunReport{}, ErrEmitterNotConfigured
	}
	state := service.newRunState()

	var recorded *snapshot.Baseline
	outcomes := map[string]reconcile.Outcome{}
	if options.Compare {
		if service.reconciler == nil {
			return state.report, ErrReconcilerNotConfigured
		}
		loaded, loadError := service.loadBaseline(state.logger, options.BaselineLocations)
		if loadError != nil {
			return state.report, loadError
		}
		recorded = loaded
		for _, checkoutPath := range recorded.Paths() {
			if contextError := executionContext.Err(); contextError != nil {
				return state.report, contextError
			}
			entry, _ := recorded.Lookup(checkoutPath)
			outcome := service.reconciler.Reconcile(executionContext, checkoutPath, entry.Identity)
			if outcome.Err != nil {
				state.fail(checkoutPath, PhaseReconcile, outcome.Err)
			}
			outcomes[checkoutPath] = outcome
		}
	}

	discovered := map[string]struct{}{}
	emit := func(identity snapshot.RepoIdentity, driftState snapshot.DriftState) error {
		discovered[identity.Path] = struct{}{}
		state.report.Mapping.Set(identity.Path, snapshot.Entry{Identity: identity, State: driftState})
		state.logger.Debug(checkoutEmittedMessageConstant, zap.String(pathFieldConstant, identity.Path), zap.String(stateFieldConstant, string(driftState)))
		return emitter.Emit(report.Record{Identity: identity, State: driftState})
	}

	scanOptions := discovery.ScanOptions{StandaloneRemoteOnly: options.StandaloneRemoteOnly}
	scanError := service.scanner.Scan(executionContext, options.Root, scanOptions, func(result discovery.ScanResult) error {
		if result.Err != nil {
			state.fail(result.Key, PhaseScan, result.Err)
			return nil
		}
		var driftState snapshot.DriftState
		if options.Compare {
			if outcome, reconciled := outcomes[result.Key]; reconciled {
				driftState = outcome.State
			} else {
				driftState = options.Vocabulary.UnlistedState()
			}
		}
		return emit(result.Identity, driftState)
	})
	if scanError != nil {
		return state.report, scanError
	}

	for _, checkoutPath := range recorded.Paths() {
		if _, alreadyEmitted := discovered[checkoutPath]; alreadyEmitted {
			continue
		}
		outcome := outcomes[checkoutPath]
		if len(outcome.State) == 0 {
			continue
		}
		if options.StandaloneRemoteOnly && !outcome.Identity.IsStandaloneRemote() {
			continue
		}
		if emitError := emit(outcome.Identity, outcome.State); emitError != nil {
			return state.report, emitError
		}
	}

	if finishError := emitter.Finish(executionContext, state.report.Mapping); finishError != nil {
		return state.report, finishError
	}
	state.logger.Debug(runCompletedMessageConstant, zap.Int(entryCountFieldConstant, state.report.Mapping.Len()), zap.Int(failureCountFieldConstant, len(state.report.Failures)))
	return state.report, nil
}

// RunPassthrough runs git with arguments inside every baseline entry, printing each entry's
// path before its output.
func (service *Service) RunPassthrough(executionContext context.Context, options Options, arguments []string) (RunReport, error) {
	if service.gitRunner == nil {
		return RunReport{}, ErrGitCommandRunnerNotConfigured
	}
	state := service.newRunState()
	recorded, loadError := service.loadBaseline(state.logger, options.BaselineLocations)
	if loadError != nil {
		return state.report, loadError
	}

	for _, checkoutPath := range recorded.Paths() {
		if contextError := executionContext.Err(); contextError != nil {
			return state.report, contextError
		}
		entry, _ := recorded.Lookup(checkoutPath)
		state.report.Mapping.Set(checkoutPath, entry)
		fmt.Fprintf(service.outputWriter, passthroughHeaderTemplateConstant, checkoutPath)
		result, runError := service.gitRunner.Run(executionContext, filepath.Join(options.Root, filepath.FromSlash(checkoutPath)), arguments)
		if len(result.StandardOutput) > 0 {
			io.WriteString(service.outputWriter, result.StandardOutput)
			if !strings.HasSuffix(result.StandardOutput, "\n") {
				io.WriteString(service.outputWriter, "\n")
			}
		}
		if runError != nil {
			state.fail(checkoutPath, PhasePassthrough, runError)
		}
	}
	return state.report, nil
}

func (service *Service) newRunState() *runState {
	return &runState{
		logger:   service.logger.With(zap.String(runIdentifierFieldConstant, uuid.NewString())),
		report:   RunReport{Mapping: snapshot.NewBaseline()},
		reporter: service.reporter,
	}
}

func (service *Service) loadBaseline(logger *zap.Logger, locations []string) (*snapshot.Baseline, error) {
	if service.loader == nil {
		return nil, ErrBaselineLoaderNotConfigured
	}
	loaded, usedLocation, loadError := service.loader.LoadFirstAvailable(locations...)
	if loadError != nil {
		return nil, loadError
	}
	logger.Debug(baselineLoadedMessageConstant, zap.String(locationFieldConstant, usedLocation), zap.Int(entryCountFieldConstant, loaded.Len()))
	return loaded, nil
}
