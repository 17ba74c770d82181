package inventory_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitm/internal/execshell"
	"github.com/temirov/gitm/internal/inventory"
	"github.com/temirov/gitm/internal/reconcile"
	"github.com/temirov/gitm/internal/report"
	"github.com/temirov/gitm/internal/repos/discovery"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	scanRootConstant       = "/workspace"
	baselineFileConstant   = "status.json"
	recordedCommitConstant = "1111111111111111111111111111111111111111"
)

type stubScanner struct {
	results   []discovery.ScanResult
	scanError error
	options   discovery.ScanOptions
}

func (scanner *stubScanner) Scan(_ context.Context, _ string, options discovery.ScanOptions, visit func(discovery.ScanResult) error) error {
	scanner.options = options
	if scanner.scanError != nil {
		return scanner.scanError
	}
	for _, result := range scanner.results {
		if options.StandaloneRemoteOnly && result.Err == nil && !result.Identity.IsStandaloneRemote() {
			continue
		}
		if visitError := visit(result); visitError != nil {
			return visitError
		}
	}
	return nil
}

type stubReconciler struct {
	outcomes   map[string]reconcile.Outcome
	reconciled []string
}

func (reconciler *stubReconciler) Reconcile(_ context.Context, key string, recorded snapshot.RepoIdentity) reconcile.Outcome {
	reconciler.reconciled = append(reconciler.reconciled, key)
	outcome := reconciler.outcomes[key]
	outcome.Key = key
	if len(outcome.Identity.Path) == 0 {
		outcome.Identity = recorded
		outcome.Identity.Path = key
	}
	return outcome
}

type stubLoader struct {
	baseline  *snapshot.Baseline
	loadError error
	requested []string
}

func (loader *stubLoader) LoadFirstAvailable(locations ...string) (*snapshot.Baseline, string, error) {
	loader.requested = locations
	if loader.loadError != nil {
		return nil, "", loader.loadError
	}
	return loader.baseline, locations[0], nil
}

type recordingEmitter struct {
	records  []report.Record
	mapping  *snapshot.Baseline
	finished int
}

func (emitter *recordingEmitter) Emit(record report.Record) error {
	emitter.records = append(emitter.records, record)
	return nil
}

func (emitter *recordingEmitter) Finish(_ context.Context, mapping *snapshot.Baseline) error {
	emitter.finished++
	emitter.mapping = mapping
	return nil
}

func (emitter *recordingEmitter) states() map[string]snapshot.DriftState {
	states := map[string]snapshot.DriftState{}
	for _, record := range emitter.records {
		states[record.Identity.Path] = record.State
	}
	return states
}

type recordingReporter struct {
	paths []string
}

func (reporter *recordingReporter) ReportFailure(checkoutPath string, _ error) {
	reporter.paths = append(reporter.paths, checkoutPath)
}

func identityAt(key string, remote bool) snapshot.RepoIdentity {
	identity := snapshot.RepoIdentity{Path: key, CommitID: recordedCommitConstant, Branch: "main"}
	if remote {
		identity.RemoteName = "origin"
		identity.RemoteURL = "https://example.com/" + key + ".git"
	}
	return identity
}

func TestServiceRunWithoutComparison(testInstance *testing.T) {
	scanner := &stubScanner{results: []discovery.ScanResult{
		{Key: "alpha", Identity: identityAt("alpha", true)},
		{Key: "broken", Err: snapshot.ErrToolingError},
		{Key: "beta", Identity: identityAt("beta", false)},
	}}
	reporter := &recordingReporter{}
	emitter := &recordingEmitter{}
	service := inventory.NewService(inventory.ServiceDependencies{Scanner: scanner, Reporter: reporter})

	runReport, runError := service.Run(context.Background(), inventory.Options{Root: scanRootConstant}, emitter)
	require.NoError(testInstance, runError)

	require.Equal(testInstance, map[string]snapshot.DriftState{"alpha": snapshot.DriftStateNone, "beta": snapshot.DriftStateNone}, emitter.states())
	require.Equal(testInstance, 1, emitter.finished)
	require.Equal(testInstance, []string{"alpha", "beta"}, emitter.mapping.Paths())
	require.Equal(testInstance, []string{"broken"}, reporter.paths)
	require.True(testInstance, runReport.HasFailures())
	require.Equal(testInstance, inventory.PhaseScan, runReport.Failures[0].Phase)
	require.ErrorIs(testInstance, runReport.Failures[0].Err, snapshot.ErrToolingError)
}

func TestServiceRunComparesAgainstBaseline(testInstance *testing.T) {
	recorded := snapshot.NewBaseline()
	for _, key := range []string{"libs/foo", "libs/gone", "libs/moved", "libs/local"} {
		recorded.Set(key, snapshot.Entry{Identity: identityAt(key, key != "libs/local")})
	}

	scanner := &stubScanner{results: []discovery.ScanResult{
		{Key: "libs/foo", Identity: identityAt("libs/foo", true)},
		{Key: "libs/moved", Identity: identityAt("libs/moved", true)},
		{Key: "extra/bar", Identity: identityAt("extra/bar", true)},
	}}
	reconciler := &stubReconciler{outcomes: map[string]reconcile.Outcome{
		"libs/foo":   {Present: true, State: snapshot.DriftStateSame},
		"libs/gone":  {State: snapshot.DriftStateAbsent, Err: snapshot.ErrReconcileError},
		"libs/moved": {Present: true, State: snapshot.DriftStateDifferent},
		"libs/local": {State: snapshot.DriftStateAbsent},
	}}
	testCases := []struct {
		name           string
		options        inventory.Options
		expectedStates map[string]snapshot.DriftState
	}{
		{
			name: "self_baseline",
			options: inventory.Options{
				Root:              scanRootConstant,
				Compare:           true,
				BaselineLocations: []string{baselineFileConstant},
				Vocabulary:        snapshot.DefaultVocabulary(),
			},
			expectedStates: map[string]snapshot.DriftState{
				"libs/foo":   snapshot.DriftStateSame,
				"libs/moved": snapshot.DriftStateDifferent,
				"extra/bar":  snapshot.DriftStateUndesired,
				"libs/gone":  snapshot.DriftStateAbsent,
				"libs/local": snapshot.DriftStateAbsent,
			},
		},
		{
			name: "external_baseline_standalone_only",
			options: inventory.Options{
				Root:                 scanRootConstant,
				Compare:              true,
				BaselineLocations:    []string{"other.json"},
				StandaloneRemoteOnly: true,
				Vocabulary:           snapshot.Vocabulary{Unlisted: snapshot.UnlistedLabelRedundant},
			},
			expectedStates: map[string]snapshot.DriftState{
				"libs/foo":   snapshot.DriftStateSame,
				"libs/moved": snapshot.DriftStateDifferent,
				"extra/bar":  snapshot.DriftStateRedundant,
				"libs/gone":  snapshot.DriftStateAbsent,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			loader := &stubLoader{baseline: recorded}
			emitter := &recordingEmitter{}
			reporter := &recordingReporter{}
			reconciler.reconciled = nil
			service := inventory.NewService(inventory.ServiceDependencies{
				Scanner:    scanner,
				Reconciler: reconciler,
				Loader:     loader,
				Reporter:   reporter,
			})

			runReport, runError := service.Run(context.Background(), testCase.options, emitter)
			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.options.BaselineLocations, loader.requested)
			require.Equal(testInstance, []string{"libs/foo", "libs/gone", "libs/local", "libs/moved"}, reconciler.reconciled)
			require.Equal(testInstance, testCase.expectedStates, emitter.states())
			require.Len(testInstance, emitter.records, len(testCase.expectedStates))
			require.Equal(testInstance, len(testCase.expectedStates), emitter.mapping.Len())
			require.Equal(testInstance, []string{"libs/gone"}, reporter.paths)
			require.Equal(testInstance, inventory.PhaseReconcile, runReport.Failures[0].Phase)
		})
	}
}

func TestServiceRunAbortsOnBaselineFailure(testInstance *testing.T) {
	scanner := &stubScanner{results: []discovery.ScanResult{{Key: "alpha", Identity: identityAt("alpha", true)}}}
	loader := &stubLoader{loadError: snapshot.ErrBaselineUnreadable}
	emitter := &recordingEmitter{}
	service := inventory.NewService(inventory.ServiceDependencies{Scanner: scanner, Reconciler: &stubReconciler{}, Loader: loader})

	_, runError := service.Run(context.Background(), inventory.Options{Compare: true, BaselineLocations: []string{baselineFileConstant}}, emitter)
	require.ErrorIs(testInstance, runError, snapshot.ErrBaselineUnreadable)
	require.Empty(testInstance, emitter.records)
	require.Zero(testInstance, emitter.finished)
}

func TestServiceRunPropagatesScanError(testInstance *testing.T) {
	rootMissing := errors.New("root missing")
	service := inventory.NewService(inventory.ServiceDependencies{Scanner: &stubScanner{scanError: rootMissing}})
	_, runError := service.Run(context.Background(), inventory.Options{Root: scanRootConstant}, &recordingEmitter{})
	require.ErrorIs(testInstance, runError, rootMissing)
}

func TestServiceRunValidatesDependencies(testInstance *testing.T) {
	_, scannerError := inventory.NewService(inventory.ServiceDependencies{}).Run(context.Background(), inventory.Options{}, &recordingEmitter{})
	require.ErrorIs(testInstance, scannerError, inventory.ErrScannerNotConfigured)

	withScanner := inventory.NewService(inventory.ServiceDependencies{Scanner: &stubScanner{}})
	_, emitterError := withScanner.Run(context.Background(), inventory.Options{}, nil)
	require.ErrorIs(testInstance, emitterError, inventory.ErrEmitterNotConfigured)

	_, reconcilerError := withScanner.Run(context.Background(), inventory.Options{Compare: true}, &recordingEmitter{})
	require.ErrorIs(testInstance, reconcilerError, inventory.ErrReconcilerNotConfigured)

	_, runnerError := withScanner.RunPassthrough(context.Background(), inventory.Options{}, []string{"status"})
	require.ErrorIs(testInstance, runnerError, inventory.ErrGitCommandRunnerNotConfigured)
}

type recordingGitRunner struct {
	failures map[string]error
	outputs  map[string]string
	calls    []execshell.CommandDetails
}

func (runner *recordingGitRunner) Run(_ context.Context, repositoryPath string, arguments []string) (execshell.ExecutionResult, error) {
	runner.calls = append(runner.calls, execshell.CommandDetails{Arguments: arguments, WorkingDirectory: repositoryPath})
	return execshell.ExecutionResult{StandardOutput: runner.outputs[repositoryPath]}, runner.failures[repositoryPath]
}

func TestServiceRunPassthrough(testInstance *testing.T) {
	recorded := snapshot.NewBaseline()
	recorded.Set("b", snapshot.Entry{Identity: identityAt("b", true)})
	recorded.Set("a/x", snapshot.Entry{Identity: identityAt("a/x", true)})

	firstPath := filepath.Join(scanRootConstant, "a", "x")
	secondPath := filepath.Join(scanRootConstant, "b")
	runFailure := execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 128}}
	runner := &recordingGitRunner{
		outputs:  map[string]string{firstPath: "## main", secondPath: "## develop\n"},
		failures: map[string]error{secondPath: runFailure},
	}
	reporter := &recordingReporter{}
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	var output strings.Builder
	service := inventory.NewService(inventory.ServiceDependencies{
		Loader:       &stubLoader{baseline: recorded},
		GitRunner:    runner,
		Reporter:     reporter,
		Logger:       zap.New(observedCore),
		OutputWriter: &output,
	})

	runReport, runError := service.RunPassthrough(context.Background(), inventory.Options{Root: scanRootConstant, BaselineLocations: []string{baselineFileConstant}}, []string{"status", "-sb"})
	require.NoError(testInstance, runError)

	require.Equal(testInstance, "a/x:\n## main\nb:\n## develop\n", output.String())
	require.Len(testInstance, runner.calls, 2)
	require.Equal(testInstance, firstPath, runner.calls[0].WorkingDirectory)
	require.Equal(testInstance, []string{"status", "-sb"}, runner.calls[0].Arguments)
	require.Equal(testInstance, []string{"b"}, reporter.paths)
	require.Equal(testInstance, inventory.PhasePassthrough, runReport.Failures[0].Phase)

	failureLogs := observedLogs.FilterMessage("Checkout failed").All()
	require.Len(testInstance, failureLogs, 1)
	require.NotEmpty(testInstance, failureLogs[0].ContextMap()["run_id"])
	require.Equal(testInstance, "b", failureLogs[0].ContextMap()["path"])
}
