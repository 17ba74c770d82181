package cli

import (
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/baseline"
	"github.com/temirov/gitm/internal/execshell"
	"github.com/temirov/gitm/internal/gitrepo"
	"github.com/temirov/gitm/internal/gogit"
	"github.com/temirov/gitm/internal/inventory"
	"github.com/temirov/gitm/internal/reconcile"
	"github.com/temirov/gitm/internal/repos/discovery"
	"github.com/temirov/gitm/internal/repos/filesystem"
	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
	"github.com/temirov/gitm/internal/ui"
)

// runtimeComponents are the collaborators of one run.
type runtimeComponents struct {
	service      *inventory.Service
	store        *baseline.Store
	walkFailures *walkFailureCounter
}

// walkFailureCounter reports unreadable directories met during the walk.
type walkFailureCounter struct {
	reporter shared.Reporter
	count    int
}

func (counter *walkFailureCounter) handle(path string, walkError error) {
	counter.count++
	counter.reporter.ReportFailure(path, walkError)
}

func (application *Application) buildComponents(logger *zap.Logger, root string, repairEnabled bool, vocabulary snapshot.Vocabulary) (*runtimeComponents, error) {
	fileSystem := filesystem.OSFileSystem{}
	reporter := shared.NewWriterReporter(application.standardError)

	executorOptions := []execshell.ShellExecutorOption{execshell.WithCommandTimeout(application.configuration.Inspector.Timeout)}
	if application.verbose {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(logger)))
	}
	executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), executorOptions...)
	if executorError != nil {
		return nil, executorError
	}
	gitOperator, operatorError := gitrepo.NewRepositoryOperator(executor)
	if operatorError != nil {
		return nil, operatorError
	}

	var inspector shared.RepositoryInspector
	var operator shared.RepositoryOperator
	switch application.configuration.Inspector.Backend {
	case inspectorBackendGoGitConstant:
		goGitInspector, inspectorError := gogit.NewRepositoryInspector(fileSystem)
		if inspectorError != nil {
			return nil, inspectorError
		}
		inspector = goGitInspector
		operator = gogit.NewRepositoryOperator()
	default:
		gitInspector, inspectorError := gitrepo.NewRepositoryInspector(executor, fileSystem)
		if inspectorError != nil {
			return nil, inspectorError
		}
		inspector = gitInspector
		operator = gitOperator
	}

	walkFailures := &walkFailureCounter{reporter: reporter}
	discoverer := discovery.NewFilesystemRepositoryDiscoverer(application.configuration.Inventory.PrunedDirectories, walkFailures.handle)
	scanner, scannerError := discovery.NewScanner(discoverer, inspector)
	if scannerError != nil {
		return nil, scannerError
	}

	reconciler, reconcilerError := reconcile.NewReconciler(reconcile.Dependencies{
		Inspector:  inspector,
		Operator:   operator,
		FileSystem: fileSystem,
		Logger:     logger,
	}, reconcile.Options{Root: root, RepairEnabled: repairEnabled, Vocabulary: vocabulary})
	if reconcilerError != nil {
		return nil, reconcilerError
	}

	store := baseline.NewStore(logger, application.standardOutput)
	service := inventory.NewService(inventory.ServiceDependencies{
		Scanner:      scanner,
		Reconciler:   reconciler,
		Loader:       store,
		GitRunner:    gitOperator,
		Reporter:     reporter,
		Logger:       logger,
		OutputWriter: application.standardOutput,
	})
	return &runtimeComponents{service: service, store: store, walkFailures: walkFailures}, nil
}
