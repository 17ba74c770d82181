package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitm/internal/utils"
	pathutils "github.com/temirov/gitm/internal/utils/path"
)

const (
	applicationNameConstant                 = "gitm"
	applicationUseConstant                  = "gitm [root] [-- git arguments]"
	applicationShortDescriptionConstant     = "Inventory, compare and restore the git checkouts below a directory"
	applicationLongDescriptionConstant      = "gitm walks a directory tree, reports every git checkout it finds, compares the tree against a recorded baseline and can clone or check out checkouts to match it. Arguments after -- are run as a git command inside every baseline entry."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	backendFlagNameConstant                 = "backend"
	backendFlagUsageConstant                = "Inspector backend."
	verboseFlagNameConstant                 = "verbose"
	verboseFlagUsageConstant                = "Trace every git invocation on the error stream."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	inventoryConfigurationKeyConstant       = "inventory"
	standaloneRemoteConfigKeyConstant       = inventoryConfigurationKeyConstant + ".standalone_remote"
	vocabularyRepairConfigKeyConstant       = inventoryConfigurationKeyConstant + ".vocabulary.repair"
	vocabularyUnlistedConfigKeyConstant     = inventoryConfigurationKeyConstant + ".vocabulary.unlisted"
	inspectorConfigurationKeyConstant       = "inspector"
	inspectorBackendConfigKeyConstant       = inspectorConfigurationKeyConstant + ".backend"
	inspectorTimeoutConfigKeyConstant       = inspectorConfigurationKeyConstant + ".timeout"
	environmentPrefixConstant               = "GITM"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	fatalErrorTemplateConstant              = "Error: %v\n"
)

// Process exit codes.
const (
	ExitCodeSuccess       = 0
	ExitCodeEntryFailures = 1
	ExitCodeFatal         = 2
)

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	backendFlagValue       string
	verbose                bool
	invocation             invocationFlags
	commandContextAccessor utils.CommandContextAccessor
	homeExpander           *pathutils.HomeExpander
	standardOutput         io.Writer
	standardError          io.Writer
	exitCode               int
}

// Run executes the CLI with process style arguments, where arguments[0] is the program name,
// and returns the exit code.
func Run(arguments []string, standardInput io.Reader, standardOutput io.Writer, standardError io.Writer) int {
	commandArguments := []string{}
	if len(arguments) > 1 {
		commandArguments = arguments[1:]
	}
	return NewApplication(standardInput, standardOutput, standardError).Execute(commandArguments)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication(standardInput io.Reader, standardOutput io.Writer, standardError io.Writer) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultConfigurationSearchPaths(applicationNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		homeExpander:           pathutils.NewHomeExpander(),
		standardOutput:         standardOutput,
		standardError:          standardError,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          validatePositionalArguments,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetIn(standardInput)
	cobraCommand.SetOut(standardOutput)
	cobraCommand.SetErr(standardError)

	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, logLevelChoice.Default(), logLevelChoice.Usage(logLevelFlagUsageConstant))
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, logFormatChoice.Default(), logFormatChoice.Usage(logFormatFlagUsageConstant))
	persistentFlags.StringVar(&application.backendFlagValue, backendFlagNameConstant, inspectorBackendChoice.Default(), inspectorBackendChoice.Usage(backendFlagUsageConstant))
	persistentFlags.BoolVar(&application.verbose, verboseFlagNameConstant, false, verboseFlagUsageConstant)
	application.invocation.register(cobraCommand.Flags())

	configurationLoader.BindFlag(commonLogLevelConfigKeyConstant, persistentFlags.Lookup(logLevelFlagNameConstant))
	configurationLoader.BindFlag(commonLogFormatConfigKeyConstant, persistentFlags.Lookup(logFormatFlagNameConstant))
	configurationLoader.BindFlag(inspectorBackendConfigKeyConstant, persistentFlags.Lookup(backendFlagNameConstant))
	configurationLoader.BindFlag(standaloneRemoteConfigKeyConstant, cobraCommand.Flags().Lookup(standaloneRemoteFlagNameConstant))

	application.rootCommand = cobraCommand
	return application
}

// Execute runs the command with the given arguments, flushes the logger and returns the exit code.
func (application *Application) Execute(arguments []string) int {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	application.exitCode = ExitCodeSuccess
	application.rootCommand.SetArgs(arguments)
	executionError := application.rootCommand.ExecuteContext(signalContext)
	application.flushLogger()
	if executionError != nil {
		fmt.Fprintf(application.standardError, fatalErrorTemplateConstant, executionError)
		return ExitCodeFatal
	}
	return application.exitCode
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, nil, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.verbose {
		application.configuration.Common.LogLevel = string(utils.LogLevelDebug)
	}
	if validationError := application.configuration.Validate(); validationError != nil {
		return validationError
	}

	logger, loggerCreationError := application.loggerFactory.Build(utils.LoggerConfiguration{
		Level:            utils.LogLevel(application.configuration.Common.LogLevel),
		Format:           utils.LogFormat(application.configuration.Common.LogFormat),
		Output:           application.standardError,
		FilePath:         application.homeExpander.Expand(application.configuration.Common.LogFile),
		MaxSizeMegabytes: application.configuration.Common.LogMaxSizeMegabytes,
		MaxBackups:       application.configuration.Common.LogMaxBackups,
		MaxAgeDays:       application.configuration.Common.LogMaxAgeDays,
	})
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	updatedContext := application.commandContextAccessor.WithConfigurationFilePath(command.Context(), application.configurationMetadata.ConfigFileUsed)
	updatedContext = application.commandContextAccessor.WithLogger(updatedContext, logger)
	command.SetContext(updatedContext)
	return nil
}

func (application *Application) flushLogger() {
	if application.logger == nil {
		return
	}
	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
	case errors.Is(syncError, syscall.ENOTSUP), errors.Is(syncError, syscall.EINVAL), errors.Is(syncError, syscall.ENOTTY):
	default:
		fmt.Fprintf(application.standardError, fatalErrorTemplateConstant, syncError)
	}
}

func validatePositionalArguments(command *cobra.Command, arguments []string) error {
	positional, _ := splitArguments(command, arguments)
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected at most one root directory, got %d", errArgument, len(positional))
	}
	return nil
}

func splitArguments(command *cobra.Command, arguments []string) ([]string, []string) {
	dashIndex := command.ArgsLenAtDash()
	if dashIndex < 0 {
		return arguments, nil
	}
	return arguments[:dashIndex], arguments[dashIndex:]
}

// flagChanged reports whether a flag was explicitly provided.
func flagChanged(flagSet *pflag.FlagSet, flagName string) bool {
	if flagSet == nil {
		return false
	}
	return flagSet.Changed(flagName)
}
