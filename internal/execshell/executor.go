package execshell

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	commandNameFieldConstant      = "command"
	commandArgumentsFieldConstant = "arguments"
	workingDirectoryFieldConstant = "working_directory"
	exitCodeFieldConstant         = "exit_code"
	gitTerminalPromptVariable     = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabled     = "0"
)

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	CommandCompleted(command ShellCommand, result ExecutionResult)
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

// ShellExecutorOption customizes a ShellExecutor.
type ShellExecutorOption func(*ShellExecutor)

// WithCommandEventObserver forwards command lifecycle events to the observer.
func WithCommandEventObserver(eventObserver CommandEventObserver) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if eventObserver != nil {
			executor.eventObserver = eventObserver
		}
	}
}

// WithCommandTimeout bounds each command by the duration. Zero disables the bound.
func WithCommandTimeout(timeout time.Duration) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		executor.commandTimeout = timeout
	}
}

// ShellExecutor runs external commands through a CommandRunner and logs their lifecycle.
type ShellExecutor struct {
	logger           *zap.Logger
	runner           CommandRunner
	eventObserver    CommandEventObserver
	messageFormatter CommandMessageFormatter
	commandTimeout   time.Duration
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, options ...ShellExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	executor := &ShellExecutor{
		logger:           logger,
		runner:           runner,
		eventObserver:    noopCommandEventObserver{},
		messageFormatter: CommandMessageFormatter{},
	}
	for _, option := range options {
		option(executor)
	}
	return executor, nil
}

// Execute runs the command. A non-zero exit code yields CommandFailedError alongside the result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executor.commandTimeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
		defer cancel()
	}

	commandFields := []zap.Field{
		zap.String(commandNameFieldConstant, string(command.Name)),
		zap.Strings(commandArgumentsFieldConstant, command.Details.Arguments),
		zap.String(workingDirectoryFieldConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(executor.messageFormatter.BuildStartedMessage(command), commandFields...)
	executor.eventObserver.CommandStarted(command)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Warn(executor.messageFormatter.BuildExecutionFailureMessage(command, runError), append(commandFields, zap.Error(runError))...)
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.eventObserver.CommandCompleted(command, executionResult)
	if executionResult.ExitCode != 0 {
		executor.logger.Debug(executor.messageFormatter.BuildFailureMessage(command, executionResult), append(commandFields, zap.Int(exitCodeFieldConstant, executionResult.ExitCode))...)
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(executor.messageFormatter.BuildSuccessMessage(command, executionResult), commandFields...)
	return executionResult, nil
}

// ExecuteGit runs git with interactive credential prompts disabled.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	environment := make(map[string]string, len(details.EnvironmentVariables)+1)
	environment[gitTerminalPromptVariable] = gitTerminalPromptDisabled
	for variableName, variableValue := range details.EnvironmentVariables {
		environment[variableName] = variableValue
	}
	details.EnvironmentVariables = environment
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}
