package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CommandName identifies an external executable.
type CommandName string

// Supported executables.
const (
	CommandGit CommandName = "git"
)

const (
	commandFailedErrorTemplateConstant    = "%s exited with code %d"
	commandExecutionErrorTemplateConstant = "%s could not run: %v"
	standardErrorDetailTemplateConstant   = "%s: %s"
)

var (
	// ErrLoggerNotConfigured indicates a missing logger during executor construction.
	ErrLoggerNotConfigured = errors.New("shell executor requires a logger")
	// ErrCommandRunnerNotConfigured indicates a missing runner during executor construction.
	ErrCommandRunnerNotConfigured = errors.New("shell executor requires a command runner")
)

// CommandDetails describes how a command is invoked.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a single command to completion.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran and exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

func (failedError CommandFailedError) Error() string {
	message := fmt.Sprintf(commandFailedErrorTemplateConstant, describeCommand(failedError.Command), failedError.Result.ExitCode)
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return message
	}
	return fmt.Sprintf(standardErrorDetailTemplateConstant, message, trimmedStandardError)
}

// CommandExecutionError reports a command that could not be started or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, describeCommand(executionError.Command), executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ExitCodeOf returns the exit code carried by a CommandFailedError.
func ExitCodeOf(err error) (int, bool) {
	var failedError CommandFailedError
	if errors.As(err, &failedError) {
		return failedError.Result.ExitCode, true
	}
	return 0, false
}

func describeCommand(command ShellCommand) string {
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(commandParts, " ")
}
