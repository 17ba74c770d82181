package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	exitCodeSuffixTemplateConstant          = " (exit code %d%s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	commandArgumentsJoinSeparatorConstant   = " "
	unknownFailureMessageConstant           = "unknown error"
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	emptyStringConstant                     = ""
)

const (
	gitRevParseSubcommandConstant    = "rev-parse"
	gitRevListSubcommandConstant     = "rev-list"
	gitLogSubcommandConstant         = "log"
	gitSymbolicRefSubcommandConstant = "symbolic-ref"
	gitRemoteSubcommandConstant      = "remote"
	gitRemoteGetURLActionConstant    = "get-url"
	gitConfigSubcommandConstant      = "config"
	gitDescribeSubcommandConstant    = "describe"
	gitCloneSubcommandConstant       = "clone"
	gitCheckoutSubcommandConstant    = "checkout"
)

// gitMessageTemplates holds the four lifecycle phrases for one git subcommand. Each
// template receives the subject and the working directory. Failure phrases get an
// exit code suffix appended; execution failure phrases get the cause appended.
type gitMessageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
	subject          func(arguments []string) string
}

var gitSubcommandTemplates = map[string]gitMessageTemplates{
	gitRevParseSubcommandConstant: {
		start:            "Resolving %s in %s",
		success:          "Resolved %s in %s",
		failure:          "Failed to resolve %s in %s",
		executionFailure: "Unable to resolve %s in %s",
		subject:          lastArgument,
	},
	gitRevListSubcommandConstant: {
		start:            "Counting commits reachable from %s in %s",
		success:          "Counted commits reachable from %s in %s",
		failure:          "Failed to count commits reachable from %s in %s",
		executionFailure: "Unable to count commits reachable from %s in %s",
		subject:          lastArgument,
	},
	gitLogSubcommandConstant: {
		start:            "Reading commit metadata for %s in %s",
		success:          "Read commit metadata for %s in %s",
		failure:          "Failed to read commit metadata for %s in %s",
		executionFailure: "Unable to read commit metadata for %s in %s",
		subject:          lastArgument,
	},
	gitSymbolicRefSubcommandConstant: {
		start:            "Identifying branch for %s in %s",
		success:          "Identified branch for %s in %s",
		failure:          "No branch checked out for %s in %s",
		executionFailure: "Unable to identify branch for %s in %s",
		subject:          lastArgument,
	},
	gitRemoteSubcommandConstant: {
		start:            "Reading remote %s in %s",
		success:          "Read remote %s in %s",
		failure:          "Failed to read remote %s in %s",
		executionFailure: "Unable to read remote %s in %s",
		subject:          remoteSubject,
	},
	gitConfigSubcommandConstant: {
		start:            "Reading configuration key %s in %s",
		success:          "Read configuration key %s in %s",
		failure:          "Configuration key %s is not set in %s",
		executionFailure: "Unable to read configuration key %s in %s",
		subject:          lastArgument,
	},
	gitDescribeSubcommandConstant: {
		start:            "Describing %s in %s",
		success:          "Described %s in %s",
		failure:          "Failed to describe %s in %s",
		executionFailure: "Unable to describe %s in %s",
		subject:          headSubject,
	},
	gitCloneSubcommandConstant: {
		start:            "Cloning %s into %s",
		success:          "Cloned %s into %s",
		failure:          "Failed to clone %s into %s",
		executionFailure: "Unable to clone %s into %s",
		subject:          cloneSourceSubject,
	},
	gitCheckoutSubcommandConstant: {
		start:            "Checking out %s in %s",
		success:          "Checked out %s in %s",
		failure:          "Failed to check out %s in %s",
		executionFailure: "Unable to check out %s in %s",
		subject:          lastArgument,
	},
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	templates, known := gitSubcommandTemplates[strings.TrimSpace(command.Details.Arguments[0])]
	if !known {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subject := ensureValue(templates.subject(command.Details.Arguments))
	location := formatter.describeWorkingDirectory(command)
	if command.Details.Arguments[0] == gitCloneSubcommandConstant {
		location = ensureValue(lastArgument(command.Details.Arguments))
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject, location)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject, location)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, location) + fmt.Sprintf(exitCodeSuffixTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, location) + fmt.Sprintf(standardErrorSuffixTemplateConstant, describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := describeCommand(command)
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return commandLabel
	}
	return commandLabel + fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func lastArgument(arguments []string) string {
	if len(arguments) < 2 {
		return emptyStringConstant
	}
	return arguments[len(arguments)-1]
}

func headSubject([]string) string {
	return "HEAD"
}

func remoteSubject(arguments []string) string {
	if len(arguments) > 2 && arguments[1] == gitRemoteGetURLActionConstant {
		return arguments[2]
	}
	return "list"
}

func cloneSourceSubject(arguments []string) string {
	for _, argument := range arguments[1:] {
		if !strings.HasPrefix(argument, "-") {
			return argument
		}
	}
	return emptyStringConstant
}
