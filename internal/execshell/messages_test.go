package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterDescribesGitSubcommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	testCases := []struct {
		name            string
		arguments       []string
		expectedStarted string
	}{
		{name: "rev_parse", arguments: []string{"rev-parse", "HEAD"}, expectedStarted: "Resolving HEAD in /workspace/repo"},
		{name: "remote_url", arguments: []string{"remote", "get-url", "origin"}, expectedStarted: "Reading remote origin in /workspace/repo"},
		{name: "remote_list", arguments: []string{"remote"}, expectedStarted: "Reading remote list in /workspace/repo"},
		{name: "clone", arguments: []string{"clone", "--quiet", "https://example.com/tools.git", "/workspace/tools"}, expectedStarted: "Cloning https://example.com/tools.git into /workspace/tools"},
		{name: "describe", arguments: []string{"describe", "--always"}, expectedStarted: "Describing HEAD in /workspace/repo"},
		{name: "unknown", arguments: []string{"gc"}, expectedStarted: "Running git gc (in /workspace/repo)"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: testCase.arguments, WorkingDirectory: "/workspace/repo"}}
			require.Equal(t, testCase.expectedStarted, formatter.BuildStartedMessage(command))
		})
	}
}

func TestCommandMessageFormatterFailureIncludesExitCodeAndStandardError(t *testing.T) {
	formatter := CommandMessageFormatter{}
	command := ShellCommand{Name: CommandGit, Details: CommandDetails{Arguments: []string{"checkout", "main"}}}

	failureMessage := formatter.BuildFailureMessage(command, ExecutionResult{ExitCode: 1, StandardError: "error: pathspec 'main' did not match\n"})
	require.Equal(t, "Failed to check out main in current directory (exit code 1: error: pathspec 'main' did not match)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(command, errors.New("signal: killed"))
	require.Equal(t, "Unable to check out main in current directory: signal: killed", executionFailureMessage)
}
