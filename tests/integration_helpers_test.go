package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationCommandTimeout        = 60 * time.Second
	integrationGoExecutableConstant  = "go"
	integrationGitExecutableConstant = "git"
)

type integrationCommandOptions struct {
	Environment map[string]string
}

type integrationResult struct {
	StandardOutput string
	StandardError  string
	Err            error
}

func integrationRepositoryRoot(testInstance *testing.T) string {
	testInstance.Helper()
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)
	return filepath.Dir(workingDirectory)
}

func runIntegrationCommand(testInstance *testing.T, options integrationCommandOptions, arguments ...string) integrationResult {
	testInstance.Helper()

	executionContext, cancel := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancel()

	command := exec.CommandContext(executionContext, integrationGoExecutableConstant, append([]string{"run", "."}, arguments...)...)
	command.Dir = integrationRepositoryRoot(testInstance)
	environment := append([]string{}, os.Environ()...)
	for variableName, variableValue := range options.Environment {
		environment = append(environment, variableName+"="+variableValue)
	}
	command.Env = environment

	var standardOutput strings.Builder
	var standardError strings.Builder
	command.Stdout = &standardOutput
	command.Stderr = &standardError

	runError := command.Run()
	return integrationResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
		Err:            runError,
	}
}

func requireIntegrationSuccess(testInstance *testing.T, result integrationResult) {
	testInstance.Helper()
	if result.Err != nil {
		testInstance.Fatalf("command failed: %v\nstdout:\n%s\nstderr:\n%s", result.Err, result.StandardOutput, result.StandardError)
	}
}

func requireIntegrationExitCode(testInstance *testing.T, result integrationResult, expectedExitCode int) {
	testInstance.Helper()
	var exitError *exec.ExitError
	require.ErrorAs(testInstance, result.Err, &exitError, result.StandardError)
	require.Equal(testInstance, expectedExitCode, exitError.ExitCode())
}

func requireGit(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(integrationGitExecutableConstant); lookupError != nil {
		testInstance.Skip("git executable not available")
	}
}

func runGitCommand(testInstance *testing.T, workingDirectory string, arguments ...string) string {
	testInstance.Helper()
	command := exec.Command(integrationGitExecutableConstant, arguments...)
	command.Dir = workingDirectory
	command.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_CONFIG_NOSYSTEM=1")
	output, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
	return string(output)
}

func writeFile(testInstance *testing.T, filePath string, contents string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(contents), 0o644))
}

func manifestContents(name string, version string) string {
	return `{"name":"` + name + `","version":"` + version + `"}` + "\n"
}
