package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	publishIntegrationConfigTemplateConstant = "common:\n  log_level: error\nregistry:\n  base_url: %s\n  max_attempts: %d\n  retry_delay: 10ms\n"
	publishIntegrationLatestTemplateConstant = `{"name":"%s","dist-tags":{"latest":"%s"}}`
	publishIntegrationFolderConstant         = "styleguide"
	publishIntegrationPackageConstant        = "styleguide"
	publishIntegrationMaxAttemptsConstant    = 2
)

type registryIntegrationServer struct {
	mutex          sync.Mutex
	latestVersions map[string]string
	failing        bool
	requestedPaths []string
}

func (server *registryIntegrationServer) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	server.mutex.Lock()
	server.requestedPaths = append(server.requestedPaths, request.URL.Path)
	server.mutex.Unlock()

	if server.failing {
		responseWriter.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	packageName := strings.TrimPrefix(request.URL.Path, "/")
	latestVersion, published := server.latestVersions[packageName]
	if !published {
		responseWriter.WriteHeader(http.StatusNotFound)
		return
	}
	responseWriter.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(responseWriter, publishIntegrationLatestTemplateConstant, packageName, latestVersion)
}

func (server *registryIntegrationServer) snapshotRequestedPaths() []string {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return append([]string(nil), server.requestedPaths...)
}

func preparePublishWorkspace(testInstance *testing.T, serverURL string, localVersion string) (string, string) {
	testInstance.Helper()
	workspaceRoot := testInstance.TempDir()
	writeFile(testInstance, filepath.Join(workspaceRoot, publishIntegrationFolderConstant, "package.json"), manifestContents(publishIntegrationPackageConstant, localVersion))

	configurationPath := filepath.Join(testInstance.TempDir(), "config.yaml")
	writeFile(testInstance, configurationPath, fmt.Sprintf(publishIntegrationConfigTemplateConstant, serverURL, publishIntegrationMaxAttemptsConstant))
	return workspaceRoot, configurationPath
}

func TestPublishCommandIntegration(testInstance *testing.T) {
	testCases := []struct {
		name           string
		localVersion   string
		latestVersions map[string]string
		expectedOutput string
	}{
		{name: "newer_local_version", localVersion: "0.0.2", latestVersions: map[string]string{publishIntegrationPackageConstant: "0.0.1"}, expectedOutput: "should_publish: yes\n"},
		{name: "same_version", localVersion: "0.0.1", latestVersions: map[string]string{publishIntegrationPackageConstant: "0.0.1"}, expectedOutput: "should_publish: no\n"},
		{name: "never_published", localVersion: "0.0.1", latestVersions: map[string]string{}, expectedOutput: "should_publish: yes\n"},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(integrationSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			serverState := &registryIntegrationServer{latestVersions: testCase.latestVersions}
			server := httptest.NewServer(serverState)
			defer server.Close()

			workspaceRoot, configurationPath := preparePublishWorkspace(testInstance, server.URL, testCase.localVersion)

			result := runIntegrationCommand(testInstance, integrationCommandOptions{},
				"--config="+configurationPath,
				"--workspace="+workspaceRoot,
				"publish",
				"--folder="+publishIntegrationFolderConstant,
			)
			requireIntegrationSuccess(testInstance, result)
			require.Equal(testInstance, testCase.expectedOutput, result.StandardOutput)
			require.Equal(testInstance, []string{"/" + publishIntegrationPackageConstant}, serverState.snapshotRequestedPaths())
		})
	}
}

func TestPublishCommandIntegrationStopsAfterMaxAttempts(testInstance *testing.T) {
	serverState := &registryIntegrationServer{failing: true}
	server := httptest.NewServer(serverState)
	defer server.Close()

	workspaceRoot, configurationPath := preparePublishWorkspace(testInstance, server.URL, "0.0.1")

	result := runIntegrationCommand(testInstance, integrationCommandOptions{},
		"--config="+configurationPath,
		"--workspace="+workspaceRoot,
		"publish",
		"--folder="+publishIntegrationFolderConstant,
	)
	requireIntegrationExitCode(testInstance, result, 1)
	require.Len(testInstance, serverState.snapshotRequestedPaths(), publishIntegrationMaxAttemptsConstant)
	require.Contains(testInstance, result.StandardError, "max tries exceeded")
}

func TestActionCommandIntegrationWritesStepOutput(testInstance *testing.T) {
	serverState := &registryIntegrationServer{latestVersions: map[string]string{publishIntegrationPackageConstant: "1.0.0"}}
	server := httptest.NewServer(serverState)
	defer server.Close()

	workspaceRoot, configurationPath := preparePublishWorkspace(testInstance, server.URL, "1.1.0")
	outputFilePath := filepath.Join(testInstance.TempDir(), "github_output")

	result := runIntegrationCommand(testInstance, integrationCommandOptions{Environment: map[string]string{
		"GITHUB_WORKSPACE": workspaceRoot,
		"GITHUB_OUTPUT":    outputFilePath,
		"INPUT_MODE":       "publish",
		"INPUT_FOLDER":     publishIntegrationFolderConstant,
	}}, "--config="+configurationPath, "action")
	requireIntegrationSuccess(testInstance, result)

	contents, readError := os.ReadFile(outputFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "should_publish=yes\n", string(contents))
}

func TestActionCommandIntegrationReportsMissingInputs(testInstance *testing.T) {
	result := runIntegrationCommand(testInstance, integrationCommandOptions{Environment: map[string]string{
		"INPUT_MODE": "publish",
	}}, "action")
	requireIntegrationExitCode(testInstance, result, 1)
	require.Contains(testInstance, result.StandardOutput, "::error::invalid configuration")
	require.Contains(testInstance, result.StandardOutput, "GITHUB_WORKSPACE not set in environment")
	require.Contains(testInstance, result.StandardOutput, `missing required input "folder" for publish mode`)
}
