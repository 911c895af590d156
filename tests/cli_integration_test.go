package tests

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	integrationDiagnosticsMessageConstant  = "\"msg\":\"configuration initialized\""
	integrationLogLevelEnvKeyConstant      = "PKGCHECK_COMMON_LOG_LEVEL"
	integrationConfigFileNameConstant      = "config.yaml"
	integrationConfigTemplateConstant      = "common:\n  log_level: %s\n  log_format: structured\n"
	integrationSubtestNameTemplateConstant = "%d_%s"
	integrationHelpUsagePrefixConstant     = "Usage:"
	integrationHelpDescriptionConstant     = "pkgcheck decides whether a package should be published and verifies that changed packages bumped their versions."
)

func TestCLIIntegrationLogLevels(testInstance *testing.T) {
	testCases := []struct {
		name                       string
		configurationLevel         string
		environmentLevel           string
		expectedDiagnosticsVisible bool
	}{
		{name: "config_info", configurationLevel: "info", expectedDiagnosticsVisible: false},
		{name: "config_debug", configurationLevel: "debug", expectedDiagnosticsVisible: true},
		{name: "environment_overrides_config", configurationLevel: "error", environmentLevel: "debug", expectedDiagnosticsVisible: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(integrationSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			configurationPath := filepath.Join(testInstance.TempDir(), integrationConfigFileNameConstant)
			writeFile(testInstance, configurationPath, fmt.Sprintf(integrationConfigTemplateConstant, testCase.configurationLevel))

			options := integrationCommandOptions{}
			if len(testCase.environmentLevel) > 0 {
				options.Environment = map[string]string{integrationLogLevelEnvKeyConstant: testCase.environmentLevel}
			}

			result := runIntegrationCommand(testInstance, options, "--config="+configurationPath)
			requireIntegrationSuccess(testInstance, result)

			if testCase.expectedDiagnosticsVisible {
				require.Contains(testInstance, result.StandardError, integrationDiagnosticsMessageConstant)
			} else {
				require.NotContains(testInstance, result.StandardError, integrationDiagnosticsMessageConstant)
			}
		})
	}
}

func TestCLIIntegrationDisplaysHelpWhenNoArgumentsProvided(testInstance *testing.T) {
	result := runIntegrationCommand(testInstance, integrationCommandOptions{})
	requireIntegrationSuccess(testInstance, result)

	require.Contains(testInstance, result.StandardOutput, integrationHelpUsagePrefixConstant)
	require.Contains(testInstance, result.StandardOutput, integrationHelpDescriptionConstant)
	for _, commandName := range []string{"publish", "version", "action"} {
		require.Contains(testInstance, result.StandardOutput, commandName)
	}
}
