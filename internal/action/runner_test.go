package action_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pkgcheck/internal/action"
	"github.com/temirov/pkgcheck/internal/publish"
	"github.com/temirov/pkgcheck/internal/versionaudit"
)

type recordingReporter struct {
	outputs  map[string]string
	failures []string
}

func (reporter *recordingReporter) SetOutput(name string, value string) error {
	if reporter.outputs == nil {
		reporter.outputs = map[string]string{}
	}
	reporter.outputs[name] = value
	return nil
}

func (reporter *recordingReporter) Fail(message string) error {
	reporter.failures = append(reporter.failures, message)
	return nil
}

type stubPublishDecider struct {
	result        publish.Result
	err           error
	requestedPath string
}

func (decider *stubPublishDecider) ShouldPublish(_ context.Context, folder string) (publish.Result, error) {
	decider.requestedPath = folder
	return decider.result, decider.err
}

type stubVersionAuditor struct {
	outcome         versionaudit.Outcome
	err             error
	requestedBranch string
}

func (auditor *stubVersionAuditor) Audit(_ context.Context, _ string, targetBranch string) (versionaudit.Outcome, error) {
	auditor.requestedBranch = targetBranch
	return auditor.outcome, auditor.err
}

func TestRunnerPublishSetsOutput(testInstance *testing.T) {
	testCases := []struct {
		name   string
		answer publish.Answer
	}{
		{name: "yes", answer: publish.AnswerYes},
		{name: "no", answer: publish.AnswerNo},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			reporter := &recordingReporter{}
			decider := &stubPublishDecider{result: publish.Result{ShouldPublish: testCase.answer}}
			runner, runnerError := action.NewRunner(action.RunnerDependencies{PublishDecider: decider, Reporter: reporter})
			require.NoError(testInstance, runnerError)

			require.NoError(testInstance, runner.Run(context.Background(), action.Request{Mode: action.ModePublish, Folder: "styleguide"}))
			require.Equal(testInstance, "styleguide", decider.requestedPath)
			require.Equal(testInstance, map[string]string{action.ShouldPublishOutputName: string(testCase.answer)}, reporter.outputs)
			require.Empty(testInstance, reporter.failures)
		})
	}
}

func TestRunnerVersionReportsJoinedMessages(testInstance *testing.T) {
	reporter := &recordingReporter{}
	auditor := &stubVersionAuditor{outcome: versionaudit.Outcome{Error: true, Messages: []string{"first", "second"}}}
	runner, runnerError := action.NewRunner(action.RunnerDependencies{VersionAuditor: auditor, Reporter: reporter})
	require.NoError(testInstance, runnerError)

	runError := runner.Run(context.Background(), action.Request{Mode: action.ModeVersion, Folders: "a b", Branch: "develop"})

	var auditFailure action.AuditFailedError
	require.ErrorAs(testInstance, runError, &auditFailure)
	require.Equal(testInstance, "first\nsecond", runError.Error())
	require.Equal(testInstance, []string{"first\nsecond"}, reporter.failures)
	require.Equal(testInstance, "develop", auditor.requestedBranch)
	require.Empty(testInstance, reporter.outputs)
}

func TestRunnerVersionSucceedsWithoutMessages(testInstance *testing.T) {
	reporter := &recordingReporter{}
	runner, runnerError := action.NewRunner(action.RunnerDependencies{VersionAuditor: &stubVersionAuditor{}, Reporter: reporter})
	require.NoError(testInstance, runnerError)

	require.NoError(testInstance, runner.Run(context.Background(), action.Request{Mode: action.ModeVersion, Folders: "a", Branch: "main"}))
	require.Empty(testInstance, reporter.failures)
}

func TestRunnerReportsServiceErrors(testInstance *testing.T) {
	serviceFailure := errors.New("registry unavailable")

	testCases := []struct {
		name          string
		dependencies  action.RunnerDependencies
		request       action.Request
		expectedError error
	}{
		{
			name:          "publish_failure",
			dependencies:  action.RunnerDependencies{PublishDecider: &stubPublishDecider{err: serviceFailure}},
			request:       action.Request{Mode: action.ModePublish, Folder: "a"},
			expectedError: serviceFailure,
		},
		{
			name:          "audit_failure",
			dependencies:  action.RunnerDependencies{VersionAuditor: &stubVersionAuditor{err: serviceFailure}},
			request:       action.Request{Mode: action.ModeVersion, Folders: "a", Branch: "main"},
			expectedError: serviceFailure,
		},
		{
			name:          "publish_not_wired",
			request:       action.Request{Mode: action.ModePublish, Folder: "a"},
			expectedError: action.ErrPublishDeciderNotConfigured,
		},
		{
			name:          "version_not_wired",
			request:       action.Request{Mode: action.ModeVersion, Folders: "a", Branch: "main"},
			expectedError: action.ErrVersionAuditorNotConfigured,
		},
		{
			name:          "unknown_mode",
			request:       action.Request{Mode: action.Mode("deploy")},
			expectedError: action.ErrUnsupportedMode,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			reporter := &recordingReporter{}
			dependencies := testCase.dependencies
			dependencies.Reporter = reporter
			runner, runnerError := action.NewRunner(dependencies)
			require.NoError(testInstance, runnerError)

			runError := runner.Run(context.Background(), testCase.request)
			require.ErrorIs(testInstance, runError, testCase.expectedError)
			require.Equal(testInstance, []string{runError.Error()}, reporter.failures)
		})
	}
}

func TestNewRunnerRequiresReporter(testInstance *testing.T) {
	_, runnerError := action.NewRunner(action.RunnerDependencies{})
	require.ErrorIs(testInstance, runnerError, action.ErrReporterNotConfigured)
}
