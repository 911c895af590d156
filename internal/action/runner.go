package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/pkgcheck/internal/publish"
	"github.com/temirov/pkgcheck/internal/versionaudit"
)

const (
	auditMessageSeparatorConstant        = "\n"
	modeFieldNameConstant                = "mode"
	folderFieldNameConstant              = "folder"
	foldersFieldNameConstant             = "folders"
	branchFieldNameConstant              = "branch"
	answerFieldNameConstant              = "should_publish"
	runStartedMessageConstant            = "Running package check"
	reportErrorTemplateConstant          = "unable to report result: %w"
	reporterMissingMessageConstant       = "reporter not configured"
	publishDeciderMissingMessageConstant = "publish decider not configured"
	versionAuditorMissingMessageConstant = "version auditor not configured"
)

var (
	// ErrReporterNotConfigured indicates the runner was built without a reporter.
	ErrReporterNotConfigured = errors.New(reporterMissingMessageConstant)
	// ErrPublishDeciderNotConfigured indicates a publish run without a publish service.
	ErrPublishDeciderNotConfigured = errors.New(publishDeciderMissingMessageConstant)
	// ErrVersionAuditorNotConfigured indicates a version run without an audit service.
	ErrVersionAuditorNotConfigured = errors.New(versionAuditorMissingMessageConstant)
)

// PublishDecider answers whether a package folder should be published.
type PublishDecider interface {
	ShouldPublish(executionContext context.Context, folder string) (publish.Result, error)
}

// VersionAuditor checks version bumps of changed folders.
type VersionAuditor interface {
	Audit(executionContext context.Context, folders string, targetBranch string) (versionaudit.Outcome, error)
}

// AuditFailedError reports folders whose versions were not bumped.
type AuditFailedError struct {
	Messages []string
}

// Error joins the audit messages with newlines.
func (auditError AuditFailedError) Error() string {
	return strings.Join(auditError.Messages, auditMessageSeparatorConstant)
}

// RunnerDependencies describes the collaborators a Runner dispatches to.
type RunnerDependencies struct {
	Logger         *zap.Logger
	PublishDecider PublishDecider
	VersionAuditor VersionAuditor
	Reporter       Reporter
}

// Runner executes a validated request and reports the result.
type Runner struct {
	logger         *zap.Logger
	publishDecider PublishDecider
	versionAuditor VersionAuditor
	reporter       Reporter
}

// NewRunner constructs a Runner. Services may be nil when their mode is never requested.
func NewRunner(dependencies RunnerDependencies) (*Runner, error) {
	if dependencies.Reporter == nil {
		return nil, ErrReporterNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		logger:         logger,
		publishDecider: dependencies.PublishDecider,
		versionAuditor: dependencies.VersionAuditor,
		reporter:       dependencies.Reporter,
	}, nil
}

// Run dispatches on the request mode. Every failure is reported through the reporter and returned.
func (runner *Runner) Run(executionContext context.Context, request Request) error {
	runner.logger.Debug(
		runStartedMessageConstant,
		zap.String(modeFieldNameConstant, string(request.Mode)),
		zap.String(folderFieldNameConstant, request.Folder),
		zap.String(foldersFieldNameConstant, request.Folders),
		zap.String(branchFieldNameConstant, request.Branch),
	)

	var runError error
	switch request.Mode {
	case ModePublish:
		runError = runner.runPublish(executionContext, request)
	case ModeVersion:
		runError = runner.runVersion(executionContext, request)
	default:
		_, runError = ParseMode(string(request.Mode))
	}

	if runError == nil {
		return nil
	}
	if reportError := runner.reporter.Fail(runError.Error()); reportError != nil {
		return multierr.Append(runError, fmt.Errorf(reportErrorTemplateConstant, reportError))
	}
	return runError
}

func (runner *Runner) runPublish(executionContext context.Context, request Request) error {
	if runner.publishDecider == nil {
		return ErrPublishDeciderNotConfigured
	}

	result, publishError := runner.publishDecider.ShouldPublish(executionContext, request.Folder)
	if publishError != nil {
		return publishError
	}

	runner.logger.Debug(ShouldPublishOutputName, zap.String(answerFieldNameConstant, string(result.ShouldPublish)))
	if outputError := runner.reporter.SetOutput(ShouldPublishOutputName, string(result.ShouldPublish)); outputError != nil {
		return fmt.Errorf(reportErrorTemplateConstant, outputError)
	}
	return nil
}

func (runner *Runner) runVersion(executionContext context.Context, request Request) error {
	if runner.versionAuditor == nil {
		return ErrVersionAuditorNotConfigured
	}

	outcome, auditError := runner.versionAuditor.Audit(executionContext, request.Folders, request.Branch)
	if auditError != nil {
		return auditError
	}
	if outcome.Error {
		return AuditFailedError{Messages: append([]string(nil), outcome.Messages...)}
	}
	return nil
}
