package versionaudit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pkgcheck/internal/manifest"
	"github.com/temirov/pkgcheck/internal/versioning"
	"github.com/temirov/pkgcheck/internal/workspace"
)

const (
	folderFieldNameConstant                = "folder"
	branchFieldNameConstant                = "branch"
	localVersionFieldNameConstant          = "local_version"
	targetVersionFieldNameConstant         = "target_version"
	noChangesTemplateConstant              = "No changes found for %s"
	versionUpdatedTemplateConstant         = "Changes found for %s but version has been updated"
	versionNotUpdatedTemplateConstant      = "Package version needs to be updated in %s. It's less than or equal to %s (%s)"
	targetSourceTemplateConstant           = "%s:%s"
	manifestReaderMissingMessageConstant   = "manifest reader not configured"
	changeDetectorMissingMessageConstant   = "change detector not configured"
	targetBranchRequiredMessageConstant    = "target branch is required"
	changeDetectionErrorTemplateConstant   = "unable to detect changes in %s: %w"
	localManifestErrorTemplateConstant     = "unable to load manifest for %s: %w"
	targetManifestErrorTemplateConstant    = "unable to read %s manifest for %s: %w"
	versionComparisonErrorTemplateConstant = "unable to compare versions of %s: %w"
)

var (
	// ErrManifestReaderNotConfigured indicates the service was built without a manifest reader.
	ErrManifestReaderNotConfigured = errors.New(manifestReaderMissingMessageConstant)
	// ErrChangeDetectorNotConfigured indicates the service was built without a git inspector.
	ErrChangeDetectorNotConfigured = errors.New(changeDetectorMissingMessageConstant)
	// ErrTargetBranchRequired indicates an empty target branch.
	ErrTargetBranchRequired = errors.New(targetBranchRequiredMessageConstant)
)

// ManifestReader loads a package manifest from disk.
type ManifestReader interface {
	ReadFile(path string) (manifest.PackageDescriptor, error)
}

// ChangeDetector reports folder changes against a branch and reads files from it.
type ChangeDetector interface {
	FolderHasChanges(executionContext context.Context, branch string, folder string) (bool, error)
	ShowFile(executionContext context.Context, branch string, filePath string) ([]byte, error)
}

// ServiceDependencies describes required collaborators for the audit.
type ServiceDependencies struct {
	Logger         *zap.Logger
	ManifestReader ManifestReader
	ChangeDetector ChangeDetector
	Workspace      workspace.Configuration
}

// Outcome collects the failure messages produced by an audit.
type Outcome struct {
	Error    bool
	Messages []string
}

// Service audits version bumps folder by folder.
type Service struct {
	logger         *zap.Logger
	manifestReader ManifestReader
	changeDetector ChangeDetector
	workspace      workspace.Configuration
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.ManifestReader == nil {
		return nil, ErrManifestReaderNotConfigured
	}
	if dependencies.ChangeDetector == nil {
		return nil, ErrChangeDetectorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:         logger,
		manifestReader: dependencies.ManifestReader,
		changeDetector: dependencies.ChangeDetector,
		workspace:      dependencies.Workspace,
	}, nil
}

// Audit checks each folder in order. Unchanged folders are skipped; changed folders whose
// local version is not greater than the target branch version produce a failure message.
// The first git, manifest, or version error aborts the audit.
func (service *Service) Audit(executionContext context.Context, folders string, targetBranch string) (Outcome, error) {
	trimmedBranch := strings.TrimSpace(targetBranch)
	if len(trimmedBranch) == 0 {
		return Outcome{}, ErrTargetBranchRequired
	}

	outcome := Outcome{Messages: []string{}}
	for _, folder := range ParseFolders(folders) {
		message, auditError := service.auditFolder(executionContext, folder, trimmedBranch)
		if auditError != nil {
			return Outcome{}, auditError
		}
		if len(message) > 0 {
			outcome.Error = true
			outcome.Messages = append(outcome.Messages, message)
		}
	}

	return outcome, nil
}

func (service *Service) auditFolder(executionContext context.Context, folder string, targetBranch string) (string, error) {
	changed, changeError := service.changeDetector.FolderHasChanges(executionContext, targetBranch, folder)
	if changeError != nil {
		return "", fmt.Errorf(changeDetectionErrorTemplateConstant, folder, changeError)
	}
	if !changed {
		service.logger.Info(fmt.Sprintf(noChangesTemplateConstant, folder), zap.String(folderFieldNameConstant, folder))
		return "", nil
	}

	localDescriptor, localError := service.manifestReader.ReadFile(service.workspace.ManifestPath(folder))
	if localError != nil {
		return "", fmt.Errorf(localManifestErrorTemplateConstant, folder, localError)
	}

	relativeManifestPath := service.workspace.RelativeManifestPath(folder)
	targetContents, showError := service.changeDetector.ShowFile(executionContext, targetBranch, relativeManifestPath)
	if showError != nil {
		return "", fmt.Errorf(targetManifestErrorTemplateConstant, targetBranch, folder, showError)
	}
	targetDescriptor, parseError := manifest.Parse(targetContents, fmt.Sprintf(targetSourceTemplateConstant, targetBranch, relativeManifestPath))
	if parseError != nil {
		return "", fmt.Errorf(targetManifestErrorTemplateConstant, targetBranch, folder, parseError)
	}

	bumped, comparisonError := versioning.GreaterThan(localDescriptor.Version, targetDescriptor.Version)
	if comparisonError != nil {
		return "", fmt.Errorf(versionComparisonErrorTemplateConstant, folder, comparisonError)
	}

	fields := []zap.Field{
		zap.String(folderFieldNameConstant, folder),
		zap.String(branchFieldNameConstant, targetBranch),
		zap.String(localVersionFieldNameConstant, localDescriptor.Version),
		zap.String(targetVersionFieldNameConstant, targetDescriptor.Version),
	}
	if bumped {
		service.logger.Info(fmt.Sprintf(versionUpdatedTemplateConstant, folder), fields...)
		return "", nil
	}

	message := fmt.Sprintf(versionNotUpdatedTemplateConstant, folder, targetBranch, localDescriptor.Version)
	service.logger.Warn(message, fields...)
	return message, nil
}
