package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pkgcheck/internal/manifest"
	"github.com/temirov/pkgcheck/internal/registry"
	"github.com/temirov/pkgcheck/internal/versioning"
	"github.com/temirov/pkgcheck/internal/workspace"
)

// Answer is the publish verdict written to workflow outputs.
type Answer string

const (
	// AnswerYes signals the local version should be published.
	AnswerYes Answer = "yes"
	// AnswerNo signals the registry already has this version or a newer one.
	AnswerNo Answer = "no"
)

const (
	folderFieldNameConstant              = "folder"
	packageFieldNameConstant             = "package"
	localVersionFieldNameConstant        = "local_version"
	remoteVersionFieldNameConstant       = "remote_version"
	manifestPathFieldNameConstant        = "manifest_path"
	remoteAbsentMessageConstant          = "Package is not published yet"
	shouldPublishMessageConstant         = "Package should publish"
	shouldNotPublishMessageConstant      = "Package should not publish"
	versionComparisonTemplateConstant    = "Remote version is %s, local version is %s"
	manifestReaderMissingMessageConstant = "manifest reader not configured"
	registryMissingMessageConstant       = "registry client not configured"
	folderRequiredMessageConstant        = "package folder is required"
	manifestReadErrorTemplateConstant    = "unable to load manifest for %s: %w"
	registryLookupErrorTemplateConstant  = "unable to look up published version of %s: %w"
	comparisonErrorTemplateConstant      = "unable to compare versions of %s: %w"
)

var (
	// ErrManifestReaderNotConfigured indicates the service was built without a manifest reader.
	ErrManifestReaderNotConfigured = errors.New(manifestReaderMissingMessageConstant)
	// ErrRegistryNotConfigured indicates the service was built without a registry client.
	ErrRegistryNotConfigured = errors.New(registryMissingMessageConstant)
	// ErrFolderRequired indicates an empty folder argument.
	ErrFolderRequired = errors.New(folderRequiredMessageConstant)
)

// ManifestReader loads a package manifest from disk.
type ManifestReader interface {
	ReadFile(path string) (manifest.PackageDescriptor, error)
}

// RegistryClient looks up the latest published version of a package.
type RegistryClient interface {
	GetRemoteVersion(executionContext context.Context, packageName string) (registry.RemoteVersion, error)
}

// ServiceDependencies describes required collaborators for publish decisions.
type ServiceDependencies struct {
	Logger         *zap.Logger
	ManifestReader ManifestReader
	Registry       RegistryClient
	Workspace      workspace.Configuration
}

// Result captures the publish verdict along with the versions it was based on.
type Result struct {
	ShouldPublish Answer
	PackageName   string
	LocalVersion  string
	RemoteVersion string
	RemoteFound   bool
}

// Service compares local manifests against the registry.
type Service struct {
	logger         *zap.Logger
	manifestReader ManifestReader
	registry       RegistryClient
	workspace      workspace.Configuration
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.ManifestReader == nil {
		return nil, ErrManifestReaderNotConfigured
	}
	if dependencies.Registry == nil {
		return nil, ErrRegistryNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:         logger,
		manifestReader: dependencies.ManifestReader,
		registry:       dependencies.Registry,
		workspace:      dependencies.Workspace,
	}, nil
}

// ShouldPublish answers yes when the registry has no version of the package or
// the local version is strictly greater than the published one.
func (service *Service) ShouldPublish(executionContext context.Context, folder string) (Result, error) {
	trimmedFolder := strings.TrimSpace(folder)
	if len(trimmedFolder) == 0 {
		return Result{}, ErrFolderRequired
	}

	manifestPath := service.workspace.ManifestPath(trimmedFolder)
	descriptor, readError := service.manifestReader.ReadFile(manifestPath)
	if readError != nil {
		return Result{}, fmt.Errorf(manifestReadErrorTemplateConstant, trimmedFolder, readError)
	}

	remoteVersion, lookupError := service.registry.GetRemoteVersion(executionContext, descriptor.Name)
	if lookupError != nil {
		return Result{}, fmt.Errorf(registryLookupErrorTemplateConstant, descriptor.Name, lookupError)
	}

	result := Result{
		ShouldPublish: AnswerYes,
		PackageName:   descriptor.Name,
		LocalVersion:  descriptor.Version,
		RemoteVersion: remoteVersion.Version,
		RemoteFound:   remoteVersion.Found,
	}

	if !remoteVersion.Found {
		service.logger.Info(
			remoteAbsentMessageConstant,
			zap.String(folderFieldNameConstant, trimmedFolder),
			zap.String(packageFieldNameConstant, descriptor.Name),
			zap.String(manifestPathFieldNameConstant, manifestPath),
		)
		service.logVerdict(result)
		return result, nil
	}

	service.logger.Info(
		fmt.Sprintf(versionComparisonTemplateConstant, remoteVersion.Version, descriptor.Version),
		zap.String(packageFieldNameConstant, descriptor.Name),
		zap.String(localVersionFieldNameConstant, descriptor.Version),
		zap.String(remoteVersionFieldNameConstant, remoteVersion.Version),
	)

	localIsNewer, comparisonError := versioning.GreaterThan(descriptor.Version, remoteVersion.Version)
	if comparisonError != nil {
		return Result{}, fmt.Errorf(comparisonErrorTemplateConstant, descriptor.Name, comparisonError)
	}
	if !localIsNewer {
		result.ShouldPublish = AnswerNo
	}
	service.logVerdict(result)

	return result, nil
}

func (service *Service) logVerdict(result Result) {
	message := shouldPublishMessageConstant
	if result.ShouldPublish == AnswerNo {
		message = shouldNotPublishMessageConstant
	}
	service.logger.Info(message, zap.String(packageFieldNameConstant, result.PackageName))
}
