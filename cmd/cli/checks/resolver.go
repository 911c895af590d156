package checks

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/pkgcheck/internal/action"
	"github.com/temirov/pkgcheck/internal/execshell"
	"github.com/temirov/pkgcheck/internal/gitrepo"
	"github.com/temirov/pkgcheck/internal/manifest"
	"github.com/temirov/pkgcheck/internal/publish"
	"github.com/temirov/pkgcheck/internal/registry"
	"github.com/temirov/pkgcheck/internal/versionaudit"
	"github.com/temirov/pkgcheck/internal/workspace"
)

const (
	tokenSourceParseErrorTemplateConstant = "invalid registry token source: %w"
	tokenResolveErrorTemplateConstant     = "unable to resolve registry token: %w"
)

// ServiceResolver creates the services a check run dispatches to.
type ServiceResolver interface {
	ResolvePublishDecider(logger *zap.Logger, configuration Configuration, workspaceConfiguration workspace.Configuration) (action.PublishDecider, error)
	ResolveVersionAuditor(logger *zap.Logger, configuration Configuration, workspaceConfiguration workspace.Configuration) (action.VersionAuditor, error)
}

// DefaultServiceResolver builds services backed by git, the filesystem, and the registry API.
type DefaultServiceResolver struct {
	HTTPClient        registry.HTTPClient
	CommandRunner     execshell.CommandRunner
	EnvironmentLookup registry.EnvironmentLookup
	FileReader        registry.FileReader
}

// ResolvePublishDecider creates a publish service with a token-aware registry client.
func (resolver *DefaultServiceResolver) ResolvePublishDecider(logger *zap.Logger, configuration Configuration, workspaceConfiguration workspace.Configuration) (action.PublishDecider, error) {
	tokenSource, tokenSourceError := registry.ParseTokenSource(configuration.Registry.TokenSource)
	if tokenSourceError != nil {
		return nil, fmt.Errorf(tokenSourceParseErrorTemplateConstant, tokenSourceError)
	}
	token, tokenError := registry.NewTokenResolver(resolver.EnvironmentLookup, resolver.FileReader).ResolveToken(tokenSource)
	if tokenError != nil {
		return nil, fmt.Errorf(tokenResolveErrorTemplateConstant, tokenError)
	}

	registryClient, registryError := registry.NewClient(logger, resolver.HTTPClient, registry.ServiceConfiguration{
		BaseURL:     configuration.Registry.BaseURL,
		MaxAttempts: configuration.Registry.MaxAttempts,
		RetryDelay:  configuration.Registry.RetryDelay,
		Token:       token,
	})
	if registryError != nil {
		return nil, registryError
	}

	publishService, serviceError := publish.NewService(publish.ServiceDependencies{
		Logger:         logger,
		ManifestReader: manifest.NewReader(manifest.FileReader(resolver.FileReader)),
		Registry:       registryClient,
		Workspace:      workspaceConfiguration,
	})
	if serviceError != nil {
		return nil, serviceError
	}

	return publishService, nil
}

// ResolveVersionAuditor creates an audit service that runs git in the workspace root.
func (resolver *DefaultServiceResolver) ResolveVersionAuditor(logger *zap.Logger, configuration Configuration, workspaceConfiguration workspace.Configuration) (action.VersionAuditor, error) {
	commandRunner := resolver.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner)
	if executorError != nil {
		return nil, executorError
	}

	inspector, inspectorError := gitrepo.NewInspector(shellExecutor, gitrepo.InspectorConfiguration{
		WorkingDirectory: workspaceConfiguration.Root,
		RemoteName:       configuration.Git.Remote,
	})
	if inspectorError != nil {
		return nil, inspectorError
	}

	auditService, serviceError := versionaudit.NewService(versionaudit.ServiceDependencies{
		Logger:         logger,
		ManifestReader: manifest.NewReader(manifest.FileReader(resolver.FileReader)),
		ChangeDetector: inspector,
		Workspace:      workspaceConfiguration,
	})
	if serviceError != nil {
		return nil, serviceError
	}

	return auditService, nil
}
