package checks

import (
	"strings"
	"time"

	"github.com/temirov/pkgcheck/internal/gitrepo"
	"github.com/temirov/pkgcheck/internal/manifest"
	"github.com/temirov/pkgcheck/internal/registry"
)

const (
	workspaceConfigurationKeyConstant = "workspace"
	gitConfigurationKeyConstant       = "git"
	registryConfigurationKeyConstant  = "registry"
	configurationKeySeparatorConstant = "."
)

// Configuration aggregates settings shared by the check commands.
type Configuration struct {
	Workspace WorkspaceConfiguration `mapstructure:"workspace"`
	Git       GitConfiguration       `mapstructure:"git"`
	Registry  RegistryConfiguration  `mapstructure:"registry"`
}

// WorkspaceConfiguration locates the checked-out repository.
type WorkspaceConfiguration struct {
	Root     string `mapstructure:"root"`
	Manifest string `mapstructure:"manifest"`
}

// GitConfiguration selects the remote that target branches are read from.
type GitConfiguration struct {
	Remote string `mapstructure:"remote"`
}

// RegistryConfiguration controls package registry lookups.
type RegistryConfiguration struct {
	BaseURL     string        `mapstructure:"base_url"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	TokenSource string        `mapstructure:"token_source"`
}

// DefaultConfiguration supplies baseline values for the check commands.
func DefaultConfiguration() Configuration {
	return Configuration{
		Workspace: WorkspaceConfiguration{Manifest: manifest.DefaultFileName},
		Git:       GitConfiguration{Remote: gitrepo.DefaultRemoteName},
		Registry: RegistryConfiguration{
			BaseURL:     registry.DefaultBaseURL,
			MaxAttempts: registry.DefaultMaxAttempts,
			RetryDelay:  registry.DefaultRetryDelay,
		},
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as flattened configuration keys.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		joinKey(workspaceConfigurationKeyConstant, "root"):        defaults.Workspace.Root,
		joinKey(workspaceConfigurationKeyConstant, "manifest"):    defaults.Workspace.Manifest,
		joinKey(gitConfigurationKeyConstant, "remote"):            defaults.Git.Remote,
		joinKey(registryConfigurationKeyConstant, "base_url"):     defaults.Registry.BaseURL,
		joinKey(registryConfigurationKeyConstant, "max_attempts"): defaults.Registry.MaxAttempts,
		joinKey(registryConfigurationKeyConstant, "retry_delay"):  defaults.Registry.RetryDelay.String(),
		joinKey(registryConfigurationKeyConstant, "token_source"): defaults.Registry.TokenSource,
	}
}

// Sanitize trims configured values and fills blanks with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Workspace.Root = strings.TrimSpace(configuration.Workspace.Root)
	sanitized.Workspace.Manifest = selectStringValue(configuration.Workspace.Manifest, defaults.Workspace.Manifest)
	sanitized.Git.Remote = selectStringValue(configuration.Git.Remote, defaults.Git.Remote)
	sanitized.Registry.BaseURL = selectStringValue(configuration.Registry.BaseURL, defaults.Registry.BaseURL)
	sanitized.Registry.TokenSource = strings.TrimSpace(configuration.Registry.TokenSource)
	if sanitized.Registry.MaxAttempts <= 0 {
		sanitized.Registry.MaxAttempts = defaults.Registry.MaxAttempts
	}
	if sanitized.Registry.RetryDelay < 0 {
		sanitized.Registry.RetryDelay = defaults.Registry.RetryDelay
	}

	return sanitized
}

func joinKey(prefix string, key string) string {
	return prefix + configurationKeySeparatorConstant + key
}

func selectStringValue(primaryValue string, fallbackValue string) string {
	trimmedPrimaryValue := strings.TrimSpace(primaryValue)
	if len(trimmedPrimaryValue) > 0 {
		return trimmedPrimaryValue
	}

	return strings.TrimSpace(fallbackValue)
}
