package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/pkgcheck/internal/manifest"
)

const (
	// RootEnvironmentVariable names the variable CI runners set to the checkout directory.
	RootEnvironmentVariable = "GITHUB_WORKSPACE"

	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
	rootMissingMessageConstant      = RootEnvironmentVariable + " not set in environment. Did you check out the repository?"
)

// ErrRootMissing indicates the workspace root could not be determined.
var ErrRootMissing = errors.New(rootMissingMessageConstant)

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// Configuration locates the workspace and the manifest inside each package folder.
type Configuration struct {
	Root             string
	ManifestFileName string
}

// ManifestFile returns the manifest file name, defaulting to package.json.
func (configuration Configuration) ManifestFile() string {
	trimmedName := strings.TrimSpace(configuration.ManifestFileName)
	if len(trimmedName) == 0 {
		return manifest.DefaultFileName
	}
	return trimmedName
}

// RelativeManifestPath returns the manifest path for folder relative to the workspace root.
func (configuration Configuration) RelativeManifestPath(folder string) string {
	return filepath.Join(strings.TrimSpace(folder), configuration.ManifestFile())
}

// ManifestPath returns the absolute manifest path for folder.
func (configuration Configuration) ManifestPath(folder string) string {
	return filepath.Join(configuration.Root, configuration.RelativeManifestPath(folder))
}

// RootResolver determines the workspace root from an explicit value or the environment.
type RootResolver struct {
	environmentLookup     EnvironmentLookup
	homeDirectoryProvider HomeDirectoryProvider
}

// NewRootResolver constructs a RootResolver; nil collaborators fall back to the operating system.
func NewRootResolver(environmentLookup EnvironmentLookup, homeDirectoryProvider HomeDirectoryProvider) RootResolver {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	return RootResolver{environmentLookup: environmentLookup, homeDirectoryProvider: homeDirectoryProvider}
}

// Resolve prefers the explicit root and falls back to GITHUB_WORKSPACE. Leading tildes are expanded.
func (resolver RootResolver) Resolve(explicitRoot string) (string, error) {
	candidateRoot := strings.TrimSpace(explicitRoot)
	if len(candidateRoot) == 0 {
		environmentRoot, found := resolver.environmentLookup(RootEnvironmentVariable)
		if found {
			candidateRoot = strings.TrimSpace(environmentRoot)
		}
	}
	if len(candidateRoot) == 0 {
		return "", ErrRootMissing
	}
	return filepath.Clean(resolver.expandHome(candidateRoot)), nil
}

func (resolver RootResolver) expandHome(candidatePath string) string {
	if candidatePath != tildeSymbolConstant && !strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant) {
		return candidatePath
	}
	homeDirectory, homeError := resolver.homeDirectoryProvider()
	if homeError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeSymbolConstant))
}
