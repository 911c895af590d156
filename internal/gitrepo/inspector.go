package gitrepo

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/temirov/pkgcheck/internal/execshell"
)

const (
	// DefaultRemoteName is the remote whose tracking branches are compared against.
	DefaultRemoteName = "origin"

	gitDiffSubcommandConstant                = "diff"
	gitShowSubcommandConstant                = "show"
	gitNoColorFlagConstant                   = "--no-color"
	gitPathSeparatorArgumentConstant         = "--"
	remoteReferenceSeparatorConstant         = "/"
	objectPathSeparatorConstant              = ":"
	gitTerminalPromptEnvironmentNameConstant = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledValueConstant   = "0"
	executorMissingMessageConstant           = "git executor not configured"
	branchRequiredMessageConstant            = "branch name must be provided"
	pathRequiredMessageConstant              = "path must be provided"
)

var (
	// ErrGitExecutorNotConfigured indicates the inspector was constructed without an executor.
	ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)
	// ErrBranchRequired indicates an empty branch name.
	ErrBranchRequired = errors.New(branchRequiredMessageConstant)
	// ErrPathRequired indicates an empty folder or file path.
	ErrPathRequired = errors.New(pathRequiredMessageConstant)
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InspectorConfiguration locates the repository and the remote to compare against.
type InspectorConfiguration struct {
	WorkingDirectory string
	RemoteName       string
}

// Inspector answers questions about the workspace relative to remote-tracking branches.
type Inspector struct {
	executor         GitExecutor
	workingDirectory string
	remoteName       string
}

// NewInspector constructs an Inspector. An empty remote name defaults to DefaultRemoteName.
func NewInspector(executor GitExecutor, configuration InspectorConfiguration) (*Inspector, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	remoteName := strings.TrimSpace(configuration.RemoteName)
	if len(remoteName) == 0 {
		remoteName = DefaultRemoteName
	}

	return &Inspector{
		executor:         executor,
		workingDirectory: strings.TrimSpace(configuration.WorkingDirectory),
		remoteName:       remoteName,
	}, nil
}

// RemoteReference returns the remote-tracking reference for branch, e.g. origin/develop.
func (inspector *Inspector) RemoteReference(branch string) string {
	return inspector.remoteName + remoteReferenceSeparatorConstant + strings.TrimSpace(branch)
}

// FolderHasChanges reports whether git diff between the branch tip and the working tree is non-empty for folder.
func (inspector *Inspector) FolderHasChanges(executionContext context.Context, branch string, folder string) (bool, error) {
	if len(strings.TrimSpace(branch)) == 0 {
		return false, ErrBranchRequired
	}
	trimmedFolder := strings.TrimSpace(folder)
	if len(trimmedFolder) == 0 {
		return false, ErrPathRequired
	}

	executionResult, executionError := inspector.executor.ExecuteGit(executionContext, inspector.commandDetails(
		gitDiffSubcommandConstant,
		gitNoColorFlagConstant,
		inspector.RemoteReference(branch),
		gitPathSeparatorArgumentConstant,
		trimmedFolder,
	))
	if executionError != nil {
		return false, executionError
	}

	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

// ShowFile returns the contents of filePath, relative to the repository root, at the branch tip.
func (inspector *Inspector) ShowFile(executionContext context.Context, branch string, filePath string) ([]byte, error) {
	if len(strings.TrimSpace(branch)) == 0 {
		return nil, ErrBranchRequired
	}
	objectPath := normalizeObjectPath(filePath)
	if len(objectPath) == 0 {
		return nil, ErrPathRequired
	}

	objectReference := inspector.RemoteReference(branch) + objectPathSeparatorConstant + objectPath
	executionResult, executionError := inspector.executor.ExecuteGit(executionContext, inspector.commandDetails(gitShowSubcommandConstant, objectReference))
	if executionError != nil {
		return nil, executionError
	}

	return []byte(executionResult.StandardOutput), nil
}

func (inspector *Inspector) commandDetails(arguments ...string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     inspector.workingDirectory,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptDisabledValueConstant},
	}
}

// normalizeObjectPath converts a workspace-relative path into the slash-separated form git object names use.
func normalizeObjectPath(filePath string) string {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return ""
	}
	cleanedPath := path.Clean(filepath.ToSlash(trimmedPath))
	if cleanedPath == "." {
		return ""
	}
	return cleanedPath
}
