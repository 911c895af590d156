package action

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/temirov/pkgcheck/internal/workspace"
)

// Mode selects which check runs.
type Mode string

// Supported modes.
const (
	ModePublish Mode = "publish"
	ModeVersion Mode = "version"
)

const (
	// InputMode names the mode input.
	InputMode = "mode"
	// InputFolder names the publish folder input.
	InputFolder = "folder"
	// InputFolders names the whitespace-separated folder list input.
	InputFolders = "folders"
	// InputBranch names the target branch input.
	InputBranch = "branch"

	workflowInputPrefixConstant           = "INPUT_"
	unsupportedModeMessageConstant        = "unsupported mode"
	missingInputMessageConstant           = "missing required input"
	unsupportedModeTemplateConstant       = "%w %q (expected %s or %s)"
	missingInputTemplateConstant          = "%w %q for %s mode"
	configurationErrorSeparatorConstant   = "; "
	configurationErrorPrefixConstant      = "invalid configuration: "
	workflowInputSpaceConstant            = " "
	workflowInputSpaceReplacementConstant = "_"
)

var (
	// ErrUnsupportedMode indicates a mode other than publish or version.
	ErrUnsupportedMode = errors.New(unsupportedModeMessageConstant)
	// ErrMissingInput indicates a required input was empty for the selected mode.
	ErrMissingInput = errors.New(missingInputMessageConstant)
	// ErrWorkspaceRootMissing indicates the workspace root could not be resolved.
	ErrWorkspaceRootMissing = workspace.ErrRootMissing
)

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// Inputs holds raw, unvalidated run inputs.
type Inputs struct {
	Mode    string
	Folder  string
	Folders string
	Branch  string
}

// Request is a validated run request.
type Request struct {
	Mode    Mode
	Folder  string
	Folders string
	Branch  string
}

// ParseMode validates a mode name, ignoring case and surrounding whitespace.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModePublish:
		return ModePublish, nil
	case ModeVersion:
		return ModeVersion, nil
	default:
		return "", fmt.Errorf(unsupportedModeTemplateConstant, ErrUnsupportedMode, value, ModePublish, ModeVersion)
	}
}

// WorkflowInputs reads inputs from INPUT_<NAME> environment variables the way CI runners expose them.
func WorkflowInputs(environmentLookup EnvironmentLookup) Inputs {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return Inputs{
		Mode:    workflowInput(environmentLookup, InputMode),
		Folder:  workflowInput(environmentLookup, InputFolder),
		Folders: workflowInput(environmentLookup, InputFolders),
		Branch:  workflowInput(environmentLookup, InputBranch),
	}
}

func workflowInput(environmentLookup EnvironmentLookup, inputName string) string {
	variableName := workflowInputPrefixConstant + strings.ToUpper(strings.ReplaceAll(inputName, workflowInputSpaceConstant, workflowInputSpaceReplacementConstant))
	value, _ := environmentLookup(variableName)
	return strings.TrimSpace(value)
}

// ConfigurationError aggregates every input problem found before any work starts.
type ConfigurationError struct {
	Problems error
}

// Error lists every problem.
func (configurationError ConfigurationError) Error() string {
	problems := multierr.Errors(configurationError.Problems)
	messages := make([]string, 0, len(problems))
	for _, problem := range problems {
		messages = append(messages, problem.Error())
	}
	return configurationErrorPrefixConstant + strings.Join(messages, configurationErrorSeparatorConstant)
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (configurationError ConfigurationError) Unwrap() []error {
	return multierr.Errors(configurationError.Problems)
}

// ValidateInputs checks inputs against the selected mode and reports all violations at once.
func ValidateInputs(inputs Inputs, workspaceRoot string) (Request, error) {
	var problems error

	if len(strings.TrimSpace(workspaceRoot)) == 0 {
		problems = multierr.Append(problems, ErrWorkspaceRootMissing)
	}

	request := Request{
		Folder:  strings.TrimSpace(inputs.Folder),
		Folders: strings.TrimSpace(inputs.Folders),
		Branch:  strings.TrimSpace(inputs.Branch),
	}

	mode, modeError := ParseMode(inputs.Mode)
	if modeError != nil {
		problems = multierr.Append(problems, modeError)
	}
	request.Mode = mode

	switch mode {
	case ModePublish:
		if len(request.Folder) == 0 {
			problems = multierr.Append(problems, missingInput(InputFolder, mode))
		}
	case ModeVersion:
		if len(request.Folders) == 0 {
			problems = multierr.Append(problems, missingInput(InputFolders, mode))
		}
		if len(request.Branch) == 0 {
			problems = multierr.Append(problems, missingInput(InputBranch, mode))
		}
	}

	if problems != nil {
		return Request{}, ConfigurationError{Problems: problems}
	}
	return request, nil
}

func missingInput(inputName string, mode Mode) error {
	return fmt.Errorf(missingInputTemplateConstant, ErrMissingInput, inputName, mode)
}
