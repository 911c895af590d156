package checks

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/pkgcheck/internal/action"
	"github.com/temirov/pkgcheck/internal/registry"
	"github.com/temirov/pkgcheck/internal/workspace"
)

const (
	publishCommandUseConstant              = "publish"
	publishCommandShortDescriptionConstant = "Decide whether a package should be published"
	publishCommandLongDescriptionConstant  = "publish compares the version in a package manifest with the latest version in the registry and prints should_publish: yes when the local version is newer or the package was never published."
	versionCommandUseConstant              = "version"
	versionCommandShortDescriptionConstant = "Verify changed packages bumped their versions"
	versionCommandLongDescriptionConstant  = "version checks every listed folder that differs from the target branch and fails when its manifest version is not greater than the version on that branch."
	actionCommandUseConstant               = "action"
	actionCommandShortDescriptionConstant  = "Run as a CI workflow step"
	actionCommandLongDescriptionConstant   = "action reads mode, folder, folders, and branch from INPUT_* environment variables and reports through step outputs and error annotations."
	folderFlagNameConstant                 = "folder"
	folderFlagDescriptionConstant          = "Package folder relative to the workspace root"
	foldersFlagNameConstant                = "folders"
	foldersFlagDescriptionConstant         = "Whitespace-separated package folders relative to the workspace root"
	branchFlagNameConstant                 = "branch"
	branchFlagDescriptionConstant          = "Target branch the versions are compared against"
	unexpectedArgumentsTemplateConstant    = "%s does not accept positional arguments"
	workspaceUnresolvedMessageConstant     = "workspace root unresolved"
	logFieldErrorConstant                  = "error"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current check configuration.
type ConfigurationProvider func() Configuration

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// CommandBuilder assembles the check commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	EnvironmentLookup     EnvironmentLookup
}

// Build constructs the publish, version, and action commands.
func (builder *CommandBuilder) Build() ([]*cobra.Command, error) {
	return []*cobra.Command{
		builder.buildPublishCommand(),
		builder.buildVersionCommand(),
		builder.buildActionCommand(),
	}, nil
}

func (builder *CommandBuilder) buildPublishCommand() *cobra.Command {
	publishCommand := &cobra.Command{
		Use:   publishCommandUseConstant,
		Short: publishCommandShortDescriptionConstant,
		Long:  publishCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) > 0 {
				return fmt.Errorf(unexpectedArgumentsTemplateConstant, publishCommandUseConstant)
			}
			folderValue, folderFlagError := command.Flags().GetString(folderFlagNameConstant)
			if folderFlagError != nil {
				return folderFlagError
			}
			inputs := action.Inputs{Mode: string(action.ModePublish), Folder: folderValue}
			return builder.run(command, inputs, action.NewConsoleReporter(command.OutOrStdout()))
		},
	}

	publishCommand.Flags().String(folderFlagNameConstant, "", folderFlagDescriptionConstant)

	return publishCommand
}

func (builder *CommandBuilder) buildVersionCommand() *cobra.Command {
	versionCommand := &cobra.Command{
		Use:   versionCommandUseConstant,
		Short: versionCommandShortDescriptionConstant,
		Long:  versionCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) > 0 {
				return fmt.Errorf(unexpectedArgumentsTemplateConstant, versionCommandUseConstant)
			}
			foldersValue, foldersFlagError := command.Flags().GetString(foldersFlagNameConstant)
			if foldersFlagError != nil {
				return foldersFlagError
			}
			branchValue, branchFlagError := command.Flags().GetString(branchFlagNameConstant)
			if branchFlagError != nil {
				return branchFlagError
			}
			inputs := action.Inputs{Mode: string(action.ModeVersion), Folders: foldersValue, Branch: branchValue}
			return builder.run(command, inputs, action.NewConsoleReporter(command.OutOrStdout()))
		},
	}

	versionCommand.Flags().String(foldersFlagNameConstant, "", foldersFlagDescriptionConstant)
	versionCommand.Flags().String(branchFlagNameConstant, "", branchFlagDescriptionConstant)

	return versionCommand
}

func (builder *CommandBuilder) buildActionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   actionCommandUseConstant,
		Short: actionCommandShortDescriptionConstant,
		Long:  actionCommandLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) > 0 {
				return fmt.Errorf(unexpectedArgumentsTemplateConstant, actionCommandUseConstant)
			}
			environmentLookup := builder.resolveEnvironmentLookup()
			inputs := action.WorkflowInputs(action.EnvironmentLookup(environmentLookup))
			outputFilePath, _ := environmentLookup(action.OutputFileEnvironmentVariable)
			return builder.run(command, inputs, action.NewWorkflowReporter(outputFilePath, command.OutOrStdout()))
		},
	}
}

func (builder *CommandBuilder) run(command *cobra.Command, inputs action.Inputs, reporter action.Reporter) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	workspaceRoot, rootError := workspace.NewRootResolver(workspace.EnvironmentLookup(builder.resolveEnvironmentLookup()), nil).Resolve(configuration.Workspace.Root)
	if rootError != nil {
		logger.Debug(workspaceUnresolvedMessageConstant, zap.String(logFieldErrorConstant, rootError.Error()))
	}

	request, validationError := action.ValidateInputs(inputs, workspaceRoot)
	if validationError != nil {
		return reportFailure(reporter, validationError)
	}

	workspaceConfiguration := workspace.Configuration{Root: workspaceRoot, ManifestFileName: configuration.Workspace.Manifest}
	runnerDependencies := action.RunnerDependencies{Logger: logger, Reporter: reporter}

	switch request.Mode {
	case action.ModePublish:
		publishDecider, resolveError := builder.resolveServiceResolver().ResolvePublishDecider(logger, configuration, workspaceConfiguration)
		if resolveError != nil {
			return reportFailure(reporter, resolveError)
		}
		runnerDependencies.PublishDecider = publishDecider
	case action.ModeVersion:
		versionAuditor, resolveError := builder.resolveServiceResolver().ResolveVersionAuditor(logger, configuration, workspaceConfiguration)
		if resolveError != nil {
			return reportFailure(reporter, resolveError)
		}
		runnerDependencies.VersionAuditor = versionAuditor
	}

	runner, runnerError := action.NewRunner(runnerDependencies)
	if runnerError != nil {
		return runnerError
	}

	return runner.Run(command.Context(), request)
}

func reportFailure(reporter action.Reporter, failure error) error {
	if reportError := reporter.Fail(failure.Error()); reportError != nil {
		return multierr.Append(failure, reportError)
	}
	return failure
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	return configuration.Sanitize()
}

func (builder *CommandBuilder) resolveServiceResolver() ServiceResolver {
	if builder.ServiceResolver != nil {
		return builder.ServiceResolver
	}
	return &DefaultServiceResolver{EnvironmentLookup: registry.EnvironmentLookup(builder.resolveEnvironmentLookup())}
}

func (builder *CommandBuilder) resolveEnvironmentLookup() EnvironmentLookup {
	if builder.EnvironmentLookup != nil {
		return builder.EnvironmentLookup
	}
	return os.LookupEnv
}
