package execshell

import "go.uber.org/zap"

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished and supplies the result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports unexpected failures prior to receiving an execution result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type loggingCommandEventObserver struct {
	logger    *zap.Logger
	formatter CommandMessageFormatter
}

func newLoggingCommandEventObserver(logger *zap.Logger, formatter CommandMessageFormatter) loggingCommandEventObserver {
	return loggingCommandEventObserver{logger: logger, formatter: formatter}
}

func (observer loggingCommandEventObserver) CommandStarted(command ShellCommand) {
	observer.logger.Debug(
		observer.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, command.CommandLine()),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)
}

func (observer loggingCommandEventObserver) CommandCompleted(command ShellCommand, result ExecutionResult) {
	if result.ExitCode == 0 {
		observer.logger.Debug(
			observer.formatter.BuildSuccessMessage(command),
			zap.String(logFieldCommandConstant, command.CommandLine()),
		)
		return
	}
	observer.logger.Warn(
		observer.formatter.BuildFailureMessage(command, result),
		zap.String(logFieldCommandConstant, command.CommandLine()),
		zap.Int(logFieldExitCodeConstant, result.ExitCode),
		zap.String(logFieldStandardErrorConstant, result.StandardError),
	)
}

func (observer loggingCommandEventObserver) CommandExecutionFailed(command ShellCommand, failure error) {
	observer.logger.Error(
		observer.formatter.BuildExecutionFailureMessage(command, failure),
		zap.String(logFieldCommandConstant, command.CommandLine()),
		zap.Error(failure),
	)
}
