package action

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// ShouldPublishOutputName names the output carrying the publish verdict.
	ShouldPublishOutputName = "should_publish"
	// OutputFileEnvironmentVariable names the file CI runners collect step outputs from.
	OutputFileEnvironmentVariable = "GITHUB_OUTPUT"

	outputFileLineTemplateConstant       = "%s=%s\n"
	errorCommandTemplateConstant         = "::error::%s\n"
	consoleOutputTemplateConstant        = "%s: %s\n"
	consoleFailureTemplateConstant       = "%s\n"
	outputFileOpenErrorTemplateConstant  = "unable to open output file %s: %w"
	outputFileWriteErrorTemplateConstant = "unable to write output file %s: %w"
	outputFilePermissionsConstant        = 0o644
	outputFileMissingMessageConstant     = OutputFileEnvironmentVariable + " not set in environment; step outputs cannot be recorded"
)

// ErrOutputFileNotConfigured indicates the runner did not provide a step output file.
var ErrOutputFileNotConfigured = errors.New(outputFileMissingMessageConstant)

var workflowCommandEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// Reporter publishes run outputs and failures to whoever invoked the run.
type Reporter interface {
	SetOutput(name string, value string) error
	Fail(message string) error
}

// WorkflowReporter speaks the CI workflow command protocol.
type WorkflowReporter struct {
	outputFilePath string
	writer         io.Writer
}

// NewWorkflowReporter appends outputs to outputFilePath and writes annotations to writer.
func NewWorkflowReporter(outputFilePath string, writer io.Writer) *WorkflowReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &WorkflowReporter{outputFilePath: strings.TrimSpace(outputFilePath), writer: writer}
}

// SetOutput records a step output.
func (reporter *WorkflowReporter) SetOutput(name string, value string) error {
	if len(reporter.outputFilePath) == 0 {
		return ErrOutputFileNotConfigured
	}

	outputFile, openError := os.OpenFile(reporter.outputFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, outputFilePermissionsConstant)
	if openError != nil {
		return fmt.Errorf(outputFileOpenErrorTemplateConstant, reporter.outputFilePath, openError)
	}
	defer outputFile.Close()

	if _, writeError := fmt.Fprintf(outputFile, outputFileLineTemplateConstant, name, value); writeError != nil {
		return fmt.Errorf(outputFileWriteErrorTemplateConstant, reporter.outputFilePath, writeError)
	}
	return nil
}

// Fail emits an error annotation; multi-line messages stay a single annotation.
func (reporter *WorkflowReporter) Fail(message string) error {
	_, writeError := fmt.Fprintf(reporter.writer, errorCommandTemplateConstant, workflowCommandEscaper.Replace(message))
	return writeError
}

// ConsoleReporter prints outputs and failures as plain text.
type ConsoleReporter struct {
	writer io.Writer
}

// NewConsoleReporter constructs a ConsoleReporter writing to writer.
func NewConsoleReporter(writer io.Writer) *ConsoleReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &ConsoleReporter{writer: writer}
}

// SetOutput prints "name: value".
func (reporter *ConsoleReporter) SetOutput(name string, value string) error {
	_, writeError := fmt.Fprintf(reporter.writer, consoleOutputTemplateConstant, name, value)
	return writeError
}

// Fail prints the message as is.
func (reporter *ConsoleReporter) Fail(message string) error {
	_, writeError := fmt.Fprintf(reporter.writer, consoleFailureTemplateConstant, message)
	return writeError
}
