package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultFileName is the manifest file consulted inside each package folder.
	DefaultFileName = "package.json"

	nameFieldConstant                   = "name"
	versionFieldConstant                = "version"
	parseErrorTemplateConstant          = "invalid manifest %s: %s"
	parseErrorWithCauseTemplateConstant = "invalid manifest %s: %s: %v"
	missingFieldTemplateConstant        = "missing required string field %q"
	readErrorTemplateConstant           = "unable to read manifest %s: %w"
	decodeErrorReasonConstant           = "malformed JSON"
	notAnObjectReasonConstant           = "expected a JSON object"
	wrongFieldTypeTemplateConstant      = "field %q must be a string"
)

// PackageDescriptor identifies a package and the version recorded in its manifest.
type PackageDescriptor struct {
	Name    string
	Version string
}

// ParseError reports a manifest that is not valid JSON or lacks a required field.
type ParseError struct {
	Source string
	Reason string
	Cause  error
}

// Error describes the manifest problem.
func (parseError ParseError) Error() string {
	if parseError.Cause != nil {
		return fmt.Sprintf(parseErrorWithCauseTemplateConstant, parseError.Source, parseError.Reason, parseError.Cause)
	}
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.Source, parseError.Reason)
}

// Unwrap exposes the decoding failure, when there is one.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// Reader loads manifests from the filesystem.
type Reader struct {
	fileReader FileReader
}

// NewReader constructs a Reader. A nil fileReader falls back to os.ReadFile.
func NewReader(fileReader FileReader) *Reader {
	if fileReader == nil {
		fileReader = os.ReadFile
	}
	return &Reader{fileReader: fileReader}
}

// ReadFile reads and validates the manifest stored at path.
func (reader *Reader) ReadFile(path string) (PackageDescriptor, error) {
	contents, readError := reader.fileReader(path)
	if readError != nil {
		return PackageDescriptor{}, fmt.Errorf(readErrorTemplateConstant, path, readError)
	}
	return Parse(contents, path)
}

// Parse decodes manifest JSON and validates the name and version fields. Source labels errors.
func Parse(contents []byte, source string) (PackageDescriptor, error) {
	var document map[string]json.RawMessage
	if decodeError := json.Unmarshal(contents, &document); decodeError != nil {
		return PackageDescriptor{}, ParseError{Source: source, Reason: decodeErrorReasonConstant, Cause: decodeError}
	}
	if document == nil {
		return PackageDescriptor{}, ParseError{Source: source, Reason: notAnObjectReasonConstant}
	}

	name, nameError := requiredString(document, nameFieldConstant, source)
	if nameError != nil {
		return PackageDescriptor{}, nameError
	}
	version, versionError := requiredString(document, versionFieldConstant, source)
	if versionError != nil {
		return PackageDescriptor{}, versionError
	}

	return PackageDescriptor{Name: name, Version: version}, nil
}

func requiredString(document map[string]json.RawMessage, fieldName string, source string) (string, error) {
	rawValue, present := document[fieldName]
	if !present {
		return "", ParseError{Source: source, Reason: fmt.Sprintf(missingFieldTemplateConstant, fieldName)}
	}

	var value string
	if decodeError := json.Unmarshal(rawValue, &value); decodeError != nil {
		return "", ParseError{Source: source, Reason: fmt.Sprintf(wrongFieldTypeTemplateConstant, fieldName)}
	}
	if len(strings.TrimSpace(value)) == 0 {
		return "", ParseError{Source: source, Reason: fmt.Sprintf(missingFieldTemplateConstant, fieldName)}
	}
	return strings.TrimSpace(value), nil
}
