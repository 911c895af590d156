package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public npm registry.
	DefaultBaseURL = "https://registry.npmjs.org/"
	// DefaultMaxAttempts bounds the number of requests issued per lookup.
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the fixed pause between attempts.
	DefaultRetryDelay = 3 * time.Second
	// DefaultMaxResponseBytes caps the registry document read per attempt.
	DefaultMaxResponseBytes int64 = 16 << 20

	urlPathSeparatorConstant             = "/"
	latestDistTagConstant                = "latest"
	acceptHeaderNameConstant             = "Accept"
	acceptHeaderValueConstant            = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"
	authorizationHeaderNameConstant      = "Authorization"
	bearerTokenTemplateConstant          = "Bearer %s"
	packageNameRequiredMessageConstant   = "package name must be provided"
	loggerMissingMessageConstant         = "registry client logger not configured"
	retriesExhaustedMessageConstant      = "could not get remote version: max tries exceeded"
	retriesExhaustedTemplateConstant     = "could not get remote version of %s after %d attempts: max tries exceeded%s"
	retriesExhaustedStatusSuffixTemplate = " (last status %d)"
	retriesExhaustedErrorSuffixTemplate  = " (last error: %v)"
	requestCreationErrorTemplateConstant = "unable to build registry request for %s: %w"
	responseTooLargeMessageConstant      = "registry response exceeds size limit"
	responseTooLargeTemplateConstant     = "%w: %s returned more than %d bytes"
	retryingMessageConstant              = "registry request failed; retrying"
	malformedResponseMessageConstant     = "registry response lacks dist-tags.latest; treating package as unpublished"
	notFoundMessageConstant              = "package not found in registry"
	resolvedMessageConstant              = "resolved remote version"
	logFieldPackageConstant              = "package"
	logFieldURLConstant                  = "url"
	logFieldAttemptConstant              = "attempt"
	logFieldMaxAttemptsConstant          = "max_attempts"
	logFieldStatusConstant               = "status"
	logFieldDelayConstant                = "retry_delay"
	logFieldResponseConstant             = "response"
	logFieldVersionConstant              = "version"
)

var (
	// ErrPackageNameRequired indicates an empty package name.
	ErrPackageNameRequired = errors.New(packageNameRequiredMessageConstant)
	// ErrLoggerNotConfigured indicates the client was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)
	// ErrRetriesExhausted matches RetryExhaustedError values via errors.Is.
	ErrRetriesExhausted = errors.New(retriesExhaustedMessageConstant)
	// ErrResponseTooLarge indicates a registry document larger than the configured limit.
	ErrResponseTooLarge = errors.New(responseTooLargeMessageConstant)
)

// HTTPClient issues HTTP requests.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ServiceConfiguration controls registry access.
type ServiceConfiguration struct {
	BaseURL     string
	MaxAttempts int
	RetryDelay  time.Duration
	Token       string
	// MaxResponseBytes defaults to DefaultMaxResponseBytes when not positive.
	MaxResponseBytes int64
}

// RemoteVersion is the latest published version. Found is false for unpublished packages.
type RemoteVersion struct {
	Version string
	Found   bool
}

// RetryExhaustedError reports a lookup that failed on every permitted attempt.
type RetryExhaustedError struct {
	PackageName string
	Attempts    int
	LastStatus  int
	LastError   error
}

// Error describes the exhausted lookup.
func (exhaustedError *RetryExhaustedError) Error() string {
	suffix := ""
	switch {
	case exhaustedError.LastError != nil:
		suffix = fmt.Sprintf(retriesExhaustedErrorSuffixTemplate, exhaustedError.LastError)
	case exhaustedError.LastStatus != 0:
		suffix = fmt.Sprintf(retriesExhaustedStatusSuffixTemplate, exhaustedError.LastStatus)
	}
	return fmt.Sprintf(retriesExhaustedTemplateConstant, exhaustedError.PackageName, exhaustedError.Attempts, suffix)
}

// Is matches ErrRetriesExhausted.
func (exhaustedError *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// Unwrap exposes the last transport error, if any.
func (exhaustedError *RetryExhaustedError) Unwrap() error {
	return exhaustedError.LastError
}

// Client resolves the latest published version of packages.
type Client struct {
	logger      *zap.Logger
	httpClient  HTTPClient
	baseURL     string
	maxAttempts int
	retryDelay  time.Duration
	token       string
	maxBytes    int64
}

// NewClient constructs a Client, applying defaults for unset configuration values.
func NewClient(logger *zap.Logger, httpClient HTTPClient, configuration ServiceConfiguration) (*Client, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := strings.TrimSpace(configuration.BaseURL)
	if len(baseURL) == 0 {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, urlPathSeparatorConstant) {
		baseURL += urlPathSeparatorConstant
	}

	maxAttempts := configuration.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	retryDelay := configuration.RetryDelay
	if retryDelay < 0 {
		retryDelay = DefaultRetryDelay
	}

	maxResponseBytes := configuration.MaxResponseBytes
	if maxResponseBytes <= 0 {
		maxResponseBytes = DefaultMaxResponseBytes
	}

	return &Client{
		logger:      logger,
		httpClient:  httpClient,
		baseURL:     baseURL,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		token:       strings.TrimSpace(configuration.Token),
		maxBytes:    maxResponseBytes,
	}, nil
}

type fetchOutcome struct {
	remoteVersion RemoteVersion
	statusCode    int
	transportErr  error
	retryable     bool
}

// GetRemoteVersion returns the dist-tags.latest version of the named package.
func (client *Client) GetRemoteVersion(executionContext context.Context, packageName string) (RemoteVersion, error) {
	trimmedName := strings.TrimSpace(packageName)
	if len(trimmedName) == 0 {
		return RemoteVersion{}, ErrPackageNameRequired
	}

	requestURL := client.baseURL + trimmedName
	exhaustedError := &RetryExhaustedError{PackageName: trimmedName}

	for attempt := 1; attempt <= client.maxAttempts; attempt++ {
		outcome, fetchError := client.fetch(executionContext, trimmedName, requestURL)
		if fetchError != nil {
			return RemoteVersion{}, fetchError
		}
		if !outcome.retryable {
			return outcome.remoteVersion, nil
		}

		exhaustedError.Attempts = attempt
		exhaustedError.LastStatus = outcome.statusCode
		exhaustedError.LastError = outcome.transportErr

		if attempt == client.maxAttempts {
			break
		}

		client.logger.Warn(
			retryingMessageConstant,
			zap.String(logFieldPackageConstant, trimmedName),
			zap.Int(logFieldAttemptConstant, attempt),
			zap.Int(logFieldMaxAttemptsConstant, client.maxAttempts),
			zap.Int(logFieldStatusConstant, outcome.statusCode),
			zap.Duration(logFieldDelayConstant, client.retryDelay),
			zap.NamedError(logFieldResponseConstant, outcome.transportErr),
		)

		if waitError := waitForRetry(executionContext, client.retryDelay); waitError != nil {
			return RemoteVersion{}, waitError
		}
	}

	return RemoteVersion{}, exhaustedError
}

func (client *Client) fetch(executionContext context.Context, packageName string, requestURL string) (fetchOutcome, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return fetchOutcome{}, fmt.Errorf(requestCreationErrorTemplateConstant, packageName, requestError)
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	if len(client.token) > 0 {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, client.token))
	}

	response, transportError := client.httpClient.Do(request)
	if transportError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return fetchOutcome{}, contextError
		}
		return fetchOutcome{transportErr: transportError, retryable: true}, nil
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		client.logger.Info(notFoundMessageConstant, zap.String(logFieldPackageConstant, packageName), zap.String(logFieldURLConstant, requestURL))
		return fetchOutcome{statusCode: response.StatusCode}, nil
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, response.Body)
		return fetchOutcome{statusCode: response.StatusCode, retryable: true}, nil
	}

	body, readError := io.ReadAll(io.LimitReader(response.Body, client.maxBytes+1))
	if readError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return fetchOutcome{}, contextError
		}
		return fetchOutcome{statusCode: response.StatusCode, transportErr: readError, retryable: true}, nil
	}
	if int64(len(body)) > client.maxBytes {
		return fetchOutcome{}, fmt.Errorf(responseTooLargeTemplateConstant, ErrResponseTooLarge, requestURL, client.maxBytes)
	}

	latestVersion, extracted := extractLatestVersion(body)
	if !extracted {
		client.logger.Warn(
			malformedResponseMessageConstant,
			zap.String(logFieldPackageConstant, packageName),
			zap.Int(logFieldStatusConstant, response.StatusCode),
			zap.ByteString(logFieldResponseConstant, body),
		)
		return fetchOutcome{statusCode: response.StatusCode}, nil
	}

	client.logger.Debug(resolvedMessageConstant, zap.String(logFieldPackageConstant, packageName), zap.String(logFieldVersionConstant, latestVersion))
	return fetchOutcome{statusCode: response.StatusCode, remoteVersion: RemoteVersion{Version: latestVersion, Found: true}}, nil
}

func extractLatestVersion(body []byte) (string, bool) {
	var document struct {
		DistTags map[string]any `json:"dist-tags"`
	}
	if decodeError := json.Unmarshal(body, &document); decodeError != nil {
		return "", false
	}
	latestVersion, isString := document.DistTags[latestDistTagConstant].(string)
	if !isString || len(strings.TrimSpace(latestVersion)) == 0 {
		return "", false
	}
	return strings.TrimSpace(latestVersion), true
}

func waitForRetry(executionContext context.Context, delay time.Duration) error {
	if delay <= 0 {
		return executionContext.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
