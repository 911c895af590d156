// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader, which layers embedded defaults, configuration
// files, and PKGCHECK_ environment variables through Viper, and LoggerFactory,
// which builds zap loggers writing to standard error.
package utils
