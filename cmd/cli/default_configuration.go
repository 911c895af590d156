package cli

import (
	"bytes"
	_ "embed"
)

// defaultChecksConfiguration holds the logging, workspace, git remote, and npm registry
// defaults that pkgcheck applies before any config file or PKGCHECK_* variable.
//
//go:embed default_config.yaml
var defaultChecksConfiguration []byte

// EmbeddedDefaultConfiguration returns a private copy of pkgcheck's default config.yaml
// together with its viper configuration type.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultChecksConfiguration), configurationTypeConstant
}
