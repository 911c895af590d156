// Package versioning parses and orders MAJOR.MINOR.PATCH semantic versions as
// they appear in package manifests and registry responses.
package versioning
