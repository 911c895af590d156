// Package manifest reads package manifests (package.json) and validates the
// name and version fields used for publish and version-bump decisions.
package manifest
