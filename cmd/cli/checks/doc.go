// Package checks wires the publish, version, and action commands to the
// package check services.
package checks
