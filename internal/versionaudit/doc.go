// Package versionaudit verifies that every package folder changed relative to a
// target branch also bumped its manifest version.
package versionaudit
