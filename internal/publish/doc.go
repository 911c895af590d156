// Package publish decides whether a package folder carries a version newer than
// the one already published to the package registry.
package publish
