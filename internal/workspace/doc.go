// Package workspace describes the checked-out monorepo the checks run against:
// its root directory and where each package folder keeps its manifest.
package workspace
