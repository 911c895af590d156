// Package gitrepo interrogates the workspace repository through git.
//
// Inspector reports whether a folder differs from a remote-tracking branch and
// reads file contents as they exist at the tip of that branch.
package gitrepo
