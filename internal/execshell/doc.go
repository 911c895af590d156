// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec behind the CommandRunner interface, logs command lifecycle
// events through ShellExecutor, and turns non-zero exit codes into
// CommandFailedError values that carry the exit code and captured output.
package execshell
