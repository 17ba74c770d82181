// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with logging, lifecycle observers, and an
// optional per-command timeout. OSCommandRunner is the os/exec backed runner used
// to call git when inspecting and repairing checkouts.
package execshell
