// Package cli constructs the gitm command-line interface, wiring the Cobra
// root command, configuration loader, and structured logging to the inventory
// service. Run executes one invocation and returns the process exit code.
package cli
