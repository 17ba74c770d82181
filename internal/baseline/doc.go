// Package baseline loads and persists the path to identity mapping recorded by earlier runs.
//
// Two serializations share one document shape, {"status": {"<path>": {...}}}: JSON and
// YAML. Saves to a file are written to a temporary sibling under an exclusive lock and
// renamed into place, so an interrupted run never leaves a partial baseline behind.
package baseline
