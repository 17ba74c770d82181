// Package ui renders git command lifecycle events as concise console messages for
// verbose runs, while structured telemetry continues to flow through zap.
package ui
