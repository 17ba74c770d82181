// Package snapshot defines the checkout identity, drift vocabulary, and baseline mapping
// shared by the inspector, reconciler, and report emitters.
package snapshot
