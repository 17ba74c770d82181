// Package reconcile classifies a live checkout against its recorded identity and, when
// enabled, clones or checks out the checkout until it matches.
package reconcile
