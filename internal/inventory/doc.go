// Package inventory orchestrates one run: baseline load, reconciliation, tree scan,
// report emission and the git pass-through mode.
package inventory
