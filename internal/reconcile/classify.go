package reconcile

import "github.com/temirov/gitm/internal/snapshot"

// Classify derives the drift state of a checkout. present reports whether the checkout
// exists on disk; live is ignored when it does not. Commit identity decides equality and a
// matching attached branch refines it to same.
func Classify(present bool, live snapshot.RepoIdentity, recorded snapshot.RepoIdentity) snapshot.DriftState {
	if !present {
		return snapshot.DriftStateAbsent
	}
	if live.CommitID != recorded.CommitID {
		return snapshot.DriftStateDifferent
	}
	if !live.Detached() && live.Branch == recorded.Branch {
		return snapshot.DriftStateSame
	}
	return snapshot.DriftStateSameDetached
}
