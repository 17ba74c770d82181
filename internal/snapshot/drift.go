package snapshot

import (
	"fmt"
	"strings"
)

// DriftState names the relationship between a live checkout and its recorded identity.
type DriftState string

// Drift states assigned by the reconciler.
const (
	DriftStateNone         DriftState = ""
	DriftStateAbsent       DriftState = "absent"
	DriftStateDifferent    DriftState = "different"
	DriftStateSame         DriftState = "same"
	DriftStateSameDetached DriftState = "same-detached"
	DriftStateRedundant    DriftState = "redundant"
	DriftStateUndesired    DriftState = "undesired"
	DriftStateSynced       DriftState = "synced"
	DriftStateSyncedSame   DriftState = "synced-same"
	DriftStateImported     DriftState = "imported"
	DriftStateImportedSame DriftState = "imported-same"
)

const (
	convergedSuffixConstant           = "-same"
	legacySeparatorConstant           = " "
	canonicalSeparatorConstant        = "-"
	unknownDriftStateTemplateConstant = "unknown drift state %q"
)

var knownDriftStates = map[DriftState]struct{}{
	DriftStateAbsent:       {},
	DriftStateDifferent:    {},
	DriftStateSame:         {},
	DriftStateSameDetached: {},
	DriftStateRedundant:    {},
	DriftStateUndesired:    {},
	DriftStateSynced:       {},
	DriftStateSyncedSame:   {},
	DriftStateImported:     {},
	DriftStateImportedSame: {},
}

// ParseDriftState accepts the canonical hyphenated spelling and the older space separated one.
func ParseDriftState(value string) (DriftState, error) {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return DriftStateNone, nil
	}
	candidate := DriftState(strings.ReplaceAll(strings.ToLower(trimmedValue), legacySeparatorConstant, canonicalSeparatorConstant))
	if _, known := knownDriftStates[candidate]; !known {
		return DriftStateNone, fmt.Errorf(unknownDriftStateTemplateConstant, value)
	}
	return candidate, nil
}

// Converged returns the "-same" qualified form of a repair state.
func (state DriftState) Converged() DriftState {
	if strings.HasSuffix(string(state), convergedSuffixConstant) {
		return state
	}
	return state + convergedSuffixConstant
}

// RequiresRepair reports whether the repair step acts on this state.
func (state DriftState) RequiresRepair() bool {
	return state == DriftStateAbsent || state == DriftStateDifferent
}

// RepairVerb selects the label applied to repaired checkouts.
type RepairVerb string

// Supported repair verbs.
const (
	RepairVerbSync   RepairVerb = "sync"
	RepairVerbImport RepairVerb = "import"
)

// UnlistedLabel selects the label applied to checkouts missing from the baseline.
type UnlistedLabel string

// Supported labels for checkouts found on disk but absent from the baseline.
const (
	UnlistedLabelUndesired UnlistedLabel = "undesired"
	UnlistedLabelRedundant UnlistedLabel = "redundant"
)

// Vocabulary chooses the labels for the two mode-dependent outcomes.
type Vocabulary struct {
	Repair   RepairVerb
	Unlisted UnlistedLabel
}

// DefaultVocabulary labels repairs as synced and unlisted checkouts as undesired.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Repair: RepairVerbSync, Unlisted: UnlistedLabelUndesired}
}

// RepairedState returns the state recorded for a repaired checkout.
func (vocabulary Vocabulary) RepairedState(converged bool) DriftState {
	repairedState := DriftStateSynced
	if vocabulary.Repair == RepairVerbImport {
		repairedState = DriftStateImported
	}
	if converged {
		return repairedState.Converged()
	}
	return repairedState
}

// UnlistedState returns the state recorded for a checkout absent from the baseline.
func (vocabulary Vocabulary) UnlistedState() DriftState {
	if vocabulary.Unlisted == UnlistedLabelRedundant {
		return DriftStateRedundant
	}
	return DriftStateUndesired
}
