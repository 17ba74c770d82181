package snapshot

import "sort"

// Entry pairs a recorded identity with the drift state observed for it.
type Entry struct {
	Identity RepoIdentity
	State    DriftState
}

// Baseline is a mapping from checkout path to its recorded entry.
type Baseline struct {
	entries map[string]Entry
}

// NewBaseline constructs an empty baseline.
func NewBaseline() *Baseline {
	return &Baseline{entries: make(map[string]Entry)}
}

// Set records the entry under its normalized path, replacing any previous entry.
func (baseline *Baseline) Set(checkoutPath string, entry Entry) {
	normalizedPath := NormalizePath(checkoutPath)
	entry.Identity.Path = normalizedPath
	baseline.entries[normalizedPath] = entry
}

// Lookup retrieves the entry recorded for the path.
func (baseline *Baseline) Lookup(checkoutPath string) (Entry, bool) {
	if baseline == nil {
		return Entry{}, false
	}
	entry, found := baseline.entries[NormalizePath(checkoutPath)]
	return entry, found
}

// Paths returns the recorded paths in lexical order.
func (baseline *Baseline) Paths() []string {
	if baseline == nil {
		return nil
	}
	paths := make([]string, 0, len(baseline.entries))
	for checkoutPath := range baseline.entries {
		paths = append(paths, checkoutPath)
	}
	sort.Strings(paths)
	return paths
}

// Len reports the number of recorded entries.
func (baseline *Baseline) Len() int {
	if baseline == nil {
		return 0
	}
	return len(baseline.entries)
}
