package snapshot

import (
	"path"
	"strings"
	"time"
)

// RepoIdentity captures what is known about one checkout at inspection time.
// Optional attributes are empty strings when absent.
type RepoIdentity struct {
	// Path is the checkout location relative to the scan root, slash separated.
	Path string
	// CommitID is the full hex identifier of HEAD; empty for a checkout without commits.
	CommitID string
	// ShortID is the abbreviated form of CommitID.
	ShortID string
	// CommitCount is the number of commits reachable from HEAD.
	CommitCount int
	// CommitTime is the committer timestamp of HEAD.
	CommitTime time.Time
	// CommitMessageSummary is the first line of the HEAD commit message.
	CommitMessageSummary string
	// Revision is the describe-style name of HEAD.
	Revision string
	// Branch is the checked-out branch; empty when HEAD is detached.
	Branch string
	// RemoteName is the first configured remote.
	RemoteName string
	// RemoteURL is the fetch URL of RemoteName.
	RemoteURL string
	// WorktreeRoot is the explicitly configured working-tree root.
	WorktreeRoot string
	// LinkedFrom locates the metadata store this checkout shares with another checkout.
	LinkedFrom string
}

// Detached reports whether HEAD does not point at a branch.
func (identity RepoIdentity) Detached() bool {
	return len(identity.Branch) == 0
}

// HasCommits reports whether the checkout has at least one commit.
func (identity RepoIdentity) HasCommits() bool {
	return len(identity.CommitID) > 0
}

// HasRemote reports whether a remote is configured.
func (identity RepoIdentity) HasRemote() bool {
	return len(identity.RemoteName) > 0
}

// IsStandaloneRemote reports whether the checkout has a remote and is neither linked nor
// bound to a separate working-tree root.
func (identity RepoIdentity) IsStandaloneRemote() bool {
	return identity.HasRemote() && len(identity.WorktreeRoot) == 0 && len(identity.LinkedFrom) == 0
}

// NormalizePath converts a checkout location into the slash separated form used as a baseline key.
func NormalizePath(location string) string {
	return path.Clean(strings.ReplaceAll(strings.TrimSpace(location), "\\", "/"))
}
