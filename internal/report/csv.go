package report

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/temirov/gitm/internal/baseline"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	standaloneLabelConstant = "standalone"
	localLabelConstant      = "local"
)

// CSVEmitter writes one comma separated line per checkout:
// path, datetime, count, sha, msg, relationship, remote.
type CSVEmitter struct {
	writer *csv.Writer
}

// NewCSVEmitter constructs a CSVEmitter writing to writer.
func NewCSVEmitter(writer io.Writer) *CSVEmitter {
	return &CSVEmitter{writer: csv.NewWriter(writer)}
}

// Emit writes the line for one checkout.
func (emitter *CSVEmitter) Emit(record Record) error {
	identity := record.Identity
	var datetime string
	if !identity.CommitTime.IsZero() {
		datetime = identity.CommitTime.Format(baseline.DatetimeLayout)
	}
	return emitter.writer.Write([]string{
		identity.Path,
		datetime,
		strconv.Itoa(identity.CommitCount),
		identity.CommitID,
		identity.CommitMessageSummary,
		relationshipLabel(identity),
		remoteLabel(identity),
	})
}

// Finish flushes buffered lines.
func (emitter *CSVEmitter) Finish(context.Context, *snapshot.Baseline) error {
	emitter.writer.Flush()
	return emitter.writer.Error()
}

func relationshipLabel(identity snapshot.RepoIdentity) string {
	switch {
	case len(identity.WorktreeRoot) > 0:
		return identity.WorktreeRoot
	case len(identity.LinkedFrom) > 0:
		return identity.LinkedFrom
	default:
		return standaloneLabelConstant
	}
}

func remoteLabel(identity snapshot.RepoIdentity) string {
	if !identity.HasRemote() {
		return localLabelConstant
	}
	return strings.TrimSpace(identity.RemoteName + " " + identity.RemoteURL)
}
