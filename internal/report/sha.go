package report

import (
	"context"
	"fmt"
	"io"

	"github.com/temirov/gitm/internal/snapshot"
)

// SHAEmitter prints one "<sha>  <path>" line per checkout as it is emitted.
type SHAEmitter struct {
	writer io.Writer
}

// NewSHAEmitter constructs a SHAEmitter writing to writer.
func NewSHAEmitter(writer io.Writer) *SHAEmitter {
	return &SHAEmitter{writer: writer}
}

// Emit prints the commit identifier padded to the full hash width followed by the path.
func (emitter *SHAEmitter) Emit(record Record) error {
	_, writeError := fmt.Fprintf(emitter.writer, "%-40s  %s\n", record.Identity.CommitID, record.Identity.Path)
	return writeError
}

// Finish does nothing.
func (emitter *SHAEmitter) Finish(context.Context, *snapshot.Baseline) error {
	return nil
}
