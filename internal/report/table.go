package report

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/temirov/gitm/internal/repos/shared"
	"github.com/temirov/gitm/internal/snapshot"
)

const (
	truncatedWidthConstant = 16
	ellipsisConstant       = "…"
	columnPaddingConstant  = 1
)

// TableColumns lists the table report columns in rendering order.
var TableColumns = []string{"dir", "ago", "count", "hash", "msg", "branch", "remote", "url", "linked", "state"}

// TableEmitter renders a borderless, left aligned table once the run finishes.
type TableEmitter struct {
	writer io.Writer
	clock  shared.Clock
	rows   [][]string
}

// NewTableEmitter constructs a TableEmitter writing to writer.
func NewTableEmitter(writer io.Writer, clock shared.Clock) *TableEmitter {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &TableEmitter{writer: writer, clock: clock}
}

// Emit buffers one row.
func (emitter *TableEmitter) Emit(record Record) error {
	identity := record.Identity
	emitter.rows = append(emitter.rows, []string{
		identity.Path,
		formatAge(identity.CommitTime, emitter.clock.Now()),
		strconv.Itoa(identity.CommitCount),
		identity.ShortID,
		truncate(identity.CommitMessageSummary),
		truncate(identity.Branch),
		identity.RemoteName,
		identity.RemoteURL,
		identity.LinkedFrom,
		string(record.State),
	})
	return nil
}

// Finish writes the buffered rows, one line per checkout. Nothing is written when no
// checkout was emitted.
func (emitter *TableEmitter) Finish(_ context.Context, _ *snapshot.Baseline) error {
	if len(emitter.rows) == 0 {
		return nil
	}
	columnWidths := make([]int, len(TableColumns))
	for _, row := range emitter.rows {
		for columnIndex, cell := range row {
			columnWidths[columnIndex] = max(columnWidths[columnIndex], ansi.StringWidth(cell))
		}
	}
	columnStyles := make([]lipgloss.Style, len(columnWidths))
	for columnIndex, columnWidth := range columnWidths {
		columnStyles[columnIndex] = lipgloss.NewStyle().Width(columnWidth + columnPaddingConstant)
	}

	var builder strings.Builder
	renderedCells := make([]string, len(columnStyles))
	for _, row := range emitter.rows {
		for columnIndex, cell := range row {
			renderedCells[columnIndex] = columnStyles[columnIndex].Render(cell)
		}
		builder.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, renderedCells...), " "))
		builder.WriteString("\n")
	}
	_, writeError := io.WriteString(emitter.writer, builder.String())
	return writeError
}

func truncate(value string) string {
	return ansi.Truncate(value, truncatedWidthConstant, ellipsisConstant)
}

func formatAge(commitTime time.Time, now time.Time) string {
	if commitTime.IsZero() {
		return ""
	}
	return strings.TrimSpace(humanize.RelTime(commitTime, now, "", ""))
}
