package shared

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

const failureLineTemplateConstant = "%s %s: %s\n"

// Reporter emits per-checkout failures to an underlying sink.
type Reporter interface {
	ReportFailure(checkoutPath string, failure error)
}

type writerReporter struct {
	writer io.Writer
	label  *color.Color
}

// NewWriterReporter constructs a Reporter that writes "Error: <message>: <path>" lines to the writer.
func NewWriterReporter(writer io.Writer) Reporter {
	if writer == nil {
		writer = os.Stderr
	}
	return writerReporter{writer: writer, label: color.New(color.FgRed, color.Bold)}
}

func (reporter writerReporter) ReportFailure(checkoutPath string, failure error) {
	if failure == nil {
		return
	}
	fmt.Fprintf(reporter.writer, failureLineTemplateConstant, reporter.label.Sprint("Error:"), failure.Error(), checkoutPath)
}
