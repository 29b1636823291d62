// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
)

// Reporter writes a finished run summary to an output.
type Reporter interface {
	// Write renders the summary.
	Write(summary *Summary) error
	// Close finalizes the report and closes any underlying file.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// IsStdout reports whether outputPath names standard output.
func IsStdout(outputPath string) bool {
	return outputPath == "" || outputPath == "-" || outputPath == "stdout"
}

// New creates a reporter for format ("json" or "text") writing to outputPath.
func New(format, outputPath string) (Reporter, error) {
	switch format {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if IsStdout(outputPath) {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	if format == "json" {
		return NewJSONReporter(writer), nil
	}
	return NewTextReporter(writer), nil
}
