// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes the summary as one indented JSON document on Close.
type JSONReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu      sync.Mutex
	summary *Summary
}

// NewJSONReporter takes ownership of writer.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{
		writer: writer,
		logger: observability.GetLogger().Named("json_reporter"),
	}
}

// Write keeps the summary for Close. A later Write replaces an earlier one.
func (r *JSONReporter) Write(summary *Summary) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = summary
	return nil
}

// Close encodes the summary and closes the writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var encodeErr error
	if r.summary != nil {
		encoder := json.NewEncoder(r.writer)
		encoder.SetIndent("", "  ")
		encodeErr = encoder.Encode(r.summary.document())
	}
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode run report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode run report: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}
