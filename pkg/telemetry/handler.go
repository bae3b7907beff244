// Package telemetry records catalog write activity. AuditHandler is a
// slog.Handler that forwards every record to the next handler and
// buffers warn-and-above catalog events into Parquet files for offline
// inspection, e.g. the hash-mismatch versioning trail.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// AuditRecord is a single catalog event for Parquet storage.
type AuditRecord struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	Level      string    `parquet:"level"`
	Message    string    `parquet:"message"`
	ArchiveID  int64     `parquet:"archive_id"`
	SourceFile string    `parquet:"source_file"`
	LineNumber int       `parquet:"line_number"`
	Attributes string    `parquet:"attributes"` // JSON string
}

// AuditHandler is a slog.Handler that writes catalog audit records to
// Parquet files.
type AuditHandler struct {
	next      slog.Handler
	outputDir string
	mu        sync.Mutex
	buffer    []AuditRecord
	batchSize int
}

// NewAuditHandler creates an AuditHandler writing under outputDir.
func NewAuditHandler(next slog.Handler, outputDir string) (*AuditHandler, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	h := &AuditHandler{
		next:      next,
		outputDir: outputDir,
		batchSize: 100,
		buffer:    make([]AuditRecord, 0, 100),
	}

	return h, nil
}

// Enabled implements slog.Handler
func (h *AuditHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *AuditHandler) Handle(ctx context.Context, r slog.Record) error {
	// Always pass to next handler first
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}

	// Only warnings and above reach the audit trail
	if r.Level < slog.LevelWarn {
		return nil
	}

	var archiveID int64
	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "archive_id" {
			archiveID = a.Value.Int64()
		}
		attrs[a.Key] = a.Value.Any()
		return true
	})

	attrsJSON, _ := json.Marshal(attrs)

	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()

	record := AuditRecord{
		ID:         uuid.New().String(),
		Timestamp:  r.Time.UTC(),
		Level:      r.Level.String(),
		Message:    r.Message,
		ArchiveID:  archiveID,
		SourceFile: f.File,
		LineNumber: f.Line,
		Attributes: string(attrsJSON),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.buffer = append(h.buffer, record)

	if len(h.buffer) >= h.batchSize {
		return h.flush()
	}

	return nil
}

// Flush writes any buffered records out immediately.
func (h *AuditHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flush()
}

// flush writes the current buffer to a new Parquet file.
// Caller must hold the lock.
func (h *AuditHandler) flush() error {
	if len(h.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("catalog_audit_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(h.outputDir, filename)

	if err := parquet.WriteFile(path, h.buffer); err != nil {
		return fmt.Errorf("failed to write audit parquet file: %w", err)
	}

	h.buffer = h.buffer[:0]
	return nil
}

// WithAttrs implements slog.Handler
func (h *AuditHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AuditHandler{
		next:      h.next.WithAttrs(attrs),
		outputDir: h.outputDir,
		batchSize: h.batchSize,
		buffer:    make([]AuditRecord, 0, h.batchSize),
	}
}

// WithGroup implements slog.Handler
func (h *AuditHandler) WithGroup(name string) slog.Handler {
	return &AuditHandler{
		next:      h.next.WithGroup(name),
		outputDir: h.outputDir,
		batchSize: h.batchSize,
		buffer:    make([]AuditRecord, 0, h.batchSize),
	}
}
