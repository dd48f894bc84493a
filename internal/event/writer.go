// Package event writes the tab-separated experiment data file. Every
// line is flushed synchronously: losing experiment data is worse than
// the small timing cost, which callers accept as a known trade-off and
// avoid during critical windows.
package event

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Metadata is recorded in the data file header line.
type Metadata struct {
	SessionID   string `json:"session_id"`
	Experiment  string `json:"exp_name"`
	Participant string `json:"participant"`
	Session     string `json:"session"`
	Date        string `json:"date"`
}

// Sink accepts timestamped event lines.
type Sink interface {
	Append(eventType, value string, ts time.Duration) error
	Close() error
}

// Writer appends tab-separated event lines to a data file, syncing
// after every line.
type Writer struct {
	file *os.File
	path string
}

// Open creates the data file, writes the metadata header line and the
// column row. The directory is created if needed.
func Open(path string, meta Metadata) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}

	header, err := json.Marshal(meta)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "# %s\n", header); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := fmt.Fprintln(f, "timestamp\tevent_type\tvalue"); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{file: f, path: path}, nil
}

// Append writes one event line and flushes it to disk.
func (w *Writer) Append(eventType, value string, ts time.Duration) error {
	if w.file == nil {
		return fmt.Errorf("data file is closed")
	}
	line := fmt.Sprintf("%.6f\t%s\t%s\n", ts.Seconds(), sanitize(eventType), sanitize(value))
	if _, err := w.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to write data line: %w", err)
	}
	return w.file.Sync()
}

// Path returns the data file location.
func (w *Writer) Path() string { return w.path }

// Close closes the data file.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Nop discards every event line; used when no output directory is
// configured (testing only).
type Nop struct{}

// Append discards the line.
func (Nop) Append(eventType, value string, ts time.Duration) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// sanitize keeps the TSV format intact: tabs and newlines inside a
// field would corrupt downstream parsing.
func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\t', '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
