// Package audit records applied refactorings to a compressed append-only
// log. Each entry is one JSON line inside a zstd frame; reopening the log
// appends a new frame, which decoders treat as a continuation of the stream.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Entry is one applied refactoring.
type Entry struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Tool        string    `json:"tool"`
	Target      string    `json:"target,omitempty"`
	TierUsed    string    `json:"tierUsed,omitempty"`
	ChangeCount int       `json:"changeCount"`
	Succeeded   bool      `json:"succeeded"`
	BatchID     string    `json:"batchId,omitempty"`
}

// Log is an append-only audit log. The zero value is disabled; use Open.
type Log struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
}

// Open opens or creates the log at path for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Log{f: f, enc: enc}, nil
}

// Disabled returns a log that silently drops entries.
func Disabled() *Log {
	return &Log{}
}

// Record appends one entry. ID and Time are assigned when empty.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enc == nil {
		return nil
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.enc.Write(line); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// Close flushes the compressed stream and closes the file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enc == nil {
		return nil
	}
	err := l.enc.Close()
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.enc = nil
	l.f = nil
	return err
}

// Read decodes every entry in the log at path, oldest first.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	defer dec.Close()

	var entries []Entry
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}
