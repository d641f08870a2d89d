package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	contractx "github.com/tanpawarit/bankerai/agent/contract"
)

var _ contractx.Sink = (*FileSink)(nil)

// FileSink appends one JSON document per line to a file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Append(record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode log record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write log record: %w", err)
	}
	return f.Close()
}

type NopSink struct{}

func (NopSink) Append(any) error { return nil }
