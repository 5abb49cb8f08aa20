// SPDX-License-Identifier: Apache-2.0

package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	jsonlib "github.com/lakesift/lakesift/internal/json"
	"github.com/lakesift/lakesift/pkg/manifest"
)

// Store is a JSONL-backed manifest log. One entry per line, appended and
// never rewritten; the latest entry for a batch is the last matching line.
type Store struct {
	path string

	// guards the append path: concurrent appends for the same batch could
	// otherwise race and produce divergent latest reads
	mutex sync.Mutex
	file  *os.File
}

func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening manifest log: %w", err)
	}
	return &Store{path: path, file: f}, nil
}

func (s *Store) Append(ctx context.Context, entry *manifest.Entry) error {
	data, err := jsonlib.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling manifest entry: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to manifest log: %w", err)
	}
	return s.file.Sync()
}

func (s *Store) Latest(ctx context.Context, batchID string) (*manifest.Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening manifest log: %w", err)
	}
	defer f.Close()

	var latest *manifest.Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		entry := &manifest.Entry{}
		if err := jsonlib.Unmarshal(line, entry); err != nil {
			return nil, fmt.Errorf("unmarshaling manifest entry: %w", err)
		}
		if entry.BatchID == batchID {
			latest = entry
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scanning manifest log: %w", err)
	}
	return latest, nil
}

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.file.Close()
}
