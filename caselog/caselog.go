// Package caselog archives completed reports: one JSONL history file plus
// an atomically rewritten latest.json snapshot.
package caselog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/theimaginaryfoundation/sleuth-o-bot/detective"
)

const (
	historyFile = "case_log.jsonl"
	latestFile  = "latest.json"
)

// Entry is one archived report row.
type Entry struct {
	ID        string                    `json:"id"`
	CreatedAt string                    `json:"created_at"`
	Demo      bool                      `json:"demo"`
	ElapsedMS int64                     `json:"elapsed_ms"`
	Report    detective.DetectiveReport `json:"report"`
}

// Store reads and writes the case log in one directory.
type Store struct {
	dir string
}

// NewStore ensures the directory exists and returns a store over it.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("NewStore: dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewStore: mkdir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append adds one entry to the history and rewrites latest.json. A missing
// ID or timestamp is filled in.
func (s *Store) Append(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	line, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("Append: marshal entry: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, historyFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("Append: open history: %w", err)
	}
	_, werr := f.Write(append(line, '\n'))
	cerr := f.Close()
	if werr != nil {
		return Entry{}, fmt.Errorf("Append: write history: %w", werr)
	}
	if cerr != nil {
		return Entry{}, fmt.Errorf("Append: close history: %w", cerr)
	}

	pretty, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("Append: marshal latest: %w", err)
	}
	if err := writeFileAtomicSameDir(filepath.Join(s.dir, latestFile), pretty, 0o644); err != nil {
		return Entry{}, fmt.Errorf("Append: write latest: %w", err)
	}
	return e, nil
}

// List returns every readable entry in append order. Corrupt lines are
// skipped, not fatal: a half-written tail must not lock out the history.
func (s *Store) List() ([]Entry, error) {
	f, err := os.Open(filepath.Join(s.dir, historyFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("List: open history: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if e.ID == "" {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("List: scan history: %w", err)
	}
	return entries, nil
}

// Latest returns the latest.json entry, reporting found=false when none has
// been written yet.
func (s *Store) Latest() (Entry, bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, latestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("Latest: read: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("Latest: unmarshal: %w", err)
	}
	return e, true, nil
}

func writeFileAtomicSameDir(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_latest_*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write([]byte("\n")); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
