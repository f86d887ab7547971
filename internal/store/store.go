// Package store handles the persisted JSON documents shared with the
// companion web process: the configuration+state document and the
// weather-status snapshot.
//
// The config document doubles as an inter-process mailbox: the control
// engine re-reads it while a zone is running to observe externally set
// control flags, and flushes every state transition straight back to
// disk so external monitors can follow progress. There is deliberately
// no locking; reads and writes are last-writer-wins.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/greenside-labs/irrigator/internal/model"
)

const DefaultPath = "irrigator.json"

// Store is a file-backed document store for the config document.
type Store struct {
	path string
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads and decodes the full document from disk. Every call hits
// the filesystem; callers must not cache the result across override
// polls.
func (s *Store) Load() (*model.Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", s.path, err)
	}
	return &doc, nil
}

// Save flushes the document back to disk immediately.
func (s *Store) Save(doc *model.Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}
