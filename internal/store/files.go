// ABOUTME: File-backed example store with backup-before-write and bounded retention
// ABOUTME: Serializes mutations per domain key; distinct domains proceed in parallel

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// DefaultMaxExamples is the retention bound applied when none is configured.
const DefaultMaxExamples = 10

// FileStore owns the authoritative per-domain example collections, persisted
// as human-indented JSON arrays. Every mutation snapshots the current file
// through the Catalog before committing the new collection.
type FileStore struct {
	dataDir     string
	maxExamples int
	catalog     *Catalog
	logger      *slog.Logger

	mu    sync.Mutex // guards locks
	locks map[DomainKey]*sync.Mutex
}

// NewFileStore creates a file store rooted at dataDir with the given
// retention bound. A bound <= 0 falls back to DefaultMaxExamples.
func NewFileStore(dataDir string, maxExamples int, catalog *Catalog) *FileStore {
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}
	return &FileStore{
		dataDir:     dataDir,
		maxExamples: maxExamples,
		catalog:     catalog,
		logger:      slog.Default().With("component", "store"),
		locks:       make(map[DomainKey]*sync.Mutex),
	}
}

// domainLock returns the mutex serializing writers for one domain key.
func (s *FileStore) domainLock(domain DomainKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[domain]
	if !ok {
		l = &sync.Mutex{}
		s.locks[domain] = l
	}
	return l
}

// Load reads the domain's persisted collection. A file that was never
// written loads as an empty collection; an existing file that cannot be
// decoded is reported as ErrCorrupt, never silently treated as empty.
func (s *FileStore) Load(domain DomainKey) ([]Example, error) {
	if !domain.Valid() {
		return nil, ErrInvalidDomain
	}
	return s.load(domain)
}

// load reads without validating the domain; callers hold the domain lock
// or have already validated at the boundary.
func (s *FileStore) load(domain DomainKey) ([]Example, error) {
	path := collectionPath(s.dataDir, domain)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Example{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", path, err)
	}

	var examples []Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return examples, nil
}

// Append snapshots the current state, appends the example, trims the
// collection to the retention bound (oldest entries dropped first), and
// persists. A failed backup aborts the mutation.
func (s *FileStore) Append(ctx context.Context, domain DomainKey, ex Example) error {
	if !domain.Valid() {
		return ErrInvalidDomain
	}

	lock := s.domainLock(domain)
	lock.Lock()
	defer lock.Unlock()

	examples, err := s.load(domain)
	if err != nil {
		return err
	}

	examples = append(examples, ex)
	if err := s.save(domain, examples); err != nil {
		return err
	}

	s.logger.Info("example appended",
		"domain", domain,
		"example_id", ex.ID,
		"count", min(len(examples), s.maxExamples),
	)
	return nil
}

// UpdateCorrection rewrites the corrected formula of the first example whose
// id matches, scanning in collection order. Duplicate ids are tolerated and
// never deduplicated; only the first match is patched. The lookup happens
// before any snapshot, so a NotFound leaves the backup directory untouched.
func (s *FileStore) UpdateCorrection(ctx context.Context, domain DomainKey, exampleID, corrected string) error {
	if !domain.Valid() {
		return ErrInvalidDomain
	}

	lock := s.domainLock(domain)
	lock.Lock()
	defer lock.Unlock()

	examples, err := s.load(domain)
	if err != nil {
		return err
	}

	idx := -1
	for i := range examples {
		if examples[i].ID == exampleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, exampleID, domain)
	}

	examples[idx].CorrectedDaxFormula = corrected
	if err := s.save(domain, examples); err != nil {
		return err
	}

	s.logger.Info("correction updated", "domain", domain, "example_id", exampleID)
	return nil
}

// Reset snapshots the current state, then removes the domain's collection
// file entirely. A subsequent Load returns an empty collection. Resetting a
// never-written domain succeeds.
func (s *FileStore) Reset(ctx context.Context, domain DomainKey) error {
	if !domain.Valid() {
		return ErrInvalidDomain
	}

	lock := s.domainLock(domain)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.catalog.Snapshot(domain); err != nil {
		return fmt.Errorf("backing up before reset: %w", err)
	}

	path := collectionPath(s.dataDir, domain)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing collection %s: %w", path, err)
	}

	s.logger.Info("collection reset", "domain", domain)
	return nil
}

// save backs up the existing file, trims to the retention bound keeping the
// newest suffix, and writes the indented JSON array. Backups committed here
// remain on disk even if the write that follows fails.
func (s *FileStore) save(domain DomainKey, examples []Example) error {
	if _, err := s.catalog.Snapshot(domain); err != nil {
		return fmt.Errorf("backing up before write: %w", err)
	}

	if len(examples) > s.maxExamples {
		examples = examples[len(examples)-s.maxExamples:]
	}

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	path := collectionPath(s.dataDir, domain)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing collection %s: %w", path, err)
	}
	return nil
}
