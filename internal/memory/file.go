package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// recordFile is the YAML layout of a record file.
type recordFile struct {
	Records []Record `yaml:"records"`
}

// LoadRecords reads records from a YAML file of the form
//
//	records:
//	  - id: r1
//	    question: What's your email?
//	    answer: me@example.com
//	    category: contact
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	var f recordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse records %s: %w", path, err)
	}
	return f.Records, nil
}

// FileStore serves records loaded from a YAML file. Usage counts are kept
// in memory only.
type FileStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
}

// NewFileStore loads path into a FileStore. Records without an id get one.
func NewFileStore(path string) (*FileStore, error) {
	records, err := LoadRecords(path)
	if err != nil {
		return nil, err
	}
	return NewFileStoreFromRecords(records), nil
}

// NewFileStoreFromRecords wraps records in a FileStore.
func NewFileStoreFromRecords(records []Record) *FileStore {
	s := &FileStore{byID: make(map[string]int, len(records))}
	for _, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
		}
		if _, dup := s.byID[r.ID]; dup {
			continue
		}
		s.byID[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	return s
}

// List returns records by usage, then in file order.
func (s *FileStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Record(nil), s.records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UsageCount > out[j].UsageCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// IncrementUsage bumps the in-memory usage counter of id.
func (s *FileStore) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.records[i].UsageCount++
	s.records[i].LastUsed = time.Now().UTC()
	return nil
}
