// Package usage keeps running statistics of matching runs in a JSON file
// next to the record store.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sweta-tw/superfill.ai/internal/logging"
)

const (
	fileName     = "usage.json"
	dataVersion  = "1.0"
	saveDebounce = 5 * time.Second
)

// Tracker records matching statistics and persists them.
type Tracker struct {
	mu        sync.Mutex
	data      UsageData
	filePath  string
	saveTimer *time.Timer
}

// NewTracker creates a tracker persisting to dir/usage.json. Existing data is
// loaded; a corrupt file is logged and replaced.
func NewTracker(dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dir, fileName),
		data:     UsageData{Version: dataVersion},
	}
	if err := t.Load(); err != nil {
		logging.StoreWarn("usage stats unreadable, starting fresh: %v", err)
		t.data = UsageData{Version: dataVersion}
	}
	t.data.Aggregate.ensureMaps()
	return t, nil
}

// Path returns the backing file.
func (t *Tracker) Path() string {
	return t.filePath
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &t.data); err != nil {
		return err
	}
	t.data.Aggregate.ensureMaps()
	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0644)
}

// Close cancels a pending autosave and writes the data.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.saveTimer != nil {
		t.saveTimer.Stop()
		t.saveTimer = nil
	}
	return t.saveLocked()
}

// TrackMatch records a matching call.
func (t *Tracker) TrackMatch(e MatchEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	agg := &t.data.Aggregate
	agg.Total.addMatch(e)
	update(agg.ByStrategy, e.Strategy, func(c *Counts) { c.addMatch(e) })
	update(agg.ByDay, day(e.Timestamp), func(c *Counts) { c.addMatch(e) })
	t.scheduleSaveLocked()
}

// TrackAccepted records n accepted suggestions produced by strategy.
func (t *Tracker) TrackAccepted(strategy string, n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	agg := &t.data.Aggregate
	agg.Total.Accepted += int64(n)
	update(agg.ByStrategy, strategy, func(c *Counts) { c.Accepted += int64(n) })
	update(agg.ByDay, day(time.Now()), func(c *Counts) { c.Accepted += int64(n) })
	t.scheduleSaveLocked()
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByStrategy = copyCounts(stats.ByStrategy)
	stats.ByDay = copyCounts(stats.ByDay)
	return stats
}

// scheduleSaveLocked debounces writes after a burst of events.
func (t *Tracker) scheduleSaveLocked() {
	if t.saveTimer != nil {
		return
	}
	t.saveTimer = time.AfterFunc(saveDebounce, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.saveTimer = nil
		if err := t.saveLocked(); err != nil {
			logging.StoreWarn("failed to save usage stats: %v", err)
		}
	})
}

func (s *AggregatedStats) ensureMaps() {
	if s.ByStrategy == nil {
		s.ByStrategy = make(map[string]Counts)
	}
	if s.ByDay == nil {
		s.ByDay = make(map[string]Counts)
	}
}

func update(m map[string]Counts, key string, fn func(*Counts)) {
	entry := m[key]
	fn(&entry)
	m[key] = entry
}

func copyCounts(src map[string]Counts) map[string]Counts {
	if src == nil {
		return nil
	}
	dst := make(map[string]Counts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func day(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}
