package usage

import "time"

// UsageData is the persisted layout of usage.json.
type UsageData struct {
	Version   string          `json:"version"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// MatchEvent describes one matching call.
type MatchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Strategy  string        `json:"strategy"`
	Fields    int           `json:"fields"`
	Records   int           `json:"records"`
	Matched   int           `json:"matched"`
	AutoFill  int           `json:"auto_fill"`
	Duration  time.Duration `json:"duration"`
}

// AggregatedStats holds counters broken down by strategy and by day.
type AggregatedStats struct {
	Total      Counts            `json:"total"`
	ByStrategy map[string]Counts `json:"by_strategy"`
	ByDay      map[string]Counts `json:"by_day"` // YYYY-MM-DD, UTC
}

// Counts holds running sums.
type Counts struct {
	Runs       int64 `json:"runs"`
	Fields     int64 `json:"fields"`
	Matched    int64 `json:"matched"`
	AutoFill   int64 `json:"auto_fill"`
	Accepted   int64 `json:"accepted"`
	DurationMs int64 `json:"duration_ms"`
}

func (c *Counts) addMatch(e MatchEvent) {
	c.Runs++
	c.Fields += int64(e.Fields)
	c.Matched += int64(e.Matched)
	c.AutoFill += int64(e.AutoFill)
	c.DurationMs += e.Duration.Milliseconds()
}

// MatchRate is the share of fields that received a record.
func (c Counts) MatchRate() float64 {
	if c.Fields == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Fields)
}

// AvgDuration is the mean matching time per run.
func (c Counts) AvgDuration() time.Duration {
	if c.Runs == 0 {
		return 0
	}
	return time.Duration(c.DurationMs/c.Runs) * time.Millisecond
}
