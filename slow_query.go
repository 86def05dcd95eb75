package ygggo_mysqlx

import (
	"sort"
	"sync"
	"time"
)

// SlowQueryRecord is one execution that took longer than the recorder threshold.
type SlowQueryRecord struct {
	Query     string        `json:"query"`             // positional query
	Preview   string        `json:"preview,omitempty"` // only with IncludePreview
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	ExecCount int           `json:"exec_count"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// QueryPattern aggregates the slow executions of one positional query.
type QueryPattern struct {
	Query           string        `json:"query"`
	Count           int64         `json:"count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	LastSeen        time.Time     `json:"last_seen"`
}

// SlowQueryStats summarises every record currently held.
type SlowQueryStats struct {
	TotalCount      int64         `json:"total_count"`
	UniqueQueries   int64         `json:"unique_queries"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	LastRecordTime  time.Time     `json:"last_record_time"`
}

// SlowQueryConfig holds configuration for slow query recording
type SlowQueryConfig struct {
	Threshold   time.Duration `json:"threshold"`
	MaxRecords  int           `json:"max_records"`
	MaxPatterns int           `json:"max_patterns"`
	// IncludePreview stores the rendered statement. Previews contain the
	// bound values verbatim.
	IncludePreview bool `json:"include_preview"`
}

// DefaultSlowQueryConfig returns default configuration
func DefaultSlowQueryConfig() SlowQueryConfig {
	return SlowQueryConfig{
		Threshold:   100 * time.Millisecond,
		MaxRecords:  1000,
		MaxPatterns: 100,
	}
}

// SlowQueryRecorder keeps the most recent slow executions in memory and
// aggregates them per positional query. It is safe for concurrent use and
// may be shared by every Conn of a DB.
type SlowQueryRecorder struct {
	mu       sync.RWMutex
	config   SlowQueryConfig
	records  []*SlowQueryRecord
	patterns map[string]*QueryPattern
}

func NewSlowQueryRecorder(config SlowQueryConfig) *SlowQueryRecorder {
	if config.MaxRecords <= 0 {
		config.MaxRecords = DefaultSlowQueryConfig().MaxRecords
	}
	if config.MaxPatterns <= 0 {
		config.MaxPatterns = DefaultSlowQueryConfig().MaxPatterns
	}
	return &SlowQueryRecorder{config: config, patterns: make(map[string]*QueryPattern)}
}

// SetThreshold sets the slow query threshold
func (r *SlowQueryRecorder) SetThreshold(threshold time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.Threshold = threshold
}

// Threshold returns the current slow query threshold
func (r *SlowQueryRecorder) Threshold() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.Threshold
}

// record stores an execution of s if it exceeded the threshold.
func (r *SlowQueryRecorder) record(operation string, s *Stmt, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if duration <= r.config.Threshold {
		return
	}

	rec := &SlowQueryRecord{
		Query:     s.positional,
		Operation: operation,
		Duration:  duration,
		ExecCount: s.execCount,
		Timestamp: time.Now(),
	}
	if r.config.IncludePreview {
		if p, perr := s.Preview(); perr == nil {
			rec.Preview = p
		}
	}
	if err != nil {
		rec.Error = err.Error()
	}

	r.records = append(r.records, rec)
	if len(r.records) > r.config.MaxRecords {
		r.records = r.records[len(r.records)-r.config.MaxRecords:]
	}

	p, ok := r.patterns[rec.Query]
	if !ok {
		if len(r.patterns) >= r.config.MaxPatterns {
			r.evictOldestPattern()
		}
		p = &QueryPattern{Query: rec.Query}
		r.patterns[rec.Query] = p
	}
	p.Count++
	p.TotalDuration += duration
	p.AverageDuration = time.Duration(int64(p.TotalDuration) / p.Count)
	if duration > p.MaxDuration {
		p.MaxDuration = duration
	}
	p.LastSeen = rec.Timestamp
}

func (r *SlowQueryRecorder) evictOldestPattern() {
	var oldest *QueryPattern
	for _, p := range r.patterns {
		if oldest == nil || p.LastSeen.Before(oldest.LastSeen) {
			oldest = p
		}
	}
	if oldest != nil {
		delete(r.patterns, oldest.Query)
	}
}

// Records returns up to limit records, newest first. limit <= 0 returns all.
func (r *SlowQueryRecorder) Records(limit int) []SlowQueryRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]SlowQueryRecord, 0, n)
	for i := len(r.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *r.records[i])
	}
	return out
}

// Patterns returns up to limit query patterns ordered by total time spent,
// highest first. limit <= 0 returns all.
func (r *SlowQueryRecorder) Patterns(limit int) []QueryPattern {
	r.mu.RLock()
	out := make([]QueryPattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, *p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalDuration != out[j].TotalDuration {
			return out[i].TotalDuration > out[j].TotalDuration
		}
		return out[i].Query < out[j].Query
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Stats summarises the records currently held.
func (r *SlowQueryRecorder) Stats() SlowQueryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := SlowQueryStats{TotalCount: int64(len(r.records)), UniqueQueries: int64(len(r.patterns))}
	if len(r.records) == 0 {
		return st
	}
	var total time.Duration
	st.MinDuration = r.records[0].Duration
	for _, rec := range r.records {
		total += rec.Duration
		if rec.Duration > st.MaxDuration {
			st.MaxDuration = rec.Duration
		}
		if rec.Duration < st.MinDuration {
			st.MinDuration = rec.Duration
		}
		if rec.Timestamp.After(st.LastRecordTime) {
			st.LastRecordTime = rec.Timestamp
		}
	}
	st.AverageDuration = total / time.Duration(len(r.records))
	return st
}

// Clear drops every record and pattern.
func (r *SlowQueryRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	r.patterns = make(map[string]*QueryPattern)
}

// SetSlowQueryRecorder routes this connection's slow executions to r; nil disables recording.
func (c *Conn) SetSlowQueryRecorder(r *SlowQueryRecorder) {
	if c == nil {
		return
	}
	c.slowQueries = r
}
