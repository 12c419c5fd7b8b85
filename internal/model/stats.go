package model

import (
	"sync"
	"sync/atomic"
	"time"
)

// requestTimeWindow is the number of recent request durations kept for the
// average request time.
const requestTimeWindow = 100

// RunStats collects counters while a crawl runs.
// All methods are safe for concurrent use by crawl workers.
type RunStats struct {
	startTime time.Time

	listPages   atomic.Int64
	detailPages atomic.Int64
	itemsSaved  atomic.Int64
	errors      atomic.Int64
	blocked     atomic.Int64
	requests    atomic.Int64

	mu           sync.Mutex
	requestTimes []time.Duration
}

// NewRunStats creates stats starting at the given time.
func NewRunStats(start time.Time) *RunStats {
	return &RunStats{
		startTime:    start,
		requestTimes: make([]time.Duration, 0, requestTimeWindow),
	}
}

// IncListPages records a processed LIST page.
func (s *RunStats) IncListPages() { s.listPages.Add(1) }

// IncDetailPages records a processed DETAIL page.
func (s *RunStats) IncDetailPages() { s.detailPages.Add(1) }

// IncErrors records a failed request or extraction.
func (s *RunStats) IncErrors() { s.errors.Add(1) }

// IncBlocked records a blocked response (403, 429 or 503).
func (s *RunStats) IncBlocked() { s.blocked.Add(1) }

// IncRequests records an issued request and returns the new total.
func (s *RunStats) IncRequests() int64 { return s.requests.Add(1) }

// SetItemsSaved mirrors the quota tracker's saved count.
func (s *RunStats) SetItemsSaved(n int64) { s.itemsSaved.Store(n) }

// Requests returns the number of issued requests.
func (s *RunStats) Requests() int64 { return s.requests.Load() }

// ObserveRequestTime adds a request duration to the rolling window.
func (s *RunStats) ObserveRequestTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requestTimes = append(s.requestTimes, d)
	if len(s.requestTimes) > requestTimeWindow {
		s.requestTimes = s.requestTimes[1:]
	}
}

// Snapshot returns a point-in-time copy of the counters with derived values
// computed against now.
func (s *RunStats) Snapshot(now time.Time) StatsSnapshot {
	s.mu.Lock()
	var avg time.Duration
	if len(s.requestTimes) > 0 {
		var total time.Duration
		for _, d := range s.requestTimes {
			total += d
		}
		avg = total / time.Duration(len(s.requestTimes))
	}
	s.mu.Unlock()

	snap := StatsSnapshot{
		StartTime:          s.startTime,
		Duration:           now.Sub(s.startTime),
		ListPagesProcessed: s.listPages.Load(),
		DetailPages:        s.detailPages.Load(),
		ItemsSaved:         s.itemsSaved.Load(),
		Errors:             s.errors.Load(),
		BlockedRequests:    s.blocked.Load(),
		Requests:           s.requests.Load(),
		AverageRequestTime: avg,
	}
	snap.derive()
	return snap
}

// StatsSnapshot is an immutable view of RunStats.
type StatsSnapshot struct {
	StartTime          time.Time     `json:"start_time"`
	Duration           time.Duration `json:"duration"`
	ListPagesProcessed int64         `json:"list_pages_processed"`
	DetailPages        int64         `json:"detail_pages_processed"`
	ItemsSaved         int64         `json:"items_saved"`
	Errors             int64         `json:"errors"`
	BlockedRequests    int64         `json:"blocked_requests"`
	Requests           int64         `json:"requests"`
	AverageRequestTime time.Duration `json:"average_request_time"`

	// ItemsPerMinute is ItemsSaved divided by Duration in minutes.
	ItemsPerMinute float64 `json:"items_per_minute"`

	// Efficiency is the percentage of DETAIL pages that produced a record.
	// When no DETAIL page was processed the divisor is 1.
	Efficiency float64 `json:"efficiency"`
}

func (s *StatsSnapshot) derive() {
	if secs := s.Duration.Seconds(); secs > 0 {
		s.ItemsPerMinute = float64(s.ItemsSaved) / secs * 60
	}
	divisor := s.DetailPages
	if divisor == 0 {
		divisor = 1
	}
	s.Efficiency = float64(s.ItemsSaved) / float64(divisor) * 100
}
