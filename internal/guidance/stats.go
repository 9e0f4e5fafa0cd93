package guidance

import (
	"fmt"
	"sync"
	"time"
)

// Stats tracks the counters surfaced through the fixed CSV stats line and
// through internal/ui and internal/web. Grounded on shwoo03-Project's
// internal/coverage/feedback.go FeedbackStats shape, retargeted from HTTP
// request/anomaly counters to the guidance loop's own counters, with the
// cross-goroutine fields promoted to AtomicCounter/AtomicFlag (see
// atomic.go) since the UI and web dashboard read them from other
// goroutines.
type Stats struct {
	mu sync.RWMutex

	startTime time.Time

	trials       AtomicCounter
	cyclesDone   AtomicCounter
	curParentIdx AtomicCounter
	queueSize    AtomicCounter
	uniqueFails  AtomicCounter
	validCount   AtomicCounter
	invalidCount AtomicCounter
	running      AtomicFlag

	lastRefresh     time.Time
	trialsAtRefresh int64
	intervalEPS     float64
}

// NewStats returns a Stats instance with StartTime set to now.
func NewStats() *Stats {
	return &Stats{startTime: time.Now(), lastRefresh: time.Now()}
}

func (s *Stats) IncTrials()            { s.trials.Add(1) }
func (s *Stats) IncCyclesDone()        { s.cyclesDone.Add(1) }
func (s *Stats) SetCurParentIdx(i int) { s.curParentIdx.Set(int64(i)) }
func (s *Stats) SetQueueSize(n int)    { s.queueSize.Set(int64(n)) }
func (s *Stats) IncUniqueFailures()    { s.uniqueFails.Add(1) }
func (s *Stats) IncValid()             { s.validCount.Add(1) }
func (s *Stats) IncInvalid()           { s.invalidCount.Add(1) }
func (s *Stats) SetRunning(v bool) {
	if v {
		s.running.Set()
	} else {
		s.running.Clear()
	}
}
func (s *Stats) IsRunning() bool { return s.running.IsSet() }
func (s *Stats) Trials() int64   { return s.trials.Get() }

// RefreshRate recomputes interval executions-per-second since the last
// call, honoring the spec's "period >= 300ms" stats-line cadence; callers
// are expected not to call this more often than StatsRefreshPeriod.
func (s *Stats) RefreshRate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(s.lastRefresh).Seconds()
	if elapsed <= 0 {
		return
	}
	current := s.trials.Get()
	s.intervalEPS = float64(current-s.trialsAtRefresh) / elapsed
	s.trialsAtRefresh = current
	s.lastRefresh = now
}

// Snapshot returns an immutable view of the counters.
type Snapshot struct {
	UnixSeconds     int64
	CyclesDone      int64
	CurParentIdx    int64
	QueueSize       int64
	UniqueFailures  int64
	IntervalExecsPS float64
	Valid           int64
	Invalid         int64
	Trials          int64
	Elapsed         time.Duration
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	eps := s.intervalEPS
	s.mu.RUnlock()

	return Snapshot{
		UnixSeconds:     time.Now().Unix(),
		CyclesDone:      s.cyclesDone.Get(),
		CurParentIdx:    s.curParentIdx.Get(),
		QueueSize:       s.queueSize.Get(),
		UniqueFailures:  s.uniqueFails.Get(),
		IntervalExecsPS: eps,
		Valid:           s.validCount.Get(),
		Invalid:         s.invalidCount.Get(),
		Trials:          s.trials.Get(),
		Elapsed:         time.Since(s.startTime),
	}
}

// CSVLine renders the fixed stats-line schema: unix_seconds, cycles_done,
// cur_parent_idx, queue_size, 0, 0, unique_failures, 0, 0,
// interval_execs_per_sec, valid, invalid.
func (snap Snapshot) CSVLine() string {
	return fmt.Sprintf("%d, %d, %d, %d, 0, 0, %d, 0, 0, %.2f, %d, %d",
		snap.UnixSeconds, snap.CyclesDone, snap.CurParentIdx, snap.QueueSize,
		snap.UniqueFailures, snap.IntervalExecsPS, snap.Valid, snap.Invalid)
}
