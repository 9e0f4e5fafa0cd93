// Package coverage implements the run and cumulative coverage maps described
// in the edge-accounting model: per-run edge counters, bucketed saturation
// when folding a run into the cumulative map, and the "new coverage" diff
// used to decide whether an input is worth keeping.
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/coverage/tracker.go
// (CoverageMap.RecordEdge / Merge / Hash), generalized from a fixed AFL-style
// bitmap onto the sparse internal/counter.Counter so the edge id space is not
// bounded by an allocation-time size.
package coverage

import (
	"crypto/sha256"
	"sort"
	"sync"

	"github.com/neu-se/covguide/internal/counter"
)

// EdgeID identifies a control-flow edge, derived by the instrumentation
// collaborator from (instruction_id, arm). The core treats it as opaque.
type EdgeID = uint32

// RunCoverage accumulates raw per-run edge hit counts. It is cleared before
// every run and is the only coverage map the single fuzzing goroutine writes
// to on the hot path.
type RunCoverage struct {
	counts *counter.Counter
}

// NewRunCoverage returns an empty RunCoverage.
func NewRunCoverage() *RunCoverage {
	return &RunCoverage{counts: counter.New()}
}

// OnBranchEvent records a branch event (iid, arm), keyed as (iid<<2)|arm.
func (r *RunCoverage) OnBranchEvent(iid, arm int32) {
	r.counts.Increment(branchKey(iid, arm))
}

// OnCallEvent records a call event, keyed as (iid<<2)|3.
func (r *RunCoverage) OnCallEvent(iid int32) {
	r.counts.Increment(callKey(iid))
}

// LogCoverage records a direct, collision-tolerant edge log used when the
// indexer cannot place a probe at the precise branch/call target. It is
// deliberately keyed as iid+arm rather than (iid<<2)|arm: switch arms can
// collide under this scheme. This is a known soundness caveat preserved for
// bit-exact compatibility with the upstream accounting rule, not a bug.
func (r *RunCoverage) LogCoverage(iid, arm int32) {
	r.counts.Increment(uint32(iid + arm))
}

func branchKey(iid, arm int32) uint32 { return (uint32(iid) << 2) | (uint32(arm) & 0x3) }
func callKey(iid int32) uint32        { return (uint32(iid) << 2) | 3 }

// Get returns the raw hit count for key.
func (r *RunCoverage) Get(key EdgeID) uint32 { return r.counts.Get(key) }

// NonZeroCount returns the number of edges hit at least once this run.
func (r *RunCoverage) NonZeroCount() int { return r.counts.NonZeroSize() }

// Clear resets the run map for the next execution.
func (r *RunCoverage) Clear() { r.counts.Clear() }

// ComputeNewCoverage returns the edges non-zero in r whose count in baseline
// is zero.
func (r *RunCoverage) ComputeNewCoverage(baseline *CumulativeCoverage) []EdgeID {
	var fresh []EdgeID
	r.counts.Each(func(k, v uint32) {
		if v > 0 && baseline.Get(k) == 0 {
			fresh = append(fresh, k)
		}
	})
	return fresh
}

// ComputeCoveredInto inserts every edge with a non-zero count this run into
// dst, used to test whether a candidate's whole responsibility set is a
// subset of what the current run covers (the steal-responsibility check).
func (r *RunCoverage) ComputeCoveredInto(dst map[EdgeID]struct{}) {
	r.counts.Each(func(k, v uint32) {
		if v > 0 {
			dst[k] = struct{}{}
		}
	})
}

// Snapshot copies the current run counts into a fresh, independent
// RunCoverage, used when persisting the coverage observed for a saved input.
func (r *RunCoverage) Snapshot() *RunCoverage {
	out := NewRunCoverage()
	out.counts.CopyFrom(r.counts)
	return out
}

// CumulativeCoverage stores, per edge, the bitwise OR of the saturated
// buckets of every run merged into it so far (a run with count 1 and then a
// run with count 2 leave 1|2 = 3). It never shrinks.
type CumulativeCoverage struct {
	mu     sync.Mutex
	counts *counter.Counter
}

// NewCumulativeCoverage returns an empty CumulativeCoverage.
func NewCumulativeCoverage() *CumulativeCoverage {
	return &CumulativeCoverage{counts: counter.New()}
}

// Get returns the current bucket bitmask stored for key.
func (c *CumulativeCoverage) Get(key EdgeID) uint32 {
	return c.counts.Get(key)
}

// NonZeroCount returns the number of edges with a non-zero cumulative
// bucket.
func (c *CumulativeCoverage) NonZeroCount() int { return c.counts.NonZeroSize() }

// UpdateBits folds other's run counts into the cumulative map: for every
// non-zero key k in other, self[k] |= bucket(other[k]). Returns whether any
// bit was newly set. Holds the cumulative map's own lock for the whole
// operation so readers never observe a half-merged state, matching the
// single-writer-merge-is-exclusive rule for the Counter's mutating path.
func (c *CumulativeCoverage) UpdateBits(other *RunCoverage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := false
	other.counts.Each(func(k, v uint32) {
		b := bucket(v)
		prev := c.counts.Get(k)
		if prev&b != b {
			c.counts.IncrementBy(k, (prev|b)-prev)
			changed = true
		}
	})
	return changed
}

// Hash returns a sha256 digest over the sorted non-zero (key, bucket) pairs,
// suitable for detecting whether two cumulative maps are identical.
func (c *CumulativeCoverage) Hash() []byte {
	c.mu.Lock()
	keys := c.counts.NonZeroKeys()
	c.mu.Unlock()

	seen := make(map[uint32]struct{}, len(keys))
	uniq := keys[:0:0]
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	h := sha256.New()
	buf := make([]byte, 8)
	for _, k := range uniq {
		v := c.counts.Get(k)
		putUint32(buf[0:4], k)
		putUint32(buf[4:8], v)
		h.Write(buf)
	}
	return h.Sum(nil)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
