package guidance

import "sync/atomic"

// AtomicCounter and AtomicFlag are adapted from shwoo03-Project's
// internal/parallel/lockfree.go: only these two wrapper types are kept
// (the file's LockFreeQueue/LockFreeStack/AtomicValue are not — the seed
// queue is single-writer per the concurrency model, so a lock-free MPMC
// structure would misrepresent it; see DESIGN.md). These two remain useful
// because the UI and web dashboard goroutines read run counters and the
// running flag concurrently with the single fuzzing goroutine that writes
// them, the one place this package legitimately crosses a goroutine
// boundary.

// AtomicCounter is a simple atomic int64 counter.
type AtomicCounter struct {
	value int64
}

// Add adds delta and returns the new value.
func (c *AtomicCounter) Add(delta int64) int64 { return atomic.AddInt64(&c.value, delta) }

// Get returns the current value.
func (c *AtomicCounter) Get() int64 { return atomic.LoadInt64(&c.value) }

// Set sets the value.
func (c *AtomicCounter) Set(v int64) { atomic.StoreInt64(&c.value, v) }

// AtomicFlag is a simple atomic boolean flag.
type AtomicFlag struct {
	value int32
}

// Set sets the flag to true.
func (f *AtomicFlag) Set() { atomic.StoreInt32(&f.value, 1) }

// Clear sets the flag to false.
func (f *AtomicFlag) Clear() { atomic.StoreInt32(&f.value, 0) }

// IsSet reports whether the flag is set.
func (f *AtomicFlag) IsSet() bool { return atomic.LoadInt32(&f.value) == 1 }
