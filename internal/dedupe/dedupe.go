// Package dedupe filters near-duplicate corpus entries using TLSH fuzzy
// hashing, so two saved inputs that differ by a handful of scattered bytes
// don't both occupy a corpus slot.
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/analyzer/tlsh.go
// (TLSHAnalyzer.ComputeHash / CompareHashes), restructured from a single
// fixed baseline comparison into an index compared against every digest
// seen so far, with an LRU eviction policy adapted from
// internal/cache/memory.go's container/list-based MemoryCache so the
// digest set does not grow without bound over a long run.
package dedupe

import (
	"container/list"
	"sync"

	"github.com/glaslos/tlsh"
)

const minDigestSize = 50 // TLSH needs at least this many bytes to hash meaningfully

// Filter reports whether newly saved corpus entries are near-duplicates of
// something already observed. It implements internal/guidance.DuplicateChecker.
type Filter struct {
	mu        sync.Mutex
	threshold int
	capacity  int
	digests   map[string]*list.Element
	order     *list.List
}

type entry struct {
	key  string
	hash *tlsh.TLSH
}

// New returns a Filter flagging any candidate within threshold TLSH
// distance of an existing digest as a duplicate, retaining at most
// capacity digests (oldest evicted first).
func New(threshold, capacity int) *Filter {
	return &Filter{
		threshold: threshold,
		capacity:  capacity,
		digests:   make(map[string]*list.Element),
		order:     list.New(),
	}
}

// DefaultFilter mirrors the teacher's DefaultTLSHConfig similarity
// threshold (100) with a corpus-sized retention cap.
func DefaultFilter() *Filter {
	return New(100, 4096)
}

// IsDuplicate reports whether data is within the similarity threshold of
// any digest currently retained. Content shorter than TLSH's minimum
// hashable size is never treated as a duplicate, since no meaningful
// digest can be computed for it.
func (f *Filter) IsDuplicate(data []byte) bool {
	if len(data) < minDigestSize {
		return false
	}
	h, err := tlsh.HashBytes(data)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for el := f.order.Front(); el != nil; el = el.Next() {
		if h.Diff(el.Value.(*entry).hash) <= f.threshold {
			return true
		}
	}
	return false
}

// Observe records data's digest, evicting the oldest entry if capacity is
// exceeded.
func (f *Filter) Observe(data []byte) {
	if len(data) < minDigestSize {
		return
	}
	h, err := tlsh.HashBytes(data)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := h.String()
	if _, ok := f.digests[key]; ok {
		return
	}
	el := f.order.PushBack(&entry{key: key, hash: h})
	f.digests[key] = el

	if f.order.Len() > f.capacity {
		oldest := f.order.Front()
		f.order.Remove(oldest)
		delete(f.digests, oldest.Value.(*entry).key)
	}
}
