package dedupe

import (
	"bytes"
	"testing"
)

func repeat(pattern string, n int) []byte {
	return bytes.Repeat([]byte(pattern), n)
}

func TestShortContentNeverFlaggedDuplicate(t *testing.T) {
	f := DefaultFilter()
	short := []byte("too short")
	f.Observe(short)
	if f.IsDuplicate(short) {
		t.Fatalf("content under TLSH's minimum size must never be flagged duplicate")
	}
}

func TestObserveThenIdenticalIsDuplicate(t *testing.T) {
	f := DefaultFilter()
	data := repeat("the quick brown fox jumps over the lazy dog ", 10)

	if f.IsDuplicate(data) {
		t.Fatalf("first observation should not be a duplicate of nothing")
	}
	f.Observe(data)
	if !f.IsDuplicate(data) {
		t.Fatalf("identical content should be flagged duplicate after Observe")
	}
}

func TestDissimilarContentNotDuplicate(t *testing.T) {
	f := DefaultFilter()
	a := repeat("alpha beta gamma delta epsilon zeta eta theta ", 10)
	b := repeat("1234567890 ZYXWVUT!@#$%^&*()_+-=[]{}|;:,.<>?/ ", 10)

	f.Observe(a)
	if f.IsDuplicate(b) {
		t.Fatalf("unrelated content should not be flagged duplicate")
	}
}

func TestCapacityEvictsOldestDigest(t *testing.T) {
	f := New(1, 1)
	a := repeat("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 1)
	b := repeat("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 1)

	f.Observe(a)
	f.Observe(b)

	if f.order.Len() != 1 {
		t.Fatalf("order length = %d, want 1 after capacity eviction", f.order.Len())
	}
}
