package counter

import "testing"

func TestIncrementAccumulates(t *testing.T) {
	c := New()
	if got := c.Increment(5); got != 1 {
		t.Fatalf("Increment = %d, want 1", got)
	}
	if got := c.Increment(5); got != 2 {
		t.Fatalf("Increment = %d, want 2", got)
	}
	if got := c.Get(5); got != 2 {
		t.Fatalf("Get = %d, want 2", got)
	}
}

func TestIncrementByZeroDeltaLeavesValueAtZero(t *testing.T) {
	c := New()
	c.IncrementBy(1, 0)
	if c.Get(1) != 0 {
		t.Fatalf("Get = %d, want 0", c.Get(1))
	}
	if c.NonZeroSize() != 0 {
		t.Fatalf("NonZeroSize = %d, want 0", c.NonZeroSize())
	}
}

func TestGetUnknownKeyIsZero(t *testing.T) {
	c := New()
	if c.Get(99) != 0 {
		t.Fatalf("Get on unknown key = %d, want 0", c.Get(99))
	}
}

func TestNonZeroSizeCountsOnlyNonZeroKeys(t *testing.T) {
	c := New()
	c.Increment(1)
	c.Increment(2)
	c.IncrementBy(3, 0)
	if got := c.NonZeroSize(); got != 2 {
		t.Fatalf("NonZeroSize = %d, want 2", got)
	}
}

func TestClearEmptiesCounterAndLog(t *testing.T) {
	c := New()
	c.Increment(1)
	c.Increment(2)
	c.Clear()
	if c.NonZeroSize() != 0 || c.Size() != 0 {
		t.Fatalf("expected an empty counter after Clear")
	}
	if len(c.NonZeroKeys()) != 0 {
		t.Fatalf("expected an empty non-zero log after Clear")
	}
}

func TestCopyFromIsIndependentSnapshot(t *testing.T) {
	src := New()
	src.Increment(1)
	src.Increment(2)

	dst := New()
	dst.CopyFrom(src)

	src.Increment(1) // should not affect dst
	if dst.Get(1) != 1 {
		t.Fatalf("dst.Get(1) = %d, want 1 (independent of src mutation)", dst.Get(1))
	}
	if dst.Get(2) != 1 {
		t.Fatalf("dst.Get(2) = %d, want 1", dst.Get(2))
	}
}

func TestEachSkipsKeysClearedSinceLogged(t *testing.T) {
	c := New()
	c.Increment(1)
	c.Increment(2)
	c.Clear()
	c.Increment(1) // re-touch after clear; Clear emptied the log, so key 1 is logged once

	seen := map[uint32]uint32{}
	c.Each(func(k, v uint32) { seen[k] = v })

	if len(seen) != 1 || seen[1] != 1 {
		t.Fatalf("Each = %v, want exactly {1: 1}", seen)
	}
}

func TestNonZeroKeysNotReLoggedWhileValueNonZero(t *testing.T) {
	c := New()
	c.Increment(1)
	c.IncrementBy(1, 0) // does not re-log; value was already non-zero
	if got := len(c.NonZeroKeys()); got != 1 {
		t.Fatalf("NonZeroKeys length = %d, want 1", got)
	}
}
