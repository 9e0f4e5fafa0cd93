package index

import "testing"

func TestSamePathProducesSameIndex(t *testing.T) {
	run := func() ExecutionIndex {
		idx := New(true)
		idx.OnCall(1)
		idx.NextByteIndex() // consume byte 0 in frame 1
		idx.OnCall(2)
		ei := idx.NextByteIndex()
		idx.OnReturn()
		idx.OnReturn()
		return ei
	}

	a := run()
	b := run()
	if a.Key() != b.Key() {
		t.Fatalf("two runs following the same path must produce the same ExecutionIndex for the same byte request, got %v vs %v", a, b)
	}
}

func TestRecursiveCallsGetDistinctIdentity(t *testing.T) {
	idx := New(true)
	idx.OnCall(1)
	first := idx.NextByteIndex()
	idx.OnCall(1) // recursive call to the same site
	second := idx.NextByteIndex()

	if first.Key() == second.Key() {
		t.Error("recursive calls to the same call site must get distinct ExecutionIndex identities")
	}
}

func TestDisabledModeUsesFlatCounter(t *testing.T) {
	idx := New(false)
	a := idx.NextByteIndex()
	b := idx.NextByteIndex()

	if a.Offset != 0 || b.Offset != 1 {
		t.Errorf("disabled mode should use a flat bytes-read counter, got %d then %d", a.Offset, b.Offset)
	}
	if len(a.Stack) != 0 || len(b.Stack) != 0 {
		t.Error("disabled mode must not populate the call stack")
	}
}

func TestCommonSuffixLen(t *testing.T) {
	a := ExecutionIndex{Stack: []Frame{{1, 0}, {2, 0}, {3, 0}}}
	b := ExecutionIndex{Stack: []Frame{{9, 0}, {2, 0}, {3, 0}}}

	if got := CommonSuffixLen(a, b); got != 2 {
		t.Errorf("CommonSuffixLen = %d, want 2", got)
	}
}

func TestContextEquivalence(t *testing.T) {
	a := ExecutionIndex{Stack: []Frame{{1, 0}, {2, 0}}, Offset: 5}
	b := ExecutionIndex{Stack: []Frame{{1, 0}, {2, 0}}, Offset: 9}

	if a.Context() != b.Context() {
		t.Error("two indices with the same stack but different offsets must share an ExecutionContext")
	}
}
