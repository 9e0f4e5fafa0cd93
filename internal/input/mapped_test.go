package input

import (
	"testing"

	"github.com/neu-se/covguide/internal/index"
)

func TestMappedInputGCMatchesUniqueKeys(t *testing.T) {
	mi := NewMappedInput(DefaultLimits())
	rng := NewRng(5)

	idx1 := index.ExecutionIndex{Offset: 0}
	idx2 := index.ExecutionIndex{Offset: 1}

	if _, err := mi.GetOrGenerateFresh(idx1, rng); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mi.GetOrGenerateFresh(idx2, rng); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// re-read idx1 again, producing a duplicate entry in K.
	if _, err := mi.GetOrGenerateFresh(idx1, rng); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mi.GC()

	uniqueKeys := map[string]struct{}{}
	for _, k := range mi.Keys() {
		uniqueKeys[k.Key()] = struct{}{}
	}
	if mi.Size() != len(uniqueKeys) {
		t.Errorf("after gc, |M| = %d, want %d (= |unique(K)|)", mi.Size(), len(uniqueKeys))
	}
}

func TestMappedInputMutateAfterExecute(t *testing.T) {
	mi := NewMappedInput(DefaultLimits())
	rng := NewRng(6)
	mi.GetOrGenerateFresh(index.ExecutionIndex{Offset: 0}, rng)
	mi.GC()

	if _, err := mi.GetOrGenerateFresh(index.ExecutionIndex{Offset: 1}, rng); err != ErrMutateAfterExecute {
		t.Fatalf("expected ErrMutateAfterExecute, got %v", err)
	}
}

func TestMappedInputFuzzClonesNotMutatesOriginal(t *testing.T) {
	mi := NewMappedInput(DefaultLimits())
	rng := NewRng(7)
	for i := 0; i < 8; i++ {
		mi.GetOrGenerateFresh(index.ExecutionIndex{Offset: int32(i)}, rng)
	}
	mi.GC()
	before := append([]byte(nil), mi.Bytes()...)

	_ = mi.Fuzz(rng, nil)

	after := mi.Bytes()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("Fuzz must not mutate the receiver")
		}
	}
}

func TestMappedInputSpliceRejectsSelfAndEqualByte(t *testing.T) {
	limits := DefaultLimits()
	rng := NewRng(8)

	target := NewMappedInput(limits)
	tIdx := index.ExecutionIndex{Stack: []index.Frame{{1, 0}}, Offset: 0}
	target.GetOrGenerateFresh(tIdx, rng)
	target.GC()
	targetByte, _ := target.valueAt(tIdx)

	// A source whose byte at a splice-compatible location equals the
	// target's byte must be rejected by tryCandidates.
	source := NewMappedInput(limits)
	sIdx := index.ExecutionIndex{Stack: []index.Frame{{2, 0}}, Offset: 0}
	source.m[sIdx.Key()] = targetByte
	source.index[sIdx.Key()] = sIdx
	source.k = []index.ExecutionIndex{sIdx}
	source.executed = true

	locations := LocationMap{
		tIdx.Context(): {{Source: source, Index: sIdx}},
	}

	ok := target.tryCandidates(rng, tIdx, locations[tIdx.Context()])
	if ok {
		t.Error("a candidate with an identical byte value must be rejected")
	}

	// self-splice must also be rejected even if the byte differs.
	otherIdx := index.ExecutionIndex{Stack: []index.Frame{{1, 0}}, Offset: 1}
	target.setAt(otherIdx, targetByte^0xFF)
	target.k = append(target.k, otherIdx)
	selfLocations := []SpliceLocation{{Source: target, Index: otherIdx}}
	if target.tryCandidates(rng, tIdx, selfLocations) {
		t.Error("a self-splice candidate must be rejected")
	}
}
