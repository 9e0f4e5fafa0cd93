package coverage

import "testing"

func TestOnBranchEventKeyEncodesIIDAndArm(t *testing.T) {
	r := NewRunCoverage()
	r.OnBranchEvent(5, 1)
	if got := r.Get(branchKey(5, 1)); got != 1 {
		t.Fatalf("Get(branchKey(5,1)) = %d, want 1", got)
	}
	r.OnBranchEvent(5, 2)
	if got := r.Get(branchKey(5, 1)); got != 1 {
		t.Fatalf("arm 1 count changed after recording arm 2: got %d, want 1", got)
	}
	if got := r.Get(branchKey(5, 2)); got != 1 {
		t.Fatalf("Get(branchKey(5,2)) = %d, want 1", got)
	}
}

func TestOnCallEventUsesArmThreeSlot(t *testing.T) {
	r := NewRunCoverage()
	r.OnCallEvent(5)
	if got := r.Get(callKey(5)); got != 1 {
		t.Fatalf("Get(callKey(5)) = %d, want 1", got)
	}
	if callKey(5) != branchKey(5, 3) {
		t.Fatalf("callKey and branchKey(iid,3) disagree: %d vs %d", callKey(5), branchKey(5, 3))
	}
}

func TestLogCoverageCanCollideAcrossDistinctArms(t *testing.T) {
	r := NewRunCoverage()
	r.LogCoverage(3, 1)
	r.LogCoverage(2, 2)
	if got := r.Get(4); got != 2 {
		t.Fatalf("Get(4) = %d, want 2 (both events key to iid+arm=4)", got)
	}
}

func TestRunCoverageNonZeroCountAndClear(t *testing.T) {
	r := NewRunCoverage()
	r.OnBranchEvent(1, 0)
	r.OnBranchEvent(2, 0)
	if got := r.NonZeroCount(); got != 2 {
		t.Fatalf("NonZeroCount = %d, want 2", got)
	}
	r.Clear()
	if got := r.NonZeroCount(); got != 0 {
		t.Fatalf("NonZeroCount after Clear = %d, want 0", got)
	}
}

func TestComputeNewCoverageOnlyReturnsEdgesAbsentFromBaseline(t *testing.T) {
	baseline := NewCumulativeCoverage()
	seen := NewRunCoverage()
	seen.OnBranchEvent(1, 0)
	baseline.UpdateBits(seen)

	run := NewRunCoverage()
	run.OnBranchEvent(1, 0) // already in baseline
	run.OnBranchEvent(2, 0) // new

	fresh := run.ComputeNewCoverage(baseline)
	if len(fresh) != 1 || fresh[0] != branchKey(2, 0) {
		t.Fatalf("ComputeNewCoverage = %v, want [%d]", fresh, branchKey(2, 0))
	}
}

func TestComputeCoveredIntoUnionsNonZeroEdges(t *testing.T) {
	run := NewRunCoverage()
	run.OnBranchEvent(1, 0)
	run.OnBranchEvent(2, 0)

	dst := map[EdgeID]struct{}{branchKey(9, 0): {}}
	run.ComputeCoveredInto(dst)

	if len(dst) != 3 {
		t.Fatalf("ComputeCoveredInto produced %d entries, want 3", len(dst))
	}
	if _, ok := dst[branchKey(1, 0)]; !ok {
		t.Fatalf("missing branchKey(1,0) in union")
	}
}

func TestRunCoverageSnapshotIsIndependent(t *testing.T) {
	run := NewRunCoverage()
	run.OnBranchEvent(1, 0)

	snap := run.Snapshot()
	run.OnBranchEvent(1, 0)

	if got := snap.Get(branchKey(1, 0)); got != 1 {
		t.Fatalf("snapshot mutated by later writes to source: got %d, want 1", got)
	}
	if got := run.Get(branchKey(1, 0)); got != 2 {
		t.Fatalf("source Get = %d, want 2", got)
	}
}

func TestUpdateBitsSaturatesToBucketAndReportsChange(t *testing.T) {
	cum := NewCumulativeCoverage()
	run := NewRunCoverage()
	run.OnBranchEvent(1, 0) // count 1 -> bucket 1

	if changed := cum.UpdateBits(run); !changed {
		t.Fatalf("first UpdateBits reported no change")
	}
	if got := cum.Get(branchKey(1, 0)); got != 1 {
		t.Fatalf("Get = %d, want bucket 1", got)
	}

	// Run again with the same bucket: no new bits, no reported change.
	run2 := NewRunCoverage()
	run2.OnBranchEvent(1, 0)
	if changed := cum.UpdateBits(run2); changed {
		t.Fatalf("UpdateBits reported change when bucket did not grow")
	}

	// A run whose only entry for the key was logged with a zero delta has
	// count 0, which UpdateBits skips, so nothing changes either.
	run3 := NewRunCoverage()
	r3key := branchKey(1, 0)
	run3.counts.IncrementBy(r3key, 0)
	if changed := cum.UpdateBits(run3); changed {
		t.Fatalf("UpdateBits reported change for a no-op merge")
	}

	// A run that reaches bucket 2 (count >= 2) sets a new bit.
	run4 := NewRunCoverage()
	run4.OnBranchEvent(1, 0)
	run4.OnBranchEvent(1, 0)
	if changed := cum.UpdateBits(run4); !changed {
		t.Fatalf("UpdateBits did not report change when bucket advanced from 1 to 2")
	}
	if got := cum.Get(branchKey(1, 0)); got != (1 | 2) {
		t.Fatalf("Get = %d, want bits 1|2=3", got)
	}
}

func TestCumulativeNonZeroCount(t *testing.T) {
	cum := NewCumulativeCoverage()
	run := NewRunCoverage()
	run.OnBranchEvent(1, 0)
	run.OnBranchEvent(2, 0)
	cum.UpdateBits(run)
	if got := cum.NonZeroCount(); got != 2 {
		t.Fatalf("NonZeroCount = %d, want 2", got)
	}
}

func TestHashIsDeterministicAndOrderIndependent(t *testing.T) {
	a := NewCumulativeCoverage()
	runA1 := NewRunCoverage()
	runA1.OnBranchEvent(1, 0)
	runA2 := NewRunCoverage()
	runA2.OnBranchEvent(2, 0)
	a.UpdateBits(runA1)
	a.UpdateBits(runA2)

	b := NewCumulativeCoverage()
	runB1 := NewRunCoverage()
	runB1.OnBranchEvent(2, 0)
	runB2 := NewRunCoverage()
	runB2.OnBranchEvent(1, 0)
	b.UpdateBits(runB1)
	b.UpdateBits(runB2)

	ha, hb := a.Hash(), b.Hash()
	if len(ha) != len(hb) {
		t.Fatalf("hash lengths differ")
	}
	for i := range ha {
		if ha[i] != hb[i] {
			t.Fatalf("Hash depends on merge order: %x vs %x", ha, hb)
		}
	}
}

func TestHashChangesWhenCoverageChanges(t *testing.T) {
	cum := NewCumulativeCoverage()
	h1 := cum.Hash()

	run := NewRunCoverage()
	run.OnBranchEvent(1, 0)
	cum.UpdateBits(run)
	h2 := cum.Hash()

	same := len(h1) == len(h2)
	if same {
		same = func() bool {
			for i := range h1 {
				if h1[i] != h2[i] {
					return false
				}
			}
			return true
		}()
	}
	if same {
		t.Fatalf("Hash unchanged after new coverage merged")
	}
}
