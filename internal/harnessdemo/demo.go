// Package harnessdemo provides small instrumented example targets
// implementing pkg/guidance.Executor, used by internal/guidance's
// integration tests and by `covguide run --demo-target` as a zero-setup example.
//
// There is no teacher analogue for an in-process fuzz target (the teacher
// fuzzes a remote HTTP server); this package is grounded on the
// specification's own worked examples in its testable-properties section
// (the first-byte-0xFF failure target and the two-arm parity branch),
// expressed as Go functions driving trace events the same way a real
// instrumented binary would.
package harnessdemo

import (
	"errors"
	"fmt"

	"github.com/neu-se/covguide/internal/trace"
	pguidance "github.com/neu-se/covguide/pkg/guidance"
)

// ErrCrash is the failure a Target reports when it hits its bug.
var ErrCrash = errors.New("harnessdemo: reached the buggy branch")

const (
	iidFirstByteCheck int32 = 1
	iidParityBranch   int32 = 2
	iidLoopCall       int32 = 3
)

// FirstByteTarget fails iff the first byte drawn from the stream is 0xFF,
// exercising the single-edge minimal-reproduction scenario.
type FirstByteTarget struct {
	emit trace.Callback
}

// NewFirstByteTarget returns a Target emitting trace events through emit.
func NewFirstByteTarget(emit trace.Callback) *FirstByteTarget {
	return &FirstByteTarget{emit: emit}
}

// Execute implements pguidance.Executor.
func (t *FirstByteTarget) Execute(stream pguidance.ByteStream) (pguidance.Outcome, error) {
	b, err := stream.NextByte()
	if err != nil {
		return pguidance.Invalid, err
	}
	if b == pguidance.EOF {
		return pguidance.Invalid, nil
	}

	arm := int32(0)
	if b == 0xFF {
		arm = 1
	}
	t.emit(trace.Event{Kind: trace.Branch, IID: iidFirstByteCheck, Arm: arm})

	if arm == 1 {
		return pguidance.Failure, ErrCrash
	}
	return pguidance.Success, nil
}

// ParityTarget reads one byte and branches on its parity, exercising the
// two-arm branch scenario used to validate responsibility assignment: the
// even and odd arms are two distinct edges under the same branch site.
type ParityTarget struct {
	emit trace.Callback
}

// NewParityTarget returns a Target emitting trace events through emit.
func NewParityTarget(emit trace.Callback) *ParityTarget {
	return &ParityTarget{emit: emit}
}

// Execute implements pguidance.Executor.
func (t *ParityTarget) Execute(stream pguidance.ByteStream) (pguidance.Outcome, error) {
	b, err := stream.NextByte()
	if err != nil {
		return pguidance.Invalid, err
	}
	if b == pguidance.EOF {
		return pguidance.Invalid, nil
	}

	arm := int32(b % 2)
	t.emit(trace.Event{Kind: trace.Branch, IID: iidParityBranch, Arm: arm})
	return pguidance.Success, nil
}

// SpinTarget busy-loops reading bytes until it sees a zero byte or the
// input is exhausted, used to exercise the per-run timeout path: a crafted
// input with no zero byte spins until the guidance loop's timeout fires.
type SpinTarget struct {
	emit     trace.Callback
	maxIters int
}

// NewSpinTarget returns a Target bounding its own spin at maxIters as a
// safety net independent of the guidance loop's timeout, so a test never
// hangs even if the timeout wiring is disabled.
func NewSpinTarget(emit trace.Callback, maxIters int) *SpinTarget {
	return &SpinTarget{emit: emit, maxIters: maxIters}
}

// Execute implements pguidance.Executor.
func (t *SpinTarget) Execute(stream pguidance.ByteStream) (pguidance.Outcome, error) {
	for i := 0; i < t.maxIters; i++ {
		b, err := stream.NextByte()
		if err != nil {
			return pguidance.Invalid, err
		}
		if b == pguidance.EOF {
			return pguidance.Success, nil
		}
		t.emit(trace.Event{Kind: trace.Call, IID: iidLoopCall})
		if b == 0 {
			return pguidance.Success, nil
		}
	}
	return pguidance.Success, fmt.Errorf("harnessdemo: spin target exhausted %d iterations without a zero byte", t.maxIters)
}
