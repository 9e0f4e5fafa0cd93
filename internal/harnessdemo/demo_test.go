package harnessdemo

import (
	"testing"

	"github.com/neu-se/covguide/internal/trace"
	pguidance "github.com/neu-se/covguide/pkg/guidance"
)

type recordingStream struct {
	bytes []int
	pos   int
}

func (s *recordingStream) NextByte() (int, error) {
	if s.pos >= len(s.bytes) {
		return pguidance.EOF, nil
	}
	b := s.bytes[s.pos]
	s.pos++
	return b, nil
}

func TestFirstByteTargetFailsOnlyOn0xFF(t *testing.T) {
	var events []trace.Event
	target := NewFirstByteTarget(func(e trace.Event) { events = append(events, e) })

	outcome, err := target.Execute(&recordingStream{bytes: []int{0xFF}})
	if outcome != pguidance.Failure || err != ErrCrash {
		t.Fatalf("0xFF: outcome=%v err=%v, want Failure/ErrCrash", outcome, err)
	}

	events = nil
	outcome, err = target.Execute(&recordingStream{bytes: []int{0x01}})
	if outcome != pguidance.Success || err != nil {
		t.Fatalf("0x01: outcome=%v err=%v, want Success/nil", outcome, err)
	}
	if len(events) != 1 || events[0].Arm != 0 {
		t.Fatalf("expected single arm-0 branch event, got %+v", events)
	}
}

func TestFirstByteTargetInvalidOnEmptyInput(t *testing.T) {
	target := NewFirstByteTarget(func(trace.Event) {})
	outcome, err := target.Execute(&recordingStream{})
	if outcome != pguidance.Invalid || err != nil {
		t.Fatalf("empty input: outcome=%v err=%v, want Invalid/nil", outcome, err)
	}
}

func TestParityTargetBranchesOnLSB(t *testing.T) {
	var events []trace.Event
	target := NewParityTarget(func(e trace.Event) { events = append(events, e) })

	if _, err := target.Execute(&recordingStream{bytes: []int{4}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(events) != 1 || events[0].Arm != 0 {
		t.Fatalf("even byte: events=%+v, want single arm-0 event", events)
	}

	events = nil
	if _, err := target.Execute(&recordingStream{bytes: []int{5}}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(events) != 1 || events[0].Arm != 1 {
		t.Fatalf("odd byte: events=%+v, want single arm-1 event", events)
	}
}

func TestSpinTargetStopsOnZeroByte(t *testing.T) {
	var calls int
	target := NewSpinTarget(func(trace.Event) { calls++ }, 100)

	outcome, err := target.Execute(&recordingStream{bytes: []int{1, 1, 1, 0}})
	if outcome != pguidance.Success || err != nil {
		t.Fatalf("outcome=%v err=%v, want Success/nil", outcome, err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestSpinTargetBoundedByMaxIters(t *testing.T) {
	target := NewSpinTarget(func(trace.Event) {}, 5)
	bytes := make([]int, 10)
	for i := range bytes {
		bytes[i] = 1
	}

	_, err := target.Execute(&recordingStream{bytes: bytes})
	if err == nil {
		t.Fatalf("expected an error when the target never sees a zero byte within maxIters")
	}
}
