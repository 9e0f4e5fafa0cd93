package trace

import "testing"

type recordingSink struct {
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.events = append(s.events, ev)
}

func TestRouterDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	r := NewRouter(sink)
	cb := r.GenerateCallback(1)

	cb(Event{Kind: Call, IID: 1})
	cb(Event{Kind: Branch, IID: 2, Arm: 1})
	cb(Event{Kind: Return, IID: 1})

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
	if sink.events[0].Kind != Call || sink.events[1].Kind != Branch || sink.events[2].Kind != Return {
		t.Error("events must be delivered in program order")
	}
}

func TestRouterRejectsSecondThread(t *testing.T) {
	sink := &recordingSink{}
	r := NewRouter(sink)
	r.GenerateCallback(1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a second distinct target thread")
		}
	}()
	r.GenerateCallback(2)
}

func TestRouterAllowsSameThreadTwice(t *testing.T) {
	sink := &recordingSink{}
	r := NewRouter(sink)
	r.GenerateCallback(1)
	// should not panic
	r.GenerateCallback(1)
}
