package events

import "testing"

func TestEmitDeliversInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	b.Subscribe(EventStatus, func(any) { order = append(order, 1) })
	b.Subscribe(EventStatus, func(any) { order = append(order, 2) })
	b.Subscribe(EventStatus, func(any) { order = append(order, 3) })

	b.Emit(EventStatus, nil)

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandlerPanicDoesNotStopOthers(t *testing.T) {
	b := New()
	var secondRan bool
	b.Subscribe(EventStatus, func(any) { panic("boom") })
	b.Subscribe(EventStatus, func(any) { secondRan = true })

	b.Emit(EventStatus, nil)

	if !secondRan {
		t.Error("second handler did not run after first handler panicked")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New()
	var calls int
	sub := b.Subscribe(EventStatus, func(any) { calls++ })

	b.Unsubscribe(sub)
	b.Unsubscribe(sub) // must not panic or error

	b.Emit(EventStatus, nil)
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after unsubscribe", calls)
	}
}

func TestPayloadDelivery(t *testing.T) {
	b := New()
	var got ToolStartedPayload
	b.Subscribe(EventToolStarted, func(p any) {
		got = p.(ToolStartedPayload)
	})
	b.Emit(EventToolStarted, ToolStartedPayload{ToolName: "read_file", BatchIndex: 0, BatchSize: 2})
	if got.ToolName != "read_file" {
		t.Errorf("got.ToolName = %q, want read_file", got.ToolName)
	}
}
