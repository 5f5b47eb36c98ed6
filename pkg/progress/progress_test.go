package progress

import "testing"

func TestSendReceive(t *testing.T) {
	s := NewSink(2)

	if !s.Send(Message{Kind: KindInProgress, Done: 1, Total: 3}) {
		t.Fatal("Send on empty sink should succeed")
	}
	if !s.Send(Message{Kind: KindDone, Total: 3}) {
		t.Fatal("Send within capacity should succeed")
	}
	s.Close()

	var got []Message
	for msg := range s.C() {
		got = append(got, msg)
	}
	if len(got) != 2 {
		t.Fatalf("received %d messages, want 2", len(got))
	}
	if got[0].Kind != KindInProgress || got[0].Done != 1 || got[0].Total != 3 {
		t.Errorf("first message = %+v", got[0])
	}
	if got[1].Kind != KindDone || got[1].Total != 3 {
		t.Errorf("second message = %+v", got[1])
	}
}

func TestSendDropsWhenFull(t *testing.T) {
	s := NewSink(1)

	if !s.Send(Message{Kind: KindInProgress, Done: 1, Total: 2}) {
		t.Fatal("first Send should succeed")
	}
	// Nobody is draining: the second send must drop, not block.
	if s.Send(Message{Kind: KindInProgress, Done: 2, Total: 2}) {
		t.Error("Send on full sink should report a drop")
	}
}

func TestNilSink(t *testing.T) {
	var s *Sink
	if s.Send(Message{Kind: KindDone}) {
		t.Error("Send on nil sink should report a drop")
	}
	s.Close() // must not panic
}
