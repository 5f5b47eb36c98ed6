// Package progress carries best-effort export progress from pipeline workers
// to an external observer.
//
// The pipeline is the sole producer and an observer (terminal renderer, GUI)
// the sole consumer. Delivery is drop-on-full: a slow or absent consumer must
// never block or abort the batch, so Send on a full channel discards the
// update rather than queueing it.
package progress

// Kind discriminates the closed set of progress messages.
type Kind int

const (
	// KindInProgress reports Done of Total frames written so far.
	KindInProgress Kind = iota
	// KindDone is the terminal message of a fully successful export.
	KindDone
	// KindError is the terminal message of a failed export.
	KindError
)

// Message is one progress notification. Done and Total are set for
// KindInProgress and KindDone; Err is set for KindError.
type Message struct {
	Kind  Kind
	Done  int
	Total int
	Err   string
}

// Sink is the producer side of a progress stream.
type Sink struct {
	ch chan Message
}

// NewSink creates a sink with the given channel capacity. A small buffer is
// enough: intermediate updates are disposable and only the latest matters.
func NewSink(capacity int) *Sink {
	return &Sink{ch: make(chan Message, capacity)}
}

// C returns the consumer side of the stream.
func (s *Sink) C() <-chan Message {
	return s.ch
}

// Send delivers msg if the channel has room and reports whether it was
// accepted. Dropped messages are not retried.
func (s *Sink) Send(msg Message) bool {
	if s == nil {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Close ends the stream. Only the producer may call it, after the terminal
// Done or Error message.
func (s *Sink) Close() {
	if s != nil {
		close(s.ch)
	}
}
