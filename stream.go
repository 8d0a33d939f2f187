package modelstream

import (
	"io"
	"sync"
)

// Translator converts one vendor's raw stream bytes into canonical events.
// A translator is a per-stream state machine: construct one per response
// and feed it byte chunks of arbitrary size and boundary. Implementations
// are not safe for concurrent use.
//
// Push returns the events produced by the chunk, zero or more; a non-nil
// error is terminal and no further events follow it. Finish flushes any
// input buffered at end-of-stream. Finished reports whether the vendor
// signaled the logical end of the response.
type Translator interface {
	Push(p []byte) ([]*Event, error)
	Finish() ([]*Event, error)
	Finished() bool
}

// Stream is a pull-based sequence of canonical events for one response.
type Stream interface {
	// Next advances to the next event. It returns false when the stream is
	// complete or an error occurred; errors are retrieved via Err.
	Next() bool

	// Event returns the current event. Only valid after a successful Next.
	Event() *Event

	// Err returns the terminal error, if any.
	Err() error

	// Close releases the underlying byte source.
	Close() error
}

// EventStream adapts an io.ReadCloser and a Translator into a Stream. Read
// errors are surfaced as *TransportError; translator errors are surfaced
// as-is. The stream stops pulling from the body once the translator
// reports the response logically finished.
type EventStream struct {
	body       io.ReadCloser
	translator Translator
	queue      []*Event
	current    *Event
	buf        []byte
	err        error
	done       bool
	closeOnce  sync.Once
}

// NewEventStream returns a Stream that drives the translator from body.
func NewEventStream(body io.ReadCloser, translator Translator) *EventStream {
	return &EventStream{
		body:       body,
		translator: translator,
		buf:        make([]byte, 4096),
	}
}

func (s *EventStream) Next() bool {
	for {
		if len(s.queue) > 0 {
			s.current = s.queue[0]
			s.queue = s.queue[1:]
			return true
		}
		if s.done {
			return false
		}
		if s.translator.Finished() {
			s.finish(nil)
			continue
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			events, terr := s.translator.Push(s.buf[:n])
			s.queue = append(s.queue, events...)
			if terr != nil {
				s.done = true
				s.err = terr
				s.Close()
				continue
			}
		}
		if err == io.EOF {
			s.finish(nil)
		} else if err != nil {
			s.finish(&TransportError{Err: err})
		}
	}
}

// finish flushes the translator once and records the terminal error.
func (s *EventStream) finish(err error) {
	s.done = true
	events, ferr := s.translator.Finish()
	s.queue = append(s.queue, events...)
	if err != nil {
		s.err = err
	} else if ferr != nil {
		s.err = ferr
	}
	s.Close()
}

func (s *EventStream) Event() *Event {
	return s.current
}

func (s *EventStream) Err() error {
	return s.err
}

func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.body.Close() })
	return err
}
