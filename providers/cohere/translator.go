// Package cohere translates the chat streaming wire format (newline
// delimited JSON events with an event_type discriminator) into canonical
// modelstream events. The response carries a single implicit text part at
// index 0.
package cohere

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/deepnoodle-ai/modelstream"
	"github.com/deepnoodle-ai/modelstream/log"
	"github.com/deepnoodle-ai/modelstream/sse"
	"github.com/google/uuid"
)

// Translator is the per-stream state machine for the discriminated-event
// format. Not safe for concurrent use.
type Translator struct {
	buf          []byte
	maxBuffer    int
	started      bool
	responseID   string
	usage        modelstream.Usage
	finishReason modelstream.FinishReason
	finished     bool
	logger       log.Logger
}

var _ modelstream.Translator = &Translator{}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger used to report skipped malformed payloads.
func WithLogger(logger log.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithMaxBufferSize overrides the line buffer ceiling.
func WithMaxBufferSize(n int) Option {
	return func(t *Translator) {
		t.maxBuffer = n
	}
}

// New creates a translator for one response stream. The vendor does not
// always supply a response id, so a fresh one is generated up front and
// replaced if the stream delivers one.
func New(opts ...Option) *Translator {
	t := &Translator{
		maxBuffer:  sse.DefaultMaxBufferSize,
		responseID: "cohere-" + uuid.NewString(),
		logger:     log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewStream returns a canonical event stream reading from body.
func NewStream(body io.ReadCloser, opts ...Option) modelstream.Stream {
	return modelstream.NewEventStream(body, New(opts...))
}

// ResponseID returns the response id (generated, or the vendor's once
// seen).
func (t *Translator) ResponseID() string { return t.responseID }

// Usage returns the billed-unit counters from stream-end, zero before.
func (t *Translator) Usage() modelstream.Usage { return t.usage }

// FinishReason returns the finish reason from stream-end, empty before.
func (t *Translator) FinishReason() modelstream.FinishReason { return t.finishReason }

// Finished reports whether stream-end has been seen.
func (t *Translator) Finished() bool { return t.finished }

// Push feeds a raw byte chunk and returns the canonical events completed
// by it.
func (t *Translator) Push(p []byte) ([]*modelstream.Event, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.maxBuffer {
		t.buf = nil
		return nil, modelstream.ErrBufferOverflow
	}
	var events []*modelstream.Event
	for {
		pos := bytes.IndexByte(t.buf, '\n')
		if pos < 0 {
			return events, nil
		}
		line := string(t.buf[:pos])
		t.buf = t.buf[pos+1:]
		lineEvents, err := t.translateLine(line)
		events = append(events, lineEvents...)
		if err != nil {
			return events, err
		}
	}
}

// Finish flushes a trailing unterminated line at end-of-stream.
func (t *Translator) Finish() ([]*modelstream.Event, error) {
	line := string(t.buf)
	t.buf = nil
	return t.translateLine(line)
}

func (t *Translator) translateLine(line string) ([]*modelstream.Event, error) {
	if t.finished {
		return nil, nil
	}
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if line == "" || line == "[DONE]" {
		if line == "[DONE]" {
			t.finished = true
		}
		return nil, nil
	}
	var event streamEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		t.logger.Warn("skipping malformed stream event", "error", err, "data", line)
		return nil, nil
	}
	switch event.EventType {
	case eventTypeStreamStart:
		if event.GenerationID != "" {
			t.responseID = event.GenerationID
		}
		return nil, nil

	case eventTypeTextGeneration:
		if !t.started {
			t.started = true
			events := []*modelstream.Event{
				modelstream.NewPartStart(0, &modelstream.TextPart{}),
			}
			if event.Text != "" {
				events = append(events,
					modelstream.NewPartDelta(0, &modelstream.TextDelta{Text: event.Text}))
			}
			return events, nil
		}
		return []*modelstream.Event{
			modelstream.NewPartDelta(0, &modelstream.TextDelta{Text: event.Text}),
		}, nil

	case eventTypeStreamEnd:
		t.finished = true
		if event.FinishReason != "" {
			t.finishReason = mapFinishReason(event.FinishReason)
		}
		if event.Response != nil {
			if event.Response.ResponseID != "" {
				t.responseID = event.Response.ResponseID
			}
			if event.Response.Meta != nil && event.Response.Meta.BilledUnits != nil {
				t.usage = modelstream.Usage{
					InputTokens:  event.Response.Meta.BilledUnits.InputTokens,
					OutputTokens: event.Response.Meta.BilledUnits.OutputTokens,
				}
			}
		}
		if event.Error != "" {
			return nil, &modelstream.VendorError{
				Code:    event.FinishReason,
				Message: event.Error,
			}
		}
		if !t.started {
			return nil, nil
		}
		return []*modelstream.Event{modelstream.NewPartEnd(0)}, nil

	default:
		return nil, nil
	}
}

func mapFinishReason(reason string) modelstream.FinishReason {
	switch reason {
	case "COMPLETE":
		return modelstream.FinishReasonStop
	case "MAX_TOKENS":
		return modelstream.FinishReasonLength
	case "ERROR_TOXIC":
		return modelstream.FinishReasonContentFilter
	case "ERROR":
		return modelstream.FinishReasonError
	default:
		return modelstream.FinishReasonStop
	}
}
