// Package anthropic translates the Messages API streaming wire format
// (SSE frames carrying indexed content-block deltas) into canonical
// modelstream events.
package anthropic

import (
	"encoding/json"
	"io"

	"github.com/deepnoodle-ai/modelstream"
	"github.com/deepnoodle-ai/modelstream/log"
	"github.com/deepnoodle-ai/modelstream/sse"
)

// Translator is the per-stream state machine for the Messages API. It
// tracks in-flight content blocks by index and accumulated top-level
// metadata (response id, model, usage, stop reason). Not safe for
// concurrent use.
type Translator struct {
	parser       *sse.Parser
	blocks       map[int]modelstream.PartType
	responseID   string
	model        string
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

// WithMaxBufferSize overrides the SSE parser's buffered-input ceiling.
func WithMaxBufferSize(n int) Option {
	return func(t *Translator) {
		t.parser = sse.NewParser(sse.WithMaxBufferSize(n))
	}
}

// New creates a translator for one response stream.
func New(opts ...Option) *Translator {
	t := &Translator{
		parser: sse.NewParser(),
		blocks: map[int]modelstream.PartType{},
		logger: log.NewNullLogger(),
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

// ResponseID returns the vendor response id seen so far.
func (t *Translator) ResponseID() string { return t.responseID }

// Model returns the model name seen so far.
func (t *Translator) Model() string { return t.model }

// Usage returns the running usage counters.
func (t *Translator) Usage() modelstream.Usage { return t.usage }

// FinishReason returns the stop reason, empty until message_delta
// delivers one.
func (t *Translator) FinishReason() modelstream.FinishReason { return t.finishReason }

// Finished reports whether message_stop has been seen.
func (t *Translator) Finished() bool { return t.finished }

// Push feeds a raw byte chunk and returns the canonical events it
// completes.
func (t *Translator) Push(p []byte) ([]*modelstream.Event, error) {
	frames, err := t.parser.Feed(p)
	if err != nil {
		return nil, err
	}
	return t.translate(frames)
}

// Finish flushes buffered input at end-of-stream.
func (t *Translator) Finish() ([]*modelstream.Event, error) {
	frames, err := t.parser.Finish()
	if err != nil {
		return nil, err
	}
	return t.translate(frames)
}

func (t *Translator) translate(frames []sse.Frame) ([]*modelstream.Event, error) {
	var events []*modelstream.Event
	for _, frame := range frames {
		event, err := t.translateFrame(frame)
		if err != nil {
			return events, err
		}
		if event != nil {
			events = append(events, event)
		}
	}
	return events, nil
}

// translateFrame converts one SSE frame into zero or one canonical event.
func (t *Translator) translateFrame(frame sse.Frame) (*modelstream.Event, error) {
	if t.finished {
		return nil, nil
	}
	var event streamEvent
	if err := json.Unmarshal([]byte(frame.Data), &event); err != nil {
		t.logger.Warn("skipping malformed stream event",
			"error", err, "data", frame.Data)
		return nil, nil
	}
	switch event.Type {
	case eventTypeMessageStart:
		if event.Message != nil {
			t.responseID = event.Message.ID
			t.model = event.Message.Model
			if event.Message.Usage != nil {
				t.applyUsage(event.Message.Usage)
			}
		}
		return nil, nil

	case eventTypeContentBlockStart:
		return t.startBlock(event.Index, event.ContentBlock), nil

	case eventTypeContentBlockDelta:
		return t.deltaBlock(event.Index, event.Delta), nil

	case eventTypeContentBlockStop:
		if _, ok := t.blocks[event.Index]; !ok {
			t.logger.Warn("content_block_stop for untracked block", "index", event.Index)
			return nil, nil
		}
		delete(t.blocks, event.Index)
		return modelstream.NewPartEnd(event.Index), nil

	case eventTypeMessageDelta:
		if event.Usage != nil {
			t.applyUsage(event.Usage)
		}
		if event.Delta != nil && event.Delta.StopReason != "" {
			t.finishReason = mapStopReason(event.Delta.StopReason)
		}
		return nil, nil

	case eventTypeMessageStop:
		t.finished = true
		return nil, nil

	case eventTypePing:
		return nil, nil

	case eventTypeError:
		if event.Error == nil {
			return nil, &modelstream.VendorError{Message: "unknown error"}
		}
		return nil, &modelstream.VendorError{
			Code:    event.Error.Type,
			Message: event.Error.Message,
		}

	default:
		t.logger.Warn("skipping unknown stream event type", "type", event.Type)
		return nil, nil
	}
}

// startBlock registers the block's kind and re-emits it as a part_start
// with its seed content.
func (t *Translator) startBlock(index int, block *contentBlock) *modelstream.Event {
	if block == nil {
		t.logger.Warn("content_block_start with no content block", "index", index)
		return nil
	}
	var part modelstream.Part
	switch block.Type {
	case blockTypeText:
		part = &modelstream.TextPart{Text: block.Text}
		t.blocks[index] = modelstream.PartTypeText
	case blockTypeToolUse:
		part = &modelstream.ToolCallPart{
			ID:   block.ID,
			Name: block.Name,
			Args: seedArgs(block.Input),
		}
		t.blocks[index] = modelstream.PartTypeToolCall
	case blockTypeThinking:
		part = &modelstream.ThinkingPart{
			Thinking:  block.Thinking,
			Signature: block.Signature,
		}
		t.blocks[index] = modelstream.PartTypeThinking
	case blockTypeRedactedThinking:
		part = &modelstream.ThinkingPart{Redacted: true, Data: block.Data}
		t.blocks[index] = modelstream.PartTypeThinking
	case blockTypeServerToolUse:
		part = &modelstream.ServerToolPart{
			ID:   block.ID,
			Name: block.Name,
			Args: seedArgs(block.Input),
		}
		t.blocks[index] = modelstream.PartTypeServerTool
	default:
		t.logger.Warn("skipping unknown content block type", "type", block.Type)
		return nil
	}
	return modelstream.NewPartStart(index, part)
}

// deltaBlock re-emits a block delta with the delta shape chosen by the
// tracked block kind, not by the delta's own type tag.
func (t *Translator) deltaBlock(index int, delta *eventDelta) *modelstream.Event {
	if delta == nil {
		return nil
	}
	kind, ok := t.blocks[index]
	if !ok {
		t.logger.Warn("content_block_delta for untracked block", "index", index)
		return nil
	}
	switch kind {
	case modelstream.PartTypeText:
		return modelstream.NewPartDelta(index, &modelstream.TextDelta{Text: delta.Text})
	case modelstream.PartTypeToolCall, modelstream.PartTypeServerTool:
		return modelstream.NewPartDelta(index, &modelstream.ToolCallDelta{
			PartialJSON: delta.PartialJSON,
		})
	case modelstream.PartTypeThinking:
		if delta.Type == deltaTypeSignature {
			return modelstream.NewPartDelta(index, &modelstream.ThinkingDelta{
				Signature: delta.Signature,
			})
		}
		return modelstream.NewPartDelta(index, &modelstream.ThinkingDelta{
			Thinking: delta.Thinking,
		})
	}
	return nil
}

// seedArgs drops the empty-object placeholder a streaming block start
// carries; the real arguments arrive as input_json_delta fragments.
func seedArgs(input json.RawMessage) json.RawMessage {
	if len(input) == 0 || string(input) == "{}" {
		return nil
	}
	return input
}

func (t *Translator) applyUsage(u *usage) {
	if u.InputTokens > 0 {
		t.usage.InputTokens = u.InputTokens
	}
	if u.OutputTokens > 0 {
		t.usage.OutputTokens = u.OutputTokens
	}
	if u.CacheCreationInputTokens > 0 {
		t.usage.CacheCreationInputTokens = u.CacheCreationInputTokens
	}
	if u.CacheReadInputTokens > 0 {
		t.usage.CacheReadInputTokens = u.CacheReadInputTokens
	}
}

func mapStopReason(reason string) modelstream.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence", "pause_turn":
		return modelstream.FinishReasonStop
	case "max_tokens":
		return modelstream.FinishReasonLength
	case "tool_use":
		return modelstream.FinishReasonToolCall
	case "refusal":
		return modelstream.FinishReasonContentFilter
	default:
		return modelstream.FinishReasonStop
	}
}
