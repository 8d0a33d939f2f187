// Package google translates the generateContent streaming wire format
// into canonical modelstream events. The vendor sends one complete JSON
// snapshot of the candidate per line, so each snapshot must be diffed
// against the translator's own tracking state: only newly-appended
// content is re-emitted as a delta.
package google

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/modelstream"
	"github.com/deepnoodle-ai/modelstream/log"
	"github.com/deepnoodle-ai/modelstream/sse"
)

// trackedPart is the translator's record of one in-flight part. For text
// and thinking parts, content holds everything emitted so far, so the
// appended suffix of the next snapshot can be computed.
type trackedPart struct {
	kind    modelstream.PartType
	content string
}

// Translator is the per-stream state machine for the snapshot format.
// Not safe for concurrent use.
type Translator struct {
	buf          []byte
	maxBuffer    int
	parts        map[int]*trackedPart
	nextIndex    int
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

// WithMaxBufferSize overrides the line buffer ceiling.
func WithMaxBufferSize(n int) Option {
	return func(t *Translator) {
		t.maxBuffer = n
	}
}

// New creates a translator for one response stream.
func New(opts ...Option) *Translator {
	t := &Translator{
		maxBuffer: sse.DefaultMaxBufferSize,
		parts:     map[int]*trackedPart{},
		logger:    log.NewNullLogger(),
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

// Model returns the model version seen so far.
func (t *Translator) Model() string { return t.model }

// Usage returns the latest usage counters.
func (t *Translator) Usage() modelstream.Usage { return t.usage }

// FinishReason returns the finish reason, empty until a snapshot carries
// one.
func (t *Translator) FinishReason() modelstream.FinishReason { return t.finishReason }

// Finished reports whether the stream is logically complete.
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
	if line == "" {
		return nil, nil
	}
	if line == "[DONE]" {
		t.finished = true
		return t.endOpenParts(), nil
	}
	var response generateContentResponse
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		t.logger.Warn("skipping malformed stream chunk", "error", err, "data", line)
		return nil, nil
	}
	return t.translateSnapshot(&response)
}

// translateSnapshot diffs one snapshot against the tracking state.
func (t *Translator) translateSnapshot(response *generateContentResponse) ([]*modelstream.Event, error) {
	if response.Error != nil {
		return nil, &modelstream.VendorError{
			Code:    strconv.Itoa(response.Error.Code),
			Message: response.Error.Message,
		}
	}
	if response.ResponseID != "" {
		t.responseID = response.ResponseID
	}
	if response.ModelVersion != "" {
		t.model = response.ModelVersion
	}
	if response.UsageMetadata != nil {
		t.usage = modelstream.Usage{
			InputTokens:          response.UsageMetadata.PromptTokenCount,
			OutputTokens:         response.UsageMetadata.CandidatesTokenCount,
			CacheReadInputTokens: response.UsageMetadata.CachedContentTokenCount,
		}
	}
	if len(response.Candidates) == 0 {
		return nil, nil
	}
	cand := response.Candidates[0]

	var events []*modelstream.Event
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if event := t.translatePart(p); event != nil {
				events = append(events, event)
			}
		}
	}
	if cand.FinishReason != "" {
		t.finishReason = mapFinishReason(cand.FinishReason)
		t.finished = true
		events = append(events, t.endOpenParts()...)
	}
	return events, nil
}

func (t *Translator) translatePart(p part) *modelstream.Event {
	switch {
	case p.FunctionCall != nil:
		// Function call arguments arrive whole; the part is started once
		// and never delta-updated.
		index := t.nextIndex
		t.nextIndex++
		t.parts[index] = &trackedPart{kind: modelstream.PartTypeToolCall}
		return modelstream.NewPartStart(index, &modelstream.ToolCallPart{
			Name: p.FunctionCall.Name,
			Args: p.FunctionCall.Args,
		})

	case p.InlineData != nil:
		index := t.nextIndex
		t.nextIndex++
		t.parts[index] = &trackedPart{kind: modelstream.PartTypeFile}
		return modelstream.NewPartStart(index, &modelstream.FilePart{
			MediaType: p.InlineData.MimeType,
			Data:      p.InlineData.Data,
		})

	case p.Text != "":
		kind := modelstream.PartTypeText
		if p.Thought {
			kind = modelstream.PartTypeThinking
		}
		return t.translateSnapshotText(kind, p.Text)

	default:
		return nil
	}
}

// translateSnapshotText emits a part_start for the first snapshot of a
// kind and only the appended suffix for later ones.
func (t *Translator) translateSnapshotText(kind modelstream.PartType, text string) *modelstream.Event {
	index, tracked := t.findTracked(kind)
	if tracked == nil {
		index = t.nextIndex
		t.nextIndex++
		t.parts[index] = &trackedPart{kind: kind, content: text}
		if kind == modelstream.PartTypeThinking {
			return modelstream.NewPartStart(index, &modelstream.ThinkingPart{Thinking: text})
		}
		return modelstream.NewPartStart(index, &modelstream.TextPart{Text: text})
	}
	if len(text) <= len(tracked.content) {
		// The snapshot regressed; nothing new to emit.
		return nil
	}
	if !strings.HasPrefix(text, tracked.content) {
		t.logger.Warn("snapshot diverged from tracked content, skipping",
			"index", index, "kind", kind)
		return nil
	}
	delta := text[len(tracked.content):]
	tracked.content = text
	if kind == modelstream.PartTypeThinking {
		return modelstream.NewPartDelta(index, &modelstream.ThinkingDelta{Thinking: delta})
	}
	return modelstream.NewPartDelta(index, &modelstream.TextDelta{Text: delta})
}

// findTracked returns the lowest-indexed tracked part of the given kind.
func (t *Translator) findTracked(kind modelstream.PartType) (int, *trackedPart) {
	best := -1
	for index, tracked := range t.parts {
		if tracked.kind == kind && (best < 0 || index < best) {
			best = index
		}
	}
	if best < 0 {
		return 0, nil
	}
	return best, t.parts[best]
}

// endOpenParts emits a part_end for every open part, in index order.
func (t *Translator) endOpenParts() []*modelstream.Event {
	indexes := make([]int, 0, len(t.parts))
	for index := range t.parts {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	events := make([]*modelstream.Event, 0, len(indexes))
	for _, index := range indexes {
		events = append(events, modelstream.NewPartEnd(index))
	}
	t.parts = map[int]*trackedPart{}
	return events
}

func mapFinishReason(reason string) modelstream.FinishReason {
	switch reason {
	case "STOP":
		return modelstream.FinishReasonStop
	case "MAX_TOKENS":
		return modelstream.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return modelstream.FinishReasonContentFilter
	case "MALFORMED_FUNCTION_CALL":
		return modelstream.FinishReasonError
	default:
		return modelstream.FinishReasonStop
	}
}
