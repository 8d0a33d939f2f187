package modelstream

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/deepnoodle-ai/modelstream/log"
)

// partialPart holds one in-flight content part with its content in
// growable buffers rather than final values.
type partialPart struct {
	kind      PartType
	text      []byte
	toolName  string
	toolID    string
	args      []byte
	thinking  []byte
	signature []byte
	redacted  bool
	data      string
	mediaType string
}

func (p *partialPart) hasContent() bool {
	switch p.kind {
	case PartTypeText:
		return len(p.text) > 0
	case PartTypeToolCall, PartTypeServerTool:
		return p.toolName != "" || len(p.args) > 0
	case PartTypeThinking:
		if p.redacted {
			return p.data != ""
		}
		return len(p.thinking) > 0
	case PartTypeFile:
		return p.data != ""
	}
	return false
}

func (p *partialPart) copy() *partialPart {
	dup := *p
	dup.text = append([]byte(nil), p.text...)
	dup.args = append([]byte(nil), p.args...)
	dup.thinking = append([]byte(nil), p.thinking...)
	dup.signature = append([]byte(nil), p.signature...)
	return &dup
}

// PartialResponse accumulates canonical stream events into a mutable,
// index-addressed snapshot of a model response. It is owned by the single
// consumer of one stream's events and is not safe for concurrent use.
//
// A part's kind, once first written, is fixed until a differently-kinded
// delta arrives at the same index, at which point the slot is reset to the
// new kind, prior content is discarded, and a warning is logged. That reset
// is a sentinel for a vendor protocol violation and is not exercised by a
// well-formed stream.
type PartialResponse struct {
	parts        map[int]*partialPart
	id           string
	model        string
	usage        *Usage
	finishReason FinishReason
	createdAt    time.Time
	logger       log.Logger
}

// PartialResponseOption configures a PartialResponse.
type PartialResponseOption func(*PartialResponse)

// WithPartialLogger sets the logger used to report kind-mismatch resets.
func WithPartialLogger(logger log.Logger) PartialResponseOption {
	return func(p *PartialResponse) {
		p.logger = logger
	}
}

// NewPartialResponse creates an empty accumulator for one response stream.
func NewPartialResponse(opts ...PartialResponseOption) *PartialResponse {
	p := &PartialResponse{
		parts:     map[int]*partialPart{},
		createdAt: time.Now(),
		logger:    log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// slot returns the partial part at index, creating it with the given kind
// if absent and resetting it if its kind differs.
func (p *PartialResponse) slot(index int, kind PartType) *partialPart {
	part, ok := p.parts[index]
	if ok && part.kind != kind {
		p.logger.Warn("part kind mismatch, resetting slot",
			"index", index, "was", part.kind, "now", kind)
		ok = false
	}
	if !ok {
		part = &partialPart{kind: kind}
		p.parts[index] = part
	}
	return part
}

// ApplyTextDelta appends text content to the part at index, creating it as
// a text part if absent.
func (p *PartialResponse) ApplyTextDelta(index int, text string) {
	part := p.slot(index, PartTypeText)
	part.text = append(part.text, text...)
}

// ApplyToolCallDelta merges any of name, argument fragment, and call id
// into the tool call part at index. Empty arguments leave the accumulated
// values untouched.
func (p *PartialResponse) ApplyToolCallDelta(index int, name, argsDelta, id string) {
	part := p.slot(index, PartTypeToolCall)
	if name != "" {
		part.toolName = name
	}
	if argsDelta != "" {
		part.args = append(part.args, argsDelta...)
	}
	if id != "" {
		part.toolID = id
	}
}

// ApplyThinkingDelta appends thinking content to the part at index and
// grows its signature when one is supplied.
func (p *PartialResponse) ApplyThinkingDelta(index int, thinking, signature string) {
	part := p.slot(index, PartTypeThinking)
	part.thinking = append(part.thinking, thinking...)
	if signature != "" {
		part.signature = append(part.signature, signature...)
	}
}

// Apply routes one canonical event into the accumulator. Part starts seed
// the slot with the part's kind and content; part ends are recorded
// implicitly and need no bookkeeping.
func (p *PartialResponse) Apply(event *Event) {
	if event == nil {
		return
	}
	switch event.Type {
	case EventTypePartStart:
		p.applyPartStart(event.Index, event.Part)
	case EventTypePartDelta:
		p.applyDelta(event.Index, event.Delta)
	case EventTypePartEnd:
		// Parts are closed implicitly; finalize drops empty slots.
	}
}

func (p *PartialResponse) applyPartStart(index int, part Part) {
	switch v := part.(type) {
	case *TextPart:
		p.ApplyTextDelta(index, v.Text)
	case *ToolCallPart:
		p.ApplyToolCallDelta(index, v.Name, string(v.Args), v.ID)
	case *ThinkingPart:
		if v.Redacted {
			slot := p.slot(index, PartTypeThinking)
			slot.redacted = true
			slot.data = v.Data
			return
		}
		p.ApplyThinkingDelta(index, v.Thinking, v.Signature)
	case *FilePart:
		slot := p.slot(index, PartTypeFile)
		slot.mediaType = v.MediaType
		slot.data = v.Data
	case *ServerToolPart:
		slot := p.slot(index, PartTypeServerTool)
		slot.toolName = v.Name
		slot.toolID = v.ID
		slot.args = append(slot.args[:0], v.Args...)
	}
}

func (p *PartialResponse) applyDelta(index int, delta Delta) {
	switch v := delta.(type) {
	case *TextDelta:
		p.ApplyTextDelta(index, v.Text)
	case *ToolCallDelta:
		p.ApplyToolCallDelta(index, v.Name, v.PartialJSON, v.ID)
	case *ThinkingDelta:
		p.ApplyThinkingDelta(index, v.Thinking, v.Signature)
	}
}

// SetID sets the vendor response id.
func (p *PartialResponse) SetID(id string) {
	p.id = id
}

// SetModel sets the model name.
func (p *PartialResponse) SetModel(model string) {
	p.model = model
}

// SetUsage replaces the usage counters.
func (p *PartialResponse) SetUsage(usage Usage) {
	p.usage = usage.Copy()
}

// SetFinishReason sets the finish reason.
func (p *PartialResponse) SetFinishReason(reason FinishReason) {
	p.finishReason = reason
}

// TextContent returns the text accumulated so far across all text parts,
// in index order.
func (p *PartialResponse) TextContent() string {
	var out []byte
	for _, index := range p.sortedIndexes() {
		part := p.parts[index]
		if part.kind == PartTypeText {
			out = append(out, part.text...)
		}
	}
	return string(out)
}

// NumParts returns the number of tracked parts, including empty ones.
func (p *PartialResponse) NumParts() int {
	return len(p.parts)
}

func (p *PartialResponse) sortedIndexes() []int {
	indexes := make([]int, 0, len(p.parts))
	for index := range p.parts {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	return indexes
}

// Finalize consumes the accumulator and returns the complete response.
// Parts with no accumulated content are dropped. Tool call argument
// buffers that are not valid JSON finalize as an explicit JSON null, never
// an error. The accumulator must not be used after Finalize returns.
func (p *PartialResponse) Finalize() *Response {
	response := &Response{
		ID:           p.id,
		Model:        p.model,
		FinishReason: p.finishReason,
		CreatedAt:    p.createdAt,
	}
	if p.usage != nil {
		response.Usage = *p.usage
	}
	for _, index := range p.sortedIndexes() {
		part := p.parts[index]
		if !part.hasContent() {
			continue
		}
		switch part.kind {
		case PartTypeText:
			response.Parts = append(response.Parts, &TextPart{Text: string(part.text)})
		case PartTypeToolCall:
			response.Parts = append(response.Parts, &ToolCallPart{
				ID:   part.toolID,
				Name: part.toolName,
				Args: parseArgs(part.args),
			})
		case PartTypeThinking:
			response.Parts = append(response.Parts, &ThinkingPart{
				Thinking:  string(part.thinking),
				Signature: string(part.signature),
				Redacted:  part.redacted,
				Data:      part.data,
			})
		case PartTypeFile:
			response.Parts = append(response.Parts, &FilePart{
				MediaType: part.mediaType,
				Data:      part.data,
			})
		case PartTypeServerTool:
			response.Parts = append(response.Parts, &ServerToolPart{
				ID:   part.toolID,
				Name: part.toolName,
				Args: parseArgs(part.args),
			})
		}
	}
	p.parts = nil
	return response
}

// Snapshot returns the complete response as of now without consuming the
// accumulator, for progressive rendering. It is equivalent to Finalize on
// a full duplicate.
func (p *PartialResponse) Snapshot() *Response {
	dup := &PartialResponse{
		parts:        make(map[int]*partialPart, len(p.parts)),
		id:           p.id,
		model:        p.model,
		finishReason: p.finishReason,
		createdAt:    p.createdAt,
		logger:       p.logger,
	}
	if p.usage != nil {
		dup.usage = p.usage.Copy()
	}
	for index, part := range p.parts {
		dup.parts[index] = part.copy()
	}
	return dup.Finalize()
}

// parseArgs returns the accumulated argument buffer as valid JSON,
// substituting an explicit null when the fragments never parsed.
func parseArgs(args []byte) json.RawMessage {
	if json.Valid(args) && len(args) > 0 {
		return json.RawMessage(append([]byte(nil), args...))
	}
	return json.RawMessage("null")
}
