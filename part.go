package modelstream

import "encoding/json"

// PartType indicates the kind of a content part in a response. A response
// may contain multiple parts of varying kinds.
type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeToolCall   PartType = "tool_call"
	PartTypeThinking   PartType = "thinking"
	PartTypeFile       PartType = "file"
	PartTypeServerTool PartType = "server_tool_call"
)

func (p PartType) String() string {
	return string(p)
}

// Part is a single content part of a model response.
type Part interface {
	PartType() PartType
}

// TextPart is plain assistant text.
type TextPart struct {
	Text string `json:"text"`
}

func (p *TextPart) PartType() PartType { return PartTypeText }

// ToolCallPart is a tool invocation requested by the model. While
// streaming, Args holds whatever argument JSON has been seen so far and
// may be incomplete; in a finalized Response it is always valid JSON
// (an explicit null when the accumulated fragments never parsed).
type ToolCallPart struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

func (p *ToolCallPart) PartType() PartType { return PartTypeToolCall }

// ThinkingPart is an internal reasoning trace. The redacted variant
// carries only vendor-opaque Data and no readable content.
type ThinkingPart struct {
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
	Redacted  bool   `json:"redacted,omitempty"`
	Data      string `json:"data,omitempty"`
}

func (p *ThinkingPart) PartType() PartType { return PartTypeThinking }

// FilePart is file content produced by the model. It arrives whole and
// carries the vendor payload without further interpretation.
type FilePart struct {
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

func (p *FilePart) PartType() PartType { return PartTypeFile }

// ServerToolPart is a vendor-builtin tool invocation (web search, code
// execution and the like), carried without further interpretation.
type ServerToolPart struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

func (p *ServerToolPart) PartType() PartType { return PartTypeServerTool }

// DeltaType indicates the shape of incremental content in a part_delta
// event.
type DeltaType string

const (
	DeltaTypeText     DeltaType = "text_delta"
	DeltaTypeToolCall DeltaType = "tool_call_delta"
	DeltaTypeThinking DeltaType = "thinking_delta"
)

// Delta is incremental content to append to an in-flight part.
type Delta interface {
	DeltaType() DeltaType
}

// TextDelta is a fragment of text content.
type TextDelta struct {
	Text string `json:"text"`
}

func (d *TextDelta) DeltaType() DeltaType { return DeltaTypeText }

// ToolCallDelta carries any of a tool name, a JSON argument fragment, or
// a call id. Absent fields leave the accumulated value untouched.
type ToolCallDelta struct {
	Name        string `json:"name,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	ID          string `json:"id,omitempty"`
}

func (d *ToolCallDelta) DeltaType() DeltaType { return DeltaTypeToolCall }

// ThinkingDelta carries a fragment of thinking content and/or a fragment
// of the thinking signature.
type ThinkingDelta struct {
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

func (d *ThinkingDelta) DeltaType() DeltaType { return DeltaTypeThinking }
