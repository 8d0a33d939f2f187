package modelstream

import (
	"strings"
	"time"
)

// FinishReason indicates why a model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCall      FinishReason = "tool_call"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
)

func (r FinishReason) String() string {
	return string(r)
}

// Response is a complete model response assembled from canonical stream
// events. It is immutable once built: parts appear in index order and only
// parts that accumulated non-empty content are present.
type Response struct {
	ID           string       `json:"id,omitempty"`
	Model        string       `json:"model,omitempty"`
	Parts        []Part       `json:"parts"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        Usage        `json:"usage"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TextContent returns the concatenated content of all text parts.
func (r *Response) TextContent() string {
	var sb strings.Builder
	for _, part := range r.Parts {
		if text, ok := part.(*TextPart); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool call parts, in index order.
func (r *Response) ToolCalls() []*ToolCallPart {
	var calls []*ToolCallPart
	for _, part := range r.Parts {
		if call, ok := part.(*ToolCallPart); ok {
			calls = append(calls, call)
		}
	}
	return calls
}
