package cohere

// Stream event discriminators.
const (
	eventTypeStreamStart    = "stream-start"
	eventTypeTextGeneration = "text-generation"
	eventTypeStreamEnd      = "stream-end"
)

// streamEvent is one newline-delimited JSON event.
type streamEvent struct {
	EventType    string       `json:"event_type"`
	Text         string       `json:"text,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
	GenerationID string       `json:"generation_id,omitempty"`
	Response     *endResponse `json:"response,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// endResponse is the full response attached to a stream-end event.
type endResponse struct {
	ResponseID string `json:"response_id,omitempty"`
	Meta       *meta  `json:"meta,omitempty"`
}

type meta struct {
	BilledUnits *billedUnits `json:"billed_units,omitempty"`
}

type billedUnits struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}
