package anthropic

import (
	"io"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/modelstream"
	"github.com/stretchr/testify/require"
)

func frame(event, data string) string {
	return "event: " + event + "\ndata: " + data + "\n\n"
}

func pushAll(t *testing.T, translator *Translator, input string) []*modelstream.Event {
	t.Helper()
	events, err := translator.Push([]byte(input))
	require.NoError(t, err)
	flushed, err := translator.Finish()
	require.NoError(t, err)
	return append(events, flushed...)
}

func TestTextBlockLifecycle(t *testing.T) {
	input := frame("message_start", `{"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":12}}}`) +
		frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":0}`) +
		frame("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":5}}`) +
		frame("message_stop", `{"type":"message_stop"}`)

	translator := New()
	events := pushAll(t, translator, input)

	require.Len(t, events, 3)
	require.Equal(t, modelstream.EventTypePartStart, events[0].Type)
	require.Equal(t, 0, events[0].Index)
	require.Equal(t, "", events[0].Part.(*modelstream.TextPart).Text)
	require.Equal(t, modelstream.EventTypePartDelta, events[1].Type)
	require.Equal(t, "Hello", events[1].Delta.(*modelstream.TextDelta).Text)
	require.Equal(t, modelstream.EventTypePartEnd, events[2].Type)

	require.True(t, translator.Finished())
	require.Equal(t, "msg_1", translator.ResponseID())
	require.Equal(t, "claude-sonnet-4-5", translator.Model())
	require.Equal(t, 12, translator.Usage().InputTokens)
	require.Equal(t, 5, translator.Usage().OutputTokens)
	require.Equal(t, modelstream.FinishReasonStop, translator.FinishReason())

	partial := modelstream.NewPartialResponse()
	for _, event := range events {
		partial.Apply(event)
	}
	require.Equal(t, "Hello", partial.Finalize().TextContent())
}

func TestToolUseBlock(t *testing.T) {
	input := frame("content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{}}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"Paris\"}"}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":1}`) +
		frame("message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`) +
		frame("message_stop", `{"type":"message_stop"}`)

	translator := New()
	events := pushAll(t, translator, input)
	require.Len(t, events, 4)

	start := events[0].Part.(*modelstream.ToolCallPart)
	require.Equal(t, "toolu_1", start.ID)
	require.Equal(t, "get_weather", start.Name)
	require.Equal(t, `{"city":`, events[1].Delta.(*modelstream.ToolCallDelta).PartialJSON)
	require.Equal(t, modelstream.FinishReasonToolCall, translator.FinishReason())

	partial := modelstream.NewPartialResponse()
	for _, event := range events {
		partial.Apply(event)
	}
	calls := partial.Finalize().ToolCalls()
	require.Len(t, calls, 1)
	require.JSONEq(t, `{"city":"Paris"}`, string(calls[0].Args))
}

func TestThinkingBlock(t *testing.T) {
	input := frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"pondering"}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig=="}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":0}`)

	translator := New()
	events := pushAll(t, translator, input)
	require.Len(t, events, 4)
	require.Equal(t, "pondering", events[1].Delta.(*modelstream.ThinkingDelta).Thinking)
	require.Equal(t, "sig==", events[2].Delta.(*modelstream.ThinkingDelta).Signature)
}

func TestRedactedThinkingBlock(t *testing.T) {
	input := frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"redacted_thinking","data":"opaque=="}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":0}`)

	translator := New()
	events := pushAll(t, translator, input)
	require.Len(t, events, 2)
	part := events[0].Part.(*modelstream.ThinkingPart)
	require.True(t, part.Redacted)
	require.Equal(t, "opaque==", part.Data)
}

func TestInterleavedBlocks(t *testing.T) {
	input := frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`) +
		frame("content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"t1","name":"f"}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"a"}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{}"}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":0}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":1}`)

	translator := New()
	events := pushAll(t, translator, input)
	require.Len(t, events, 6)
	require.Equal(t, []int{0, 1, 0, 1, 0, 1}, []int{
		events[0].Index, events[1].Index, events[2].Index,
		events[3].Index, events[4].Index, events[5].Index,
	})
}

func TestPingIgnored(t *testing.T) {
	translator := New()
	events := pushAll(t, translator, frame("ping", `{"type":"ping"}`))
	require.Empty(t, events)
}

func TestVendorError(t *testing.T) {
	translator := New()
	_, err := translator.Push([]byte(frame("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)))
	var vendorErr *modelstream.VendorError
	require.ErrorAs(t, err, &vendorErr)
	require.Equal(t, "overloaded_error", vendorErr.Code)
	require.Equal(t, "Overloaded", vendorErr.Message)
}

func TestMalformedEventSkipped(t *testing.T) {
	input := frame("content_block_start", `{{{not json`) +
		frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":"ok"}}`)

	translator := New()
	events := pushAll(t, translator, input)
	require.Len(t, events, 1)
	require.Equal(t, "ok", events[0].Part.(*modelstream.TextPart).Text)
}

func TestDeltaForUntrackedBlockSkipped(t *testing.T) {
	translator := New()
	events := pushAll(t, translator, frame("content_block_delta", `{"type":"content_block_delta","index":3,"delta":{"type":"text_delta","text":"x"}}`))
	require.Empty(t, events)
}

func TestFragmentedInput(t *testing.T) {
	input := frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":0}`)

	translator := New()
	var events []*modelstream.Event
	for _, b := range []byte(input) {
		got, err := translator.Push([]byte{b})
		require.NoError(t, err)
		events = append(events, got...)
	}
	require.Len(t, events, 3)
	require.Equal(t, "Hello", events[1].Delta.(*modelstream.TextDelta).Text)
}

func TestNewStream(t *testing.T) {
	input := frame("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`) +
		frame("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"hi"}}`) +
		frame("content_block_stop", `{"type":"content_block_stop","index":0}`) +
		frame("message_stop", `{"type":"message_stop"}`)

	stream := NewStream(io.NopCloser(strings.NewReader(input)))
	partial := modelstream.NewPartialResponse()
	for stream.Next() {
		partial.Apply(stream.Event())
	}
	require.NoError(t, stream.Err())
	require.Equal(t, "hi", partial.Finalize().TextContent())
}
