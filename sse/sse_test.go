package sse

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/modelstream"
	"github.com/deepnoodle-ai/wonton/assert"
)

func TestParseSingleFrame(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "message_start", frames[0].Event)
	assert.Equal(t, "{\"type\":\"message_start\"}", frames[0].Data)
	assert.Equal(t, -1, frames[0].Retry)
}

func TestParseMultipleFrames(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("data: one\n\ndata: two\n\ndata: three\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 3, len(frames))
	assert.Equal(t, "one", frames[0].Data)
	assert.Equal(t, "two", frames[1].Data)
	assert.Equal(t, "three", frames[2].Data)
}

func TestMultiLineDataJoinedWithNewline(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("data: line one\ndata: line two\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "line one\nline two", frames[0].Data)
}

func TestCommentLinesIgnored(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString(": keep-alive\ndata: hello\n: another comment\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "hello", frames[0].Data)
}

func TestFrameWithoutDataDropped(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("event: ping\n\ndata: real\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "real", frames[0].Data)
}

func TestBareDataLineIsEmptyDataLine(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("data\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "", frames[0].Data)

	// A field merely starting with "data" is not the data field.
	frames, err = parser.FeedString("database: x\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(frames))
}

func TestIDAndRetryFields(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("id: 42\nretry: 3000\ndata: hi\n\n")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "42", frames[0].ID)
	assert.Equal(t, 3000, frames[0].Retry)
	assert.Equal(t, "42", parser.LastEventID())
}

func TestCRLFTerminator(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("data: a\r\n\r\ndata: b\r\n\r\n")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(frames))
	assert.Equal(t, "a", frames[0].Data)
	assert.Equal(t, "b", frames[1].Data)
}

func TestFragmentationInvariance(t *testing.T) {
	input := "event: alpha\ndata: first\n\n: comment\ndata: second line one\ndata: second line two\n\nid: 7\ndata: third\n\n"

	whole := NewParser()
	want, err := whole.FeedString(input)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(want))

	for size := 1; size <= len(input); size++ {
		parser := NewParser()
		var got []Frame
		for start := 0; start < len(input); start += size {
			end := start + size
			if end > len(input) {
				end = len(input)
			}
			frames, err := parser.FeedString(input[start:end])
			assert.NoError(t, err)
			got = append(got, frames...)
		}
		assert.Equal(t, want, got)
	}
}

func TestBufferCeiling(t *testing.T) {
	parser := NewParser(WithMaxBufferSize(16))
	_, err := parser.FeedString(strings.Repeat("x", 32))
	assert.Equal(t, modelstream.ErrBufferOverflow, err)

	// The failure is terminal.
	frames, err := parser.FeedString("data: hi\n\n")
	assert.Equal(t, modelstream.ErrBufferOverflow, err)
	assert.Equal(t, 0, len(frames))
}

func TestFinishFlushesTrailingFrame(t *testing.T) {
	parser := NewParser()
	frames, err := parser.FeedString("data: complete\n\ndata: trailing")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))

	frames, err = parser.Finish()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "trailing", frames[0].Data)
}

func TestIsDone(t *testing.T) {
	assert.Equal(t, true, Frame{Data: "[DONE]"}.IsDone())
	assert.Equal(t, true, Frame{Event: "done"}.IsDone())
	assert.Equal(t, false, Frame{Data: "{}"}.IsDone())
}
