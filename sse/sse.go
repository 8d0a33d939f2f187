// Package sse parses Server-Sent-Events framing. It splits a byte stream
// into discrete frames (event, data, id, retry fields) independent of any
// vendor's payload schema. Input may arrive in fragments of arbitrary size
// and boundary; frames are produced in arrival order.
package sse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/modelstream"
)

// DefaultMaxBufferSize is the ceiling on unparsed buffered input.
const DefaultMaxBufferSize = 10 * 1024 * 1024

// Frame is one parsed Server-Sent Event. Retry is -1 when absent.
type Frame struct {
	Event string
	Data  string
	ID    string
	Retry int
}

// IsDone reports whether this frame is a stream-end marker.
func (f Frame) IsDone() bool {
	return strings.TrimSpace(f.Data) == "[DONE]" || f.Event == "done"
}

// Parser is an incremental SSE frame parser. Feed it byte chunks as they
// arrive; complete frames are returned as soon as their terminator has
// been seen. A parser serves exactly one stream and is not restartable.
type Parser struct {
	buf         []byte
	maxBuffer   int
	lastEventID string
	failed      bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxBufferSize overrides the buffered-input ceiling.
func WithMaxBufferSize(n int) Option {
	return func(p *Parser) {
		p.maxBuffer = n
	}
}

// NewParser creates a new SSE parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{maxBuffer: DefaultMaxBufferSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LastEventID returns the most recent frame id seen, for reconnection
// bookkeeping by the transport.
func (p *Parser) LastEventID() string {
	return p.lastEventID
}

// Feed appends a chunk and returns all frames completed by it. Exceeding
// the buffer ceiling returns modelstream.ErrBufferOverflow; the error is
// fatal and the parser produces no further frames.
func (p *Parser) Feed(chunk []byte) ([]Frame, error) {
	if p.failed {
		return nil, modelstream.ErrBufferOverflow
	}
	p.buf = append(p.buf, chunk...)
	if len(p.buf) > p.maxBuffer {
		p.failed = true
		p.buf = nil
		return nil, modelstream.ErrBufferOverflow
	}
	return p.drain(), nil
}

// FeedString is Feed for string input.
func (p *Parser) FeedString(s string) ([]Frame, error) {
	return p.Feed([]byte(s))
}

// Finish flushes the parser at end-of-input. Remaining buffered content
// that looks like a terminated-but-unflushed frame is parsed and returned.
func (p *Parser) Finish() ([]Frame, error) {
	if p.failed {
		return nil, modelstream.ErrBufferOverflow
	}
	frames := p.drain()
	rest := strings.TrimRight(string(p.buf), "\r\n")
	p.buf = nil
	if strings.TrimSpace(rest) != "" {
		if frame, ok := p.parseFrame(rest); ok {
			frames = append(frames, frame)
		}
	}
	return frames, nil
}

// drain repeatedly slices complete frame bodies off the front of the
// buffer, splitting on the earliest event terminator.
func (p *Parser) drain() []Frame {
	var frames []Frame
	for {
		pos, width := findTerminator(p.buf)
		if pos < 0 {
			return frames
		}
		body := string(p.buf[:pos])
		rest := p.buf[pos+width:]
		for len(rest) > 0 && (rest[0] == '\n' || rest[0] == '\r') {
			rest = rest[1:]
		}
		p.buf = append(p.buf[:0], rest...)
		if frame, ok := p.parseFrame(body); ok {
			frames = append(frames, frame)
		}
	}
}

// findTerminator returns the position and width of the earliest of "\n\n"
// and "\r\n\r\n", or -1.
func findTerminator(buf []byte) (int, int) {
	nl := bytes.Index(buf, []byte("\n\n"))
	cr := bytes.Index(buf, []byte("\r\n\r\n"))
	switch {
	case nl < 0 && cr < 0:
		return -1, 0
	case nl < 0:
		return cr, 4
	case cr < 0:
		return nl, 2
	case cr < nl:
		return cr, 4
	default:
		return nl, 2
	}
}

// parseFrame parses one frame body. Frames with no data lines are dropped.
func (p *Parser) parseFrame(body string) (Frame, bool) {
	frame := Frame{Retry: -1}
	var dataLines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			frame.Event = strings.TrimSpace(line[len("event:"):])
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimLeft(line[len("data:"):], " \t"))
		case strings.HasPrefix(line, "id:"):
			frame.ID = strings.TrimSpace(line[len("id:"):])
		case strings.HasPrefix(line, "retry:"):
			if ms, err := strconv.Atoi(strings.TrimSpace(line[len("retry:"):])); err == nil {
				frame.Retry = ms
			}
		case line == "data":
			// A bare "data" line with no colon contributes an empty data line.
			dataLines = append(dataLines, "")
		}
	}
	if len(dataLines) == 0 {
		return Frame{}, false
	}
	frame.Data = strings.Join(dataLines, "\n")
	if frame.ID != "" {
		p.lastEventID = frame.ID
	}
	return frame, true
}
