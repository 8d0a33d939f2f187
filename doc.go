// Package modelstream normalizes the vendor-specific wire formats used to
// stream LLM responses into one canonical sequence of part events, and
// accumulates those events into a complete, typed response.
//
// The layer is a pure transformation: it performs no network I/O and is
// driven entirely by the caller pushing byte chunks (or pulling from an
// EventStream that wraps an io.ReadCloser). Each response stream owns its
// own translator and accumulator instances; nothing is shared across
// streams.
//
// Three vendor wire patterns are supported, one translator per family
// under providers/: indexed content-block deltas over SSE (Anthropic),
// one complete JSON snapshot per line that must be diffed against prior
// state (Google), and newline-delimited discriminated events with a
// single implicit text part (Cohere).
package modelstream
