package streamutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func collect(out <-chan string) []string {
	var batches []string
	for batch := range out {
		batches = append(batches, batch)
	}
	return batches
}

func TestCoalesceBounds(t *testing.T) {
	fragments := []string{"a", "bc", "def", "ghij", "klmno", "p"}
	in := make(chan string, len(fragments))
	for _, frag := range fragments {
		in <- frag
	}
	close(in)

	minSize, maxSize := 3, 5
	batches := collect(Coalesce(in, minSize, maxSize))

	require.Equal(t, strings.Join(fragments, ""), strings.Join(batches, ""))
	for i, batch := range batches {
		require.LessOrEqual(t, len(batch), maxSize)
		if i < len(batches)-1 {
			require.GreaterOrEqual(t, len(batch), minSize)
		}
	}
}

func TestCoalesceSplitsOversizedFragment(t *testing.T) {
	in := make(chan string, 1)
	in <- "0123456789abc"
	close(in)

	batches := collect(Coalesce(in, 2, 4))
	require.Equal(t, []string{"0123", "4567", "89ab", "c"}, batches)
}

func TestCoalesceFlushesRemainderAtClose(t *testing.T) {
	in := make(chan string, 2)
	in <- "x"
	in <- "y"
	close(in)

	batches := collect(Coalesce(in, 10, 100))
	require.Equal(t, []string{"xy"}, batches)
}

func TestCoalesceEmitsOnBackpressure(t *testing.T) {
	in := make(chan string)
	out := Coalesce(in, 3, 100)

	go func() {
		in <- "abcd"
		// Leave the channel idle so the buffer is flushed before close.
		time.Sleep(50 * time.Millisecond)
		close(in)
	}()

	select {
	case batch := <-out:
		require.Equal(t, "abcd", batch)
	case <-time.After(40 * time.Millisecond):
		t.Fatal("expected a batch before end of input")
	}
	_, ok := <-out
	require.False(t, ok)
}

func TestCoalesceEmptyInput(t *testing.T) {
	in := make(chan string)
	close(in)

	_, ok := <-Coalesce(in, 1, 10)
	require.False(t, ok)
}
