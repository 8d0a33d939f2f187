package streamutil

// Coalesce merges consecutive text fragments from in into larger batches.
// A batch is emitted once the buffer reaches maxSize, or once no further
// fragment is immediately available and the buffer holds at least minSize
// bytes. Any remainder is flushed when in closes, regardless of size.
// Every emitted batch except possibly the final flush has length between
// minSize and maxSize, and the concatenation of all batches reproduces
// the input exactly. minSize must not exceed maxSize.
func Coalesce(in <-chan string, minSize, maxSize int) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		var buf []byte
		emitFull := func() {
			for len(buf) >= maxSize {
				out <- string(buf[:maxSize])
				buf = buf[maxSize:]
			}
		}
		flush := func() {
			emitFull()
			if len(buf) > 0 {
				out <- string(buf)
			}
		}
		for {
			select {
			case frag, ok := <-in:
				if !ok {
					flush()
					return
				}
				buf = append(buf, frag...)
				emitFull()
			default:
				// Upstream has nothing ready. Emit what we have if it
				// meets the minimum, otherwise wait for the next fragment.
				if len(buf) >= minSize && len(buf) > 0 {
					out <- string(buf)
					buf = buf[:0]
					continue
				}
				frag, ok := <-in
				if !ok {
					flush()
					return
				}
				buf = append(buf, frag...)
				emitFull()
			}
		}
	}()
	return out
}
