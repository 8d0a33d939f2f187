package modelstream

import (
	"errors"
	"fmt"
)

// ErrBufferOverflow indicates that unparsed stream input exceeded the
// configured buffer ceiling. It is fatal: no further events follow it.
var ErrBufferOverflow = errors.New("stream buffer exceeded maximum size")

// VendorError is an explicit error condition signaled by the vendor within
// the stream. It is terminal; the message and code are surfaced verbatim.
type VendorError struct {
	Code    string
	Message string
}

func (e *VendorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vendor error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("vendor error: %s", e.Message)
}

// TransportError wraps a failure of the upstream byte source. It is
// surfaced as-is, not reinterpreted.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
