// Package ktrace provides the tracing facility used by the kernel syscall
// and scheduling layers. Trace output is sent to a caller-supplied sink;
// output produced before a sink is attached is captured by a small ring
// buffer and replayed once SetOutputSink is called.
package ktrace

import (
	"fmt"
	"io"
)

// ringBufferSize defines the size of the ring buffer that captures trace
// output emitted before a sink is attached. Must be a power of 2.
const ringBufferSize = 2048

// ringBuffer models a fixed-size ring buffer. Writes that overflow the
// buffer overwrite its oldest contents.
type ringBuffer struct {
	buffer         [ringBufferSize]byte
	rIndex, wIndex int
}

// Write writes len(p) bytes from p to the ringBuffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.rIndex == rb.wIndex {
			rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read reads up to len(p) buffered bytes into p.
func (rb *ringBuffer) Read(p []byte) (n int, err error) {
	switch {
	case rb.rIndex < rb.wIndex:
		n = rb.wIndex - rb.rIndex
		if pLen := len(p); pLen < n {
			n = pLen
		}

		copy(p, rb.buffer[rb.rIndex:rb.rIndex+n])
		rb.rIndex += n

		return n, nil
	case rb.rIndex > rb.wIndex:
		n = len(rb.buffer) - rb.rIndex
		if pLen := len(p); pLen < n {
			n = pLen
		}

		copy(p, rb.buffer[rb.rIndex:rb.rIndex+n])
		rb.rIndex += n

		if rb.rIndex == len(rb.buffer) {
			rb.rIndex = 0
		}

		return n, nil
	default: // rIndex == wIndex
		return 0, io.EOF
	}
}

var (
	// earlyTraceBuffer stores trace output emitted before a sink is
	// attached via SetOutputSink.
	earlyTraceBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. If nil,
	// output is redirected to earlyTraceBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and copies any
// data accumulated in the early trace buffer to it. Passing nil reverts
// tracing to the early trace buffer.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyTraceBuffer)
	}
}

// GetOutputSink returns the currently attached sink or nil if trace output
// is still being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf formats a trace line and writes it to the attached sink. A newline
// is appended if format does not already end in one.
func Printf(format string, args ...interface{}) {
	w := outputSink
	if w == nil {
		w = &earlyTraceBuffer
	}

	fmt.Fprintf(w, format, args...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		io.WriteString(w, "\n")
	}
}
