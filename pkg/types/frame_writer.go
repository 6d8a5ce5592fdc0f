package types

import "github.com/pantuza/blfbench/pkg/blf"

// FrameWriter is the contract the benchmark drives. One FrameWriter owns one
// output file exclusively for the lifetime of a writer task.
type FrameWriter interface {
	// SetDefaultLogContainerSize overrides the uncompressed size of the
	// log containers frames are packed into.
	//
	// Like every setter on this interface, it is only valid before Open
	// and must return an error once the writer is open.
	SetDefaultLogContainerSize(size int) error

	// SetWriteBufferSizes overrides the capacity of the internal object
	// queue and the in-memory staging byte budget accumulated before a
	// container is handed to compression.
	SetWriteBufferSizes(queueCapacity, uncompressedBufferSize int) error

	// SetCompressionThreadCount overrides the number of background
	// compression workers the writer starts on Open.
	SetCompressionThreadCount(count int) error

	// Open creates or truncates the log file at path and starts the
	// writer's background pipeline.
	//
	// This method must be called before any Write. A failed Open leaves
	// the writer closed.
	Open(path string) error

	// IsOpen reports whether the writer currently owns an open log file.
	IsOpen() bool

	// Write hands one frame to the writer. Ownership of the frame
	// transfers to the writer: the caller must not reuse or mutate the
	// frame after this call. Writes are buffered and asynchronous; the
	// call blocks only while the internal object queue is full.
	//
	// It must return an error if the frame can no longer be accepted,
	// including any failure captured earlier in the background pipeline.
	Write(frame *blf.Frame) error

	// Close drains every buffered and queued frame to disk synchronously
	// before returning. Think of it as the graceful shutdown of the
	// writer: once Close returns without error, the file is complete.
	//
	// In case of any failure during the run or the final flush, it
	// should return the first such error to the caller.
	Close() error
}
