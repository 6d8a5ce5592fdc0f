package buffer

import (
	"errors"
)

// ErrShouldCutContainer tells the caller the staged data reached the
// container boundary and must be cut before the next write.
var ErrShouldCutContainer = errors.New("container buffer should be cut before writing")

// ContainerBuffer stages encoded frames in memory until they fill one log
// container. The buffer is cut at frame boundaries, so a container never
// splits a frame.
type ContainerBuffer struct {
	MaxContainerBytes int
	FramesCounter     int
	BytesCounter      int
	Buffer            []byte
}

// NewContainerBuffer creates a staging buffer that cuts containers of
// containerBytes. The backing slice is preallocated with stagingBytes
// capacity, clamped up so it always holds at least one container.
func NewContainerBuffer(containerBytes, stagingBytes int) *ContainerBuffer {
	if stagingBytes < containerBytes {
		stagingBytes = containerBytes
	}

	return &ContainerBuffer{
		MaxContainerBytes: containerBytes,
		FramesCounter:     0,
		BytesCounter:      0,
		Buffer:            make([]byte, 0, stagingBytes),
	}
}

// Write appends one encoded frame to the staged container. It returns
// ErrShouldCutContainer when the frame does not fit anymore; a frame larger
// than the container size itself is accepted into an empty buffer to avoid
// wedging the pipeline.
func (b *ContainerBuffer) Write(encoded []byte) error {
	if b.FramesCounter > 0 && b.BytesCounter+len(encoded) > b.MaxContainerBytes {
		return ErrShouldCutContainer
	}

	b.Buffer = append(b.Buffer, encoded...)
	b.FramesCounter++
	b.BytesCounter += len(encoded)

	return nil
}

// Cut returns a copy of the staged container payload along with its frame
// count and resets the buffer for the next container.
func (b *ContainerBuffer) Cut() ([]byte, int) {
	data := make([]byte, b.BytesCounter)
	copy(data, b.Buffer)
	frames := b.FramesCounter

	b.Reset()
	return data, frames
}

// Reset discards staged data while keeping the backing allocation.
func (b *ContainerBuffer) Reset() {
	b.FramesCounter = 0
	b.BytesCounter = 0
	b.Buffer = b.Buffer[:0]
}
