package bench

import (
	"fmt"
	"time"

	"github.com/pantuza/blfbench/pkg/blf"
	"github.com/pantuza/blfbench/pkg/types"
)

const (
	framePayloadBytes = blf.FrameDataLength

	frameBaseID   = 0x100
	frameIDPeriod = 0x700

	maxChannelID = 0xFFFF
)

// WriterResult is the measurement one writer task publishes after it
// terminates. SecondsTaken brackets the first frame submission through the
// writer being fully closed, so every buffered frame is on disk when the
// timer stops.
type WriterResult struct {
	MessagesWritten int
	SecondsTaken    float64
}

// WriterTask writes one log file worth of synthetic CAN frames. Each task
// owns its own writer instance and output file exclusively; the only state
// shared with other tasks is the read-only run configuration.
type WriterTask struct {
	Index  int
	Config *Config

	// NewWriter builds the writer instance the task drives. Defaults to
	// the blf library writer; tests inject failing writers here.
	NewWriter func() types.FrameWriter
}

// Run produces either a WriterResult or an error, never both. A failure
// stops frame generation immediately and leaves the partially written file
// in place.
func (t *WriterTask) Run() (WriterResult, error) {
	writer := t.newWriterInstance()

	if err := writer.SetDefaultLogContainerSize(t.Config.LogContainerSize); err != nil {
		return WriterResult{}, err
	}
	if err := writer.SetWriteBufferSizes(t.Config.QueueSize, t.Config.UncompressedBufferSize); err != nil {
		return WriterResult{}, err
	}
	if err := writer.SetCompressionThreadCount(t.Config.CompressionThreads); err != nil {
		return WriterResult{}, err
	}

	path := t.Config.OutputFilePath(t.Index)
	if err := writer.Open(path); err != nil {
		return WriterResult{}, NewBenchError(BenchWriterFailure, fmt.Sprintf("unable to open output file '%s'", path), map[string]string{"error": err.Error()})
	}
	if !writer.IsOpen() {
		return WriterResult{}, NewBenchError(BenchWriterFailure, fmt.Sprintf("unable to open output file '%s'", path), nil)
	}

	start := time.Now()
	for seq := 0; seq < t.Config.MessagesPerFile; seq++ {
		if err := writer.Write(t.makeFrame(seq)); err != nil {
			writer.Close()
			return WriterResult{}, NewBenchError(BenchWriterFailure, fmt.Sprintf("unable to write frame %d to '%s'", seq, path), map[string]string{"error": err.Error()})
		}
	}
	if err := writer.Close(); err != nil {
		return WriterResult{}, NewBenchError(BenchWriterFailure, fmt.Sprintf("unable to close output file '%s'", path), map[string]string{"error": err.Error()})
	}
	elapsed := time.Since(start)

	return WriterResult{
		MessagesWritten: t.Config.MessagesPerFile,
		SecondsTaken:    elapsed.Seconds(),
	}, nil
}

func (t *WriterTask) newWriterInstance() types.FrameWriter {
	if t.NewWriter != nil {
		return t.NewWriter()
	}
	return blf.NewWriter()
}

// makeFrame builds the frame at sequence number seq. Every field is a pure
// function of the task index and seq, so a re-run of the same configuration
// produces byte-identical files.
func (t *WriterTask) makeFrame(seq int) *blf.Frame {
	frame := &blf.Frame{
		Channel:   uint16(t.Index%maxChannelID) + 1,
		DLC:       framePayloadBytes,
		ID:        uint32(frameBaseID + seq%frameIDPeriod),
		Flags:     0,
		Timestamp: uint64(seq),
	}

	for j := 0; j < framePayloadBytes; j++ {
		frame.Data[j] = byte((seq + j) & 0xFF)
	}

	return frame
}
