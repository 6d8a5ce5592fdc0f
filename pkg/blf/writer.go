package blf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/pantuza/blfbench/internal/buffer"
)

const (
	// DefaultLogContainerSize is the uncompressed size of one log container.
	DefaultLogContainerSize = 0x20000

	// DefaultQueueCapacity is the capacity of the object queue between
	// Write callers and the staging goroutine.
	DefaultQueueCapacity = 1024

	// DefaultUncompressedBufferSize is the in-memory staging byte budget.
	DefaultUncompressedBufferSize = DefaultLogContainerSize * 4

	// DefaultCompressionLevel balances container size against writer throughput.
	DefaultCompressionLevel = 6

	fileMagic      = "BLFB"
	containerMagic = "LOBJ"

	fileFormatVersion = 1

	fileHeaderSize      = 16
	containerHeaderSize = 16
)

// compressJob carries one cut container payload to a compression worker.
// The result channel is buffered so workers never block on a slow file
// goroutine.
type compressJob struct {
	payload []byte
	frames  int
	result  chan<- compressedContainer
}

type compressedContainer struct {
	data         []byte
	uncompressed int
	frames       int
	err          error
}

// Writer appends frames to one binary log file. Frames flow through a
// bounded object queue into a staging buffer that cuts fixed-size
// containers; background workers compress the containers and a single file
// goroutine writes them to disk in cut order. One Writer owns one output
// file and is not safe for concurrent Write calls from multiple goroutines.
type Writer struct {
	containerSize          int
	queueCapacity          int
	uncompressedBufferSize int
	compressionThreads     int
	compressionLevel       int

	file    *os.File
	frames  chan *Frame
	jobs    chan compressJob
	ordered chan chan compressedContainer

	fileDone chan struct{}

	mu       sync.Mutex
	open     bool
	firstErr error
}

// NewWriter returns a closed writer carrying the library default
// configuration. All setters must be called before Open.
func NewWriter() *Writer {
	return &Writer{
		containerSize:          DefaultLogContainerSize,
		queueCapacity:          DefaultQueueCapacity,
		uncompressedBufferSize: DefaultUncompressedBufferSize,
		compressionThreads:     runtime.NumCPU(),
		compressionLevel:       DefaultCompressionLevel,
	}
}

// DefaultLogContainerSize returns the configured uncompressed container size.
func (w *Writer) DefaultLogContainerSize() int {
	return w.containerSize
}

// QueueCapacity returns the configured object queue capacity.
func (w *Writer) QueueCapacity() int {
	return w.queueCapacity
}

// UncompressedBufferSize returns the configured staging byte budget.
func (w *Writer) UncompressedBufferSize() int {
	return w.uncompressedBufferSize
}

// CompressionThreadCount returns the configured number of background
// compression workers.
func (w *Writer) CompressionThreadCount() int {
	return w.compressionThreads
}

// SetDefaultLogContainerSize overrides the uncompressed container size for
// files opened afterwards.
func (w *Writer) SetDefaultLogContainerSize(size int) error {
	if err := w.ensureClosed("SetDefaultLogContainerSize"); err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("log container size must be positive, got %d", size)
	}

	w.containerSize = size
	return nil
}

// SetWriteBufferSizes overrides the object queue capacity and the
// uncompressed staging byte budget.
func (w *Writer) SetWriteBufferSizes(queueCapacity, uncompressedBufferSize int) error {
	if err := w.ensureClosed("SetWriteBufferSizes"); err != nil {
		return err
	}
	if queueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive, got %d", queueCapacity)
	}
	if uncompressedBufferSize <= 0 {
		return fmt.Errorf("uncompressed buffer size must be positive, got %d", uncompressedBufferSize)
	}

	w.queueCapacity = queueCapacity
	w.uncompressedBufferSize = uncompressedBufferSize
	return nil
}

// SetCompressionThreadCount overrides the number of background compression
// workers started on Open.
func (w *Writer) SetCompressionThreadCount(count int) error {
	if err := w.ensureClosed("SetCompressionThreadCount"); err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("compression thread count must be positive, got %d", count)
	}

	w.compressionThreads = count
	return nil
}

// SetCompressionLevel overrides the zlib compression level (0-9).
func (w *Writer) SetCompressionLevel(level int) error {
	if err := w.ensureClosed("SetCompressionLevel"); err != nil {
		return err
	}
	if level < zlib.NoCompression || level > zlib.BestCompression {
		return fmt.Errorf("compression level must be between %d and %d, got %d", zlib.NoCompression, zlib.BestCompression, level)
	}

	w.compressionLevel = level
	return nil
}

func (w *Writer) ensureClosed(operation string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.open {
		return fmt.Errorf("%s is only allowed before the writer is open", operation)
	}
	return nil
}

// Open creates or truncates the log file at path, writes the file header and
// starts the staging, compression and file goroutines.
func (w *Writer) Open(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.open {
		return fmt.Errorf("writer is already open")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to open output file '%s': %w", path, err)
	}

	if err := writeFileHeader(file, w.containerSize); err != nil {
		file.Close()
		return fmt.Errorf("unable to write file header to '%s': %w", path, err)
	}

	w.file = file
	w.firstErr = nil
	w.frames = make(chan *Frame, w.queueCapacity)
	w.jobs = make(chan compressJob)
	w.ordered = make(chan chan compressedContainer, w.compressionThreads*2)
	w.fileDone = make(chan struct{})
	w.open = true

	for i := 0; i < w.compressionThreads; i++ {
		go w.compressLoop()
	}
	go w.stageLoop()
	go w.fileLoop()

	return nil
}

// IsOpen reports whether the writer currently owns an open log file.
func (w *Writer) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Write hands one frame to the writer. Ownership of the frame transfers to
// the writer; the caller must not reuse or mutate it afterwards. The call
// blocks while the object queue is full. A failure inside the background
// pipeline is sticky and surfaces here or on Close.
func (w *Writer) Write(frame *Frame) error {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return fmt.Errorf("writer is not open")
	}
	if w.firstErr != nil {
		err := w.firstErr
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	w.frames <- frame
	return nil
}

// Close drains the object queue, flushes the partial container, waits for
// the compression pipeline and the file goroutine, then syncs and closes the
// file. It returns the first error captured anywhere in the pipeline.
func (w *Writer) Close() error {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return fmt.Errorf("writer is not open")
	}
	w.open = false
	w.mu.Unlock()

	close(w.frames)
	<-w.fileDone

	if err := w.file.Sync(); err != nil {
		w.setErr(err)
	}
	if err := w.file.Close(); err != nil {
		w.setErr(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.firstErr
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.firstErr == nil {
		w.firstErr = err
	}
}

func (w *Writer) pipelineErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.firstErr
}

// stageLoop encodes incoming frames and cuts containers at frame boundaries.
// It owns the jobs and ordered channels and closes both once the object
// queue is drained.
func (w *Writer) stageLoop() {
	staged := buffer.NewContainerBuffer(w.containerSize, w.uncompressedBufferSize)

	var scratch [frameWireSize]byte
	for frame := range w.frames {
		encoded := frame.encode(scratch[:0])

		if err := staged.Write(encoded); err == buffer.ErrShouldCutContainer {
			w.submitContainer(staged.Cut())

			if err := staged.Write(encoded); err != nil {
				w.setErr(err)
			}
		}
	}

	if staged.FramesCounter > 0 {
		w.submitContainer(staged.Cut())
	}

	close(w.jobs)
	close(w.ordered)
}

// submitContainer queues the container for compression while preserving cut
// order for the file goroutine.
func (w *Writer) submitContainer(payload []byte, frames int) {
	result := make(chan compressedContainer, 1)
	w.ordered <- result
	w.jobs <- compressJob{payload: payload, frames: frames, result: result}
}

func (w *Writer) compressLoop() {
	for job := range w.jobs {
		var compressed bytes.Buffer

		zw, err := zlib.NewWriterLevel(&compressed, w.compressionLevel)
		if err == nil {
			_, err = zw.Write(job.payload)
			if closeErr := zw.Close(); err == nil {
				err = closeErr
			}
		}

		job.result <- compressedContainer{
			data:         compressed.Bytes(),
			uncompressed: len(job.payload),
			frames:       job.frames,
			err:          err,
		}
	}
}

// fileLoop writes compressed containers to disk strictly in cut order. After
// a failure it keeps draining so the pipeline can shut down cleanly.
func (w *Writer) fileLoop() {
	defer close(w.fileDone)

	for result := range w.ordered {
		container := <-result

		if container.err != nil {
			w.setErr(container.err)
			continue
		}
		if w.pipelineErr() != nil {
			continue
		}

		if err := writeContainer(w.file, container); err != nil {
			w.setErr(err)
		}
	}
}

func writeFileHeader(file *os.File, containerSize int) error {
	var header [fileHeaderSize]byte
	copy(header[0:4], fileMagic)
	binary.LittleEndian.PutUint32(header[4:8], fileFormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(containerSize))

	_, err := file.Write(header[:])
	return err
}

func writeContainer(file *os.File, container compressedContainer) error {
	var header [containerHeaderSize]byte
	copy(header[0:4], containerMagic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(container.uncompressed))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(container.data)))
	binary.LittleEndian.PutUint32(header[12:16], uint32(container.frames))

	if _, err := file.Write(header[:]); err != nil {
		return fmt.Errorf("unable to write container header: %w", err)
	}
	if _, err := file.Write(container.data); err != nil {
		return fmt.Errorf("unable to write container payload: %w", err)
	}

	return nil
}
