package blf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
)

// Reader iterates the frames of one binary log file. It exists to verify
// written files: each container is validated, decompressed and decoded in
// file order.
type Reader struct {
	file          *os.File
	containerSize int

	pending []*Frame
	next    int
}

// OpenReader opens the log file at path and validates its file header.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open log file '%s': %w", path, err)
	}

	var header [fileHeaderSize]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		file.Close()
		return nil, fmt.Errorf("unable to read file header of '%s': %w", path, err)
	}

	if string(header[0:4]) != fileMagic {
		file.Close()
		return nil, fmt.Errorf("'%s' is not a BLF benchmark log file", path)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != fileFormatVersion {
		file.Close()
		return nil, fmt.Errorf("unsupported file format version %d in '%s'", version, path)
	}

	return &Reader{
		file:          file,
		containerSize: int(binary.LittleEndian.Uint32(header[8:12])),
	}, nil
}

// DefaultLogContainerSize returns the container size recorded in the file
// header.
func (r *Reader) DefaultLogContainerSize() int {
	return r.containerSize
}

// Next returns the next frame in file order. It returns io.EOF once all
// containers are exhausted.
func (r *Reader) Next() (*Frame, error) {
	for r.next >= len(r.pending) {
		if err := r.readContainer(); err != nil {
			return nil, err
		}
	}

	frame := r.pending[r.next]
	r.next++
	return frame, nil
}

// readContainer decompresses the next container and decodes its frames into
// the pending queue.
func (r *Reader) readContainer() error {
	var header [containerHeaderSize]byte
	if _, err := io.ReadFull(r.file, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("unable to read container header: %w", err)
	}

	if string(header[0:4]) != containerMagic {
		return fmt.Errorf("corrupted container header magic %q", header[0:4])
	}

	uncompressedLen := int(binary.LittleEndian.Uint32(header[4:8]))
	compressedLen := int(binary.LittleEndian.Uint32(header[8:12]))
	frameCount := int(binary.LittleEndian.Uint32(header[12:16]))

	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r.file, compressed); err != nil {
		return fmt.Errorf("unable to read container payload: %w", err)
	}

	payload, err := decompressContainer(compressed, uncompressedLen)
	if err != nil {
		return err
	}

	frames := make([]*Frame, 0, frameCount)
	for offset := 0; offset < len(payload); {
		frame, err := decodeFrame(payload[offset:])
		if err != nil {
			return err
		}
		frames = append(frames, frame)
		offset += frame.ObjectSize()
	}

	if len(frames) != frameCount {
		return fmt.Errorf("container frame count mismatch: header says %d, decoded %d", frameCount, len(frames))
	}

	r.pending = frames
	r.next = 0
	return nil
}

func decompressContainer(compressed []byte, uncompressedLen int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("unable to open container for decompression: %w", err)
	}
	defer zr.Close()

	payload := make([]byte, uncompressedLen)
	if _, err := io.ReadFull(zr, payload); err != nil {
		return nil, fmt.Errorf("unable to decompress container: %w", err)
	}

	return payload, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
