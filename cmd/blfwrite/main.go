// blfwrite is the single-threaded micro-benchmark variant: it writes frames
// to one file for a fixed duration, stats the resulting file and reports
// writer throughput without any concurrency in the way.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pantuza/blfbench/pkg/blf"
)

const (
	outputPath = "blf_write_benchmark_output.blf"

	runDuration = 1 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	prototype := blf.Frame{
		Channel: 1,
		DLC:     blf.FrameDataLength,
		ID:      0x123,
	}
	uncompressedFrameSize := prototype.ObjectSize()

	writer := blf.NewWriter()
	if err := writer.Open(outputPath); err != nil {
		return err
	}

	start := time.Now()
	deadline := start.Add(runDuration)

	frameCount := 0
	for time.Now().Before(deadline) {
		frame := prototype
		frame.Timestamp = uint64(frameCount)

		if err := writer.Write(&frame); err != nil {
			return err
		}
		frameCount++
	}

	if err := writer.Close(); err != nil {
		return err
	}
	durationSeconds := time.Since(start).Seconds()

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("failed to measure output file size: %w", err)
	}
	bytesWritten := info.Size()
	if bytesWritten == 0 {
		return errors.New("failed to measure output file size")
	}

	framesPerSecond := float64(frameCount) / durationSeconds
	bytesPerSecond := float64(bytesWritten) / durationSeconds
	averageBytesPerFrame := float64(bytesWritten) / float64(frameCount)
	totalUncompressedBytes := float64(uncompressedFrameSize) * float64(frameCount)
	uncompressedBytesPerSecond := totalUncompressedBytes / durationSeconds

	fmt.Printf("Total duration: %.3f s\n", durationSeconds)
	fmt.Printf("Frames written: %d\n", frameCount)
	fmt.Printf("Total bytes written: %d\n", bytesWritten)
	fmt.Printf("Frames per second: %.3f\n", framesPerSecond)
	fmt.Printf("Bytes per second: %.3f\n", bytesPerSecond)
	fmt.Printf("Average bytes per frame: %.3f\n", averageBytesPerFrame)
	fmt.Printf("Uncompressed bytes per frame: %d\n", uncompressedFrameSize)
	fmt.Printf("Uncompressed bytes per second: %.3f\n", uncompressedBytesPerSecond)

	return os.Remove(outputPath)
}
