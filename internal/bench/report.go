package bench

import (
	"fmt"
	"strings"
)

// ApproxFrameSizeBytes is a rough per-frame on-disk estimate including
// container headers. The aggregate byte throughput derived from it is an
// approximation, not a measurement of the actual compressed output.
const ApproxFrameSizeBytes = 32.0

// RenderSummary formats the benchmark report. It is a pure function of the
// run configuration, the per-task results in index order and the total
// wall-clock seconds measured by the orchestrator.
//
// Two throughput figures intentionally differ: the aggregate frames per
// second divides by the shared total elapsed time, while each per-writer
// line divides by that writer's own elapsed time.
func RenderSummary(cfg *Config, results []WriterResult, totalSeconds float64) string {
	totalFrames := cfg.FileCount * cfg.MessagesPerFile
	framesPerSecond := float64(totalFrames) / totalSeconds
	megabytes := (float64(totalFrames) * ApproxFrameSizeBytes) / (1024.0 * 1024.0)
	megabytesPerSecond := megabytes / totalSeconds

	var report strings.Builder

	fmt.Fprintf(&report, "\nBenchmark summary\n")
	fmt.Fprintf(&report, "-----------------\n")
	fmt.Fprintf(&report, "Files written          : %d\n", cfg.FileCount)
	fmt.Fprintf(&report, "Frames per file        : %d\n", cfg.MessagesPerFile)
	fmt.Fprintf(&report, "Object queue size      : %d\n", cfg.QueueSize)
	fmt.Fprintf(&report, "Uncompressed buffer    : %d bytes\n", cfg.UncompressedBufferSize)
	fmt.Fprintf(&report, "Log container size     : %d bytes\n", cfg.LogContainerSize)
	fmt.Fprintf(&report, "Compression threads    : %d\n", cfg.CompressionThreads)
	fmt.Fprintf(&report, "Total frames           : %d\n", totalFrames)
	fmt.Fprintf(&report, "Wall-clock time        : %.3f s\n", totalSeconds)
	fmt.Fprintf(&report, "Frames per second      : %.3f fps\n", framesPerSecond)
	fmt.Fprintf(&report, "Approx. throughput     : %.3f MiB/s\n", megabytesPerSecond)

	fmt.Fprintf(&report, "\nPer-writer timings\n")
	fmt.Fprintf(&report, "------------------\n")
	for index, result := range results {
		writerFPS := float64(result.MessagesWritten) / result.SecondsTaken
		fmt.Fprintf(&report, "Writer %d: %.3f s (%.3f fps)\n", index+1, result.SecondsTaken, writerFPS)
	}

	return report.String()
}
