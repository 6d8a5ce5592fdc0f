package bench

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/pantuza/blfbench/pkg/blf"
	"github.com/pantuza/blfbench/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeWriter implements types.FrameWriter without touching the filesystem.
// It fails Open when the output path contains one of the markers.
type fakeWriter struct {
	factory *fakeFactory

	open    bool
	written int
}

type fakeFactory struct {
	failMarkers []string

	mu          sync.Mutex
	openedPaths []string
}

func (f *fakeFactory) new() types.FrameWriter {
	return &fakeWriter{factory: f}
}

func (f *fakeFactory) recordOpen(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openedPaths = append(f.openedPaths, path)
}

func (f *fakeFactory) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.openedPaths)
}

func (w *fakeWriter) SetDefaultLogContainerSize(size int) error { return nil }
func (w *fakeWriter) SetWriteBufferSizes(queueCapacity, uncompressedBufferSize int) error {
	return nil
}
func (w *fakeWriter) SetCompressionThreadCount(count int) error { return nil }

func (w *fakeWriter) Open(path string) error {
	w.factory.recordOpen(path)
	for _, marker := range w.factory.failMarkers {
		if strings.Contains(path, marker) {
			return fmt.Errorf("injected open failure for '%s'", path)
		}
	}
	w.open = true
	return nil
}

func (w *fakeWriter) IsOpen() bool { return w.open }

func (w *fakeWriter) Write(frame *blf.Frame) error {
	w.written++
	return nil
}

func (w *fakeWriter) Close() error {
	w.open = false
	return nil
}

func TestOrchestratorRunWritesAllFiles(t *testing.T) {
	cfg := NewConfig()
	cfg.FileCount = 3
	cfg.MessagesPerFile = 100
	cfg.QueueSize = 10
	cfg.CompressionThreads = 2
	cfg.OutputDirectory = t.TempDir()

	orchestrator := NewOrchestrator(cfg, zap.NewNop())
	results, totalSeconds, err := orchestrator.Run()
	require.NoError(t, err)

	assert.Greater(t, totalSeconds, 0.0)
	require.Len(t, results, 3)

	totalFrames := 0
	for index, result := range results {
		assert.Equal(t, 100, result.MessagesWritten)
		assert.Greater(t, result.SecondsTaken, 0.0)
		totalFrames += result.MessagesWritten

		reader, err := blf.OpenReader(cfg.OutputFilePath(index))
		require.NoError(t, err)

		count := 0
		for {
			frame, err := reader.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			assert.Equal(t, uint16(index+1), frame.Channel)
			count++
		}
		require.NoError(t, reader.Close())
		assert.Equal(t, 100, count)
	}
	assert.Equal(t, cfg.FileCount*cfg.MessagesPerFile, totalFrames)
}

func TestOrchestratorReportsFirstFailureAfterFullJoin(t *testing.T) {
	cfg := NewConfig()
	cfg.FileCount = 3
	cfg.MessagesPerFile = 10
	cfg.OutputDirectory = "unused"

	factory := &fakeFactory{failMarkers: []string{"can_channel_2.blf"}}
	orchestrator := NewOrchestrator(cfg, zap.NewNop())
	orchestrator.newWriter = factory.new

	results, _, err := orchestrator.Run()
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "can_channel_2.blf")

	// Sibling tasks were not aborted: every task reached Open
	assert.Equal(t, 3, factory.openCount())
}

func TestOrchestratorSurfacesLowestIndexFailure(t *testing.T) {
	cfg := NewConfig()
	cfg.FileCount = 4
	cfg.MessagesPerFile = 10
	cfg.OutputDirectory = "unused"

	factory := &fakeFactory{failMarkers: []string{"can_channel_2.blf", "can_channel_4.blf"}}
	orchestrator := NewOrchestrator(cfg, zap.NewNop())
	orchestrator.newWriter = factory.new

	_, _, err := orchestrator.Run()
	require.Error(t, err)

	// Failure slots are scanned in index order; later failures are discarded
	assert.Contains(t, err.Error(), "can_channel_2.blf")
	assert.NotContains(t, err.Error(), "can_channel_4.blf")
}

func TestOrchestratorRunIsRepeatable(t *testing.T) {
	cfg := NewConfig()
	cfg.FileCount = 2
	cfg.MessagesPerFile = 50
	cfg.QueueSize = 5
	cfg.CompressionThreads = 1
	cfg.OutputDirectory = t.TempDir()

	orchestrator := NewOrchestrator(cfg, zap.NewNop())

	_, _, err := orchestrator.Run()
	require.NoError(t, err)

	// Re-running the same configuration overwrites the same files
	results, _, err := orchestrator.Run()
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
