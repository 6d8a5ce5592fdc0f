package bench

import (
	"io"
	"os"
	"runtime"
	"testing"

	"github.com/pantuza/blfbench/pkg/blf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig(t *testing.T) *Config {
	t.Helper()

	cfg := NewConfig()
	cfg.FileCount = 1
	cfg.MessagesPerFile = 100
	cfg.QueueSize = 10
	cfg.CompressionThreads = 2
	cfg.OutputDirectory = t.TempDir()
	return cfg
}

func TestMakeFrameIsDeterministic(t *testing.T) {
	task := &WriterTask{Index: 2, Config: NewConfig()}

	first := task.makeFrame(5)
	second := task.makeFrame(5)
	assert.Equal(t, first, second)

	assert.Equal(t, uint16(3), first.Channel)
	assert.Equal(t, uint8(8), first.DLC)
	assert.Equal(t, uint32(0x105), first.ID)
	assert.Equal(t, uint64(5), first.Timestamp)
	assert.Equal(t, uint32(0), first.Flags)
	for j := 0; j < framePayloadBytes; j++ {
		assert.Equal(t, byte((5+j)&0xFF), first.Data[j])
	}
}

func TestMakeFrameIdentifierCyclesWithinBound(t *testing.T) {
	task := &WriterTask{Index: 0, Config: NewConfig()}

	for _, seq := range []int{0, 1, 0x6FF, 0x700, 0x701, 123456} {
		frame := task.makeFrame(seq)
		assert.GreaterOrEqual(t, frame.ID, uint32(frameBaseID))
		assert.Less(t, frame.ID, uint32(frameBaseID+frameIDPeriod))
	}

	// The cycle period is fixed
	assert.Equal(t, task.makeFrame(0).ID, task.makeFrame(frameIDPeriod).ID)
}

func TestMakeFrameChannelWrapsIntoValidRange(t *testing.T) {
	wrapped := &WriterTask{Index: 0xFFFF, Config: NewConfig()}
	assert.Equal(t, uint16(1), wrapped.makeFrame(0).Channel)

	last := &WriterTask{Index: 0xFFFE, Config: NewConfig()}
	assert.Equal(t, uint16(0xFFFF), last.makeFrame(0).Channel)
}

func TestTaskRunWritesOneFile(t *testing.T) {
	cfg := smallConfig(t)
	task := &WriterTask{Index: 0, Config: cfg}

	result, err := task.Run()
	require.NoError(t, err)
	assert.Equal(t, cfg.MessagesPerFile, result.MessagesWritten)
	assert.Greater(t, result.SecondsTaken, 0.0)

	reader, err := blf.OpenReader(cfg.OutputFilePath(0))
	require.NoError(t, err)
	defer reader.Close()

	count := 0
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		assert.Equal(t, uint16(1), frame.Channel)
		assert.Equal(t, uint64(count), frame.Timestamp)
		for j := 0; j < framePayloadBytes; j++ {
			assert.Equal(t, byte((count+j)&0xFF), frame.Data[j])
		}
		count++
	}
	assert.Equal(t, cfg.MessagesPerFile, count)
}

func TestTaskRunFailsOnUnwritableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions work differently on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	cfg := smallConfig(t)
	require.NoError(t, os.Chmod(cfg.OutputDirectory, 0o555))
	defer os.Chmod(cfg.OutputDirectory, 0o755)

	task := &WriterTask{Index: 0, Config: cfg}
	_, err := task.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.OutputFilePath(0))
}
