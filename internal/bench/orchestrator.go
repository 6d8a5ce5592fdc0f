package bench

import (
	"sync"
	"time"

	"github.com/pantuza/blfbench/pkg/types"
	"go.uber.org/zap"
)

// Orchestrator fans out one WriterTask per output file, joins them all and
// aggregates their measurements. Result and failure slots are pre-sized
// before launch; each task writes only its own index, and no slot is read
// until every task has been joined.
type Orchestrator struct {
	cfg    *Config
	logger *zap.Logger

	// newWriter overrides the writer factory handed to every task.
	// Left nil outside of tests.
	newWriter func() types.FrameWriter
}

func NewOrchestrator(cfg *Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, logger: logger}
}

// Run launches every writer task at once, with no throttling between
// launches, and returns only after the slowest task has finished. On
// success it returns the per-task results and the total wall-clock seconds
// measured from first launch to last join. On failure it returns the first
// failure in task index order; remaining failures are logged and discarded.
func (o *Orchestrator) Run() ([]WriterResult, float64, error) {
	results := make([]WriterResult, o.cfg.FileCount)
	failures := make([]error, o.cfg.FileCount)

	var waitGroup sync.WaitGroup
	waitGroup.Add(o.cfg.FileCount)

	start := time.Now()
	for index := 0; index < o.cfg.FileCount; index++ {
		task := &WriterTask{
			Index:     index,
			Config:    o.cfg,
			NewWriter: o.newWriter,
		}

		go func(index int, task *WriterTask) {
			defer waitGroup.Done()
			results[index], failures[index] = task.Run()
		}(index, task)
	}

	waitGroup.Wait()
	totalSeconds := time.Since(start).Seconds()

	var firstFailure error
	for index, err := range failures {
		if err == nil {
			continue
		}
		if firstFailure == nil {
			firstFailure = err
			continue
		}
		o.logger.Warn("discarding secondary writer failure",
			zap.Int("writer", index+1),
			zap.Error(err),
		)
	}

	if firstFailure != nil {
		return nil, 0, firstFailure
	}

	o.logger.Info("all writer tasks joined",
		zap.Int("files", o.cfg.FileCount),
		zap.Float64("totalSeconds", totalSeconds),
	)

	return results, totalSeconds, nil
}
