package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pantuza/blfbench/internal/bench"
	"github.com/pantuza/blfbench/internal/logs"
	"github.com/pantuza/blfbench/pkg/archive/awss3"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := bench.ParseArgs(args[1:])
	if errors.Is(err, bench.ErrHelp) {
		fmt.Print(bench.Usage(args[0]))
		return nil
	}
	if err != nil {
		return err
	}

	logger, err := logs.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Debug("resolved run configuration", zap.String("config", spew.Sdump(cfg)))

	if err := os.MkdirAll(cfg.OutputDirectory, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory '%s': %w", cfg.OutputDirectory, err)
	}

	orchestrator := bench.NewOrchestrator(cfg, logger)
	results, totalSeconds, err := orchestrator.Run()
	if err != nil {
		return err
	}

	fmt.Print(bench.RenderSummary(cfg, results, totalSeconds))

	if cfg.Archive != nil {
		return archiveRun(cfg, logger)
	}

	return nil
}

// archiveRun uploads the generated log files after a successful run.
func archiveRun(cfg *bench.Config, logger *zap.Logger) error {
	archiver := awss3.NewArchiver(cfg.Archive, logger)
	if err := archiver.Open(); err != nil {
		return err
	}

	paths := make([]string, 0, cfg.FileCount)
	for index := 0; index < cfg.FileCount; index++ {
		paths = append(paths, cfg.OutputFilePath(index))
	}

	return archiver.Upload(context.Background(), paths)
}
