// Command combine runs one combine job described by a YAML file and
// writes the configured report files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v2"

	"gridmerge/internal/config"
	"gridmerge/internal/infrastructure"
	"gridmerge/internal/operations"
)

func main() {
	jobFile := flag.String("job", "", "path to the YAML job file (required)")
	csvOut := flag.String("csv", "", "override the job's CSV output path")
	excelOut := flag.String("xlsx", "", "override the job's Excel output path")
	workers := flag.Int("workers", 0, "parallel sources; 0 keeps the job's setting")
	flag.Parse()

	if *jobFile == "" {
		fmt.Fprintln(os.Stderr, "usage: combine -job job.yaml [-csv out.csv] [-xlsx out.xlsx]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		def := config.Default()
		cfg = &def
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)

	job, err := loadJob(*jobFile)
	if err != nil {
		logger.Error("failed to load job file", "error", err, "path", *jobFile)
		os.Exit(1)
	}
	if *csvOut != "" {
		job.Output.CSVPath = *csvOut
	}
	if *excelOut != "" {
		job.Output.ExcelPath = *excelOut
	}
	if *workers > 0 {
		job.Workers = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := operations.NewManager(logger)
	state, err := manager.Run(ctx, job)
	if err != nil {
		logger.Error("combine failed", "error", err)
		os.Exit(1)
	}

	for _, w := range state.Warnings {
		logger.Warn("combine warning",
			"source", w.Source,
			"column", w.Column,
			"code", w.Code,
			"message", w.Message)
	}
	logger.Info("combine finished",
		"operation_id", state.ID,
		"rows", len(state.Combined.Rows),
		"columns", len(state.Combined.Columns),
		"warnings", len(state.Warnings))
}

func loadJob(path string) (*operations.JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	var job operations.JobSpec
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job file: %w", err)
	}
	return &job, nil
}
