// Package pipeline wires the loader and the workbook writer into one run.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/nconklindev/tidysheet/internal/config"
	"github.com/nconklindev/tidysheet/internal/loader"
	"github.com/nconklindev/tidysheet/internal/table"
	"github.com/nconklindev/tidysheet/internal/types"
	"github.com/nconklindev/tidysheet/internal/writer"
)

// Options tune a run beyond what Config covers.
type Options struct {
	// Only restricts the run to the named sheets; nil keeps all.
	Only     map[string]bool
	Progress chan<- float64
	// Now stamps the default output file name; nil means time.Now.
	Now func() time.Time
}

// Run loads cfg.InputPath and processes every sheet.
func Run(cfg *config.Config, logger *slog.Logger, opts Options) (*types.RunResult, error) {
	wb, err := loader.Load(cfg.InputPath, logger)
	if err != nil {
		return nil, err
	}
	return Process(wb, cfg, logger, opts)
}

// Process cleans, writes and charts an already loaded workbook.
func Process(wb *table.Workbook, cfg *config.Config, logger *slog.Logger, opts Options) (*types.RunResult, error) {
	w := writer.New(logger)
	w.ChartsDir = cfg.ChartsDir
	w.Only = opts.Only
	w.Progress = opts.Progress
	if opts.Now != nil {
		w.Now = opts.Now
	}
	if !cfg.Charts {
		w.Charts = nil
	}

	result, err := w.Write(wb, cfg.OutputDir, cfg.OutputName)
	if err != nil {
		return nil, err
	}
	result.InputFile = cfg.InputPath
	return result, nil
}
