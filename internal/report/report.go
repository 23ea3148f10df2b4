// Package report writes run summaries and per-column tables.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Doomsbay/BactCore/internal/engine"
)

// Summary is the JSON document written by -report.
type Summary struct {
	Input        string               `json:"input"`
	Output       string               `json:"output,omitempty"`
	Strict       bool                 `json:"strict"`
	SNPsOnly     bool                 `json:"snps_only"`
	Threshold    float64              `json:"threshold"`
	Records      int                  `json:"records"`
	DuplicateIDs int                  `json:"duplicate_ids"`
	Mask         engine.MaskStats     `json:"mask"`
	Constant     engine.ConstantSites `json:"constant_sites"`
	Written      *engine.WriteStats   `json:"written,omitempty"`
	Elapsed      map[string]string    `json:"elapsed"`
}

// NewSummary collects a completed run.
func NewSummary(input, output string, cfg engine.Config, res engine.Result) Summary {
	s := Summary{
		Input:        input,
		Output:       output,
		Strict:       cfg.Strict,
		SNPsOnly:     cfg.SNPsOnly,
		Threshold:    cfg.Threshold,
		Records:      res.Shape.Records,
		DuplicateIDs: res.Shape.DuplicateIDs,
		Mask:         res.Mask,
		Constant:     res.Constant,
		Elapsed: map[string]string{
			"scan":       res.Timings.Scan.Round(time.Millisecond).String(),
			"accumulate": res.Timings.Accumulate.Round(time.Millisecond).String(),
			"mask":       res.Timings.Mask.Round(time.Millisecond).String(),
		},
	}
	if cfg.Strict {
		s.Threshold = 1
	}
	if output != "" {
		written := res.Written
		s.Written = &written
		s.Elapsed["write"] = res.Timings.Write.Round(time.Millisecond).String()
	}
	return s
}

// WriteJSON writes v as indented JSON to path, creating parent directories.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
