package pipeline

import (
	"context"
	"fmt"

	"github.com/lumelodos/tomelate/internal/gemini"
	"github.com/lumelodos/tomelate/internal/pdfx"
)

// Extractor splits a source document into ordered page units.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]pdfx.Page, error)
}

// Config holds everything required to run one translation job.
type Config struct {
	// IO
	InputPath string
	DataDir   string // per-job workspaces are created underneath; default "data"

	// Collaborators
	Extractor   Extractor
	Transformer gemini.Transformer

	// Processing parameters. Transcription runs wider than translation to
	// keep the downstream pool from being flooded by upstream completions.
	TranscribeWorkers int
	TranslateWorkers  int
	MaxAttempts       int

	// OnProgress is called after every stage completion with a snapshot.
	OnProgress func(Progress)
}

const (
	DefaultTranscribeWorkers = 8
	DefaultTranslateWorkers  = 6
	DefaultMaxAttempts       = 5

	MinWorkers     = 1
	MaxWorkers     = 20
	MaxAttemptsCap = 10

	DefaultDataDir = "data"
)

func clampWorkers(value, fallback int) (int, bool) {
	if value == 0 {
		return fallback, false
	}
	if value < MinWorkers {
		return MinWorkers, true
	}
	if value > MaxWorkers {
		return MaxWorkers, true
	}
	return value, false
}

// Normalize applies defaults and safe bounds, returning notes for any
// adjustment made.
func (c Config) Normalize() (Config, []string) {
	var notes []string

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if clamped, changed := clampWorkers(c.TranscribeWorkers, DefaultTranscribeWorkers); changed {
		notes = append(notes, fmt.Sprintf("transcribe workers clamped from %d to %d", c.TranscribeWorkers, clamped))
		c.TranscribeWorkers = clamped
	} else {
		c.TranscribeWorkers = clamped
	}
	if clamped, changed := clampWorkers(c.TranslateWorkers, DefaultTranslateWorkers); changed {
		notes = append(notes, fmt.Sprintf("translate workers clamped from %d to %d", c.TranslateWorkers, clamped))
		c.TranslateWorkers = clamped
	} else {
		c.TranslateWorkers = clamped
	}

	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxAttempts < 1 {
		notes = append(notes, fmt.Sprintf("max attempts raised from %d to 1", c.MaxAttempts))
		c.MaxAttempts = 1
	}
	if c.MaxAttempts > MaxAttemptsCap {
		notes = append(notes, fmt.Sprintf("max attempts clamped from %d to %d", c.MaxAttempts, MaxAttemptsCap))
		c.MaxAttempts = MaxAttemptsCap
	}

	return c, notes
}

// Validate checks that the configuration can run.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Extractor == nil {
		return fmt.Errorf("extractor is required")
	}
	if c.Transformer == nil {
		return fmt.Errorf("transformer is required")
	}
	if c.TranscribeWorkers < 1 || c.TranslateWorkers < 1 {
		return fmt.Errorf("worker counts must be at least 1")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	return nil
}
