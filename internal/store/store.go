// Package store owns the durable per-job workspace: one artifact per page per
// stage, the compiled document, and the cost log/summary. Every page artifact
// is written by exactly one worker, so no file-level locking is needed.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lumelodos/tomelate/internal/files"
)

// Stage identifies which transformation produced an artifact.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageTranslation   Stage = "translation"
)

const (
	documentName    = "translated.md"
	costLogName     = "cost_log.json"
	costSummaryName = "cost_summary.json"
)

var pageFilePattern = regexp.MustCompile(`^page_(\d+)\.md$`)

// JobIDFromSource derives the job identifier from the source filename:
// the base name without its extension.
func JobIDFromSource(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// JobStore maps one job to its directory namespace under a data root.
type JobStore struct {
	root  string
	jobID string
}

func NewJobStore(root, jobID string) *JobStore {
	return &JobStore{root: root, jobID: jobID}
}

func (s *JobStore) JobID() string { return s.jobID }

// Dir returns the job's directory under the data root.
func (s *JobStore) Dir() string {
	return filepath.Join(s.root, s.jobID)
}

// EnsureLayout creates the job directory and both stage subdirectories.
func (s *JobStore) EnsureLayout() error {
	for _, stage := range []Stage{StageTranscription, StageTranslation} {
		if err := os.MkdirAll(s.stageDir(stage), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", stage, err)
		}
	}
	return nil
}

func (s *JobStore) stageDir(stage Stage) string {
	return filepath.Join(s.Dir(), string(stage))
}

// StagePath returns the artifact path for one page of one stage.
func (s *JobStore) StagePath(stage Stage, page int) string {
	return filepath.Join(s.stageDir(stage), fmt.Sprintf("page_%d.md", page))
}

// WriteStage persists one page's stage artifact atomically.
func (s *JobStore) WriteStage(stage Stage, page int, text string) error {
	if err := files.AtomicWrite(s.StagePath(stage, page), []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to save page %d %s: %w", page, stage, err)
	}
	return nil
}

// ReadStage reads one page's stage artifact. Missing artifacts surface as
// os.ErrNotExist so callers can distinguish "never written" from I/O failure.
func (s *JobStore) ReadStage(stage Stage, page int) (string, error) {
	data, err := os.ReadFile(s.StagePath(stage, page))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MaxStagePage scans a stage directory for the highest page number present.
// Returns 0 when no artifacts exist.
func (s *JobStore) MaxStagePage(stage Stage) (int, error) {
	entries, err := os.ReadDir(s.stageDir(stage))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	max := 0
	for _, e := range entries {
		m := pageFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// DocumentPath returns the compiled document path.
func (s *JobStore) DocumentPath() string {
	return filepath.Join(s.Dir(), documentName)
}

// WriteDocument persists the compiled document atomically, so a failed write
// never corrupts a previously compiled document or any page artifact.
func (s *JobStore) WriteDocument(text string) error {
	if err := files.AtomicWrite(s.DocumentPath(), []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to save compiled document: %w", err)
	}
	return nil
}

// ReadDocument reads back the compiled document.
func (s *JobStore) ReadDocument() (string, error) {
	data, err := os.ReadFile(s.DocumentPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *JobStore) CostLogPath() string {
	return filepath.Join(s.Dir(), costLogName)
}

func (s *JobStore) CostSummaryPath() string {
	return filepath.Join(s.Dir(), costSummaryName)
}
