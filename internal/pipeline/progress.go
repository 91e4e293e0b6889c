package pipeline

import "sync"

// progressCeiling caps reported progress while transformation is running;
// the remaining headroom signals that compilation is a distinct final step.
const progressCeiling = 95

// ProgressFailed is reported after a fatal job-level failure.
const ProgressFailed = -1

// Progress is a snapshot of per-stage completion counts for one job.
type Progress struct {
	TotalPages  int
	Transcribed int
	Translated  int
	Percent     int
}

// Tracker aggregates stage completions for one job. It is safe to share with
// external pollers; all mutation goes through its lock-guarded methods.
type Tracker struct {
	mu         sync.Mutex
	total      int
	transcribe int
	translate  int
	percent    int
	onProgress func(Progress)
}

func newTracker(totalPages int, onProgress func(Progress)) *Tracker {
	return &Tracker{total: totalPages, onProgress: onProgress}
}

// Percent returns the last reported progress: 0-100, or -1 after a fatal
// failure. Monotonically non-decreasing until failure.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Progress {
	return Progress{
		TotalPages:  t.total,
		Transcribed: t.transcribe,
		Translated:  t.translate,
		Percent:     t.percent,
	}
}

func (t *Tracker) pageTranscribed() {
	t.bump(func() { t.transcribe++ })
}

func (t *Tracker) pageTranslated() {
	t.bump(func() { t.translate++ })
}

func (t *Tracker) bump(apply func()) {
	t.mu.Lock()
	apply()
	if t.total > 0 {
		t.percent = (t.transcribe + t.translate) * progressCeiling / (2 * t.total)
	}
	snap := t.snapshotLocked()
	cb := t.onProgress
	t.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// finish forces progress to 100 once compilation has succeeded.
func (t *Tracker) finish() {
	t.setTerminal(100)
}

// fail forces progress to the failure marker.
func (t *Tracker) fail() {
	t.setTerminal(ProgressFailed)
}

func (t *Tracker) setTerminal(percent int) {
	t.mu.Lock()
	t.percent = percent
	snap := t.snapshotLocked()
	cb := t.onProgress
	t.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}
