package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lumelodos/tomelate/internal/apperrors"
	"github.com/lumelodos/tomelate/internal/gemini"
	"github.com/lumelodos/tomelate/internal/pdfx"
	"github.com/lumelodos/tomelate/internal/store"
)

// scriptedTransformer lets a test vary behavior per page.
type scriptedTransformer struct {
	transcribe func(img []byte) (string, gemini.Usage, error)
	translate  func(text string) (string, gemini.Usage, error)

	mu              sync.Mutex
	transcribeCalls int
	translateCalls  int
}

func (s *scriptedTransformer) Transcribe(_ context.Context, img []byte) (string, gemini.Usage, error) {
	s.mu.Lock()
	s.transcribeCalls++
	s.mu.Unlock()
	return s.transcribe(img)
}

func (s *scriptedTransformer) Translate(_ context.Context, text string) (string, gemini.Usage, error) {
	s.mu.Lock()
	s.translateCalls++
	s.mu.Unlock()
	return s.translate(text)
}

func (s *scriptedTransformer) calls() (transcribe, translate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcribeCalls, s.translateCalls
}

func testPages() []pdfx.Page {
	return []pdfx.Page{
		{Number: 1, PNG: []byte("page-1")},
		{Number: 2, Blank: true},
		{Number: 3, PNG: []byte("page-3")},
	}
}

func TestRun_HappyPath(t *testing.T) {
	mock := &gemini.MockTransformer{
		TranscribeText: "transcribed text",
		TranslateText:  "translated text",
		Usage:          gemini.Usage{InputTokens: 100, OutputTokens: 50},
	}
	var mu sync.Mutex
	var percents []int
	cfg := Config{
		InputPath:   "book.pdf",
		DataDir:     t.TempDir(),
		Extractor:   stubExtractor{pages: testPages()},
		Transformer: mock,
		OnProgress: func(p Progress) {
			mu.Lock()
			percents = append(percents, p.Percent)
			mu.Unlock()
		},
	}

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", res.Status, StatusSuccess)
	}
	if res.TotalPages != 3 || res.CompiledPages != 2 || res.BlankPages != 1 || res.FailedPages != 0 {
		t.Errorf("unexpected page accounting: %+v", res)
	}
	if res.InputTokens != 400 || res.OutputTokens != 200 {
		t.Errorf("token totals = %d/%d, want 400/200", res.InputTokens, res.OutputTokens)
	}
	if res.TotalCost <= 0 {
		t.Errorf("expected positive cost, got %v", res.TotalCost)
	}

	// The blank page never reaches the transformation service.
	tc, tl := mock.Calls()
	if tc != 2 || tl != 2 {
		t.Errorf("transformer calls = %d/%d, want 2/2", tc, tl)
	}

	doc, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("compiled document missing: %v", err)
	}
	for _, want := range []string{"## PDF Page: 1 ", "## PDF Page: 3 ", "translated text"} {
		if !bytes.Contains(doc, []byte(want)) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
	if bytes.Contains(doc, []byte("## PDF Page: 2 ")) {
		t.Errorf("blank page should not be compiled:\n%s", doc)
	}

	st := store.NewJobStore(cfg.DataDir, "book")
	for page := 1; page <= 3; page++ {
		for _, stage := range []store.Stage{store.StageTranscription, store.StageTranslation} {
			if _, err := st.ReadStage(stage, page); err != nil {
				t.Errorf("missing %s artifact for page %d: %v", stage, page, err)
			}
		}
	}
	if _, err := os.Stat(st.CostLogPath()); err != nil {
		t.Errorf("cost log not saved: %v", err)
	}
	if _, err := os.Stat(st.CostSummaryPath()); err != nil {
		t.Errorf("cost summary not saved: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	prev := -1
	for _, p := range percents[:len(percents)-1] {
		if p < prev {
			t.Fatalf("progress regressed: %v", percents)
		}
		if p > progressCeiling {
			t.Fatalf("transformation progress exceeded ceiling: %v", percents)
		}
		prev = p
	}
	if final := percents[len(percents)-1]; final != 100 {
		t.Fatalf("final progress = %d, want 100", final)
	}
}

func TestRun_PermanentPageFailure(t *testing.T) {
	usage := gemini.Usage{InputTokens: 10, OutputTokens: 5}
	scripted := &scriptedTransformer{
		transcribe: func(img []byte) (string, gemini.Usage, error) {
			if string(img) == "page-3" {
				return "", gemini.Usage{}, apperrors.BadRequest(errors.New("unreadable scan"))
			}
			return "transcript of " + string(img), usage, nil
		},
		translate: func(text string) (string, gemini.Usage, error) {
			return "translation of " + text, usage, nil
		},
	}
	cfg := Config{
		InputPath:   "book.pdf",
		DataDir:     t.TempDir(),
		Extractor:   stubExtractor{pages: testPages()},
		Transformer: scripted,
	}

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Status != StatusPartialSuccess {
		t.Errorf("Status = %q, want %q", res.Status, StatusPartialSuccess)
	}
	if res.FailedPages != 1 || res.CompiledPages != 1 || res.BlankPages != 1 {
		t.Errorf("unexpected page accounting: %+v", res)
	}

	st := store.NewJobStore(cfg.DataDir, "book")
	failed, err := st.ReadStage(store.StageTranslation, 3)
	if err != nil {
		t.Fatalf("failed page artifact missing: %v", err)
	}
	if !IsSentinel(failed) || !strings.Contains(failed, "page 3") {
		t.Errorf("expected sentinel artifact for page 3, got %q", failed)
	}

	// The sentinel passes through translation without a service call.
	_, tl := scripted.calls()
	if tl != 1 {
		t.Errorf("translate calls = %d, want 1", tl)
	}

	doc, err := st.ReadDocument()
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if !strings.Contains(doc, "## PDF Page: 1 ") {
		t.Errorf("document missing surviving page:\n%s", doc)
	}
	if strings.Contains(doc, "## PDF Page: 3 ") || strings.Contains(doc, "Error:") {
		t.Errorf("failed page leaked into document:\n%s", doc)
	}
}

func TestRun_ArtifactWriteFailureIsFatal(t *testing.T) {
	dataDir := t.TempDir()
	translationDir := filepath.Join(dataDir, "book", string(store.StageTranslation))

	// Swap the translation directory for a regular file once the pipeline is
	// underway, so the next stage artifact write fails.
	var sabotage sync.Once
	usage := gemini.Usage{InputTokens: 10, OutputTokens: 5}
	scripted := &scriptedTransformer{
		transcribe: func(img []byte) (string, gemini.Usage, error) {
			sabotage.Do(func() {
				if err := os.RemoveAll(translationDir); err != nil {
					t.Errorf("failed to remove translation dir: %v", err)
				}
				if err := os.WriteFile(translationDir, []byte("in the way"), 0644); err != nil {
					t.Errorf("failed to occupy translation path: %v", err)
				}
			})
			return "transcript of " + string(img), usage, nil
		},
		translate: func(text string) (string, gemini.Usage, error) {
			return "translation of " + text, usage, nil
		},
	}

	var mu sync.Mutex
	last := 0
	cfg := Config{
		InputPath:   "book.pdf",
		DataDir:     dataDir,
		Extractor:   stubExtractor{pages: testPages()},
		Transformer: scripted,
		OnProgress: func(p Progress) {
			mu.Lock()
			last = p.Percent
			mu.Unlock()
		},
	}

	res, err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error from failed artifact write")
	}
	if res.Status != StatusFailure {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailure)
	}

	mu.Lock()
	finalPercent := last
	mu.Unlock()
	if finalPercent != ProgressFailed {
		t.Errorf("final progress = %d, want %d", finalPercent, ProgressFailed)
	}

	st := store.NewJobStore(dataDir, "book")
	if _, err := os.Stat(st.CostLogPath()); err != nil {
		t.Errorf("cost log should be saved even on a fatal failure: %v", err)
	}
	if _, err := os.Stat(st.CostSummaryPath()); err != nil {
		t.Errorf("cost summary should be saved even on a fatal failure: %v", err)
	}
	if _, err := os.Stat(st.DocumentPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no document should be compiled after a fatal failure, stat err = %v", err)
	}
}

func TestRun_ExtractionFailure(t *testing.T) {
	cfg := Config{
		InputPath:   "book.pdf",
		DataDir:     t.TempDir(),
		Extractor:   stubExtractor{err: errors.New("corrupt file")},
		Transformer: &gemini.MockTransformer{},
	}

	res, err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Status != StatusFailure {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailure)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var mu sync.Mutex
	last := 0
	cfg := Config{
		InputPath:   "book.pdf",
		DataDir:     t.TempDir(),
		Extractor:   stubExtractor{pages: testPages()},
		Transformer: &gemini.MockTransformer{TranscribeText: "x", TranslateText: "y"},
		OnProgress: func(p Progress) {
			mu.Lock()
			last = p.Percent
			mu.Unlock()
		},
	}

	res, err := Run(ctx, cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Status != StatusFailure {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailure)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != ProgressFailed {
		t.Errorf("final progress = %d, want %d", last, ProgressFailed)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
