// Package pipeline orchestrates a two-stage page transformation: transcription
// of rendered page images followed by translation of the transcribed text. The
// stages overlap; each page enters translation as soon as its transcription
// lands, without waiting for the rest of the document.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lumelodos/tomelate/internal/costs"
	"github.com/lumelodos/tomelate/internal/gemini"
	"github.com/lumelodos/tomelate/internal/logger"
	"github.com/lumelodos/tomelate/internal/mdclean"
	"github.com/lumelodos/tomelate/internal/pdfx"
	"github.com/lumelodos/tomelate/internal/store"
)

// stageResult carries one page between stages. failed marks pages whose
// artifact holds sentinel text rather than real content.
type stageResult struct {
	page   int
	text   string
	failed bool
}

type job struct {
	cfg     Config
	st      *store.JobStore
	ledger  *costs.Ledger
	tracker *Tracker
	retry   retryPolicy
	cancel  context.CancelFunc

	mu     sync.Mutex
	failed map[int]bool
	blank  map[int]bool

	fatalOnce sync.Once
	fatalErr  error
}

// Run executes one full job: extract, transcribe, translate, compile. Page
// failures degrade the result; only environment problems (extraction, artifact
// writes, cancellation) abort the run.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cfg, notes := cfg.Normalize()
	for _, n := range notes {
		logger.Warn("Adjusted configuration", "note", n)
	}
	if err := cfg.Validate(); err != nil {
		return Result{Status: StatusFailure}, err
	}

	jobID := store.JobIDFromSource(cfg.InputPath)
	st := store.NewJobStore(cfg.DataDir, jobID)
	if err := st.EnsureLayout(); err != nil {
		return Result{Status: StatusFailure}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	j := &job{
		cfg:     cfg,
		st:      st,
		ledger:  costs.NewLedger(jobID, st.CostLogPath(), st.CostSummaryPath()),
		retry:   newRetryPolicy(cfg.MaxAttempts),
		cancel:  cancel,
		failed:  map[int]bool{},
		blank:   map[int]bool{},
	}
	return j.run(ctx)
}

func (j *job) run(ctx context.Context) (Result, error) {
	logger.Info("Starting job", "job_id", j.st.JobID(), "input", j.cfg.InputPath)

	pages, err := j.cfg.Extractor.Extract(ctx, j.cfg.InputPath)
	if err != nil {
		return j.abort(fmt.Errorf("failed to extract pages: %w", err))
	}
	total := len(pages)
	j.tracker = newTracker(total, j.cfg.OnProgress)
	logger.Info("Extracted pages", "pages", total)

	j.transform(ctx, pages)

	if err := j.fatal(); err != nil {
		return j.abort(err)
	}
	if err := ctx.Err(); err != nil {
		return j.abort(err)
	}

	compiled, err := CompileDocument(j.st, total)
	if err != nil {
		return j.abort(err)
	}
	j.tracker.finish()
	j.saveCosts()

	cost, in, out, _ := j.ledger.Totals()
	res := Result{
		Status:        StatusSuccess,
		OutputPath:    j.st.DocumentPath(),
		TotalPages:    total,
		CompiledPages: compiled,
		FailedPages:   len(j.failed),
		BlankPages:    len(j.blank),
		InputTokens:   in,
		OutputTokens:  out,
		TotalCost:     cost,
	}
	if res.FailedPages > 0 {
		res.Status = StatusPartialSuccess
	}
	logger.Info("Job finished",
		"status", res.Status,
		"compiled", res.CompiledPages,
		"failed", res.FailedPages,
		"blank", res.BlankPages,
		"cost_usd", fmt.Sprintf("%.4f", res.TotalCost),
	)
	return res, nil
}

// transform runs the two overlapping worker pools and blocks until every page
// has passed through both stages.
func (j *job) transform(ctx context.Context, pages []pdfx.Page) {
	transcribeIn := make(chan pdfx.Page)
	translateIn := make(chan stageResult)

	go func() {
		defer close(transcribeIn)
		for _, p := range pages {
			select {
			case <-ctx.Done():
				return
			case transcribeIn <- p:
			}
		}
	}()

	var transcribeWG sync.WaitGroup
	for i := 0; i < j.cfg.TranscribeWorkers; i++ {
		transcribeWG.Add(1)
		go func() {
			defer transcribeWG.Done()
			for p := range transcribeIn {
				r := j.transcribePage(ctx, p)
				select {
				case <-ctx.Done():
					return
				case translateIn <- r:
				}
			}
		}()
	}
	go func() {
		transcribeWG.Wait()
		close(translateIn)
	}()

	var translateWG sync.WaitGroup
	for i := 0; i < j.cfg.TranslateWorkers; i++ {
		translateWG.Add(1)
		go func() {
			defer translateWG.Done()
			for r := range translateIn {
				j.translatePage(ctx, r)
			}
		}()
	}
	translateWG.Wait()
}

func (j *job) transcribePage(ctx context.Context, p pdfx.Page) stageResult {
	if j.fatal() != nil {
		return stageResult{page: p.Number, failed: true}
	}
	if p.Blank {
		logger.Info("Page is blank, skipping transcription", "page", p.Number)
		j.markBlank(p.Number)
		if err := j.st.WriteStage(store.StageTranscription, p.Number, ""); err != nil {
			j.abortWith(err)
			return stageResult{page: p.Number, failed: true}
		}
		j.tracker.pageTranscribed()
		return stageResult{page: p.Number}
	}

	text, usage, dur, ok := j.retry.do(ctx, "transcribe", p.Number, func(ctx context.Context) (string, gemini.Usage, error) {
		return j.cfg.Transformer.Transcribe(ctx, p.PNG)
	})
	if ok {
		text = mdclean.Clean(text)
		j.ledger.RecordCall(costs.OpTranscription, p.Number, usage.InputTokens, usage.OutputTokens, usage.Estimated, dur)
	} else {
		j.markFailed(p.Number)
	}

	if err := j.st.WriteStage(store.StageTranscription, p.Number, text); err != nil {
		j.abortWith(err)
		return stageResult{page: p.Number, failed: true}
	}
	j.tracker.pageTranscribed()
	return stageResult{page: p.Number, text: text, failed: !ok}
}

func (j *job) translatePage(ctx context.Context, r stageResult) {
	if j.fatal() != nil {
		return
	}
	// Sentinel and blank text passes through unchanged so the translation
	// directory stays a complete per-page record of the job.
	if r.failed || strings.TrimSpace(r.text) == "" {
		if err := j.st.WriteStage(store.StageTranslation, r.page, r.text); err != nil {
			j.abortWith(err)
			return
		}
		j.tracker.pageTranslated()
		return
	}

	text, usage, dur, ok := j.retry.do(ctx, "translate", r.page, func(ctx context.Context) (string, gemini.Usage, error) {
		return j.cfg.Transformer.Translate(ctx, r.text)
	})
	if ok {
		text = mdclean.Clean(text)
		j.ledger.RecordCall(costs.OpTranslation, r.page, usage.InputTokens, usage.OutputTokens, usage.Estimated, dur)
	} else {
		j.markFailed(r.page)
	}

	if err := j.st.WriteStage(store.StageTranslation, r.page, text); err != nil {
		j.abortWith(err)
		return
	}
	j.tracker.pageTranslated()
}

func (j *job) markFailed(page int) {
	j.mu.Lock()
	j.failed[page] = true
	j.mu.Unlock()
}

func (j *job) markBlank(page int) {
	j.mu.Lock()
	j.blank[page] = true
	j.mu.Unlock()
}

// abortWith records the first fatal error and cancels in-flight work.
func (j *job) abortWith(err error) {
	j.fatalOnce.Do(func() {
		j.mu.Lock()
		j.fatalErr = err
		j.mu.Unlock()
		logger.Error("Fatal job error, cancelling remaining work", "error", err)
		j.cancel()
	})
}

func (j *job) fatal() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fatalErr
}

// abort finalizes a failed run: costs already incurred are persisted so a
// crashed job still leaves an accurate spend record.
func (j *job) abort(err error) (Result, error) {
	if j.tracker != nil {
		j.tracker.fail()
	}
	j.saveCosts()
	return Result{Status: StatusFailure}, err
}

func (j *job) saveCosts() {
	if err := j.ledger.SaveLog(); err != nil {
		logger.Error("Failed to save cost log", "error", err)
	}
	if _, err := j.ledger.SaveSummary(); err != nil {
		logger.Error("Failed to save cost summary", "error", err)
	}
}
