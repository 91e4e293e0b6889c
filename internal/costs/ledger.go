// Package costs tracks token usage and monetary cost for every transformation
// call in a job, and persists an append-only call log plus a recomputed
// summary snapshot.
package costs

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumelodos/tomelate/internal/files"
	"github.com/lumelodos/tomelate/internal/logger"
)

// Operation labels which stage issued a call.
type Operation string

const (
	OpTranscription Operation = "transcription"
	OpTranslation   Operation = "translation"
)

// TierPrice is a per-million-token rate with a full-rate tier switch: once
// usage crosses Threshold, Tier2 applies to the entire amount, not marginally.
type TierPrice struct {
	Tier1     float64
	Tier2     float64
	Threshold int
}

// Pricing holds the input and output token rates.
type Pricing struct {
	Input  TierPrice
	Output TierPrice
}

// DefaultPricing matches Gemini 2.5 Pro published rates per 1M tokens.
var DefaultPricing = Pricing{
	Input:  TierPrice{Tier1: 1.25, Tier2: 2.50, Threshold: 200_000},
	Output: TierPrice{Tier1: 10.00, Tier2: 15.00, Threshold: 200_000},
}

// Record is one transformation call. Append-only; never mutated once added.
type Record struct {
	Timestamp       time.Time `json:"timestamp"`
	Operation       Operation `json:"operation"`
	Page            int       `json:"page"`
	DurationSeconds float64   `json:"duration_seconds"`
	InputTokens     int       `json:"input_tokens"`
	OutputTokens    int       `json:"output_tokens"`
	InputCost       float64   `json:"input_cost"`
	OutputCost      float64   `json:"output_cost"`
	TotalCost       float64   `json:"total_cost"`
	// Estimated marks records whose token counts were derived from output
	// length because the service reported no usage metadata.
	Estimated bool `json:"estimated,omitempty"`
}

// Ledger accumulates call records for one job. Only the append is guarded;
// summaries are recomputed from the record list on demand.
type Ledger struct {
	mu      sync.Mutex
	jobID   string
	runID   string
	pricing Pricing
	records []Record

	logPath     string
	summaryPath string
}

func NewLedger(jobID, logPath, summaryPath string) *Ledger {
	return &Ledger{
		jobID:       jobID,
		runID:       uuid.NewString(),
		pricing:     DefaultPricing,
		logPath:     logPath,
		summaryPath: summaryPath,
	}
}

func tierCost(tokens int, p TierPrice) float64 {
	if tokens == 0 {
		return 0
	}
	rate := p.Tier1
	if tokens > p.Threshold {
		rate = p.Tier2
	}
	return float64(tokens) / 1_000_000 * rate
}

// RecordCall appends one call record and returns it.
func (l *Ledger) RecordCall(op Operation, page, inputTokens, outputTokens int, estimated bool, duration time.Duration) Record {
	rec := Record{
		Timestamp:       time.Now(),
		Operation:       op,
		Page:            page,
		DurationSeconds: duration.Seconds(),
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		InputCost:       tierCost(inputTokens, l.pricing.Input),
		OutputCost:      tierCost(outputTokens, l.pricing.Output),
		Estimated:       estimated,
	}
	rec.TotalCost = rec.InputCost + rec.OutputCost

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	logger.Info("API call recorded",
		"operation", op,
		"page", page,
		"cost_usd", fmt.Sprintf("%.6f", rec.TotalCost),
		"tokens_in", inputTokens,
		"tokens_out", outputTokens,
	)
	return rec
}

// Totals returns aggregate cost and token counts so far.
func (l *Ledger) Totals() (cost float64, inputTokens, outputTokens, calls int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		cost += r.TotalCost
		inputTokens += r.InputTokens
		outputTokens += r.OutputTokens
	}
	return cost, inputTokens, outputTokens, len(l.records)
}

func (l *Ledger) snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

type callLog struct {
	JobID             string   `json:"job_id"`
	RunID             string   `json:"run_id"`
	TotalCalls        int      `json:"total_calls"`
	TotalCost         float64  `json:"total_cost"`
	TotalInputTokens  int      `json:"total_input_tokens"`
	TotalOutputTokens int      `json:"total_output_tokens"`
	Calls             []Record `json:"calls"`
}

// SaveLog persists the full call list as JSON.
func (l *Ledger) SaveLog() error {
	records := l.snapshot()
	out := callLog{
		JobID: l.jobID,
		RunID: l.runID,
		Calls: records,
	}
	for _, r := range records {
		out.TotalCalls++
		out.TotalCost += r.TotalCost
		out.TotalInputTokens += r.InputTokens
		out.TotalOutputTokens += r.OutputTokens
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cost log: %w", err)
	}
	if err := files.AtomicWrite(l.logPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save cost log: %w", err)
	}
	return nil
}
