package costs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lumelodos/tomelate/internal/files"
)

// OperationBreakdown aggregates one operation type across a job.
type OperationBreakdown struct {
	Cost           float64 `json:"cost"`
	Calls          int     `json:"calls"`
	AvgCostPerCall float64 `json:"avg_cost_per_call"`
}

// Summary is derived from the record list; it is never mutated independently.
type Summary struct {
	JobID             string                           `json:"job_id"`
	RunID             string                           `json:"run_id"`
	Timestamp         time.Time                        `json:"timestamp"`
	TotalCost         float64                          `json:"total_cost"`
	TotalInputTokens  int                              `json:"total_input_tokens"`
	TotalOutputTokens int                              `json:"total_output_tokens"`
	TotalCalls        int                              `json:"total_calls"`
	EstimatedCalls    int                              `json:"estimated_calls"`
	Breakdown         map[Operation]OperationBreakdown `json:"breakdown"`
	CostPerPage       float64                          `json:"cost_per_page"`
	PricingInfo       map[string]string                `json:"pricing_info"`
}

// Summarize recomputes the summary from the current record list.
func (l *Ledger) Summarize() Summary {
	records := l.snapshot()

	s := Summary{
		JobID:     l.jobID,
		RunID:     l.runID,
		Timestamp: time.Now(),
		Breakdown: map[Operation]OperationBreakdown{},
		PricingInfo: map[string]string{
			"input_tier1":  fmt.Sprintf("$%.2f/1M tokens (<=%d)", l.pricing.Input.Tier1, l.pricing.Input.Threshold),
			"input_tier2":  fmt.Sprintf("$%.2f/1M tokens (>%d)", l.pricing.Input.Tier2, l.pricing.Input.Threshold),
			"output_tier1": fmt.Sprintf("$%.2f/1M tokens (<=%d)", l.pricing.Output.Tier1, l.pricing.Output.Threshold),
			"output_tier2": fmt.Sprintf("$%.2f/1M tokens (>%d)", l.pricing.Output.Tier2, l.pricing.Output.Threshold),
		},
	}

	pages := map[int]bool{}
	for _, r := range records {
		s.TotalCalls++
		s.TotalCost += r.TotalCost
		s.TotalInputTokens += r.InputTokens
		s.TotalOutputTokens += r.OutputTokens
		if r.Estimated {
			s.EstimatedCalls++
		}
		pages[r.Page] = true

		b := s.Breakdown[r.Operation]
		b.Cost += r.TotalCost
		b.Calls++
		s.Breakdown[r.Operation] = b
	}
	for op, b := range s.Breakdown {
		if b.Calls > 0 {
			b.AvgCostPerCall = b.Cost / float64(b.Calls)
		}
		s.Breakdown[op] = b
	}
	if len(pages) > 0 {
		s.CostPerPage = s.TotalCost / float64(len(pages))
	}

	return s
}

// SaveSummary recomputes and overwrites the summary snapshot on disk.
func (l *Ledger) SaveSummary() (Summary, error) {
	s := l.Summarize()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return s, fmt.Errorf("failed to encode cost summary: %w", err)
	}
	if err := files.AtomicWrite(l.summaryPath, data, 0644); err != nil {
		return s, fmt.Errorf("failed to save cost summary: %w", err)
	}
	return s, nil
}
