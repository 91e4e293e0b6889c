package gemini

import "context"

// Usage holds token counts for a single API call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	// Estimated marks counts derived from output length because the service
	// omitted usage metadata. Input is reported as 0 in that case since the
	// prompt size cannot be reconstructed.
	Estimated bool
}

// Transformer is the abstract capability the pipeline runs pages through:
// visual transcription of a page raster, then translation of the transcript.
type Transformer interface {
	Transcribe(ctx context.Context, pageImage []byte) (string, Usage, error)
	Translate(ctx context.Context, text string) (string, Usage, error)
}
