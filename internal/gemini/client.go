package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rivo/uniseg"
	"google.golang.org/api/option"
)

// defaultCallTimeout bounds a single generate call so a stuck request fails
// into the retry path instead of holding a worker slot indefinitely.
const defaultCallTimeout = 10 * time.Minute

// estimatedCharsPerToken backs the usage fallback when the service reports no
// metadata. Rough approximation, kept from the upstream behavior on purpose.
const estimatedCharsPerToken = 4

// Client handles communication with the Gemini API.
type Client struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	targetLang string
}

// NewClient creates a new Gemini client for the given model and target
// translation language.
func NewClient(ctx context.Context, apiKey, modelName, targetLang string) (*Client, error) {
	// Note: we avoid option.WithHTTPClient because it interferes with the
	// genai library's internal header injection for API keys. Timeouts are
	// enforced per call via context instead.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Client{
		client:     client,
		model:      client.GenerativeModel(modelName),
		targetLang: targetLang,
	}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ Transformer = (*Client)(nil)

// Transcribe converts a rendered page image (PNG bytes) into markdown text.
func (c *Client) Transcribe(ctx context.Context, pageImage []byte) (string, Usage, error) {
	return c.generate(ctx, genai.Text(transcribePromptV1), genai.ImageData("png", pageImage))
}

// Translate converts transcribed markdown into the target language.
func (c *Client) Translate(ctx context.Context, text string) (string, Usage, error) {
	return c.generate(ctx, genai.Text(translatePrompt(c.targetLang, text)))
}

func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", Usage{}, classifyGeminiError(err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return "", Usage{}, classifyGeminiError(err)
	}

	return text, usageFromResponse(resp, text), nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				combined += string(text)
			}
		}
		if combined != "" {
			return combined, nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}

// usageFromResponse extracts token usage, falling back to an estimate from
// the output length when the service omits metadata.
func usageFromResponse(resp *genai.GenerateContentResponse, outText string) Usage {
	if resp != nil && resp.UsageMetadata != nil {
		return Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	out := uniseg.GraphemeClusterCount(outText) / estimatedCharsPerToken
	return Usage{
		OutputTokens: out,
		TotalTokens:  out,
		Estimated:    true,
	}
}
