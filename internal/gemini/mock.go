package gemini

import (
	"context"
	"sync"
)

// MockTransformer for testing.
type MockTransformer struct {
	TranscribeText string
	TranslateText  string
	Usage          Usage
	Err            error

	mu              sync.Mutex
	TranscribeCalls int
	TranslateCalls  int
}

var _ Transformer = (*MockTransformer)(nil)

func (m *MockTransformer) Transcribe(ctx context.Context, pageImage []byte) (string, Usage, error) {
	m.mu.Lock()
	m.TranscribeCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return "", Usage{}, m.Err
	}
	return m.TranscribeText, m.Usage, nil
}

func (m *MockTransformer) Translate(ctx context.Context, text string) (string, Usage, error) {
	m.mu.Lock()
	m.TranslateCalls++
	m.mu.Unlock()
	if m.Err != nil {
		return "", Usage{}, m.Err
	}
	return m.TranslateText, m.Usage, nil
}

// Calls returns the total number of recorded invocations.
func (m *MockTransformer) Calls() (transcribe, translate int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TranscribeCalls, m.TranslateCalls
}
