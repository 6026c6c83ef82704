package middleware

import (
	"context"
	"io"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
)

// mockLanguageModel is a minimal provider.LanguageModel double shared by
// this package's middleware tests.
type mockLanguageModel struct {
	generateResult *types.GenerateResult
	generateError  error
	stream         provider.TextStream
	streamError    error
}

func (m *mockLanguageModel) SpecificationVersion() string   { return "v3" }
func (m *mockLanguageModel) Provider() string               { return "test" }
func (m *mockLanguageModel) ModelID() string                { return "test-model" }
func (m *mockLanguageModel) SupportsTools() bool            { return true }
func (m *mockLanguageModel) SupportsStructuredOutput() bool { return true }
func (m *mockLanguageModel) SupportsImageInput() bool       { return false }

func (m *mockLanguageModel) DoGenerate(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
	if m.generateError != nil {
		return nil, m.generateError
	}
	return m.generateResult, nil
}

func (m *mockLanguageModel) DoStream(ctx context.Context, opts *provider.GenerateOptions) (provider.TextStream, error) {
	if m.streamError != nil {
		return nil, m.streamError
	}
	return m.stream, nil
}

// mockTextStream is a canned provider.TextStream double that replays a
// fixed chunk slice then reports io.EOF.
type mockTextStream struct {
	chunks  []*provider.StreamChunk
	current int
}

func (m *mockTextStream) Next() (*provider.StreamChunk, error) {
	if m.current >= len(m.chunks) {
		return nil, io.EOF
	}
	chunk := m.chunks[m.current]
	m.current++
	return chunk, nil
}

func (m *mockTextStream) Read(p []byte) (n int, err error) { return 0, io.EOF }
func (m *mockTextStream) Close() error                      { return nil }
func (m *mockTextStream) Err() error                        { return nil }
