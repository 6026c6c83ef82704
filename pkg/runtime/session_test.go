package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySession_HistoryRoundTripsAndIsDefensivelyCopied(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySession()

	require.NoError(t, s.AddMessages(ctx, []Message{UserMessage("hi")}))
	require.NoError(t, s.AddMessages(ctx, []Message{AssistantMessage("hello")}))

	history, err := s.GetHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Mutating the returned slice must not affect the session's own state.
	history[0].Content = "tampered"
	again, err := s.GetHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi", again[0].Content)
}

func TestInMemorySession_MetadataMergesOnUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySession()

	require.NoError(t, s.UpdateMetadata(ctx, map[string]interface{}{"a": 1}))
	require.NoError(t, s.UpdateMetadata(ctx, map[string]interface{}{"b": 2}))

	meta, err := s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, meta)
}

func TestInMemorySession_ClearResetsHistoryAndMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewInMemorySession()
	require.NoError(t, s.AddMessages(ctx, []Message{UserMessage("hi")}))
	require.NoError(t, s.UpdateMetadata(ctx, map[string]interface{}{"a": 1}))

	require.NoError(t, s.Clear(ctx))

	history, err := s.GetHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	meta, err := s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.Empty(t, meta)
}
