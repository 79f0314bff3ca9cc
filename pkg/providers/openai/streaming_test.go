package openai

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	testhelpers "mercator-hq/chatgate/internal/providers"
	"mercator-hq/chatgate/pkg/providers"
)

func TestOpenAIProvider_StreamCompletion(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		StreamChunks: []string{
			testhelpers.MockOpenAIStreamChunk("Hello", ""),
			testhelpers.MockOpenAIStreamChunk(", ", ""),
			testhelpers.MockOpenAIStreamChunk("world", ""),
			testhelpers.MockOpenAIStreamChunk("!", "stop"),
			testhelpers.MockOpenAIUsageChunk(5, 4),
		},
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.StreamCompletion(context.Background(), testhelpers.TestCompletionRequest("gpt-4", "Hello"))
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	received, err := testhelpers.CollectStreamChunks(t, chunks)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if len(received) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(received))
	}

	if got := testhelpers.ConcatenateChunks(received); got != "Hello, world!" {
		t.Errorf("expected %q, got %q", "Hello, world!", got)
	}
	if received[3].FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason on last content chunk, got %q", received[3].FinishReason)
	}

	usage := received[4].Usage
	if usage == nil || usage.TotalTokens != 9 {
		t.Errorf("expected trailing usage of 9 tokens, got %+v", usage)
	}

	if !strings.Contains(string(mock.LastRequestBody()), `"include_usage":true`) {
		t.Error("expected stream_options.include_usage in request")
	}
	if got := mock.LastRequestHeader("Accept"); got != "text/event-stream" {
		t.Errorf("expected Accept: text/event-stream, got %q", got)
	}
}

func TestOpenAIProvider_StreamTruncated(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode:     200,
		StreamChunks:   []string{testhelpers.MockOpenAIStreamChunk("partial", "")},
		TruncateStream: true,
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.StreamCompletion(context.Background(), testhelpers.TestCompletionRequest("gpt-4", "Hello"))
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	received, err := testhelpers.CollectStreamChunks(t, chunks)
	if len(received) != 1 || received[0].Delta != "partial" {
		t.Errorf("expected one partial chunk, got %d", len(received))
	}

	var streamErr *providers.StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %T: %v", err, err)
	}
}

func TestOpenAIProvider_StreamCancellation(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	var many []string
	for i := 0; i < 100; i++ {
		many = append(many, testhelpers.MockOpenAIStreamChunk("x", ""))
	}
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode:   200,
		StreamChunks: many,
		ChunkDelay:   20 * time.Millisecond,
	})

	provider := newTestProvider(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := provider.StreamCompletion(ctx, testhelpers.TestCompletionRequest("gpt-4", "Hello"))
	if err != nil {
		t.Fatalf("StreamCompletion failed: %v", err)
	}

	<-chunks
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-chunks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("expected stream channel to close after cancellation")
		}
	}
}

func TestStreamReader_MidStreamError(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"data: " + testhelpers.MockOpenAIStreamChunk("a", "") + "\n\n" +
			`data: {"error":{"message":"overloaded","type":"server_error"}}` + "\n\n",
	))
	reader := newStreamReader("openai", body)
	ctx := context.Background()

	chunk, err := reader.Read(ctx)
	if err != nil || chunk.Delta != "a" {
		t.Fatalf("expected first chunk, got %v, %v", chunk, err)
	}

	_, err = reader.Read(ctx)
	var streamErr *providers.StreamError
	if !errors.As(err, &streamErr) || streamErr.Message != "overloaded" {
		t.Fatalf("expected StreamError with upstream message, got %T: %v", err, err)
	}
}

func TestStreamReader_MalformedChunk(t *testing.T) {
	reader := newStreamReader("openai", io.NopCloser(strings.NewReader("data: {nope\n\n")))

	_, err := reader.Read(context.Background())
	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestStreamReader_SkipsCommentsAndEvents(t *testing.T) {
	reader := newStreamReader("openai", io.NopCloser(strings.NewReader(
		": keep-alive\n\nevent: message\ndata: "+testhelpers.MockOpenAIStreamChunk("ok", "")+"\n\ndata: [DONE]\n\n",
	)))
	ctx := context.Background()

	chunk, err := reader.Read(ctx)
	if err != nil || chunk.Delta != "ok" {
		t.Fatalf("expected chunk 'ok', got %v, %v", chunk, err)
	}
	if _, err := reader.Read(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after [DONE], got %v", err)
	}
}
