package gateway

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/chatgate/pkg/providers"
)

// fakeProvider is a scripted providers.Provider.
type fakeProvider struct {
	*providers.HealthTracker

	reply string
	err   error
	usage providers.TokenUsage

	// Stream behaviour: deltas are sent in order, then streamErr if set.
	deltas    []string
	streamErr error
	openErr   error

	// block makes calls wait for ctx after sending deltas.
	block bool

	// nothing makes calls return neither a result nor an error.
	nothing bool

	mu       sync.Mutex
	requests []*providers.CompletionRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		HealthTracker: providers.NewHealthTracker("fake"),
		reply:         "Hello there",
		usage:         providers.TokenUsage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12},
	}
}

func (f *fakeProvider) record(req *providers.CompletionRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
}

func (f *fakeProvider) lastRequest() *providers.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeProvider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	f.record(req)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.nothing {
		return nil, nil
	}
	return &providers.CompletionResponse{
		ID:           "resp-1",
		Model:        req.Model,
		Content:      f.reply,
		FinishReason: providers.FinishReasonStop,
		Usage:        f.usage,
	}, nil
}

func (f *fakeProvider) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	f.record(req)
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.nothing {
		return nil, nil
	}

	chunks := make(chan *providers.StreamChunk)
	go func() {
		defer close(chunks)
		send := func(c *providers.StreamChunk) bool {
			select {
			case chunks <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, d := range f.deltas {
			if !send(&providers.StreamChunk{Model: req.Model, Delta: d}) {
				return
			}
		}
		if f.streamErr != nil {
			send(&providers.StreamChunk{Error: f.streamErr})
			return
		}
		if f.block {
			<-ctx.Done()
			return
		}
		usage := f.usage
		send(&providers.StreamChunk{Model: req.Model, FinishReason: providers.FinishReasonStop, Usage: &usage})
	}()
	return chunks, nil
}

func (f *fakeProvider) HealthCheck(context.Context) error { return nil }
func (f *fakeProvider) GetName() string                  { return "fake" }
func (f *fakeProvider) GetType() string                  { return providers.TypeGeneric }
func (f *fakeProvider) Close() error                     { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// manualClock is a settable clock.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
