package gateway

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/chatgate/pkg/providers"
	"mercator-hq/chatgate/pkg/telemetry/tracing"
)

// Fragment is one piece of a streamed reply.
type Fragment struct {
	// Index counts fragments from 0 in delivery order.
	Index int

	Text string
}

// Stream is the result of a streaming turn.
//
// Fragments must be drained, or the turn's context cancelled, before Err,
// Text or Usage return: they block until the stream has ended. By the time
// the Fragments channel closes the exchange has been persisted.
type Stream struct {
	turn *turn

	fragments chan Fragment
	done      chan struct{}

	// Written by pump before done is closed.
	text         string
	model        string
	finishReason string
	usage        providers.TokenUsage
	err          error
}

func (*Stream) result() {}

func newStream(t *turn, model string) *Stream {
	return &Stream{
		turn:      t,
		model:     model,
		fragments: make(chan Fragment),
		done:      make(chan struct{}),
	}
}

// ConversationID returns the id of the conversation being streamed.
func (s *Stream) ConversationID() string {
	return s.turn.id
}

// Fragments yields the reply in arrival order. The channel is unbuffered and
// is closed when the stream ends, successfully or not.
func (s *Stream) Fragments() <-chan Fragment {
	return s.fragments
}

// Done is closed when the stream has ended.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err returns nil if the stream completed and the turn was persisted.
// Otherwise it matches ErrUpstreamFailure (and ErrStreamInterrupted when
// fragments had been delivered) or is context.Canceled.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Text returns the assembled reply, equal to the concatenated fragments.
func (s *Stream) Text() string {
	<-s.done
	return s.text
}

// Usage returns the token usage reported by the provider, if any.
func (s *Stream) Usage() providers.TokenUsage {
	<-s.done
	return s.usage
}

// Model returns the model that produced the reply.
func (s *Stream) Model() string {
	<-s.done
	return s.model
}

// FinishReason returns the provider's finish reason.
func (s *Stream) FinishReason() string {
	<-s.done
	return s.finishReason
}

// pump forwards provider chunks to the caller until the provider finishes,
// fails, or ctx is cancelled. callCtx is the timeout-bound child of ctx the
// provider was invoked with; cancel releases it.
func (s *Stream) pump(ctx, callCtx context.Context, cancel context.CancelFunc, invokeSpan trace.Span, chunks <-chan *providers.StreamChunk, start time.Time) {
	t := s.turn
	g := t.gateway

	defer close(s.fragments)
	defer close(s.done)
	defer t.span.End()
	defer invokeSpan.End()
	defer cancel()

	var (
		text      strings.Builder
		fragments int
		err       error
	)

	for err == nil {
		var (
			chunk *providers.StreamChunk
			ok    bool
		)
		select {
		case chunk, ok = <-chunks:
		case <-callCtx.Done():
			err = g.classify(ctx, callCtx, ModeStream, callCtx.Err(), fragments)
			continue
		}
		if !ok {
			break
		}

		if chunk.Error != nil {
			err = g.classify(ctx, callCtx, ModeStream, chunk.Error, fragments)
			continue
		}
		if chunk.Model != "" {
			s.model = chunk.Model
		}
		if chunk.FinishReason != "" {
			s.finishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			s.usage = *chunk.Usage
		}
		if chunk.Delta == "" {
			continue
		}

		select {
		case s.fragments <- Fragment{Index: fragments, Text: chunk.Delta}:
			text.WriteString(chunk.Delta)
			fragments++
			g.metrics.RecordFragment()
		case <-callCtx.Done():
			err = g.classify(ctx, callCtx, ModeStream, callCtx.Err(), fragments)
		}
	}

	// A provider may close its channel without an error chunk when its
	// context ends.
	if err == nil && callCtx.Err() != nil {
		err = g.classify(ctx, callCtx, ModeStream, callCtx.Err(), fragments)
	}
	if err == nil && text.Len() == 0 {
		err = &UpstreamError{Op: ModeStream, Provider: g.provider.GetName(), Cause: errEmptyResponse}
	}

	latency := time.Since(start)
	invokeSpan.SetAttributes(attribute.Int(tracing.AttrFragments, fragments))
	if err != nil {
		tracing.SetError(invokeSpan, err)
		tracing.SetStatus(invokeSpan, err)
		s.err = t.fail(ctx, err, latency)
		return
	}

	s.text = text.String()
	t.persist(s.text)

	tracing.SetStatus(invokeSpan, nil)
	tracing.SetTokenAttributes(t.span, s.usage.PromptTokens, s.usage.CompletionTokens, s.usage.TotalTokens)
	tracing.SetStatus(t.span, nil)
	g.metrics.RecordTurn(ModeStream, OutcomeOK, latency, s.usage.TotalTokens)

	g.logger.InfoContext(ctx, "chat stream completed",
		"model", s.model,
		"fragments", fragments,
		"finish_reason", s.finishReason,
		"total_tokens", s.usage.TotalTokens,
		"provider_latency_ms", latency.Milliseconds(),
	)
}
