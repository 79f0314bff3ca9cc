package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mercator-hq/chatgate/pkg/providers"
)

// maxLineSize bounds a single SSE line. OpenAI chunks are small, but a
// misbehaving server must not make us buffer without limit.
const maxLineSize = 1 << 20

// streamReader reads Server-Sent Events from the chat completions stream.
type streamReader struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	done     bool
}

func newStreamReader(provider string, body io.ReadCloser) *streamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &streamReader{
		provider: provider,
		body:     body,
		scanner:  scanner,
	}
}

// Read returns the next chunk. It returns io.EOF after the [DONE] sentinel.
// A body that ends without [DONE] is reported as a *providers.StreamError.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, &providers.StreamError{
					Provider: s.provider,
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, &providers.StreamError{
				Provider: s.provider,
				Message:  "stream ended before [DONE]",
			}
		}

		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// Blank separators, comments and event: lines.
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if data == "[DONE]" {
			s.done = true
			return nil, io.EOF
		}

		var payload StreamResponse
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider,
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream chunk: %w", err),
			}
		}
		if payload.Error != nil {
			return nil, &providers.StreamError{
				Provider: s.provider,
				Message:  payload.Error.Message,
			}
		}

		return transformStreamChunk(&payload), nil
	}
}

// Close closes the response body.
func (s *streamReader) Close() error {
	s.done = true
	return s.body.Close()
}
