package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/chatgate/pkg/proxy/types"
)

func newJSONRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseChatRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		limits    Limits
		wantErr   bool
		wantParam string
		wantCode  string
	}{
		{
			name: "message only",
			body: `{"message":"Hello"}`,
		},
		{
			name: "all fields",
			body: `{"message":"Hello","conversation_id":"c1","system_prompt":"Be brief.","temperature":0,"max_tokens":50}`,
		},
		{
			name: "temperature at upper bound",
			body: `{"message":"Hello","temperature":2}`,
		},
		{
			name:      "empty body",
			body:      "",
			wantErr:   true,
			wantParam: "body",
			wantCode:  types.CodeInvalidJSON,
		},
		{
			name:      "invalid JSON",
			body:      "invalid json",
			wantErr:   true,
			wantParam: "body",
			wantCode:  types.CodeInvalidJSON,
		},
		{
			name:      "missing message",
			body:      `{"conversation_id":"c1"}`,
			wantErr:   true,
			wantParam: "message",
			wantCode:  types.CodeMissingField,
		},
		{
			name:      "blank message",
			body:      `{"message":"   "}`,
			wantErr:   true,
			wantParam: "message",
			wantCode:  types.CodeMissingField,
		},
		{
			name:      "message too long",
			body:      `{"message":"` + strings.Repeat("a", 11) + `"}`,
			limits:    Limits{MaxMessageLength: 10},
			wantErr:   true,
			wantParam: "message",
			wantCode:  types.CodeInvalidValue,
		},
		{
			name:      "negative temperature",
			body:      `{"message":"Hello","temperature":-0.1}`,
			wantErr:   true,
			wantParam: "temperature",
			wantCode:  types.CodeInvalidValue,
		},
		{
			name:      "temperature above two",
			body:      `{"message":"Hello","temperature":2.5}`,
			wantErr:   true,
			wantParam: "temperature",
			wantCode:  types.CodeInvalidValue,
		},
		{
			name:      "zero max tokens",
			body:      `{"message":"Hello","max_tokens":0}`,
			wantErr:   true,
			wantParam: "max_tokens",
			wantCode:  types.CodeInvalidValue,
		},
		{
			name:      "body too large",
			body:      `{"message":"` + strings.Repeat("a", 64) + `"}`,
			limits:    Limits{MaxBodyBytes: 32},
			wantErr:   true,
			wantParam: "body",
			wantCode:  types.CodeRequestTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChatRequest(newJSONRequest(tt.body), tt.limits)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ParseChatRequest() unexpected error = %v", err)
				}
				if got.Message != "Hello" {
					t.Errorf("Expected message Hello, got %q", got.Message)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("Expected *RequestError, got %v", err)
			}
			if reqErr.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", reqErr.Param, tt.wantParam)
			}
			if reqErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", reqErr.Code, tt.wantCode)
			}
		})
	}
}

func TestParseChatRequest_MessageLengthCountsCharacters(t *testing.T) {
	// Ten multi-byte characters are within a ten character limit.
	body := `{"message":"` + strings.Repeat("é", 10) + `"}`
	if _, err := ParseChatRequest(newJSONRequest(body), Limits{MaxMessageLength: 10}); err != nil {
		t.Errorf("Expected multi-byte message within limit to parse, got %v", err)
	}
}

func TestParseChatRequest_OptionalFields(t *testing.T) {
	got, err := ParseChatRequest(newJSONRequest(`{"message":"Hello","temperature":0,"max_tokens":50}`), Limits{})
	if err != nil {
		t.Fatalf("ParseChatRequest() unexpected error = %v", err)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("Expected explicit temperature 0 to be kept, got %v", got.Temperature)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 50 {
		t.Errorf("Expected max_tokens 50, got %v", got.MaxTokens)
	}

	got, err = ParseChatRequest(newJSONRequest(`{"message":"Hello"}`), Limits{})
	if err != nil {
		t.Fatalf("ParseChatRequest() unexpected error = %v", err)
	}
	if got.Temperature != nil || got.MaxTokens != nil {
		t.Errorf("Expected absent options to stay nil, got %+v", got)
	}
}

func TestDecodeJSON_ExactLimit(t *testing.T) {
	body := `{"text":"abc"}`
	var out types.DocumentRequest
	if err := DecodeJSON(newJSONRequest(body), Limits{MaxBodyBytes: int64(len(body))}, &out); err != nil {
		t.Fatalf("Expected body of exactly the limit to parse, got %v", err)
	}
	if out.Text != "abc" {
		t.Errorf("Expected text abc, got %q", out.Text)
	}
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "::1"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies() failed: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  []string
		trusted    *TrustedProxies
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.168.1.100:54321", want: "192.168.1.100"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::5]:8000", want: "2001:db8::5"},
		{name: "no port", remoteAddr: "pipe", want: "pipe"},
		{
			name:       "forwarded ignored without trusted proxies",
			remoteAddr: "10.0.0.1:1",
			forwarded:  []string{"203.0.113.7"},
			want:       "10.0.0.1",
		},
		{
			name:       "forwarded ignored from untrusted peer",
			remoteAddr: "198.51.100.9:1",
			forwarded:  []string{"203.0.113.7"},
			trusted:    trusted,
			want:       "198.51.100.9",
		},
		{
			name:       "forwarded single from trusted peer",
			remoteAddr: "10.0.0.1:1",
			forwarded:  []string{"203.0.113.7"},
			trusted:    trusted,
			want:       "203.0.113.7",
		},
		{
			name:       "spoofed leading hop is skipped",
			remoteAddr: "10.0.0.1:1",
			forwarded:  []string{" 1.2.3.4 , 203.0.113.7 , 10.0.0.2"},
			trusted:    trusted,
			want:       "203.0.113.7",
		},
		{
			name:       "repeated headers are joined",
			remoteAddr: "[::1]:1",
			forwarded:  []string{"1.2.3.4", "203.0.113.7, 10.9.9.9"},
			trusted:    trusted,
			want:       "203.0.113.7",
		},
		{
			name:       "all hops trusted",
			remoteAddr: "10.0.0.1:1",
			forwarded:  []string{"10.0.0.3, 10.0.0.2"},
			trusted:    trusted,
			want:       "10.0.0.3",
		},
		{
			name:       "trusted peer without header",
			remoteAddr: "10.0.0.1:1",
			trusted:    trusted,
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, value := range tt.forwarded {
				req.Header.Add(ForwardedForHeader, value)
			}
			if got := ClientIP(req, tt.trusted); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
