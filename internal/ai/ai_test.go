package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestOllamaCompleteConcatenatesStream(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, `{"response":"Rust 2.0 ","done":false}`+"\n")
		io.WriteString(w, `{"response":"was announced.","done":false}`+"\n")
		io.WriteString(w, `{"response":"","done":true}`+"\n")
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", Models{Small: "llama3.2:3b", Large: "llama3.1:8b"})
	out, err := c.Complete(context.Background(), Request{
		ConversationID: "conv-1",
		System:         "sys",
		User:           "text",
		Size:           ModelLarge,
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, "Rust 2.0 was announced.", out)
	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, "text", got.Prompt)
	assert.Equal(t, true, got.Stream)
}

func TestOllamaDefaultsModel(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"response":"ok","done":true}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, Models{})
	_, err := c.Complete(context.Background(), Request{User: "x", Size: ModelLarge})

	assert.Equal(t, nil, err)
	assert.Equal(t, "llama3", got.Model)
}

func TestOllamaCompleteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, Models{Small: "missing"})
	_, err := c.Complete(context.Background(), Request{User: "x"})
	assert.NotEqual(t, nil, err)
}

func TestOllamaCompleteEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"  ","done":true}`)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, Models{Small: "m"})
	_, err := c.Complete(context.Background(), Request{User: "x"})
	assert.Equal(t, true, errors.Is(err, ErrEmptyResponse))
}

func TestOpenAIComplete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": " A short summary. "}
			}]
		}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL+"/", Models{})
	out, err := c.Complete(context.Background(), Request{ConversationID: "conv-7", System: "sys", User: "hello"})

	assert.Equal(t, nil, err)
	assert.Equal(t, "A short summary.", out)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, "conv-7", body["user"])
}

func TestAnthropicComplete(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Metadata struct {
			UserID string `json:"user_id"`
		} `json:"metadata"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Summary from Claude."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", srv.URL, Models{})
	out, err := c.Complete(context.Background(), Request{ConversationID: "conv-8", System: "sys", User: "hello"})

	assert.Equal(t, nil, err)
	assert.Equal(t, "Summary from Claude.", out)
	assert.Equal(t, "claude-3-5-haiku-latest", body.Model)
	assert.Equal(t, "conv-8", body.Metadata.UserID)
}

func TestOpenAIOmitsEmptyConversation(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"x"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", srv.URL+"/", Models{})
	_, err := c.Complete(context.Background(), Request{User: "hello"})

	assert.Equal(t, nil, err)
	_, hasUser := body["user"]
	assert.Equal(t, false, hasUser)
}

func TestExtractJSONBlock(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "plain JSON unchanged",
			input:  `{"summary":"s"}`,
			want:   `{"summary":"s"}`,
			wantOK: true,
		},
		{
			name:   "strips json fenced block",
			input:  "```json\n{\"summary\":\"s\"}\n```",
			want:   `{"summary":"s"}`,
			wantOK: true,
		},
		{
			name:   "prose around the block",
			input:  `Here you go: {"summary":"s","keywords":["a"]} Hope it helps!`,
			want:   `{"summary":"s","keywords":["a"]}`,
			wantOK: true,
		},
		{
			name:   "nested objects keep outermost braces",
			input:  `x {"a":{"b":1}} y`,
			want:   `{"a":{"b":1}}`,
			wantOK: true,
		},
		{
			name:   "no block",
			input:  "just a sentence",
			wantOK: false,
		},
		{
			name:   "closing before opening",
			input:  "} oops {",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONBlock(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModelsFor(t *testing.T) {
	m := Models{Small: "fast"}
	assert.Equal(t, "fast", m.For(ModelSmall))
	assert.Equal(t, "fast", m.For(ModelLarge))

	m.Large = "strong"
	assert.Equal(t, "strong", m.For(ModelLarge))
	assert.Equal(t, ModelLarge, ParseModelSize("LARGE"))
	assert.Equal(t, ModelSmall, ParseModelSize("medium"))
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), ProviderConfig{Provider: "mystery"})
	assert.NotEqual(t, nil, err)

	c, err := New(context.Background(), ProviderConfig{Provider: "ollama", Models: Models{Small: "m"}})
	assert.Equal(t, nil, err)
	_, isOllama := c.(*OllamaClient)
	assert.Equal(t, true, isOllama)
}
