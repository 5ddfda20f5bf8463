// Package llm provides unit tests for the generation client.
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

// TestNewClient_defaults verifies provider defaults are applied.
func TestNewClient_defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})

	if c.Provider() != ProviderGemini {
		t.Errorf("Provider() = %q, want gemini", c.Provider())
	}
	if c.Model() != "gemini-2.0-flash" {
		t.Errorf("Model() = %q, want gemini-2.0-flash", c.Model())
	}
	if c.config.Endpoint != "https://generativelanguage.googleapis.com" {
		t.Errorf("Endpoint = %q", c.config.Endpoint)
	}
	if c.config.Sampling != DefaultSampling {
		t.Errorf("Sampling = %+v, want %+v", c.config.Sampling, DefaultSampling)
	}
	if c.httpClient.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", c.httpClient.Timeout)
	}
}

// TestGenerate_missingKey verifies no request is made without a credential.
func TestGenerate_missingKey(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	for _, p := range []Provider{ProviderGemini, ProviderOpenAI} {
		c := NewClient(Config{Provider: p, Endpoint: server.URL})

		_, err := c.Generate(context.Background(), "prompt")
		if !apperrors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("%s: Generate() error = %v, want NOT_CONFIGURED", p, err)
		}
	}

	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("server received %d requests, want 0", calls)
	}
}

// TestGenerate_unsupportedProvider verifies unknown providers are a configuration error.
func TestGenerate_unsupportedProvider(t *testing.T) {
	c := NewClient(Config{Provider: "bard", APIKey: "k"})

	_, err := c.Generate(context.Background(), "prompt")
	if !apperrors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("Generate() error = %v, want NOT_CONFIGURED", err)
	}
}

// TestGenerate_gemini verifies the request shape and response parsing.
func TestGenerate_gemini(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got := req.Contents[0].Parts[0].Text; got != "the prompt" {
			t.Errorf("prompt = %q", got)
		}
		want := geminiGenerationConfig{Temperature: 0.2, TopK: 40, TopP: 0.95, MaxOutputTokens: 4096}
		if req.GenerationConfig != want {
			t.Errorf("generationConfig = %+v, want %+v", req.GenerationConfig, want)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"v1\"}"}]}}]}`))
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, APIKey: "test-key"})

	text, err := c.Generate(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"title":"v1"}` {
		t.Errorf("Generate() = %q", text)
	}
}

// TestGenerate_geminiError verifies upstream status and message are carried.
func TestGenerate_geminiError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted"}}`))
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, APIKey: "test-key"})

	_, err := c.Generate(context.Background(), "prompt")
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.ErrGeneration {
		t.Fatalf("Generate() error = %v, want GENERATION_FAILED", err)
	}
	if appErr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", appErr.Status)
	}
	if appErr.Message != "Gemini API error: Resource has been exhausted" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

// TestGenerate_undecodableError verifies a non-JSON error body still fails cleanly.
func TestGenerate_undecodableError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, APIKey: "k"})

	_, err := c.Generate(context.Background(), "prompt")
	if !strings.Contains(apperrors.MessageOf(err), "Unknown error") {
		t.Errorf("message = %q, want Unknown error", apperrors.MessageOf(err))
	}
}

// TestGenerate_noCandidates verifies an empty candidate list is a generation error.
func TestGenerate_noCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, APIKey: "k"})

	_, err := c.Generate(context.Background(), "prompt")
	if !apperrors.Is(err, apperrors.ErrGeneration) {
		t.Errorf("Generate() error = %v, want GENERATION_FAILED", err)
	}
}

// TestGenerate_unreachable verifies transport failures are generation errors without status.
func TestGenerate_unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(Config{Endpoint: url, APIKey: "k"})

	_, err := c.Generate(context.Background(), "prompt")
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.ErrGeneration {
		t.Fatalf("Generate() error = %v, want GENERATION_FAILED", err)
	}
	if appErr.Status != 0 {
		t.Errorf("Status = %d, want 0", appErr.Status)
	}
}

// TestGenerate_singleAttempt verifies failures are not retried.
func TestGenerate_singleAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{Endpoint: server.URL, APIKey: "k"})
	c.Generate(context.Background(), "prompt")

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

// TestGenerate_openAI verifies the chat completions request.
func TestGenerate_openAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" || req.Temperature != 0.2 || req.MaxTokens != 4096 {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "p" {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"done"}}]}`))
	}))
	defer server.Close()

	c := NewClient(Config{Provider: ProviderOpenAI, Endpoint: server.URL, APIKey: "sk-test"})

	text, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "done" {
		t.Errorf("Generate() = %q", text)
	}
}

// TestGenerate_ollama verifies local generation works without a key.
func TestGenerate_ollama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}

		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.Options.TopK != 40 || req.Options.NumPredict != 4096 {
			t.Errorf("options = %+v", req.Options)
		}

		w.Write([]byte(`{"response":"local text","done":true}`))
	}))
	defer server.Close()

	c := NewClient(Config{Provider: ProviderOllama, Endpoint: server.URL})

	text, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "local text" {
		t.Errorf("Generate() = %q", text)
	}
}

// TestGenerate_ollamaError verifies Ollama's flat error body is decoded.
func TestGenerate_ollamaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'llama3' not found"}`))
	}))
	defer server.Close()

	c := NewClient(Config{Provider: ProviderOllama, Endpoint: server.URL})

	_, err := c.Generate(context.Background(), "p")
	if got := apperrors.MessageOf(err); got != "Ollama API error: model 'llama3' not found" {
		t.Errorf("message = %q", got)
	}
}
