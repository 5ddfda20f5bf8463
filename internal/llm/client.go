// Package llm provides the text-generation client used by the changelog
// pipeline. Gemini is the default provider; OpenAI-compatible and Ollama
// endpoints are also supported.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/logging"
)

// Provider represents supported generation providers.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// Sampling holds the generation parameters sent with every request.
type Sampling struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// DefaultSampling favours short, repeatable output over creative output.
var DefaultSampling = Sampling{
	Temperature:     0.2,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 4096,
}

// Generator turns a prompt into raw completion text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds generation client configuration. Empty Endpoint and Model
// take the provider's defaults.
type Config struct {
	Provider   Provider
	Endpoint   string
	APIKey     string
	Model      string
	Sampling   Sampling
	Timeout    time.Duration
	HTTPClient *http.Client
}

var defaultEndpoints = map[Provider]string{
	ProviderGemini: "https://generativelanguage.googleapis.com",
	ProviderOpenAI: "https://api.openai.com/v1",
	ProviderOllama: "http://localhost:11434",
}

var defaultModels = map[Provider]string{
	ProviderGemini: "gemini-2.0-flash",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3",
}

var providerNames = map[Provider]string{
	ProviderGemini: "Gemini",
	ProviderOpenAI: "OpenAI",
	ProviderOllama: "Ollama",
}

// Client is a Generator backed by a remote HTTP API. A single attempt is
// made per call.
type Client struct {
	config     Config
	httpClient *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoints[cfg.Provider]
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if cfg.Sampling == (Sampling{}) {
		cfg.Sampling = DefaultSampling
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, httpClient: httpClient}
}

// Provider returns the configured provider.
func (c *Client) Provider() Provider {
	return c.config.Provider
}

// Model returns the model requests are sent to.
func (c *Client) Model() string {
	return c.config.Model
}

func (c *Client) name() string {
	if n, ok := providerNames[c.config.Provider]; ok {
		return n
	}
	return string(c.config.Provider)
}

// CheckConfigured reports a configuration error when the provider needs a
// credential and none is set. It performs no I/O.
func (c *Client) CheckConfigured() error {
	switch c.config.Provider {
	case ProviderGemini, ProviderOpenAI:
		if strings.TrimSpace(c.config.APIKey) == "" {
			return apperrors.Configuration(fmt.Sprintf(
				"Missing %s API key. Set ai.api_key (CHANGELOGAI_AI__API_KEY or GOOGLE_AI_API_KEY) and restart.", c.name()))
		}
		return nil
	case ProviderOllama:
		return nil
	default:
		return apperrors.Configuration(fmt.Sprintf("Unsupported AI provider %q", c.config.Provider))
	}
}

// Generate sends prompt to the provider and returns the completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.CheckConfigured(); err != nil {
		return "", err
	}

	logging.Debug("Sending generation request", map[string]interface{}{
		"provider":      string(c.config.Provider),
		"model":         c.config.Model,
		"prompt_length": len(prompt),
	})

	switch c.config.Provider {
	case ProviderOpenAI:
		return c.generateOpenAI(ctx, prompt)
	case ProviderOllama:
		return c.generateOllama(ctx, prompt)
	default:
		return c.generateGemini(ctx, prompt)
	}
}

// upstreamError is the error envelope shared by Gemini and OpenAI.
type upstreamError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// doJSON posts body and decodes a 2xx response into out. Non-2xx responses
// become generation errors carrying the status and upstream message.
func (c *Client) doJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}, errMessage func([]byte) string) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return apperrors.Generation(0, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return apperrors.Generation(0, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Generation(0, fmt.Sprintf("%s API unreachable", c.name()), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := errMessage(data)
		if msg == "" {
			msg = "Unknown error"
		}
		return apperrors.Generation(resp.StatusCode, fmt.Sprintf("%s API error: %s", c.name(), msg), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Generation(resp.StatusCode, fmt.Sprintf("invalid %s response", c.name()), err)
	}
	return nil
}

func envelopeMessage(data []byte) string {
	var e upstreamError
	if json.Unmarshal(data, &e) == nil && e.Error != nil {
		return e.Error.Message
	}
	return ""
}

// =====================================================
// Gemini
// =====================================================

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generateGemini(ctx context.Context, prompt string) (string, error) {
	s := c.config.Sampling
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     s.Temperature,
			TopK:            s.TopK,
			TopP:            s.TopP,
			MaxOutputTokens: s.MaxOutputTokens,
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.config.Endpoint, c.config.Model)
	headers := map[string]string{"x-goog-api-key": c.config.APIKey}

	var resp geminiResponse
	if err := c.doJSON(ctx, url, headers, reqBody, &resp, envelopeMessage); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.Generation(0, "no response from Gemini", nil)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// =====================================================
// OpenAI-compatible
// =====================================================

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (c *Client) generateOpenAI(ctx context.Context, prompt string) (string, error) {
	s := c.config.Sampling
	reqBody := openAIRequest{
		Model:       c.config.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: s.Temperature,
		TopP:        s.TopP,
		MaxTokens:   s.MaxOutputTokens,
	}

	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}

	var resp openAIResponse
	if err := c.doJSON(ctx, c.config.Endpoint+"/chat/completions", headers, reqBody, &resp, envelopeMessage); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.Generation(0, "no response from OpenAI", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// =====================================================
// Ollama (local)
// =====================================================

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func ollamaErrorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil {
		return e.Error
	}
	return ""
}

func (c *Client) generateOllama(ctx context.Context, prompt string) (string, error) {
	s := c.config.Sampling
	reqBody := ollamaRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: s.Temperature,
			TopK:        s.TopK,
			TopP:        s.TopP,
			NumPredict:  s.MaxOutputTokens,
		},
	}

	var resp ollamaResponse
	if err := c.doJSON(ctx, c.config.Endpoint+"/api/generate", nil, reqBody, &resp, ollamaErrorMessage); err != nil {
		return "", err
	}

	if resp.Response == "" {
		return "", apperrors.Generation(0, "no response from Ollama", nil)
	}
	return resp.Response, nil
}
