package llm

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	probePrompt     = "Write a simple hello world message"
	probeSampleSize = 50
)

// ProbeResult reports a successful credential check.
type ProbeResult struct {
	Provider  Provider `json:"provider"`
	Model     string   `json:"model"`
	MaskedKey string   `json:"apiKey,omitempty"`
	Sample    string   `json:"sample"`
}

// Probe sends a fixed short prompt to confirm the credential and endpoint work.
func (c *Client) Probe(ctx context.Context) (*ProbeResult, error) {
	text, err := c.Generate(ctx, probePrompt)
	if err != nil {
		return nil, err
	}

	sample := text
	if utf8.RuneCountInString(sample) > probeSampleSize {
		sample = string([]rune(sample)[:probeSampleSize]) + "..."
	}

	return &ProbeResult{
		Provider:  c.config.Provider,
		Model:     c.config.Model,
		MaskedKey: MaskKey(c.config.APIKey),
		Sample:    sample,
	}, nil
}

// MaskKey shows the first and last four characters of a credential. Keys of
// eight characters or fewer are fully masked.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
