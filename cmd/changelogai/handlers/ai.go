package handlers

import (
	"context"
	"net/http"

	"github.com/keyz-man/changelogai-app/internal/llm"
)

// Prober checks that the generation credential works.
type Prober interface {
	Probe(ctx context.Context) (*llm.ProbeResult, error)
}

// AIHandler handles generation provider checks.
type AIHandler struct {
	prober Prober
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(prober Prober) *AIHandler {
	return &AIHandler{prober: prober}
}

// Test handles GET /api/ai/test
func (h *AIHandler) Test(w http.ResponseWriter, r *http.Request) {
	result, err := h.prober.Probe(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "API key is working properly",
		"provider": result.Provider,
		"model":    result.Model,
		"apiKey":   result.MaskedKey,
		"sample":   result.Sample,
	})
}
