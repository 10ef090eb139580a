package summarizer

import (
	"context"
	"fmt"

	"github.com/rohits-web03/docvault/internal/config"
)

// New builds the Summarizer selected by cfg.Provider.
func New(ctx context.Context, cfg config.SummarizerConfig) (Summarizer, error) {
	switch cfg.Provider {
	case config.SummarizerOllama, "":
		return NewOllamaClient(cfg.OllamaEndpoint, cfg.Model, cfg.Timeout), nil
	case config.SummarizerVertex:
		return NewVertexClient(ctx, cfg.VertexProject, cfg.VertexRegion, cfg.VertexModel, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}
