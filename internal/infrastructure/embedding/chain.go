package embedding

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

// Chain tries each strategy in order and returns the first vector of the
// expected dimension. When all strategies fail it returns a zero vector
// tagged with provider "none".
type Chain struct {
	dim        int
	timeout    time.Duration
	strategies []ports.EmbeddingStrategy
	logger     *slog.Logger
}

func NewChain(dim int, timeout time.Duration, logger *slog.Logger, strategies ...ports.EmbeddingStrategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		dim:        dim,
		timeout:    timeout,
		strategies: strategies,
		logger:     logger,
	}
}

func (c *Chain) Dimension() int {
	return c.dim
}

// Strategies returns the fallback order, first entry tried first.
func (c *Chain) Strategies() []string {
	out := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		out = append(out, s.Name())
	}
	return out
}

func (c *Chain) EmbedText(ctx context.Context, text string) domain.Embedding {
	for _, strategy := range c.strategies {
		values, err := c.attempt(ctx, strategy, text)
		if err != nil {
			c.logger.Warn("embedding_fallback",
				"strategy", strategy.Name(),
				"error", err,
			)
			continue
		}
		return domain.Embedding{Values: values, Provider: strategy.Name()}
	}
	return domain.Embedding{Values: make([]float32, c.dim), Provider: domain.ProviderNone}
}

func (c *Chain) attempt(ctx context.Context, strategy ports.EmbeddingStrategy, text string) ([]float32, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	values, err := strategy.EmbedQuery(attemptCtx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed "+strategy.Name(), err)
	}
	if len(values) != c.dim {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed "+strategy.Name(), domain.NewDimensionError(c.dim, len(values)))
	}
	return values, nil
}
