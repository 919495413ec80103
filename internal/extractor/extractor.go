package extractor

import (
	"context"
	"errors"

	"msgrelay/internal/logger"
	"msgrelay/pkg/metrics"
	"msgrelay/pkg/models"
)

type Extractor struct {
	strategies []Strategy
	logger     logger.Logger
}

func New(log logger.Logger, strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{
		strategies: strategies,
		logger:     log,
	}
}

// Extract always returns an envelope; see ExtractWithStrategy.
func (e *Extractor) Extract(ctx context.Context, raw map[string]interface{}) models.Envelope {
	env, _ := e.ExtractWithStrategy(ctx, raw)
	return env
}

// ExtractWithStrategy tries each strategy in order and returns the first
// success together with the strategy name. When every strategy fails the
// degraded fallback envelope is returned.
func (e *Extractor) ExtractWithStrategy(ctx context.Context, raw map[string]interface{}) (models.Envelope, string) {
	for _, s := range e.strategies {
		env, err := s.Extract(raw)
		if err == nil {
			metrics.IncExtraction(s.Name)
			return env, s.Name
		}
		if !errors.Is(err, ErrNotApplicable) {
			e.logger.DebugwCtx(ctx, "Extraction strategy failed",
				"strategy", s.Name,
				"error", err,
			)
		}
	}

	e.logger.WarnwCtx(ctx, "Could not extract a structured envelope, using fallback")
	metrics.IncExtraction(StrategyFallback)
	return Fallback(raw), StrategyFallback
}
