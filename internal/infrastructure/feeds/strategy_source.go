package feeds

import (
	"context"
	"fmt"
	"log/slog"

	"NewsCurator/internal/config"
	"NewsCurator/internal/domain"
	"NewsCurator/internal/feed"
	"NewsCurator/internal/ports"
)

// StrategySource implements PostSource via registered fetcher strategies.
// A failing source is logged and skipped so one dead feed never sinks the
// whole ingestion run.
type StrategySource struct {
	registry *feed.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.PostSource = (*StrategySource)(nil)

// NewStrategySource wires the fetcher registry with config-defined sources.
func NewStrategySource(reg *feed.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchCandidates iterates over configured sources and normalizes their
// entries. Sources marked excluded are dropped before any fetch, so they
// can never leak half-normalized posts into the cycle.
func (s *StrategySource) FetchCandidates(ctx context.Context) ([]domain.Post, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("feed registry is not configured")
	}

	s.debug("fetch candidates", "sources", len(s.sources))

	var aggregated []domain.Post
	seen := map[string]struct{}{}

	for _, src := range s.sources {
		if src.Excluded {
			s.debug("source excluded", "source", src.Name)
			continue
		}

		strategy, err := s.registry.Resolve(src.Fetcher)
		if err != nil {
			s.warn("source misconfigured", "source", src.Name, "error", err)
			continue
		}

		entries, err := strategy.Fetch(ctx, feed.Request{
			SourceName: src.Name,
			URL:        src.URL,
			Options:    src.Options,
		})
		if err != nil {
			s.warn("source fetch failed", "source", src.Name, "error", err)
			continue
		}

		var kept int
		for _, entry := range entries {
			post := NormalizeEntry(src.Name, entry)
			if post.ExternalID == "" || post.Title == "" {
				continue
			}
			if _, ok := seen[post.ExternalID]; ok {
				continue
			}
			seen[post.ExternalID] = struct{}{}
			aggregated = append(aggregated, post)
			kept++
		}

		s.debug("source produced posts", "source", src.Name, "fetched", len(entries), "kept", kept)
	}

	s.debug("strategy source done", "total_posts", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
