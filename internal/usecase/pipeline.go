package usecase

import (
	"log/slog"

	"NewsCurator/internal/domain"
	"NewsCurator/internal/ports"
)

// PipelineDeps wires all driven adapters into the curation pipeline.
type PipelineDeps struct {
	Source    ports.PostSource
	Cycles    ports.CycleRepository
	Posts     ports.PostRepository
	Ratings   ports.RatingRepository
	Groups    ports.DuplicateGroupRepository
	Articles  ports.ArticleRepository
	Evaluator ports.CriteriaEvaluator
	Clusterer ports.TopicClusterer
	Generator ports.ContentGenerator
	Criteria  domain.CriteriaConfig
	Workers   int
	Retries   int
	Logger    *slog.Logger
}

// Pipeline implements the four curation stages for a cycle: ingest, rate,
// dedup, and select. Each stage is an independent entry point invoked by
// the scheduler or the trigger API; none of them calls the next one.
type Pipeline struct {
	source    ports.PostSource
	cycles    ports.CycleRepository
	posts     ports.PostRepository
	ratings   ports.RatingRepository
	groups    ports.DuplicateGroupRepository
	articles  ports.ArticleRepository
	evaluator ports.CriteriaEvaluator
	clusterer ports.TopicClusterer
	generator ports.ContentGenerator
	criteria  domain.CriteriaConfig
	workers   int
	retries   int
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	retries := deps.Retries
	if retries < 1 {
		retries = 1
	}
	return &Pipeline{
		source:    deps.Source,
		cycles:    deps.Cycles,
		posts:     deps.Posts,
		ratings:   deps.Ratings,
		groups:    deps.Groups,
		articles:  deps.Articles,
		evaluator: deps.Evaluator,
		clusterer: deps.Clusterer,
		generator: deps.Generator,
		criteria:  deps.Criteria,
		workers:   workers,
		retries:   retries,
		logger:    deps.Logger,
	}
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
