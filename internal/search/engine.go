// Package search provides the directory search engine.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/commonweal/beacon/internal/apierr"
	"github.com/commonweal/beacon/internal/config"
	"github.com/commonweal/beacon/internal/index"
	"github.com/commonweal/beacon/internal/models"
	"github.com/commonweal/beacon/internal/query"
	"github.com/commonweal/beacon/internal/ranking"
)

// Engine runs the full search pipeline: compile the request into mandatory
// filters, retrieve candidates from the index, score them in parallel, rank,
// and paginate.
type Engine struct {
	compiler  *query.Compiler
	index     index.ServiceIndex
	ranker    *ranking.Ranker
	paginator *ranking.Paginator
	pool      *ants.Pool
	logger    *zap.Logger

	maxCandidates int
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	compiler *query.Compiler,
	idx index.ServiceIndex,
	ranker *ranking.Ranker,
	cfg *config.SearchConfig,
	logger *zap.Logger,
) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.ScoringWorkers
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring pool: %w", err)
	}
	return &Engine{
		compiler:      compiler,
		index:         idx,
		ranker:        ranker,
		paginator:     ranking.NewPaginator(cfg.DefaultPerPage, cfg.MaxPerPage),
		pool:          pool,
		logger:        logger,
		maxCandidates: cfg.MaxCandidates,
	}, nil
}

// Search executes req and returns one page of results. canSeeInactive lifts
// the active-only visibility filter for privileged callers.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest, canSeeInactive bool) (*models.SearchResult, error) {
	start := time.Now()

	fs, sctx, err := e.compiler.Compile(ctx, req, canSeeInactive)
	if err != nil {
		return nil, err
	}

	docs, err := e.index.FindMatching(ctx, fs, e.maxCandidates)
	if err != nil {
		return nil, apierr.NewUpstream("index search", err)
	}

	ranked := e.scoreAll(docs, sctx)
	ranked, err = e.ranker.RankPrescored(ranked, req.Order, sctx)
	if err != nil {
		return nil, err
	}

	result, err := e.paginator.Paginate(ranked, req.PageOrDefault(), req.PerPage)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("search completed",
		zap.String("query", req.Query),
		zap.Int("candidates", len(docs)),
		zap.Int("total", result.Meta.Total),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}

// scoreAll computes scores on the worker pool. Each task writes to its own
// slot so no locking is needed; order is restored by the ranker afterwards.
func (e *Engine) scoreAll(docs []*models.SearchDocument, sctx ranking.ScoringContext) []ranking.RankedService {
	ranked := make([]ranking.RankedService, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		i, doc := i, doc
		wg.Add(1)
		task := func() {
			defer wg.Done()
			ranked[i] = e.ranker.ScoreOne(doc, sctx)
		}
		if err := e.pool.Submit(task); err != nil {
			// Pool is released or overloaded; score inline.
			task()
		}
	}
	wg.Wait()
	return ranked
}

// Close releases the scoring pool.
func (e *Engine) Close() error {
	e.pool.Release()
	return nil
}
