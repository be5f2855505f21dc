// Package search scores CVs against a keyword list with exact matching and a fuzzy fallback,
// and ranks them by total match count.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/cvsearch/internal/config"
	"github.com/hyperjump/cvsearch/internal/fuzzy"
	"github.com/hyperjump/cvsearch/internal/match"
	"github.com/hyperjump/cvsearch/internal/models"
)

// Corpus supplies the documents a search scans.
type Corpus interface {
	ListCorpus(ctx context.Context) ([]*models.CorpusDocument, error)
}

// Engine runs keyword searches over a corpus.
type Engine struct {
	corpus  Corpus
	config  *config.SearchConfig
	scanner *fuzzy.Scanner
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a search engine over corpus. A nil cfg uses the default search settings.
func NewEngine(corpus Corpus, cfg *config.SearchConfig, opts ...Option) *Engine {
	if cfg == nil {
		var c config.Config
		config.ApplyDefaults(&c)
		cfg = &c.Search
	}
	e := &Engine{
		corpus:  corpus,
		config:  cfg,
		scanner: fuzzy.NewScanner(fuzzy.WithMaxDistance(cfg.MaxDistanceOrDefault())),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// keyword is a request keyword with its pattern compiled once for all documents.
// pattern is nil when compilation failed; such keywords contribute zero.
type keyword struct {
	text    string
	pattern match.Pattern
}

// timings accumulates time spent in each matching phase across workers.
type timings struct {
	exact atomic.Int64
	fuzzy atomic.Int64
}

// Search validates query, loads the corpus and returns ranked results.
// An unknown algorithm or an empty keyword list fails the whole request with match.ErrInvalidArgument.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.config.DefaultTopN, e.config.MaxTopN); err != nil {
		return nil, fmt.Errorf("%w: %v", match.ErrInvalidArgument, err)
	}
	algName := query.Algorithm
	if algName == "" {
		algName = e.config.DefaultAlgorithm
	}
	alg, err := match.ParseAlgorithm(algName)
	if err != nil {
		return nil, err
	}
	matcher, err := match.NewMatcher(alg)
	if err != nil {
		return nil, err
	}
	keywords := ParseKeywords(query.Keywords)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords in %q", match.ErrInvalidArgument, query.Keywords)
	}

	docs, err := e.corpus.ListCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	var t timings
	results, err := e.evaluateAll(ctx, docs, e.compile(matcher, keywords), &t)
	if err != nil {
		return nil, err
	}
	matched := 0
	for _, r := range results {
		if r != nil && r.TotalMatches > 0 {
			matched++
		}
	}
	ranked := Rank(results, *query.TopN)

	resp := &models.SearchResponse{
		Results:   ranked,
		Total:     matched,
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query.Keywords,
		Keywords:  keywords,
		Algorithm: string(alg),
		ExactTime: time.Duration(t.exact.Load()).Milliseconds(),
		FuzzyTime: time.Duration(t.fuzzy.Load()).Milliseconds(),
		Scanned:   len(docs),
	}
	e.logger.Debug("search complete",
		zap.String("query", query.Keywords),
		zap.String("algorithm", string(alg)),
		zap.Int("scanned", resp.Scanned),
		zap.Int("matched", matched),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

// EvaluateDocument scores a single document against keywords with matcher.
// Only keywords with a positive count appear in the result.
func (e *Engine) EvaluateDocument(ctx context.Context, doc *models.CorpusDocument, keywords []string, matcher match.Matcher) (*models.DocumentResult, error) {
	var t timings
	return e.evaluate(ctx, doc, e.compile(matcher, keywords), &t)
}

func (e *Engine) compile(matcher match.Matcher, keywords []string) []keyword {
	compiled := make([]keyword, 0, len(keywords))
	for _, kw := range keywords {
		p, err := matcher.Compile(kw)
		if err != nil {
			e.logger.Warn("skipping keyword", zap.String("keyword", kw), zap.Error(err))
		}
		compiled = append(compiled, keyword{text: kw, pattern: p})
	}
	return compiled
}

// evaluateAll scores docs on a bounded worker pool. The returned slice is indexed
// like docs; entries for timed-out documents are nil.
func (e *Engine) evaluateAll(ctx context.Context, docs []*models.CorpusDocument, keywords []keyword, t *timings) ([]*models.DocumentResult, error) {
	results := make([]*models.DocumentResult, len(docs))
	workers := e.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docCtx, cancel := gctx, context.CancelFunc(func() {})
			if e.config.DocumentTimeout > 0 {
				docCtx, cancel = context.WithTimeout(gctx, e.config.DocumentTimeout)
			}
			defer cancel()

			r, err := e.evaluate(docCtx, doc, keywords, t)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && gctx.Err() == nil {
					e.logger.Warn("document timed out, counted as no match",
						zap.String("document_id", doc.ID),
						zap.Duration("timeout", e.config.DocumentTimeout))
					return nil
				}
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluate scores one document. A panic inside a matcher is returned as a *ComputationError.
func (e *Engine) evaluate(ctx context.Context, doc *models.CorpusDocument, keywords []keyword, t *timings) (result *models.DocumentResult, err error) {
	current := ""
	defer func() {
		if v := recover(); v != nil {
			result, err = nil, recovered(doc.ID, current, v)
		}
	}()

	text := match.Fold(doc.Text)
	result = &models.DocumentResult{
		DocumentID:     doc.ID,
		ApplicantID:    doc.ApplicantID,
		Name:           doc.Name,
		CVPath:         doc.CVPath,
		KeywordMatches: make([]models.KeywordMatch, 0, len(keywords)),
	}
	for _, kw := range keywords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if kw.pattern == nil {
			continue
		}
		current = kw.text
		d, err := Decide(
			func() (int, error) {
				start := time.Now()
				n := len(kw.pattern.FindAll(text))
				t.exact.Add(int64(time.Since(start)))
				return n, nil
			},
			func() (int, error) {
				start := time.Now()
				n, err := e.scanner.Count(ctx, text, kw.text)
				t.fuzzy.Add(int64(time.Since(start)))
				return n, err
			},
		)
		if err != nil {
			if errors.Is(err, match.ErrInvalidArgument) {
				e.logger.Warn("keyword failed, counted as zero",
					zap.String("document_id", doc.ID),
					zap.String("keyword", kw.text),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		if d.Kind == KindNone {
			continue
		}
		result.KeywordMatches = append(result.KeywordMatches, models.KeywordMatch{
			Keyword: kw.text,
			Count:   d.Count,
			IsFuzzy: d.Kind == KindFuzzy,
		})
		result.TotalMatches += d.Count
		if d.Kind == KindFuzzy {
			result.UsedFuzzy = true
		}
	}
	return result, nil
}
