package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/providers"
	"github.com/rewardops/pangea-analytics/backend/internal/domain/repositories"
	"github.com/rewardops/pangea-analytics/backend/internal/infrastructure/observability"
	"github.com/rs/zerolog/log"
)

const (
	analysisCachePrefix     = "analysis:"
	analysisCacheTTLSeconds = 86400 // 24 hours
)

// AnalyticsService runs the full question pipeline: classify the text,
// synthesize SQL, execute it, and format the answer. Execution errors never
// escape as Go errors; they collapse into an error-shaped payload so callers
// always have something to send back.
type AnalyticsService struct {
	classifier   *IntentClassifier
	synthesizer  *QuerySynthesizer
	executor     repositories.QueryExecutor
	formatter    *ResponseFormatter
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	queryTimeout time.Duration
}

// NewAnalyticsService creates the pipeline service. queryTimeout bounds each
// SQL execution; zero disables the bound.
func NewAnalyticsService(
	classifier *IntentClassifier,
	synthesizer *QuerySynthesizer,
	executor repositories.QueryExecutor,
	formatter *ResponseFormatter,
	queryTimeout time.Duration,
) *AnalyticsService {
	return &AnalyticsService{
		classifier:   classifier,
		synthesizer:  synthesizer,
		executor:     executor,
		formatter:    formatter,
		queryTimeout: queryTimeout,
	}
}

// SetCache enables the read-through interpretation cache.
func (s *AnalyticsService) SetCache(cache providers.CacheProvider) {
	s.cache = cache
}

// SetMetrics enables pipeline metrics.
func (s *AnalyticsService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// ProcessQuery answers one natural-language question for a session.
func (s *AnalyticsService) ProcessQuery(ctx context.Context, query, sessionID string) *entities.ResponsePayload {
	analysis := s.interpret(ctx, query)
	observability.RecordQueryMetric(ctx, s.metrics, string(analysis.QueryType))

	sqlText, args, err := s.synthesizer.Synthesize(analysis)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("query synthesis failed")
		return errorPayload(err)
	}

	queryCtx := ctx
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	results, err := s.executor.ExecuteQuery(queryCtx, sqlText, args)
	observability.RecordDBMetric(ctx, s.metrics, "analytics_query", time.Since(start))

	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("sql", sqlText).
			Msg("query execution failed")
		return errorPayload(err)
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("query_type", string(analysis.QueryType)).
		Int("rows", results.Len()).
		Msg("query processed")

	return s.formatter.Format(analysis, results, sqlText)
}

// interpret returns the cached analysis for the normalized question text, or
// classifies and caches it. The classifier is deterministic, so the cache is
// a pure read-through; cache failures fall back to direct classification.
func (s *AnalyticsService) interpret(ctx context.Context, query string) *entities.AnalysisResult {
	if s.cache == nil {
		return s.classifier.Classify(query)
	}

	key := analysisCachePrefix + strings.ToLower(strings.TrimSpace(query))

	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached entities.AnalysisResult
		if json.Unmarshal(data, &cached) == nil {
			observability.RecordCacheHit(ctx, s.metrics, analysisCachePrefix)
			return &cached
		}
	}
	observability.RecordCacheMiss(ctx, s.metrics, analysisCachePrefix)

	analysis := s.classifier.Classify(query)
	if data, err := json.Marshal(analysis); err == nil {
		_ = s.cache.Set(ctx, key, data, analysisCacheTTLSeconds)
	}

	return analysis
}

func errorPayload(err error) *entities.ResponsePayload {
	return &entities.ResponsePayload{
		Error:     err.Error(),
		SQLQuery:  nil,
		Data:      nil,
		Charts:    nil,
		Response:  fmt.Sprintf("I encountered an error processing your query: %s", err.Error()),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
