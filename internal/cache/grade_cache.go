package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/metrics"
	"github.com/studypilot/assessment-service/internal/models"
)

const gradeKeyPrefix = "assessment:grade:"

// CachedGrader memoizes semantic grades for identical requests. Cache
// failures never fail a grading call.
type CachedGrader struct {
	next    grading.SemanticGrader
	cache   CacheService
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewCachedGrader(next grading.SemanticGrader, cache CacheService, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *CachedGrader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedGrader{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With("component", "grade_cache"),
		metrics: m,
	}
}

func (c *CachedGrader) GradeShortAnswer(ctx context.Context, req grading.ShortAnswerRequest) (*models.GradeRecord, error) {
	key := GradeKey(req)

	var cached models.GradeRecord
	err := c.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		c.metrics.CacheLookup("hit")
		return &cached, nil
	case errors.Is(err, ErrCacheMiss):
		c.metrics.CacheLookup("miss")
	default:
		c.metrics.CacheLookup("error")
		c.logger.Warn("Grade cache lookup failed", "error", err)
	}

	record, err := c.next.GradeShortAnswer(ctx, req)
	if err != nil || record == nil || record.Validate() != nil {
		return record, err
	}

	if err := c.cache.Set(ctx, key, record, c.ttl); err != nil {
		c.logger.Warn("Failed to store grade", "error", err)
	}
	return record, nil
}

// FlushGrades drops every cached grade and leaves other keys alone.
func FlushGrades(ctx context.Context, cache CacheService) error {
	return cache.DeletePattern(ctx, gradeKeyPrefix+"*")
}

// GradeKey derives a stable cache key from every field that affects a grade.
func GradeKey(req grading.ShortAnswerRequest) string {
	// Marshalling a struct of strings cannot fail.
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return gradeKeyPrefix + hex.EncodeToString(sum[:])
}
