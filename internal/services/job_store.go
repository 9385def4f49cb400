package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/question-import-service/internal/cache"
	"github.com/SAP-F-2025/question-import-service/internal/models"
)

const (
	jobKeyPrefix  = "import_job:"
	DefaultJobTTL = 24 * time.Hour
)

// JobStore keeps import job status in the cache for later retrieval.
type JobStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

func NewJobStore(c cache.CacheService, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{cache: c, ttl: ttl}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func (s *JobStore) Save(ctx context.Context, job *models.ImportJob) error {
	if err := s.cache.Set(ctx, jobKey(job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("failed to save import job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := s.cache.Get(ctx, jobKey(id), &job); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrImportJobNotFound
		}
		return nil, fmt.Errorf("failed to load import job %s: %w", id, err)
	}
	return &job, nil
}

func (s *JobStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, jobKey(id)); err != nil {
		return fmt.Errorf("failed to delete import job %s: %w", id, err)
	}
	return nil
}
