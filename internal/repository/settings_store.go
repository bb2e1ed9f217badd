package repository

import (
	"context"
	"errors"
	"fmt"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	"CrashLens/pkg/cache"
)

// CacheSettingsStore implements SettingsStore on top of the cache service.
// Patches are stored per profile without expiry; a miss means no override.
type CacheSettingsStore struct {
	cache cache.Service
}

// NewCacheSettingsStore creates a settings store backed by the cache service.
func NewCacheSettingsStore(c cache.Service) drepo.SettingsStore {
	return &CacheSettingsStore{cache: c}
}

func indicatorKey(profile string) string {
	return fmt.Sprintf("crashlens:settings:indicators:%s", profile)
}

func backtestKey(profile string) string {
	return fmt.Sprintf("crashlens:settings:backtest:%s", profile)
}

func (s *CacheSettingsStore) GetIndicatorPatch(ctx context.Context, profile string) (*models.IndicatorParamsPatch, error) {
	var patch models.IndicatorParamsPatch
	err := s.cache.Get(ctx, indicatorKey(profile), &patch)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get indicator settings: %w", err)
	}
	return &patch, nil
}

func (s *CacheSettingsStore) SaveIndicatorPatch(ctx context.Context, profile string, patch *models.IndicatorParamsPatch) error {
	if patch == nil {
		if err := s.cache.Delete(ctx, indicatorKey(profile)); err != nil {
			return fmt.Errorf("clear indicator settings: %w", err)
		}
		return nil
	}
	if err := s.cache.Set(ctx, indicatorKey(profile), patch, 0); err != nil {
		return fmt.Errorf("save indicator settings: %w", err)
	}
	return nil
}

func (s *CacheSettingsStore) GetBacktestPatch(ctx context.Context, profile string) (*models.BacktestParamsPatch, error) {
	var patch models.BacktestParamsPatch
	err := s.cache.Get(ctx, backtestKey(profile), &patch)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backtest settings: %w", err)
	}
	return &patch, nil
}

func (s *CacheSettingsStore) SaveBacktestPatch(ctx context.Context, profile string, patch *models.BacktestParamsPatch) error {
	if patch == nil {
		if err := s.cache.Delete(ctx, backtestKey(profile)); err != nil {
			return fmt.Errorf("clear backtest settings: %w", err)
		}
		return nil
	}
	if err := s.cache.Set(ctx, backtestKey(profile), patch, 0); err != nil {
		return fmt.Errorf("save backtest settings: %w", err)
	}
	return nil
}
