package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"salesops-backend/internal/cache"
	"salesops-backend/internal/changelog"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/models"
)

type DispatchService struct {
	Repo   DispatchStore
	Log    changelog.Writer
	logger *zap.Logger
}

func NewDispatchService(repo DispatchStore, log changelog.Writer, logger *zap.Logger) *DispatchService {
	if log == nil {
		log = changelog.Nop{}
	}
	return &DispatchService{Repo: repo, Log: log, logger: logging.OrNop(logger).Named("dispatch")}
}

// DispatchedKeys returns every dispatched composite key, served from cache
// when possible.
func (s *DispatchService) DispatchedKeys(ctx context.Context) ([]string, error) {
	if data, ok := cache.GetCached(ctx, cache.DispatchedKeysKey); ok {
		var keys []string
		if err := json.Unmarshal(data, &keys); err == nil {
			return keys, nil
		}
	}

	keys, err := s.Repo.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	if data, err := json.Marshal(keys); err == nil {
		cache.SetCached(ctx, cache.DispatchedKeysKey, data, cache.DispatchKeysTTL)
	}
	return keys, nil
}

// SubmitDispatch appends rows to the dispatch log.
func (s *DispatchService) SubmitDispatch(ctx context.Context, rows []models.DispatchRowIn) (int, error) {
	inserted, err := s.Repo.Insert(ctx, rows)
	if err != nil {
		return inserted, err
	}

	cache.InvalidateDispatchCaches(ctx)
	cache.PreWarmKey(cache.DispatchedKeysKey, func(ctx context.Context) ([]byte, error) {
		keys, err := s.Repo.Keys(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(keys)
	}, cache.DispatchKeysTTL)

	entries := make([]changelog.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, changelog.Entry{
			Kind:    changelog.KindDispatched,
			Key:     row.Key(),
			OrderNo: row.OrderNo,
			Payload: row,
		})
	}
	if err := s.Log.Append(ctx, entries...); err != nil {
		s.logger.Warn("changelog append failed", zap.Int("rows", len(rows)), zap.Error(err))
	}

	s.logger.Info("dispatch saved", zap.Int("rows", len(rows)), zap.Int("inserted", inserted))
	return inserted, nil
}
