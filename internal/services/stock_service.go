package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"salesops-backend/internal/cache"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/models"
)

type StockService struct {
	Repo   StockStore
	logger *zap.Logger
}

func NewStockService(repo StockStore, logger *zap.Logger) *StockService {
	return &StockService{Repo: repo, logger: logging.OrNop(logger).Named("stock")}
}

// NormalizeItems upper-cases, trims and dedupes item codes, dropping
// blanks.
func NormalizeItems(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.ToUpper(strings.TrimSpace(it))
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// StockBatch returns closing stock for items. Cached items are served from
// Redis and only the misses reach the warehouse.
func (s *StockService) StockBatch(ctx context.Context, items []string) ([]models.StockRow, error) {
	items = NormalizeItems(items)
	if len(items) == 0 {
		return []models.StockRow{}, nil
	}

	cacheKeys := make([]string, len(items))
	for i, it := range items {
		cacheKeys[i] = cache.StockKey(it)
	}
	hits := cache.GetCachedMany(ctx, cacheKeys)

	found := make(map[string]models.StockRow, len(items))
	var misses []string
	for i, it := range items {
		if data, ok := hits[cacheKeys[i]]; ok {
			var row models.StockRow
			if err := json.Unmarshal(data, &row); err == nil {
				found[it] = row
				continue
			}
		}
		misses = append(misses, it)
	}

	if len(misses) > 0 {
		rows, err := s.Repo.Batch(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			found[row.Item] = row
			if data, err := json.Marshal(row); err == nil {
				cache.SetCached(ctx, cache.StockKey(row.Item), data, cache.StockTTL)
			}
		}
		s.logger.Debug("stock batch", zap.Int("items", len(items)), zap.Int("cache_misses", len(misses)))
	}

	out := make([]models.StockRow, 0, len(found))
	for _, it := range items {
		if row, ok := found[it]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}
