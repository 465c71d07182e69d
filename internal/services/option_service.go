package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"salesops-backend/internal/cache"
	"salesops-backend/internal/models"
	"salesops-backend/internal/query"
)

type OptionService struct {
	Repo OptionStore
}

func NewOptionService(repo OptionStore) *OptionService {
	return &OptionService{Repo: repo}
}

// Options lists filter values of kind. limit is clamped like every
// auxiliary list.
func (s *OptionService) Options(ctx context.Context, kind, q string, limit int) ([]models.Option, error) {
	limit = query.ClampLimit(limit, query.DefaultListLimit, query.MaxListLimit)
	q = strings.TrimSpace(q)
	key := fmt.Sprintf("%s%s:%d:%s", cache.OptionsKeyPrefix, kind, limit, strings.ToLower(q))

	if data, ok := cache.GetCached(ctx, key); ok {
		var opts []models.Option
		if err := json.Unmarshal(data, &opts); err == nil {
			return opts, nil
		}
	}

	opts, err := s.Repo.Options(ctx, kind, q, limit)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = []models.Option{}
	}
	if data, err := json.Marshal(opts); err == nil {
		cache.SetCached(ctx, key, data, cache.OptionsTTL)
	}
	return opts, nil
}
