package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"salesops-backend/internal/cache"
	"salesops-backend/internal/changelog"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/models"
)

type OrderService struct {
	Repo OrderStore
}

func NewOrderService(repo OrderStore) *OrderService {
	return &OrderService{Repo: repo}
}

func (s *OrderService) Orders(ctx context.Context, q models.OrderQuery) (models.OrderPage, error) {
	page, err := s.Repo.Page(ctx, q)
	if err != nil {
		return models.OrderPage{}, err
	}
	if page.Rows == nil {
		page.Rows = []models.OrderRow{}
	}
	return page, nil
}

type CancelService struct {
	Repo   OrderStore
	Log    changelog.Writer
	logger *zap.Logger
}

func NewCancelService(repo OrderStore, log changelog.Writer, logger *zap.Logger) *CancelService {
	if log == nil {
		log = changelog.Nop{}
	}
	return &CancelService{Repo: repo, Log: log, logger: logging.OrNop(logger).Named("cancel")}
}

// CancelOrder cancels every pending line of orderNo. An order with nothing
// left to cancel is reported as unsuccessful, not as an error.
func (s *CancelService) CancelOrder(ctx context.Context, orderNo string) (models.CancelResult, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return models.CancelResult{Success: false, Message: "order number is required"}, nil
	}

	n, err := s.Repo.Cancel(ctx, orderNo)
	if err != nil {
		return models.CancelResult{}, err
	}
	if n == 0 {
		return models.CancelResult{Success: false, Message: "no pending lines for order " + orderNo}, nil
	}

	cache.InvalidateOrderCaches(ctx)
	if err := s.Log.Append(ctx, changelog.Entry{
		Kind:    changelog.KindCancelled,
		Key:     orderNo,
		OrderNo: orderNo,
		Payload: map[string]int64{"lines": n},
	}); err != nil {
		s.logger.Warn("changelog append failed", zap.String("order_no", orderNo), zap.Error(err))
	}

	s.logger.Info("order cancelled", zap.String("order_no", orderNo), zap.Int64("lines", n))
	return models.CancelResult{Success: true, Message: "order cancelled"}, nil
}
