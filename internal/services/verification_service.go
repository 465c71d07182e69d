package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"salesops-backend/internal/cache"
	"salesops-backend/internal/changelog"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/models"
	"salesops-backend/internal/notify"
	"salesops-backend/internal/timeutil"
)

// ErrVerificationNotFound is returned when confirming a key that has no
// verification record.
var ErrVerificationNotFound = errors.New("verification not found")

type VerificationService struct {
	Repo      VerificationStore
	Publisher notify.Publisher
	Log       changelog.Writer
	logger    *zap.Logger
}

func NewVerificationService(repo VerificationStore, pub notify.Publisher, log changelog.Writer, logger *zap.Logger) *VerificationService {
	if log == nil {
		log = changelog.Nop{}
	}
	return &VerificationService{
		Repo:      repo,
		Publisher: pub,
		Log:       log,
		logger:    logging.OrNop(logger).Named("verification"),
	}
}

// Verifications returns one merged record per composite key.
func (s *VerificationService) Verifications(ctx context.Context) ([]models.VerificationRecord, error) {
	records, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.MergeVerifications(records), nil
}

// SubmitVerification files pending requests.
func (s *VerificationService) SubmitVerification(ctx context.Context, rows []models.VerificationRowIn) error {
	if _, err := s.Repo.Insert(ctx, rows); err != nil {
		return err
	}
	cache.InvalidateVerificationCaches(ctx)

	entries := make([]changelog.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, changelog.Entry{
			Kind:    changelog.KindVerificationQueued,
			Key:     row.Key(),
			OrderNo: row.OrderNo,
			Payload: row,
		})
	}
	if err := s.Log.Append(ctx, entries...); err != nil {
		s.logger.Warn("changelog append failed", zap.Int("rows", len(rows)), zap.Error(err))
	}
	return nil
}

// Confirm records the completion timestamp for key and broadcasts the
// resulting row. row, when the caller has it, is broadcast as given;
// otherwise it is rebuilt from the merged record. Confirming an already
// verified key re-broadcasts it.
func (s *VerificationService) Confirm(ctx context.Context, key string, row *models.OrderRow) (*models.OrderRow, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if _, err := s.Repo.Confirm(ctx, key); err != nil {
		return nil, fmt.Errorf("confirm %s: %w", key, err)
	}
	cache.InvalidateVerificationCaches(ctx)

	merged, err := s.Verifications(ctx)
	if err != nil {
		return nil, err
	}
	var rec *models.VerificationRecord
	for i := range merged {
		if merged[i].Key == key {
			rec = &merged[i]
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrVerificationNotFound, key)
	}

	if row == nil {
		row = RowFromVerification(*rec)
	} else {
		r := *row
		r.VerifiedAt = rec.VerifiedAt
		if r.ReplacementColor == "" {
			r.ReplacementColor = rec.NewColor
		}
		r.Key = key
		row = &r
	}

	if err := s.Log.Append(ctx, changelog.Entry{
		Kind:    changelog.KindVerified,
		Key:     key,
		OrderNo: rec.OrderNo,
		Payload: rec,
	}); err != nil {
		s.logger.Warn("changelog append failed", zap.String("key", key), zap.Error(err))
	}

	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, notify.VerifiedConfirmed(key, row)); err != nil {
			s.logger.Warn("sync publish failed", zap.String("key", key), zap.Error(err))
		}
	}
	return row, nil
}

// RowFromVerification rebuilds the order row a verification refers to.
func RowFromVerification(v models.VerificationRecord) *models.OrderRow {
	row := &models.OrderRow{
		Key:              v.Key,
		OrderNo:          v.OrderNo,
		OrderDateRaw:     v.OrderDate,
		Customer:         v.Customer,
		Item:             v.Item,
		Color:            v.Color,
		Size:             v.Size,
		Status:           models.StatusPending,
		VerifiedAt:       v.VerifiedAt,
		ReplacementColor: v.NewColor,
	}
	if v.Qty != nil {
		row.OrderQty = *v.Qty
	}
	if t, ok := row.ParsedDate(); ok {
		row.OrderDate = timeutil.FormatDate(t)
	}
	return row
}
