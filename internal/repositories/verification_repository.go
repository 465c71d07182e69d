package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesops-backend/internal/models"
)

type VerificationRepository struct {
	DB     *pgxpool.Pool
	Tables Tables
}

func NewVerificationRepository(db *pgxpool.Pool, tables Tables) *VerificationRepository {
	return &VerificationRepository{DB: db, Tables: tables}
}

// Insert files pending verification requests.
func (r *VerificationRepository) Insert(ctx context.Context, rows []models.VerificationRowIn) (int, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`INSERT INTO %s (key, order_no, customer, item, color, new_color, size, qty, order_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.Tables.Verification)
	for _, row := range rows {
		if _, err := tx.Exec(ctx, stmt,
			row.Key(),
			strings.TrimSpace(row.OrderNo),
			strings.TrimSpace(row.Customer),
			strings.TrimSpace(row.Item),
			strings.TrimSpace(row.Color),
			strings.TrimSpace(row.NewColor),
			strings.TrimSpace(row.Size),
			row.Qty,
			strings.TrimSpace(row.OrderDate),
		); err != nil {
			return 0, fmt.Errorf("insert verification row: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// List returns every verification record, oldest first. Several records
// may share a key.
func (r *VerificationRepository) List(ctx context.Context) ([]models.VerificationRecord, error) {
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT UPPER(key), order_no, customer, item, color, new_color, size, qty, order_date, verified_at, created_at
		FROM %s
		ORDER BY created_at ASC, id ASC`, r.Tables.Verification))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.VerificationRecord, error) {
		var v models.VerificationRecord
		err := row.Scan(&v.Key, &v.OrderNo, &v.Customer, &v.Item, &v.Color, &v.NewColor,
			&v.Size, &v.Qty, &v.OrderDate, &v.VerifiedAt, &v.CreatedAt)
		return v, err
	})
}

// Confirm sets the completion timestamp on every open record for key and
// returns how many were updated.
func (r *VerificationRepository) Confirm(ctx context.Context, key string) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET verified_at = NOW()
		 WHERE UPPER(key) = UPPER(TRIM($1)) AND verified_at IS NULL`, r.Tables.Verification),
		key)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
