package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"salesops-backend/internal/metrics"
	"salesops-backend/internal/models"
)

var (
	// ErrActionBusy is returned when the same action is already in flight.
	ErrActionBusy = errors.New("action already in progress")
	// ErrCancelRejected wraps the message of a cancellation the boundary
	// refused.
	ErrCancelRejected = errors.New("cancellation rejected")
	// ErrNotConfigured is returned when the board has no submitter for an
	// action.
	ErrNotConfigured = errors.New("action not configured")
)

// Action names an operator action.
type Action string

const (
	ActionVerify   Action = "verify"
	ActionDispatch Action = "dispatch"
	ActionCancel   Action = "cancel"
)

func (a Action) label(busy bool) string {
	switch a {
	case ActionVerify:
		if busy {
			return "Requesting..."
		}
		return "Request verification"
	case ActionDispatch:
		if busy {
			return "Saving..."
		}
		return "Save dispatched"
	case ActionCancel:
		if busy {
			return "Cancelling..."
		}
		return "Cancel order"
	}
	return string(a)
}

func recordAction(a Action, result string) {
	metrics.DashboardActions.WithLabelValues(string(a), result).Inc()
}

// verifyCandidates are visible rows that are checked or carry a replacement
// color choice. Caller holds b.mu.
func (b *Board) verifyCandidates() []models.OrderRow {
	var out []models.OrderRow
	for _, r := range b.rows {
		if _, busy := b.inflight[r.Key]; busy {
			continue
		}
		if b.selected[r.Key] || b.colorChoice[r.Key] != "" {
			out = append(out, r)
		}
	}
	return out
}

// dispatchCandidates are the checked visible rows. Caller holds b.mu.
func (b *Board) dispatchCandidates() []models.OrderRow {
	var out []models.OrderRow
	for _, r := range b.rows {
		if _, busy := b.inflight[r.Key]; busy {
			continue
		}
		if b.selected[r.Key] {
			out = append(out, r)
		}
	}
	return out
}

// begin marks a as busy and the given keys as in flight. Caller holds b.mu.
func (b *Board) begin(a Action, rows []models.OrderRow) {
	b.busy[a] = true
	for _, r := range rows {
		b.inflight[r.Key] = a
	}
}

// finish clears what begin set. Caller holds b.mu.
func (b *Board) finish(a Action, rows []models.OrderRow) {
	delete(b.busy, a)
	for _, r := range rows {
		if b.inflight[r.Key] == a {
			delete(b.inflight, r.Key)
		}
	}
}

// removeRows drops the given keys from the visible set and their selection
// state, and lowers the total by n. Caller holds b.mu.
func (b *Board) removeRows(gone map[string]bool, n int) {
	kept := b.rows[:0]
	for _, r := range b.rows {
		if !gone[r.Key] {
			kept = append(kept, r)
		}
	}
	b.rows = kept
	for k := range gone {
		delete(b.selected, k)
		delete(b.colorChoice, k)
		delete(b.produced, k)
	}
	b.total -= n
	if b.total < 0 {
		b.total = 0
	}
}

// RequestVerification submits the checked rows and the rows with a color
// choice for customer verification. With nothing selected no request is
// sent and 0 is returned. On failure the board is left unchanged.
func (b *Board) RequestVerification(ctx context.Context) (int, error) {
	b.mu.Lock()
	if b.actions.Verify == nil {
		b.mu.Unlock()
		return 0, fmt.Errorf("%s: %w", ActionVerify, ErrNotConfigured)
	}
	if b.busy[ActionVerify] {
		b.mu.Unlock()
		recordAction(ActionVerify, "busy")
		return 0, ErrActionBusy
	}
	rows := b.verifyCandidates()
	if len(rows) == 0 {
		b.mu.Unlock()
		recordAction(ActionVerify, "noop")
		return 0, nil
	}
	payload := make([]models.VerificationRowIn, 0, len(rows))
	for _, r := range rows {
		payload = append(payload, models.VerificationRowIn{
			OrderNo:   r.OrderNo,
			Customer:  r.Customer,
			Item:      r.Item,
			Color:     r.Color,
			NewColor:  b.colorChoice[r.Key],
			Size:      r.Size,
			Qty:       r.OrderQty,
			OrderDate: r.OrderDate,
		})
	}
	b.begin(ActionVerify, rows)
	b.mu.Unlock()

	err := b.actions.Verify.SubmitVerification(ctx, payload)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.finish(ActionVerify, rows)
	if err != nil {
		recordAction(ActionVerify, "error")
		b.logger.Warn("verification request failed", zap.Int("rows", len(rows)), zap.Error(err))
		return 0, fmt.Errorf("request verification: %w", err)
	}
	gone := make(map[string]bool, len(rows))
	for _, r := range rows {
		gone[r.Key] = true
		b.pending.Add(r.Key)
		if b.loading {
			b.cyclePending.Add(r.Key)
			delete(b.cycleConfirmed, r.Key)
		}
	}
	b.removeRows(gone, len(rows))
	recordAction(ActionVerify, "ok")
	return len(rows), nil
}

// SaveDispatched records the checked rows as dispatched. A color choice
// overrides the row's recorded replacement color. With nothing checked no
// request is sent and 0 is returned. On failure the rows stay visible and
// selected.
func (b *Board) SaveDispatched(ctx context.Context) (int, error) {
	b.mu.Lock()
	if b.actions.Dispatch == nil {
		b.mu.Unlock()
		return 0, fmt.Errorf("%s: %w", ActionDispatch, ErrNotConfigured)
	}
	if b.busy[ActionDispatch] {
		b.mu.Unlock()
		recordAction(ActionDispatch, "busy")
		return 0, ErrActionBusy
	}
	rows := b.dispatchCandidates()
	if len(rows) == 0 {
		b.mu.Unlock()
		recordAction(ActionDispatch, "noop")
		return 0, nil
	}
	payload := make([]models.DispatchRowIn, 0, len(rows))
	for _, r := range rows {
		in := models.DispatchRowIn{
			OrderNo:    r.OrderNo,
			Customer:   r.Customer,
			Item:       r.Item,
			OldColor:   r.Color,
			NewColor:   r.ReplacementColor,
			Dispatched: true,
		}
		if c := b.colorChoice[r.Key]; c != "" {
			in.NewColor = c
		}
		if q, ok := b.produced[r.Key]; ok {
			qty := q
			in.ProducedQty = &qty
		}
		payload = append(payload, in)
	}
	b.begin(ActionDispatch, rows)
	b.mu.Unlock()

	inserted, err := b.actions.Dispatch.SubmitDispatch(ctx, payload)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.finish(ActionDispatch, rows)
	if err != nil {
		recordAction(ActionDispatch, "error")
		b.logger.Warn("dispatch save failed", zap.Int("rows", len(rows)), zap.Error(err))
		return 0, fmt.Errorf("save dispatched: %w", err)
	}
	gone := make(map[string]bool, len(rows))
	for _, r := range rows {
		gone[r.Key] = true
		b.dispatched.Add(r.Key)
	}
	b.removeRows(gone, len(rows))
	recordAction(ActionDispatch, "ok")
	return inserted, nil
}

// CancelOrder cancels the order of the visible row with the given key. On
// success every visible row of that order is marked cancelled in place.
// An empty or unknown key is a no-op.
func (b *Board) CancelOrder(ctx context.Context, key string) error {
	b.mu.Lock()
	if b.actions.Cancel == nil {
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", ActionCancel, ErrNotConfigured)
	}
	if b.busy[ActionCancel] {
		b.mu.Unlock()
		recordAction(ActionCancel, "busy")
		return ErrActionBusy
	}
	i := b.visibleIndex(key)
	if i < 0 || strings.TrimSpace(b.rows[i].OrderNo) == "" {
		b.mu.Unlock()
		recordAction(ActionCancel, "noop")
		return nil
	}
	row := b.rows[i]
	orderNo := strings.TrimSpace(row.OrderNo)
	b.begin(ActionCancel, nil)
	b.mu.Unlock()

	res, err := b.actions.Cancel.CancelOrder(ctx, orderNo)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.finish(ActionCancel, nil)
	if err != nil {
		recordAction(ActionCancel, "error")
		b.logger.Warn("cancel failed", zap.String("order_no", orderNo), zap.Error(err))
		return fmt.Errorf("cancel order %s: %w", orderNo, err)
	}
	if !res.Success {
		recordAction(ActionCancel, "rejected")
		return fmt.Errorf("cancel order %s: %w: %s", orderNo, ErrCancelRejected, res.Message)
	}
	for j := range b.rows {
		if strings.EqualFold(strings.TrimSpace(b.rows[j].OrderNo), orderNo) {
			b.rows[j].Status = models.StatusCancelled
		}
	}
	recordAction(ActionCancel, "ok")
	return nil
}
