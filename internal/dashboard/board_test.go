package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesops-backend/internal/models"
	"salesops-backend/internal/notify"
)

type boardFixture struct {
	board    *Board
	orders   *fakeOrders
	verify   *fakeVerify
	dispatch *fakeDispatch
	cancel   *fakeCancel
}

func newBoardFixture(t *testing.T, total int, rows ...models.OrderRow) *boardFixture {
	t.Helper()
	fx := &boardFixture{
		orders:   pageOf(total, rows...),
		verify:   &fakeVerify{},
		dispatch: &fakeDispatch{},
		cancel:   &fakeCancel{result: models.CancelResult{Success: true, Message: "cancelled"}},
	}
	rec := NewReconciler(Sources{Orders: fx.orders}, nil)
	fx.board = NewBoard(rec, Actions{Verify: fx.verify, Dispatch: fx.dispatch, Cancel: fx.cancel}, nil)
	t.Cleanup(fx.board.Close)
	require.NoError(t, fx.board.Refresh(context.Background()))
	return fx
}

func threeRows() []models.OrderRow {
	return []models.OrderRow{
		row("SO-1", "Acme", "IT01", "Red", 5, "2024-01-01"),
		row("SO-1", "Acme", "IT02", "Blue", 4, "2024-01-01"),
		row("SO-2", "Beta", "IT03", "Green", 3, "2024-01-02"),
	}
}

func TestBoard_RefreshPopulatesView(t *testing.T) {
	fx := newBoardFixture(t, 10, threeRows()...)
	v := fx.board.View()

	assert.Len(t, v.Rows, 3)
	assert.Equal(t, 10, v.Total)
	assert.False(t, v.Loading)
	assert.False(t, v.Empty)
	assert.Empty(t, v.Error)
	require.Len(t, v.Groups, 2)
	assert.Equal(t, "Acme", v.Groups[0].Key)
	assert.Equal(t, []string{GroupCustomer}, v.GroupBy)

	assert.False(t, v.Verify.Enabled, "nothing selected")
	assert.False(t, v.Dispatch.Enabled)
	assert.True(t, v.Cancel.Enabled)
	assert.Equal(t, "Request verification", v.Verify.Label)
}

func TestBoard_RefreshErrorSurfaced(t *testing.T) {
	boom := errors.New("warehouse down")
	orders := &fakeOrders{fn: func(context.Context, int, models.OrderQuery) (models.OrderPage, error) {
		return models.OrderPage{}, boom
	}}
	b := NewBoard(NewReconciler(Sources{Orders: orders}, nil), Actions{}, nil)
	defer b.Close()

	err := b.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)
	v := b.View()
	assert.Contains(t, v.Error, "warehouse down")
	assert.True(t, v.Empty)
}

func TestBoard_StaleCycleDiscarded(t *testing.T) {
	first := row("SO-OLD", "Acme", "IT01", "Red", 1, "")
	second := row("SO-NEW", "Acme", "IT02", "Red", 1, "")
	started := make(chan struct{})

	orders := &fakeOrders{fn: func(ctx context.Context, call int, _ models.OrderQuery) (models.OrderPage, error) {
		if call == 1 {
			close(started)
			<-ctx.Done()
			// a late reply that must not land
			return models.OrderPage{Rows: []models.OrderRow{first}, Total: 1}, nil
		}
		return models.OrderPage{Rows: []models.OrderRow{second}, Total: 7}, nil
	}}
	b := NewBoard(NewReconciler(Sources{Orders: orders}, nil), Actions{}, nil)
	defer b.Close()

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-started

	require.NoError(t, b.Refresh(context.Background()))
	require.NoError(t, <-done, "a superseded cycle returns silently")

	v := b.View()
	assert.Equal(t, []string{second.Key}, rowKeys(v.Rows))
	assert.Equal(t, 7, v.Total)
}

func TestBoard_DraftAndApply(t *testing.T) {
	fx := newBoardFixture(t, 3, threeRows()...)
	require.Equal(t, 1, fx.orders.Calls())

	fx.board.SetDraft(Filters{Query: models.OrderQuery{Q: "red", Tokens: []string{"surat"}, StartDate: "2024-01-01", Offset: 50}})
	assert.Equal(t, 1, fx.orders.Calls(), "draft edits do not fetch")
	assert.Empty(t, fx.board.Filters().Applied.Query.Q)

	require.NoError(t, fx.board.Apply(context.Background()))
	assert.Equal(t, 2, fx.orders.Calls())
	applied := fx.orders.queries[1]
	assert.Equal(t, "red", applied.Q)
	assert.Equal(t, 0, applied.Offset, "apply goes back to the first page")

	require.NoError(t, fx.board.ClearTokens(context.Background()))
	assert.Equal(t, 3, fx.orders.Calls(), "token clear applies immediately")
	assert.Empty(t, fx.orders.queries[2].Tokens)
	assert.Equal(t, "red", fx.orders.queries[2].Q)
	assert.Empty(t, fx.board.Filters().Draft.Query.Tokens)

	require.NoError(t, fx.board.ClearDates(context.Background()))
	assert.Empty(t, fx.orders.queries[3].StartDate)

	require.NoError(t, fx.board.SetPage(context.Background(), 50, 100))
	assert.Equal(t, 50, fx.orders.queries[4].Limit)
	assert.Equal(t, 100, fx.orders.queries[4].Offset)
}

func TestBoard_SelectionPrunedOnRefresh(t *testing.T) {
	rows := threeRows()
	calls := 0
	orders := &fakeOrders{fn: func(context.Context, int, models.OrderQuery) (models.OrderPage, error) {
		calls++
		if calls == 1 {
			return models.OrderPage{Rows: rows, Total: 3}, nil
		}
		return models.OrderPage{Rows: rows[:1], Total: 1}, nil
	}}
	b := NewBoard(NewReconciler(Sources{Orders: orders}, nil), Actions{}, nil)
	defer b.Close()

	require.NoError(t, b.Refresh(context.Background()))
	b.SelectAll(true)
	require.Len(t, b.View().Selected, 3)

	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, []string{rows[0].Key}, b.View().Selected)
}

func TestBoard_RequestVerification(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 10, rows...)

	assert.True(t, fx.board.Toggle(rows[0].Key))
	assert.True(t, fx.board.SetColorChoice(rows[2].Key, "Teal"))
	assert.False(t, fx.board.Toggle("SO-404|X|Y|Z"))
	require.True(t, fx.board.View().Verify.Enabled)

	n, err := fx.board.RequestVerification(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, fx.verify.rows, 2)
	assert.Equal(t, "IT01", fx.verify.rows[0].Item)
	assert.Equal(t, 5, fx.verify.rows[0].Qty)
	assert.Empty(t, fx.verify.rows[0].NewColor)
	assert.Equal(t, "Teal", fx.verify.rows[1].NewColor)

	v := fx.board.View()
	assert.Equal(t, []string{rows[1].Key}, rowKeys(v.Rows))
	assert.Equal(t, 8, v.Total)
	assert.Equal(t, 2, v.Pending)
	assert.Empty(t, v.Selected)
}

func TestBoard_RequestVerificationFailureLeavesState(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 10, rows...)
	fx.verify.err = errors.New("boundary unavailable")

	fx.board.SelectAll(true)
	n, err := fx.board.RequestVerification(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)

	v := fx.board.View()
	assert.Len(t, v.Rows, 3)
	assert.Equal(t, 10, v.Total)
	assert.Len(t, v.Selected, 3)
	assert.Equal(t, 0, v.Pending)
	assert.False(t, v.Verify.Busy)
}

func TestBoard_ZeroSelectedIsNoop(t *testing.T) {
	fx := newBoardFixture(t, 3, threeRows()...)

	n, err := fx.board.RequestVerification(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = fx.board.SaveDispatched(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Zero(t, fx.verify.Calls())
	assert.Zero(t, fx.dispatch.calls)
}

func TestBoard_SaveDispatched(t *testing.T) {
	rows := threeRows()
	rows[1].ReplacementColor = "Navy"
	rows[2].ReplacementColor = "Navy"
	fx := newBoardFixture(t, 10, rows...)

	fx.board.SelectOrder("so-1")
	fx.board.Select(rows[2].Key, true)
	fx.board.SetColorChoice(rows[2].Key, "Teal")
	fx.board.SetProducedQty(rows[0].Key, 4)

	n, err := fx.board.SaveDispatched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, fx.dispatch.rows, 3)
	byItem := map[string]models.DispatchRowIn{}
	for _, d := range fx.dispatch.rows {
		assert.True(t, d.Dispatched)
		byItem[d.Item] = d
	}
	assert.Equal(t, "Red", byItem["IT01"].OldColor)
	require.NotNil(t, byItem["IT01"].ProducedQty)
	assert.Equal(t, 4, *byItem["IT01"].ProducedQty)
	assert.Equal(t, "Navy", byItem["IT02"].NewColor, "recorded replacement used without a choice")
	assert.Nil(t, byItem["IT02"].ProducedQty)
	assert.Equal(t, "Teal", byItem["IT03"].NewColor, "choice overrides recorded replacement")

	v := fx.board.View()
	assert.Empty(t, v.Rows)
	assert.Equal(t, 7, v.Total)
	assert.Equal(t, 3, v.Dispatched)
	assert.True(t, v.Empty)

	// the selection went with the rows, so a second save sends nothing
	n, err = fx.board.SaveDispatched(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, fx.dispatch.calls)
}

func TestBoard_SaveDispatchedFailureKeepsSelection(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 3, rows...)
	fx.dispatch.err = errors.New("insert failed")

	fx.board.Select(rows[0].Key, true)
	_, err := fx.board.SaveDispatched(context.Background())
	require.Error(t, err)

	v := fx.board.View()
	assert.Len(t, v.Rows, 3)
	assert.Equal(t, []string{rows[0].Key}, v.Selected)
	assert.Equal(t, 0, v.Dispatched)
}

func TestBoard_DispatchedStaysHiddenAfterRefresh(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 3, rows...)

	fx.board.Select(rows[0].Key, true)
	_, err := fx.board.SaveDispatched(context.Background())
	require.NoError(t, err)

	// the dispatched-key source is not wired and the order page still
	// carries the row, but the key learned locally keeps it out
	require.NoError(t, fx.board.Refresh(context.Background()))
	v := fx.board.View()
	assert.Equal(t, 1, v.Dispatched)
	assert.Equal(t, []string{rows[1].Key, rows[2].Key}, rowKeys(v.Rows))
	assert.Equal(t, 2, v.Total)
}

func TestBoard_OverlappingActionRejected(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 3, rows...)
	fx.verify.gate = make(chan struct{})

	fx.board.Select(rows[0].Key, true)
	done := make(chan error, 1)
	go func() {
		_, err := fx.board.RequestVerification(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return fx.board.View().Verify.Busy }, time.Second, 5*time.Millisecond)
	v := fx.board.View()
	assert.False(t, v.Verify.Enabled)
	assert.Equal(t, "Requesting...", v.Verify.Label)

	fx.board.Select(rows[1].Key, true)
	_, err := fx.board.RequestVerification(context.Background())
	assert.ErrorIs(t, err, ErrActionBusy)

	close(fx.verify.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fx.verify.Calls())
	assert.False(t, fx.board.View().Verify.Busy)
}

func TestBoard_CancelOrder(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 3, rows...)

	require.NoError(t, fx.board.CancelOrder(context.Background(), ""))
	require.NoError(t, fx.board.CancelOrder(context.Background(), "SO-404|X|Y|Z"))
	assert.Zero(t, fx.cancel.calls)

	require.NoError(t, fx.board.CancelOrder(context.Background(), rows[0].Key))
	assert.Equal(t, []string{"SO-1"}, fx.cancel.orders)

	v := fx.board.View()
	require.Len(t, v.Rows, 3, "cancelled rows stay visible")
	for _, r := range v.Rows {
		want := models.StatusPending
		if r.OrderNo == "SO-1" {
			want = models.StatusCancelled
		}
		assert.Equal(t, want, r.Status, r.Key)
	}
}

func TestBoard_CancelRejected(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 3, rows...)
	fx.cancel.result = models.CancelResult{Success: false, Message: "no matching order found"}

	err := fx.board.CancelOrder(context.Background(), rows[2].Key)
	assert.ErrorIs(t, err, ErrCancelRejected)
	assert.Contains(t, err.Error(), "no matching order found")
	assert.Equal(t, models.StatusPending, fx.board.View().Rows[2].Status)
}

func TestBoard_CrossTabConfirmIsIdempotent(t *testing.T) {
	rows := threeRows()
	confirmed := row("SO-9", "Gamma", "IT09", "Red", 2, "2024-01-03")
	fx := newBoardFixture(t, 3, rows...)

	// put the key into the pending set the way a local request would
	fx.orders.fn = func(context.Context, int, models.OrderQuery) (models.OrderPage, error) {
		return models.OrderPage{Rows: append(threeRows(), confirmed), Total: 4}, nil
	}
	rec := NewReconciler(Sources{
		Orders:        fx.orders,
		Verifications: &fakeVerifications{rows: []models.VerificationRecord{{Key: confirmed.Key}}},
	}, nil)
	fx.board.rec = rec
	require.NoError(t, fx.board.Refresh(context.Background()))
	require.Equal(t, 1, fx.board.View().Pending)
	require.Equal(t, 3, fx.board.View().Total)

	bus := notify.NewBus()
	detach := fx.board.Attach(bus)
	defer detach()

	ev := notify.VerifiedConfirmed("", &confirmed)
	require.NoError(t, bus.Publish(context.Background(), ev))
	require.NoError(t, bus.Publish(context.Background(), ev))

	v := fx.board.View()
	assert.Equal(t, 0, v.Pending)
	require.Len(t, v.Rows, 4)
	assert.Equal(t, confirmed.Key, v.Rows[0].Key, "confirmed row goes to the front")
	require.NotNil(t, v.Rows[0].VerifiedAt)
	assert.Equal(t, 4, v.Total)

	detach()
	other := row("SO-10", "Gamma", "IT10", "Red", 1, "")
	require.NoError(t, bus.Publish(context.Background(), notify.VerifiedConfirmed("", &other)))
	assert.Len(t, fx.board.View().Rows, 4, "detached board ignores events")
}

func TestBoard_CrossTabIgnoresDispatchedAndForeignEvents(t *testing.T) {
	rows := threeRows()
	fx := newBoardFixture(t, 3, rows...)

	fx.board.Select(rows[0].Key, true)
	_, err := fx.board.SaveDispatched(context.Background())
	require.NoError(t, err)

	fx.board.ApplyEvent(notify.VerifiedConfirmed(rows[0].Key, &rows[0]))
	fx.board.ApplyEvent(notify.Event{Type: "something:else", Row: &rows[0]})
	fx.board.ApplyEvent(notify.Event{Type: notify.TypeVerifiedConfirmed})

	v := fx.board.View()
	assert.Len(t, v.Rows, 2)
	assert.Equal(t, 2, v.Total)
}

// blockSecondCall serves rows on every call but holds the second one until
// release is closed. started is closed when the second call arrives.
func blockSecondCall(total int, rows []models.OrderRow) (orders *fakeOrders, started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	orders = &fakeOrders{fn: func(ctx context.Context, call int, _ models.OrderQuery) (models.OrderPage, error) {
		if call == 2 {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
				return models.OrderPage{}, ctx.Err()
			}
		}
		out := make([]models.OrderRow, len(rows))
		copy(out, rows)
		return models.OrderPage{Rows: out, Total: total}, nil
	}}
	return orders, started, release
}

func TestBoard_VerificationDuringRefreshSurvivesCommit(t *testing.T) {
	rows := threeRows()
	orders, started, release := blockSecondCall(10, rows)
	verify := &fakeVerify{}
	b := NewBoard(NewReconciler(Sources{Orders: orders}, nil), Actions{Verify: verify}, nil)
	defer b.Close()
	require.NoError(t, b.Refresh(context.Background()))

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-started

	require.True(t, b.Select(rows[0].Key, true))
	n, err := b.RequestVerification(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	close(release)
	require.NoError(t, <-done)

	v := b.View()
	assert.Equal(t, []string{rows[1].Key, rows[2].Key}, rowKeys(v.Rows))
	assert.Equal(t, 1, v.Pending)
	assert.Equal(t, 9, v.Total)
}

func TestBoard_CrossTabConfirmDuringRefreshSurvivesCommit(t *testing.T) {
	confirmed := row("SO-9", "Gamma", "IT09", "Red", 2, "2024-01-03")
	orders, started, release := blockSecondCall(4, append(threeRows(), confirmed))
	b := NewBoard(NewReconciler(Sources{
		Orders:        orders,
		Verifications: &fakeVerifications{rows: []models.VerificationRecord{{Key: confirmed.Key}}},
	}, nil), Actions{}, nil)
	defer b.Close()
	require.NoError(t, b.Refresh(context.Background()))
	require.Equal(t, 1, b.View().Pending)
	require.Len(t, b.View().Rows, 3)

	done := make(chan error, 1)
	go func() { done <- b.Refresh(context.Background()) }()
	<-started

	// the verification source still reports the key as pending when the
	// cycle reads it
	b.ApplyEvent(notify.VerifiedConfirmed("", &confirmed))
	require.Len(t, b.View().Rows, 4)

	close(release)
	require.NoError(t, <-done)

	v := b.View()
	assert.Equal(t, 0, v.Pending)
	require.Len(t, v.Rows, 4)
	assert.Equal(t, confirmed.Key, v.Rows[0].Key)
	assert.Equal(t, 4, v.Total)

	// the journal belongs to one cycle only
	require.NoError(t, b.Refresh(context.Background()))
	assert.Equal(t, 1, b.View().Pending)
	assert.Len(t, b.View().Rows, 3)
}

func TestBoard_GroupBy(t *testing.T) {
	fx := newBoardFixture(t, 3, threeRows()...)
	fx.board.SetGroupBy([]string{"color", "bogus"})

	v := fx.board.View()
	assert.Equal(t, []string{GroupColor}, v.GroupBy)
	assert.Len(t, v.Groups, 3)

	fx.board.SetGroupBy(nil)
	assert.Equal(t, []string{GroupCustomer}, fx.board.View().GroupBy)
}
