package dashboard

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"salesops-backend/internal/keys"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/metrics"
	"salesops-backend/internal/models"
	"salesops-backend/internal/notify"
)

// FilterState holds the filters being edited (Draft) and the ones the
// current rows were fetched with (Applied).
type FilterState struct {
	Draft   Filters `json:"draft"`
	Applied Filters `json:"applied"`
}

// Board is the single owner of a dashboard session's state: the visible
// rows, the dispatched and pending key sets, selections and the action
// flags. Fetch cycles and actions mutate it only through its methods.
type Board struct {
	rec     *Reconciler
	actions Actions
	logger  *zap.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	loading bool
	err     error

	rows       []models.OrderRow
	total      int
	dispatched keys.Set
	pending    keys.Set

	filters FilterState
	groupBy []string

	selected    map[string]bool
	colorChoice map[string]string
	produced    map[string]int

	busy     map[Action]bool
	inflight map[string]Action

	// Changes made while a cycle is in flight. Its result predates them,
	// so they are replayed over it on commit.
	cyclePending   keys.Set
	cycleConfirmed map[string]models.OrderRow
}

func NewBoard(rec *Reconciler, actions Actions, logger *zap.Logger) *Board {
	return &Board{
		rec:         rec,
		actions:     actions,
		logger:      logging.OrNop(logger).Named("board"),
		dispatched:  keys.NewSet(),
		pending:     keys.NewSet(),
		groupBy:     []string{GroupCustomer},
		selected:    make(map[string]bool),
		colorChoice: make(map[string]string),
		produced:    make(map[string]int),
		busy:        make(map[Action]bool),
		inflight:    make(map[string]Action),

		cyclePending:   keys.NewSet(),
		cycleConfirmed: make(map[string]models.OrderRow),
	}
}

// Refresh runs a reconciliation cycle with the applied filters. Starting a
// cycle cancels the one in flight; a superseded or cancelled cycle changes
// nothing and returns nil.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	b.gen++
	gen := b.gen
	cycleCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.loading = true
	b.cyclePending = keys.NewSet()
	b.cycleConfirmed = make(map[string]models.OrderRow)
	filters := cloneFilters(b.filters.Applied)
	b.mu.Unlock()
	defer cancel()

	res, err := b.rec.Run(cycleCtx, filters)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		metrics.ReconcileCycles.WithLabelValues("stale").Inc()
		return nil
	}
	b.cancel = nil
	b.loading = false
	if cycleCtx.Err() != nil {
		metrics.ReconcileCycles.WithLabelValues("cancelled").Inc()
		return nil
	}
	if err != nil {
		metrics.ReconcileCycles.WithLabelValues("error").Inc()
		b.err = err
		b.rows = nil
		b.total = 0
		b.logger.Warn("reconciliation failed", zap.Error(err))
		return err
	}
	metrics.ReconcileCycles.WithLabelValues("ok").Inc()

	// Dispatch is terminal, so keys learned locally stay and keep their
	// rows out even before the dispatched-key source reflects them.
	for k := range res.Dispatched {
		b.dispatched.Add(k)
	}
	pending := res.Pending.Clone()
	for k := range b.cyclePending {
		pending.Add(k)
	}
	for k := range b.cycleConfirmed {
		pending.Remove(k)
	}

	rows := res.Rows[:0]
	total := res.Total
	seen := make(map[string]bool, len(res.Rows))
	for _, r := range res.Rows {
		if b.dispatched.Has(r.Key) || b.cyclePending.Has(r.Key) {
			total--
			continue
		}
		seen[r.Key] = true
		rows = append(rows, r)
	}
	if total < 0 {
		total = 0
	}

	var confirmed []models.OrderRow
	for k, r := range b.cycleConfirmed {
		if seen[k] || b.dispatched.Has(k) {
			continue
		}
		confirmed = append(confirmed, r)
		total++
	}
	if len(confirmed) > 0 {
		SortVisible(confirmed)
		rows = append(confirmed, rows...)
	}

	b.err = nil
	b.rows = rows
	b.total = total
	b.pending = pending
	b.cyclePending = keys.NewSet()
	b.cycleConfirmed = make(map[string]models.OrderRow)
	b.pruneSelection()
	return nil
}

// Close cancels the cycle in flight.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.gen++
	b.loading = false
}

// pruneSelection drops selection state for keys no longer visible.
func (b *Board) pruneSelection() {
	visible := make(map[string]bool, len(b.rows))
	for _, r := range b.rows {
		visible[r.Key] = true
	}
	for k := range b.selected {
		if !visible[k] {
			delete(b.selected, k)
		}
	}
	for k := range b.colorChoice {
		if !visible[k] {
			delete(b.colorChoice, k)
		}
	}
	for k := range b.produced {
		if !visible[k] {
			delete(b.produced, k)
		}
	}
}

// Filters returns a copy of the filter state.
func (b *Board) Filters() FilterState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return FilterState{Draft: cloneFilters(b.filters.Draft), Applied: cloneFilters(b.filters.Applied)}
}

// SetDraft replaces the draft filters without fetching.
func (b *Board) SetDraft(f Filters) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters.Draft = cloneFilters(f)
}

// Apply promotes the draft filters, resets to the first page and refreshes.
func (b *Board) Apply(ctx context.Context) error {
	b.mu.Lock()
	applied := cloneFilters(b.filters.Draft)
	applied.Query.Offset = 0
	b.filters.Applied = applied
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// ClearTokens empties the token list in both draft and applied filters
// and refreshes immediately.
func (b *Board) ClearTokens(ctx context.Context) error {
	b.mu.Lock()
	b.filters.Draft.Query.Tokens = nil
	b.filters.Applied.Query.Tokens = nil
	b.filters.Applied.Query.Offset = 0
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// ClearDates empties the date range in both draft and applied filters and
// refreshes immediately.
func (b *Board) ClearDates(ctx context.Context) error {
	b.mu.Lock()
	for _, q := range []*models.OrderQuery{&b.filters.Draft.Query, &b.filters.Applied.Query} {
		q.StartDate = ""
		q.EndDate = ""
	}
	b.filters.Applied.Query.Offset = 0
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// SetPage changes paging on the applied filters and refreshes.
func (b *Board) SetPage(ctx context.Context, limit, offset int) error {
	b.mu.Lock()
	b.filters.Applied.Query.Limit = limit
	b.filters.Applied.Query.Offset = offset
	b.filters.Draft.Query.Limit = limit
	b.mu.Unlock()
	return b.Refresh(ctx)
}

// SetGroupBy changes the grouping of View.
func (b *Board) SetGroupBy(attrs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groupBy = NormalizeGroupBy(attrs)
}

func (b *Board) visibleIndex(key string) int {
	key = strings.ToUpper(strings.TrimSpace(key))
	for i := range b.rows {
		if b.rows[i].Key == key {
			return i
		}
	}
	return -1
}

// Select sets the checkbox state of a visible row. It reports false when
// key is not visible.
func (b *Board) Select(key string, on bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.visibleIndex(key)
	if i < 0 {
		return false
	}
	if on {
		b.selected[b.rows[i].Key] = true
	} else {
		delete(b.selected, b.rows[i].Key)
	}
	return true
}

// Toggle flips the checkbox of a visible row.
func (b *Board) Toggle(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.visibleIndex(key)
	if i < 0 {
		return false
	}
	k := b.rows[i].Key
	if b.selected[k] {
		delete(b.selected, k)
	} else {
		b.selected[k] = true
	}
	return true
}

// SelectAll checks or clears every visible row.
func (b *Board) SelectAll(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !on {
		b.selected = make(map[string]bool)
		return
	}
	for _, r := range b.rows {
		b.selected[r.Key] = true
	}
}

// SelectOrder checks every visible row of an order number and returns how
// many were selected.
func (b *Board) SelectOrder(orderNo string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.rows {
		if strings.EqualFold(strings.TrimSpace(r.OrderNo), strings.TrimSpace(orderNo)) {
			b.selected[r.Key] = true
			n++
		}
	}
	return n
}

// SetColorChoice records a replacement color for a visible row; an empty
// color clears it.
func (b *Board) SetColorChoice(key, color string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.visibleIndex(key)
	if i < 0 {
		return false
	}
	if color = strings.TrimSpace(color); color == "" {
		delete(b.colorChoice, b.rows[i].Key)
	} else {
		b.colorChoice[b.rows[i].Key] = color
	}
	return true
}

// SetProducedQty records the produced quantity for a visible row; a
// negative value clears it.
func (b *Board) SetProducedQty(key string, qty int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.visibleIndex(key)
	if i < 0 {
		return false
	}
	if qty < 0 {
		delete(b.produced, b.rows[i].Key)
	} else {
		b.produced[b.rows[i].Key] = qty
	}
	return true
}

// Attach merges sync events from sub into the board until the returned
// function is called.
func (b *Board) Attach(sub notify.Subscriber) func() {
	return sub.Subscribe(b.ApplyEvent)
}

// ApplyEvent merges one sync event. A confirmed verification leaves the
// pending set and its row is put back at the top of the visible set unless
// already present or dispatched. Repeated delivery has no further effect.
func (b *Board) ApplyEvent(ev notify.Event) {
	if ev.Type != notify.TypeVerifiedConfirmed {
		return
	}
	key := ev.Key
	if key == "" && ev.Row != nil {
		key = ev.Row.CompositeKey()
	}
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Remove(key)
	b.cyclePending.Remove(key)
	if ev.Row == nil || b.dispatched.Has(key) {
		return
	}
	row := *ev.Row
	row.Key = key
	if row.VerifiedAt == nil && !ev.At.IsZero() {
		at := ev.At
		row.VerifiedAt = &at
	}
	if b.loading {
		if _, ok := b.cycleConfirmed[key]; !ok {
			b.cycleConfirmed[key] = row
		}
	}
	if b.visibleIndex(key) >= 0 {
		return
	}
	b.rows = append([]models.OrderRow{row}, b.rows...)
	b.total++
}

// View is a snapshot of the board for rendering.
type View struct {
	Rows       []models.OrderRow `json:"rows"`
	Groups     []Group           `json:"groups"`
	GroupBy    []string          `json:"group_by"`
	Total      int               `json:"total"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
	Empty      bool              `json:"empty"`
	Selected   []string          `json:"selected"`
	Pending    int               `json:"pending"`
	Dispatched int               `json:"dispatched"`
	Filters    FilterState       `json:"filters"`
	Verify     ActionState       `json:"verify"`
	Dispatch   ActionState       `json:"dispatch"`
	Cancel     ActionState       `json:"cancel"`
}

// ActionState drives an action trigger.
type ActionState struct {
	Enabled bool   `json:"enabled"`
	Busy    bool   `json:"busy"`
	Label   string `json:"label"`
}

func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := make([]models.OrderRow, len(b.rows))
	copy(rows, b.rows)

	selected := make([]string, 0, len(b.selected))
	for k := range b.selected {
		selected = append(selected, k)
	}
	sort.Strings(selected)

	v := View{
		Rows:       rows,
		Groups:     GroupRows(rows, b.groupBy),
		GroupBy:    append([]string(nil), b.groupBy...),
		Total:      b.total,
		Loading:    b.loading,
		Empty:      !b.loading && len(rows) == 0,
		Selected:   selected,
		Pending:    len(b.pending),
		Dispatched: len(b.dispatched),
		Filters:    FilterState{Draft: cloneFilters(b.filters.Draft), Applied: cloneFilters(b.filters.Applied)},
		Verify:     b.actionState(ActionVerify, len(b.verifyCandidates()) > 0),
		Dispatch:   b.actionState(ActionDispatch, len(b.dispatchCandidates()) > 0),
		Cancel:     b.actionState(ActionCancel, len(rows) > 0),
	}
	if b.err != nil {
		v.Error = b.err.Error()
	}
	return v
}

func (b *Board) actionState(a Action, hasTargets bool) ActionState {
	busy := b.busy[a]
	return ActionState{
		Enabled: hasTargets && !busy,
		Busy:    busy,
		Label:   a.label(busy),
	}
}

func cloneFilters(f Filters) Filters {
	f.Query.Tokens = append([]string(nil), f.Query.Tokens...)
	f.Query.IncludeValues = append([]string(nil), f.Query.IncludeValues...)
	f.Customers = append([]string(nil), f.Customers...)
	f.Items = append([]string(nil), f.Items...)
	return f
}
