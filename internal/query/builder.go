package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"salesops-backend/internal/keys"
	"salesops-backend/internal/models"
	"salesops-backend/internal/timeutil"
)

// ErrMissingTable is returned when a required warehouse identifier is not
// configured. It is a precondition failure and must not be retried.
var ErrMissingTable = errors.New("warehouse identifiers not configured")

// Tables names the warehouse objects the order query reads. Project is the
// warehouse database, Dataset the schema holding the tables.
type Tables struct {
	Project   string
	Dataset   string
	Orders    string
	Samples   string
	Customers string
}

// Validate reports every missing identifier at once.
func (t Tables) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"project":         t.Project,
		"dataset":         t.Dataset,
		"orders table":    t.Orders,
		"samples table":   t.Samples,
		"customers table": t.Customers,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingTable, strings.Join(missing, ", "))
	}
	return nil
}

func (t Tables) qualified(table string) string {
	return pgx.Identifier{t.Dataset, table}.Sanitize()
}

// Statement is query text plus its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

// includeColumns is the closed set of columns the include escape hatch may
// target, keyed by the name clients send.
var includeColumns = map[string]string{
	"order_no": "o.order_no",
	"orderno":  "o.order_no",
	"item":     "o.item_code",
	"customer": "o.customer",
	"color":    "o.color",
	"broker":   "o.broker",
	"brand":    "o.brand",
}

// IncludeColumn resolves a client-facing include column to its physical
// column. ok is false for anything outside the whitelist.
func IncludeColumn(name string) (string, bool) {
	col, ok := includeColumns[strings.ToLower(strings.TrimSpace(name))]
	return col, ok
}

// Builder turns order filters into the paired selection and count queries.
type Builder struct {
	tables Tables
}

func NewBuilder(tables Tables) (*Builder, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &Builder{tables: tables}, nil
}

// params accumulates positional arguments.
type params struct {
	args []any
}

func (p *params) add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// normExpr mirrors keys.NormalizeField in SQL.
func normExpr(col string) string {
	return fmt.Sprintf(`UPPER(TRIM(regexp_replace(COALESCE(%s, ''), '\s*\[.*?\]', '', 'g')))`, col)
}

const cityExpr = `COALESCE(NULLIF(TRIM(c.city), ''), substring(o.customer from '\[\s*(.*?)\s*\]'))`

// orderDateExpr parses the free-text order date. The first form whose
// shape matches is used; safe_to_date yields NULL for impossible dates.
const orderDateExpr = `CASE
			WHEN TRIM(o.order_date) ~ '^\d{4}-\d{1,2}-\d{1,2}' THEN safe_to_date(substring(TRIM(o.order_date) from '^\d{4}-\d{1,2}-\d{1,2}'), 'YYYY-MM-DD')
			WHEN TRIM(o.order_date) ~ '^\d{1,2}-\d{1,2}-\d{4}$' THEN safe_to_date(TRIM(o.order_date), 'DD-MM-YYYY')
			WHEN TRIM(o.order_date) ~ '^\d{1,2}/\d{1,2}/\d{4}$' THEN safe_to_date(TRIM(o.order_date), 'DD/MM/YYYY')
		END`

// escapeLike makes user text literal inside a LIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// textMatch is the case-insensitive substring match across order number,
// item and city.
func textMatch(p *params, term string) string {
	ph := p.add("%" + escapeLike(strings.ToLower(term)) + "%")
	return fmt.Sprintf("(LOWER(o.order_no) LIKE %[1]s OR LOWER(o.item_code) LIKE %[1]s OR LOWER(%[2]s) LIKE %[1]s)", ph, cityExpr)
}

// userPredicate renders the operator-chosen filters. It returns "" when no
// filter is active.
func (b *Builder) userPredicate(p *params, q models.OrderQuery) string {
	var conds []string

	if term := strings.TrimSpace(q.Q); term != "" {
		conds = append(conds, textMatch(p, term))
	}

	var tokenConds []string
	for _, tok := range q.Tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokenConds = append(tokenConds, textMatch(p, tok))
		}
	}
	if len(tokenConds) > 0 {
		conds = append(conds, "("+strings.Join(tokenConds, " OR ")+")")
	}

	if brand := strings.TrimSpace(q.Brand); brand != "" {
		conds = append(conds, fmt.Sprintf("UPPER(TRIM(o.brand)) = %s", p.add(strings.ToUpper(brand))))
	}
	if city := strings.TrimSpace(q.City); city != "" {
		conds = append(conds, fmt.Sprintf("UPPER(TRIM(%s)) = %s", cityExpr, p.add(strings.ToUpper(city))))
	}

	if start, ok := timeutil.ParseDate(q.StartDate); ok {
		conds = append(conds, fmt.Sprintf("(%s) >= %s::date", orderDateExpr, p.add(timeutil.FormatDate(start))))
	}
	if end, ok := timeutil.ParseDate(q.EndDate); ok {
		conds = append(conds, fmt.Sprintf("(%s) <= %s::date", orderDateExpr, p.add(timeutil.FormatDate(end))))
	}

	return strings.Join(conds, "\n\t\t  AND ")
}

// includePredicate renders the include escape hatch, or "" when the column
// is not whitelisted or no values were given.
func includePredicate(p *params, q models.OrderQuery) string {
	col, ok := IncludeColumn(q.IncludeColumn)
	if !ok {
		return ""
	}
	values := keys.NormalizeAll(q.IncludeValues)
	if len(values) == 0 {
		return ""
	}
	return fmt.Sprintf("%s = ANY(%s)", normExpr(col), p.add(values))
}

// cte renders the shared base + ranked CTEs.
func (b *Builder) cte(p *params, q models.OrderQuery) string {
	where := []string{
		"LENGTH(TRIM(o.item_code)) <= 8",
		"LOWER(TRIM(o.status)) = 'pending'",
	}
	user := b.userPredicate(p, q)
	include := includePredicate(p, q)
	switch {
	case user != "" && include != "":
		where = append(where, fmt.Sprintf("((%s) OR %s)", user, include))
	case user != "":
		where = append(where, user)
	}
	// With no user filter every pending row already qualifies, so an
	// include list adds nothing.

	return fmt.Sprintf(`WITH base AS (
	SELECT
		o.order_no,
		o.order_date AS order_date_raw,
		%[1]s AS order_date,
		o.customer,
		%[2]s AS city,
		COALESCE(c.rating, '') AS rating,
		%[3]s AS rating_priority,
		o.broker,
		o.brand,
		o.item_code AS item,
		o.color,
		o.size,
		o.order_qty,
		o.status,
		s.concept,
		s.fabric,
		s.image_ref
	FROM %[4]s o
	LEFT JOIN %[5]s s ON UPPER(TRIM(s.product_code)) = UPPER(TRIM(o.item_code))
	LEFT JOIN %[6]s c ON UPPER(TRIM(c.company_name)) = %[7]s
	WHERE %[8]s
),
ranked AS (
	SELECT base.*,
		ROW_NUMBER() OVER (
			PARTITION BY order_no, LOWER(TRIM(item)), color
			ORDER BY rating_priority ASC, order_date ASC NULLS LAST, order_no ASC
		) AS rn
	FROM base
)`,
		orderDateExpr,
		cityExpr,
		ratingPriorityExpr("c.rating"),
		b.tables.qualified(b.tables.Orders),
		b.tables.qualified(b.tables.Samples),
		b.tables.qualified(b.tables.Customers),
		normExpr("o.customer"),
		strings.Join(where, "\n\t  AND "),
	)
}

// Build returns the selection query for one page and the count query over
// the same predicate.
func (b *Builder) Build(q models.OrderQuery) (sel Statement, count Statement) {
	p := &params{}
	cte := b.cte(p, q)

	count = Statement{
		SQL:  cte + "\nSELECT COUNT(*) FROM ranked WHERE rn = 1",
		Args: append([]any(nil), p.args...),
	}

	limit := p.add(ClampLimit(q.Limit, DefaultLimit, MaxLimit))
	offset := p.add(ClampOffset(q.Offset))
	sel = Statement{
		SQL: cte + fmt.Sprintf(`
SELECT order_no, order_date_raw, order_date, customer, city, rating, broker, brand,
	item, color, size, order_qty, status, concept, fabric, image_ref
FROM ranked
WHERE rn = 1
ORDER BY rating_priority ASC, order_date ASC NULLS LAST, order_no ASC
LIMIT %s OFFSET %s`, limit, offset),
		Args: p.args,
	}
	return sel, count
}
