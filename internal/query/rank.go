package query

import (
	"fmt"
	"sort"
	"strings"

	"salesops-backend/internal/models"
)

// ratingTiers lists customer ratings from most to least trusted. Anything
// not listed ranks after all of them.
var ratingTiers = []string{"HIGH", "HIGH - CASH", "CASH", "CASH - NEW CLIENT"}

// UnratedPriority is the priority of a rating outside the known tiers.
var UnratedPriority = len(ratingTiers) + 1

// RatingPriority returns 1 for HIGH through 4 for CASH - NEW CLIENT and 5
// for everything else. Lower is better.
func RatingPriority(rating string) int {
	r := strings.ToUpper(strings.TrimSpace(rating))
	for i, tier := range ratingTiers {
		if r == tier {
			return i + 1
		}
	}
	return UnratedPriority
}

// ratingPriorityExpr renders RatingPriority as SQL so both stay in step.
func ratingPriorityExpr(col string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CASE UPPER(TRIM(COALESCE(%s, '')))", col)
	for i, tier := range ratingTiers {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", tier, i+1)
	}
	fmt.Fprintf(&b, " ELSE %d END", UnratedPriority)
	return b.String()
}

// RankLess orders rows the same way the selection query does: rating
// priority, then earliest parsed date (unparseable last), then order number.
func RankLess(a, b *models.OrderRow) bool {
	pa, pb := RatingPriority(a.Rating), RatingPriority(b.Rating)
	if pa != pb {
		return pa < pb
	}
	da, okA := a.ParsedDate()
	db, okB := b.ParsedDate()
	switch {
	case okA && !okB:
		return true
	case !okA && okB:
		return false
	case okA && okB && !da.Equal(db):
		return da.Before(db)
	}
	return a.OrderNo < b.OrderNo
}

// dedupGroup is the (order number, item, color) partition of the query.
func dedupGroup(r *models.OrderRow) string {
	return r.OrderNo + "\x00" + strings.ToLower(strings.TrimSpace(r.Item)) + "\x00" + r.Color
}

// Dedupe keeps the best-ranked row of each (order number, item, color)
// group and returns the survivors in rank order. It is the in-memory
// equivalent of the selection query's window, used by file-backed sources.
func Dedupe(rows []models.OrderRow) []models.OrderRow {
	best := make(map[string]int, len(rows))
	out := make([]models.OrderRow, 0, len(rows))
	for i := range rows {
		g := dedupGroup(&rows[i])
		j, ok := best[g]
		if !ok {
			best[g] = len(out)
			out = append(out, rows[i])
			continue
		}
		if RankLess(&rows[i], &out[j]) {
			out[j] = rows[i]
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return RankLess(&out[i], &out[j]) })
	return out
}
