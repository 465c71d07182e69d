package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.January, 15, 0, 0, 0, 0, IST)

	for _, raw := range []string{
		"2024-01-15",
		" 2024-01-15 ",
		"15-01-2024",
		"15/01/2024",
		"15/1/2024",
		"2024-01-15 10:30:00",
		"2024-01-15T10:30:00+05:30",
		"2024-01-15T10:30:00",
		"2024-01-15T23:59:59.250",
	} {
		got, ok := ParseDate(raw)
		require.True(t, ok, "raw %q", raw)
		assert.True(t, want.Equal(got), "raw %q got %v", raw, got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "nan", "31-02-2024", "2024/01/15", "yesterday"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, "raw %q", raw)
	}
}

func TestFormatDate(t *testing.T) {
	d, ok := ParseDate("05/03/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-03-05", FormatDate(d))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestDaysBetween(t *testing.T) {
	a, _ := ParseDate("2024-01-01")
	b, _ := ParseDate("2024-01-31")
	assert.Equal(t, 30, DaysBetween(a, b))
	assert.Equal(t, -30, DaysBetween(b, a))
}
