package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayLedger_MarkIsIdempotent(t *testing.T) {
	l := NewDayLedger()
	d := date(t, "2024-03-10")

	assert.True(t, l.Mark(d))
	assert.False(t, l.Mark(d))
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Contains(d))
}

func TestLedgerFromDays_SkipsMalformedKeys(t *testing.T) {
	l := LedgerFromDays(map[string]bool{
		"2024-03-10": true,
		"2024-03-11": true,
		"not-a-date": true,
		"2024-03-12": false, // unmarked days are ignored
	})

	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Contains(date(t, "2024-03-10")))
	assert.False(t, l.Contains(date(t, "2024-03-12")))
}

func TestDayLedger_DaysReturnsCopy(t *testing.T) {
	l := NewDayLedger()
	l.Mark(date(t, "2024-03-10"))

	days := l.Days()
	days["2024-03-11"] = true

	assert.False(t, l.Contains(date(t, "2024-03-11")))
}

func TestDate_DiffDays(t *testing.T) {
	a := date(t, "2024-01-05")
	b := date(t, "2024-01-01")

	assert.Equal(t, 4, a.DiffDays(b))
	assert.Equal(t, -4, b.DiffDays(a))
	assert.Equal(t, 0, a.DiffDays(a))
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	assert.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	late := d.Time().Add(23*time.Hour + 59*time.Minute)
	assert.Equal(t, "2024-06-01", DateOf(late).String())
}
