package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"identical", "2024-06-10", "2024-06-13", "2024-06-10", "2024-06-13", true},
		{"partial overlap", "2024-06-10", "2024-06-13", "2024-06-12", "2024-06-14", true},
		{"contained", "2024-06-10", "2024-06-20", "2024-06-12", "2024-06-14", true},
		{"containing", "2024-06-12", "2024-06-14", "2024-06-10", "2024-06-20", true},
		{"touching at end", "2024-06-10", "2024-06-13", "2024-06-13", "2024-06-15", false},
		{"touching at start", "2024-06-13", "2024-06-15", "2024-06-10", "2024-06-13", false},
		{"disjoint", "2024-06-01", "2024-06-03", "2024-06-10", "2024-06-13", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(date(t, tt.aStart), date(t, tt.aEnd), date(t, tt.bStart), date(t, tt.bEnd))
			assert.Equal(t, tt.want, got)

			reversed := Overlaps(date(t, tt.bStart), date(t, tt.bEnd), date(t, tt.aStart), date(t, tt.aEnd))
			assert.Equal(t, got, reversed, "overlap must be symmetric")
		})
	}
}

func TestRange_Nights(t *testing.T) {
	r := New(date(t, "2024-06-10"), date(t, "2024-06-13"))
	assert.True(t, r.Valid())
	assert.Equal(t, 3, r.Nights())

	days := r.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-12", FormatDate(days[2]))

	partial := New(date(t, "2024-06-10"), date(t, "2024-06-10").Add(25*time.Hour))
	assert.Equal(t, 2, partial.Nights())

	inverted := New(date(t, "2024-06-13"), date(t, "2024-06-10"))
	assert.False(t, inverted.Valid())
	assert.Zero(t, inverted.Nights())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10T15:04:05+03:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", FormatDate(d))
	assert.Equal(t, 0, d.Hour())

	_, err = ParseDate("10/06/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("  ")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
