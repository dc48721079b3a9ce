package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		a, b time.Time
		name string
		want int
	}{
		{name: "same day", a: time.Date(2026, 2, 15, 1, 0, 0, 0, time.UTC), b: time.Date(2026, 2, 15, 23, 0, 0, 0, time.UTC), want: 0},
		{name: "forward", a: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), b: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), want: 13},
		{name: "backward", a: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), b: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), want: -13},
		{name: "across dst change", a: time.Date(2026, 3, 7, 12, 0, 0, 0, ny), b: time.Date(2026, 3, 9, 12, 0, 0, 0, ny), want: 2},
		{name: "leap year", a: time.Date(2028, 2, 28, 0, 0, 0, 0, time.UTC), b: time.Date(2028, 3, 1, 0, 0, 0, 0, time.UTC), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.a, tt.b))
		})
	}
}

func TestAddDaysAndParse(t *testing.T) {
	d, err := ParseDate("2026-02-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-20", AddDays(d, 5).Format(DateLayout))
	assert.Equal(t, "2026-02-10", AddDays(d, -5).Format(DateLayout))

	_, err = ParseDate("15/02/2026")
	assert.Error(t, err)
}
