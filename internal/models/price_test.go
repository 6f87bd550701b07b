package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayOf(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 9, 22, 30, 0, 0, est)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), DayOf(in))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 2, 28, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 2, DaysBetween(a, b))
	assert.Equal(t, -2, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))
}

func TestSeries(t *testing.T) {
	var empty Series
	_, ok := empty.Last()
	assert.False(t, ok)
	assert.Empty(t, empty.Closes())

	s := Series{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 1},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 2},
	}
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 2.0, last.Close)
	assert.Equal(t, []float64{1, 2}, s.Closes())
}

func TestValidClose(t *testing.T) {
	assert.True(t, ValidClose(42000.5))
	assert.False(t, ValidClose(0))
	assert.False(t, ValidClose(-5))
	assert.False(t, ValidClose(math.NaN()))
	assert.False(t, ValidClose(math.Inf(1)))
}
