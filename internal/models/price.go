package models

import (
	"math"
	"time"
)

// DateLayout is the calendar-date format used by the historical record file.
const DateLayout = "2006-01-02"

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time `json:"date" db:"date"`
	Close float64   `json:"close" db:"close"`
}

// Series is a list of daily closes. After normalization it is ascending by
// date with no duplicates and no gaps.
type Series []PricePoint

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the final point of the series.
func (s Series) Last() (PricePoint, bool) {
	if len(s) == 0 {
		return PricePoint{}, false
	}
	return s[len(s)-1], true
}

// DayOf truncates t to midnight UTC of its calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// ValidClose reports whether price is a finite, positive close.
func ValidClose(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price > 0
}
