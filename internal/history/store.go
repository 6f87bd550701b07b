// Package history reads, normalizes and writes the daily close record file.
package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/irfndi/btc-dashboard-go/internal/models"
	"github.com/irfndi/btc-dashboard-go/internal/utils"
)

// Column names of the record file.
const (
	DateColumn  = "Date"
	CloseColumn = "Close"
)

// Source provides the daily close series.
type Source interface {
	Load(ctx context.Context) (models.Series, error)
}

// CSVSource loads the series from a record file on every call.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a CSVSource for path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) (models.Series, error) {
	return Load(s.Path)
}

// Load parses the record file at path. Rows whose date or close fail to parse
// are skipped. No sorting or de-duplication is performed. A missing file is
// reported as a NotFound error.
func Load(path string) (models.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, utils.NewNotFoundError("historical data not found", err)
		}
		return nil, fmt.Errorf("open historical data: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads Date/Close records from r.
func Parse(r io.Reader) (models.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.Series{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	dateIdx, closeIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case DateColumn:
			dateIdx = i
		case CloseColumn:
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("record file must have %s and %s columns", DateColumn, CloseColumn)
	}

	series := models.Series{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		if dateIdx >= len(record) || closeIdx >= len(record) {
			continue
		}
		date, err := time.Parse(models.DateLayout, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil || !models.ValidClose(price) {
			continue
		}
		series = append(series, models.PricePoint{Date: date, Close: price})
	}
	return series, nil
}

// Normalize sorts by date, keeps the last ingested value for duplicate dates
// and forward-fills missing calendar days with the previous close.
func Normalize(series models.Series) models.Series {
	if len(series) == 0 {
		return models.Series{}
	}

	latest := make(map[time.Time]float64, len(series))
	for _, p := range series {
		latest[models.DayOf(p.Date)] = p.Close
	}
	days := make([]time.Time, 0, len(latest))
	for d := range latest {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make(models.Series, 0, len(days))
	for _, d := range days {
		if n := len(out); n > 0 {
			prev := out[n-1]
			for gap := prev.Date.AddDate(0, 0, 1); gap.Before(d); gap = gap.AddDate(0, 0, 1) {
				out = append(out, models.PricePoint{Date: gap, Close: prev.Close})
			}
		}
		out = append(out, models.PricePoint{Date: d, Close: latest[d]})
	}
	return out
}

// SortByDate orders series ascending by date in place, keeping the file order
// of points that share a date.
func SortByDate(series models.Series) {
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
}

// Merge combines an existing series with newly ingested points, letting the
// incoming points win on duplicate dates, and normalizes the result.
func Merge(existing, incoming models.Series) models.Series {
	combined := make(models.Series, 0, len(existing)+len(incoming))
	combined = append(combined, existing...)
	combined = append(combined, incoming...)
	return Normalize(combined)
}

// GapDays counts the calendar days missing between the first and last point
// of a series that is sorted and free of duplicates.
func GapDays(series models.Series) int {
	if len(series) < 2 {
		return 0
	}
	span := models.DaysBetween(series[0].Date, series[len(series)-1].Date) + 1
	return span - len(series)
}

// Save writes series to path, replacing any existing file in one rename.
func Save(path string, series models.Series) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{DateColumn, CloseColumn}); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range series {
		record := []string{p.Date.Format(models.DateLayout), strconv.FormatFloat(p.Close, 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmpName, path)
}
