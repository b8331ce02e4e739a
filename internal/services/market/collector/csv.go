package collector

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/merx/internal/domain"
)

var csvDateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

// CSVKlineProvider reads candles from a Yahoo Finance style export
// (Date,Open,High,Low,Close,Adj Close,Volume). Column order does not matter; names are
// matched case-insensitively. Rows holding "null" prices are skipped.
type CSVKlineProvider struct {
	path string
}

// NewCSVKlineProvider creates a provider reading the file at path.
func NewCSVKlineProvider(path string) *CSVKlineProvider {
	return &CSVKlineProvider{path: path}
}

// Name returns the platform name.
func (p *CSVKlineProvider) Name() string { return PlatformCSV }

// GetKlines parses the file and returns its last limit candles. limit <= 0 returns every row.
// pair and interval only label the request; the file decides what it contains.
func (p *CSVKlineProvider) GetKlines(ctx context.Context, _ domain.Pair, interval string, limit int) (domain.Candles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "open csv: %v", err)
	}
	defer f.Close()

	candles, err := ReadCSV(f, interval)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", p.path)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// ReadCSV parses Yahoo Finance style rows. When interval parses, CloseTime is set to the end of
// the bar; otherwise it equals OpenTime.
func ReadCSV(r io.Reader, interval string) (domain.Candles, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "read csv header: %v", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	required := []string{"date", "open", "high", "low", "close"}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, errors.Wrapf(ErrInvalidRequest, "csv has no %q column", name)
		}
	}
	volumeCol, hasVolume := cols["volume"]

	barLength, _ := ParseInterval(interval)

	var candles domain.Candles
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "line %d: %v", line, err)
		}

		openTime, err := parseCSVDate(record[cols["date"]])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "line %d: %v", line, err)
		}

		raw := []string{record[cols["open"]], record[cols["high"]], record[cols["low"]], record[cols["close"]], "0"}
		if hasVolume {
			raw[4] = record[volumeCol]
		}
		if hasNull(raw) {
			continue
		}
		prices, err := parsePrices(raw...)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "line %d: %v", line, err)
		}

		closeTime := openTime
		if barLength > 0 {
			closeTime = openTime.Add(barLength - time.Millisecond)
		}
		candles = append(candles, domain.MarketCandle{
			OpenTime:  openTime,
			Open:      prices[0],
			High:      prices[1],
			Low:       prices[2],
			Close:     prices[3],
			Volume:    prices[4],
			CloseTime: closeTime,
		})
	}

	if len(candles) == 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "csv holds no candles")
	}
	out, err := normalize(candles)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	return out, nil
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, errors.Errorf("unrecognised date %q", s)
}

func hasNull(values []string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), "null") {
			return true
		}
	}
	return false
}
