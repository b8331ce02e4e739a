package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/merx/pkg/series"
)

// Column names of an OHLCV table.
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// MarketCandle single OHLCV candlestick.
type MarketCandle struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// Candles is a run of candles ordered by open time.
type Candles []MarketCandle

// Validate checks that open times strictly increase.
func (c Candles) Validate() error {
	for i := 1; i < len(c); i++ {
		if !c[i].OpenTime.After(c[i-1].OpenTime) {
			return errors.Wrapf(series.ErrUnsortedIndex, "candle %d opens at %s, not after %s",
				i, c[i].OpenTime.UTC().Format(time.RFC3339), c[i-1].OpenTime.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// Series builds one series from a candle field, indexed by open time.
func (c Candles) Series(field func(MarketCandle) decimal.Decimal) (*series.Series, error) {
	index := make([]time.Time, len(c))
	values := make([]float64, len(c))
	for i, candle := range c {
		index[i] = candle.OpenTime
		values[i] = field(candle).InexactFloat64()
	}
	return series.New(index, values)
}

// OHLCV converts candles into an aligned open/high/low/close/volume table.
func (c Candles) OHLCV() (*series.Table, error) {
	if len(c) == 0 {
		return nil, errors.New("no candles")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	fields := []struct {
		name string
		get  func(MarketCandle) decimal.Decimal
	}{
		{ColumnOpen, func(m MarketCandle) decimal.Decimal { return m.Open }},
		{ColumnHigh, func(m MarketCandle) decimal.Decimal { return m.High }},
		{ColumnLow, func(m MarketCandle) decimal.Decimal { return m.Low }},
		{ColumnClose, func(m MarketCandle) decimal.Decimal { return m.Close }},
		{ColumnVolume, func(m MarketCandle) decimal.Decimal { return m.Volume }},
	}

	cols := make([]series.Column, 0, len(fields))
	for _, f := range fields {
		s, err := c.Series(f.get)
		if err != nil {
			return nil, errors.Wrapf(err, "build %s series", f.name)
		}
		cols = append(cols, series.Column{Name: f.name, Series: s})
	}
	return series.NewTable(cols...)
}
