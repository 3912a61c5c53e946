package yahoo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/captrack"
	"github.com/shopspring/decimal"
)

/*
A chart payload looks like:

	{
	    "chart": {
	        "result": [{
	            "meta": {
	                "currency": "USD",
	                "symbol": "AAPL",
	                "shortName": "Apple Inc.",
	                "chartPreviousClose": 189.98,
	                "regularMarketChangePercent": 0.42
	            },
	            "timestamp": [1700000000, 1700000060],
	            "indicators": {"quote": [{"close": [190.1, null]}]}
	        }],
	        "error": null
	    }
	}
*/

// get returns the value at path, or nil when there is none.
func get(path string, jobj any) any {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil
	}
	return jval
}

// number returns the numeric value at path.
func number(path string, jobj any) (decimal.Decimal, bool) {
	return toDecimal(get(path, jobj))
}

func toDecimal(jval any) (decimal.Decimal, bool) {
	switch v := jval.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	}
	return decimal.Zero, false
}

func text(path string, jobj any) string {
	s, _ := get(path, jobj).(string)
	return s
}

// firstNumber returns the first numeric value among paths.
func firstNumber(jobj any, paths ...string) decimal.NullDecimal {
	for _, path := range paths {
		if d, ok := number(path, jobj); ok {
			return decimal.NewNullDecimal(d)
		}
	}
	return decimal.NullDecimal{}
}

// parseChart reads the latest quote out of a chart payload.
func parseChart(symbol string, jobj any) (captrack.Quote, error) {
	result := get("$.chart.result[0]", jobj)
	if result == nil {
		if desc := text("$.chart.error.description", jobj); desc != "" {
			return captrack.Quote{}, fmt.Errorf("no chart result (%s): %w", desc, ErrNoData)
		}
		return captrack.Quote{}, fmt.Errorf("no chart result: %w", ErrNoData)
	}

	timestamps, _ := get("$.timestamp", result).([]any)
	closes, _ := get("$.indicators.quote[0].close", result).([]any)
	if len(timestamps) == 0 || len(closes) == 0 {
		return captrack.Quote{}, ErrNoData
	}

	// the latest non-null close.
	idx := len(closes) - 1
	var price decimal.Decimal
	for ; idx >= 0; idx-- {
		if p, ok := toDecimal(closes[idx]); ok {
			price = p
			break
		}
	}
	if idx < 0 {
		return captrack.Quote{}, fmt.Errorf("all prices are null: %w", ErrNoData)
	}

	q := captrack.Quote{
		Symbol:           symbol,
		Name:             text("$.meta.shortName", result),
		Price:            price,
		Currency:         text("$.meta.currency", result),
		PreviousClose:    firstNumber(result, "$.meta.previousClose", "$.meta.regularMarketPreviousClose", "$.meta.chartPreviousClose"),
		DayChangePercent: firstNumber(result, "$.meta.regularMarketChangePercent"),
	}
	if q.Name == "" {
		q.Name = text("$.meta.longName", result)
	}
	if q.Currency == "" {
		q.Currency = "USD"
	}
	if idx < len(timestamps) {
		if ts, ok := toDecimal(timestamps[idx]); ok {
			q.Time = time.Unix(ts.IntPart(), 0).UTC()
		}
	}
	return q, nil
}
