package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/etnz/captrack"
)

// SearchResult is a symbol matching a search.
type SearchResult struct {
	Symbol   string
	Name     string
	Type     captrack.AssetType // empty when Yahoo's quote type has no match.
	Exchange string
}

// MaxSearchResults is the number of results asked to Yahoo.
const MaxSearchResults = 10

// quoteTypes maps Yahoo quote types to asset types.
var quoteTypes = map[string]captrack.AssetType{
	"EQUITY":         captrack.Stock,
	"ETF":            captrack.ETF,
	"MUTUALFUND":     captrack.MutualFund,
	"CRYPTOCURRENCY": captrack.Crypto,
}

/*
A search payload looks like:

	{
	    "quotes": [
	        {"exchange": "NMS", "shortname": "Apple Inc.", "quoteType": "EQUITY", "symbol": "AAPL"},
	        {"exchange": "CCC", "shortname": "Bitcoin USD", "quoteType": "CRYPTOCURRENCY", "symbol": "BTC-USD"}
	    ],
	    "news": []
	}
*/

// Search returns the symbols matching q. Quotes without a symbol or a short
// name are skipped. An empty q returns no results.
func (c *Client) Search(ctx context.Context, q string) ([]SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	v, err := c.breaker.Execute(func() (any, error) {
		addr := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=0", c.baseURL, url.QueryEscape(q), MaxSearchResults)
		return c.get(ctx, addr)
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", q, err)
	}
	return parseSearch(v), nil
}

func parseSearch(jobj any) []SearchResult {
	quotes, _ := get("$.quotes", jobj).([]any)
	results := make([]SearchResult, 0, len(quotes))
	for _, quote := range quotes {
		r := SearchResult{
			Symbol:   text("$.symbol", quote),
			Name:     text("$.shortname", quote),
			Type:     quoteTypes[text("$.quoteType", quote)],
			Exchange: text("$.exchange", quote),
		}
		if r.Symbol == "" || r.Name == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}
