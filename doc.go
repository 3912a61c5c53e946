// Package captrack provides the types and functions behind a personal
// portfolio tracker. Users record buy and sell trades; everything else is
// derived from that record.
//
// The core functionalities include:
//   - Position Engine: a pure function that folds a stream of trades into
//     current positions using the average-cost method (see DerivePositions).
//   - Trade Ledger: an ordered, append-friendly record of trades, persisted
//     as JSONL (one trade per line) and filterable by platform.
//   - Holding Report: the valuation of positions against live quotes and FX
//     rates, with unrealized and day profit-and-loss in a base currency.
//   - Settings: the user preferences (base currency, platforms, sell policy)
//     read from a YAML file.
//
// Quotes, FX rates and alternative trade storage are provided by sibling
// packages (yahoo, fx, store/postgres) through the QuoteSource, RateSource
// and TradeSource interfaces declared here.
package captrack
