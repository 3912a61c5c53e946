package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/etnz/captrack"
	"github.com/etnz/captrack/renderer"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ErrorResponse is the body of error responses.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// Pagination describes a page of a list.
type Pagination struct {
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
}

// TradesResponse is a page of trades, most recent first.
type TradesResponse struct {
	Trades     []captrack.Trade `json:"trades"`
	Pagination Pagination       `json:"pagination"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeMarkdown(w http.ResponseWriter, md string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Code:      code,
		Message:   message,
		RequestID: requestID(r.Context()),
		Timestamp: s.now().UTC(),
	})
}

func markdown(r *http.Request) bool { return r.URL.Query().Get("format") == "md" }

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC(),
	})
}

// derive loads the trades of the platform query parameter and derives the
// positions.
func (s *Server) derive(w http.ResponseWriter, r *http.Request, endpoint string) (*renderer.Positions, bool) {
	platform := r.URL.Query().Get("platform")
	trades, err := s.portfolio.Trades.LoadTrades(r.Context(), platform)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("failed to load trades")
		s.writeError(w, r, http.StatusServiceUnavailable, "trades_unavailable", "Trades could not be loaded")
		return nil, false
	}

	positions, skipped := captrack.AuditPositions(trades, s.portfolio.Options)
	s.metrics.Derivations.WithLabelValues(endpoint).Inc()
	s.metrics.OpenPositions.Set(float64(len(positions)))
	for _, sk := range skipped {
		s.metrics.SkippedTrades.WithLabelValues(string(sk.Reason)).Inc()
	}
	return &renderer.Positions{Platform: platform, Positions: positions, Skipped: skipped}, true
}

func (s *Server) positions(w http.ResponseWriter, r *http.Request) {
	p, ok := s.derive(w, r, "positions")
	if !ok {
		return
	}
	if r.URL.Query().Get("audit") != "true" {
		p.Skipped = nil
	}
	if markdown(r) {
		s.writeMarkdown(w, renderer.RenderPositions(p))
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) holding(w http.ResponseWriter, r *http.Request) {
	if s.portfolio.Quotes == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "quotes_disabled", "No quote provider is configured")
		return
	}
	p, ok := s.derive(w, r, "holding")
	if !ok {
		return
	}

	assets := make([]captrack.Asset, 0, len(p.Positions))
	for _, pos := range p.Positions {
		assets = append(assets, pos.Asset)
	}
	quotes := s.portfolio.Quotes.Quotes(r.Context(), assets)
	report := captrack.NewHoldingReport(r.Context(), p.Positions, quotes, s.portfolio.Rates, s.portfolio.BaseCurrency)
	s.metrics.MissingQuotes.Add(float64(len(report.MissingQuotes)))

	if markdown(r) {
		s.writeMarkdown(w, renderer.RenderHolding(report))
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// intParam returns the positive integer query parameter name, or def.
func intParam(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func (s *Server) trades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.portfolio.Trades.LoadTrades(r.Context(), r.URL.Query().Get("platform"))
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("failed to load trades")
		s.writeError(w, r, http.StatusServiceUnavailable, "trades_unavailable", "Trades could not be loaded")
		return
	}
	// most recent first, same time trades keep their reverse input order.
	slices.SortStableFunc(trades, func(a, b captrack.Trade) int { return a.OccurredAt.Compare(b.OccurredAt) })
	slices.Reverse(trades)

	page := intParam(r, "page", 1)
	size := min(intParam(r, "size", defaultPageSize), maxPageSize)
	// pages past the end are empty, page is bounded before multiplying.
	start := len(trades)
	if page-1 < (len(trades)+size-1)/size {
		start = (page - 1) * size
	}
	end := min(start+size, len(trades))

	resp := TradesResponse{
		Trades: append([]captrack.Trade{}, trades[start:end]...),
		Pagination: Pagination{
			Total:    len(trades),
			Page:     page,
			PageSize: size,
			HasNext:  end < len(trades),
			HasPrev:  page > 1,
		},
	}
	if markdown(r) {
		s.writeMarkdown(w, renderer.RenderTrades(resp.Trades))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
