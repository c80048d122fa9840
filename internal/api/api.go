// Package api implements the HTTP surface of spec.md §6 on top of
// github.com/gorilla/mux, grounded on other_examples' exchange-cmd-exchange
// main.go (mux router with path-param handlers) and the teacher's JSON
// encode/decode conventions.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"pokex/internal/domain"
	"pokex/internal/scheduler"
)

// Engine is the subset of *scheduler.Scheduler the HTTP layer depends on.
type Engine interface {
	Enqueue(o domain.Order) error
	LatestTrades(card domain.Card) []domain.Trade
	LatestOrders(trader int) []domain.StatusEntry
	TradeHistory(trader int, date string) ([]domain.Trade, error)
	RequestHistory(trader int, date string) ([]domain.Order, error)
}

var _ Engine = (*scheduler.Scheduler)(nil)

// envelope is the {status, message, data} response contract of spec §6.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// postCardRequest is the wire shape of POST /api/pokemon/card, matching
// spec §6's field names (also used, echoed back, as the response's `data`).
type postCardRequest struct {
	UUID     string      `json:"uuid"`
	TM       time.Time   `json:"tm"`
	Side     domain.Side `json:"side"`
	OrderPX  float64     `json:"order_px"`
	Vol      int         `json:"vol"`
	Card     domain.Card `json:"card"`
	TraderID int         `json:"trader_id"`
}

func fromOrder(o domain.Order) postCardRequest {
	return postCardRequest{
		UUID:     o.ID.String(),
		TM:       o.Timestamp,
		Side:     o.Side,
		OrderPX:  o.LimitPrice,
		Vol:      o.Volume,
		Card:     o.Card,
		TraderID: o.TraderID,
	}
}

// NewRouter builds the mux.Router exposing spec §6's HTTP surface over eng.
func NewRouter(eng Engine) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/pokemon/card", postCard(eng)).Methods(http.MethodPost)
	r.HandleFunc("/api/pokemon/trade/history", getTradeHistory(eng)).Methods(http.MethodGet)
	r.HandleFunc("/api/pokemon/request/history", getRequestHistory(eng)).Methods(http.MethodGet)
	r.HandleFunc("/api/pokemon/trade/{card}", getLatestTrades(eng)).Methods(http.MethodGet)
	r.HandleFunc("/api/pokemon/order/{id}", getLatestOrders(eng)).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("api: encode response failed")
	}
}

func postCard(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "malformed request body"})
			return
		}

		id, err := uuid.Parse(req.UUID)
		if err != nil {
			id = uuid.New()
		}
		order := domain.Order{
			ID:         id,
			Timestamp:  req.TM,
			Side:       req.Side,
			Card:       req.Card,
			LimitPrice: req.OrderPX,
			Volume:     req.Vol,
			TraderID:   req.TraderID,
		}
		if order.Timestamp.IsZero() {
			order.Timestamp = time.Now().UTC()
		}

		if err := eng.Enqueue(order); err != nil {
			writeJSON(w, http.StatusBadGateway, envelope{Status: "error", Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Status: "ok", Message: "accepted", Data: fromOrder(order)})
	}
}

func getLatestTrades(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cardStr := mux.Vars(r)["card"]
		card, ok := domain.ParseCard(cardStr)
		if !ok {
			writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "unknown card"})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Status: "ok", Data: eng.LatestTrades(card)})
	}
}

func getLatestOrders(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := mux.Vars(r)["id"]
		trader, err := strconv.Atoi(idStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "id must be an integer"})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Status: "ok", Data: eng.LatestOrders(trader)})
	}
}

func getTradeHistory(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trader, date, ok := parseHistoryQuery(w, r)
		if !ok {
			return
		}
		trades, err := eng.TradeHistory(trader, date)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Status: "ok", Data: trades})
	}
}

func getRequestHistory(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trader, date, ok := parseHistoryQuery(w, r)
		if !ok {
			return
		}
		orders, err := eng.RequestHistory(trader, date)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, envelope{Status: "error", Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Status: "ok", Data: orders})
	}
}

func parseHistoryQuery(w http.ResponseWriter, r *http.Request) (trader int, date string, ok bool) {
	idStr := r.URL.Query().Get("id")
	trader, err := strconv.Atoi(idStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "id must be an integer"})
		return 0, "", false
	}
	date = r.URL.Query().Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: "error", Message: "date must be yyyy-mm-dd"})
		return 0, "", false
	}
	return trader, date, true
}
