package journal

import (
	"time"

	"pokex/internal/domain"
)

// Journal is the contract the Scheduler depends on. Store is the
// production sqlite-backed implementation; Memory (memory.go) is a
// test double used by the scheduler's unit tests.
type Journal interface {
	InsertRequest(o domain.Order) error
	InsertStatus(orderID string, status domain.OrderStatus) error
	UpdateStatus(orderID string, status domain.OrderStatus) error
	InsertTrade(t domain.Trade) error
	ConfirmedToday(side domain.Side, card domain.Card, today time.Time) ([]domain.Order, error)
	TradeHistory(trader int, date string) ([]domain.Trade, error)
	RequestHistory(trader int, date string) ([]domain.Order, error)
	StatusHistory(orderID string) ([]domain.OrderStatus, error)
}

var (
	_ Journal = (*Store)(nil)
	_ Journal = (*Memory)(nil)
)
