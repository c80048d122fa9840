package journal

import (
	"sync"
	"time"

	"pokex/internal/domain"
)

// Memory is an in-process Journal used by scheduler tests so they can run
// without a sqlite file. It keeps the same append/update semantics as
// Store, just backed by slices instead of SQL tables.
type Memory struct {
	mu       sync.Mutex
	requests []domain.Order
	statuses map[string]domain.OrderStatus
	trades   []domain.Trade
}

// NewMemory constructs an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{statuses: make(map[string]domain.OrderStatus)}
}

func (m *Memory) InsertRequest(o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, o)
	return nil
}

func (m *Memory) InsertStatus(orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[orderID] = status
	return nil
}

func (m *Memory) UpdateStatus(orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.statuses[orderID]; !ok {
		return nil
	}
	m.statuses[orderID] = status
	return nil
}

func (m *Memory) InsertTrade(t domain.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) ConfirmedToday(side domain.Side, card domain.Card, today time.Time) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dateStr := today.UTC().Format("2006-01-02")
	var out []domain.Order
	for _, o := range m.requests {
		if o.Side != side || o.Card != card {
			continue
		}
		if o.Timestamp.UTC().Format("2006-01-02") != dateStr {
			continue
		}
		if m.statuses[o.ID.String()] != domain.Confirmed {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *Memory) TradeHistory(trader int, date string) ([]domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requestDate := make(map[string]string, len(m.requests))
	for _, o := range m.requests {
		requestDate[o.ID.String()] = o.Timestamp.UTC().Format("2006-01-02")
	}

	var out []domain.Trade
	for _, t := range m.trades {
		if t.BuyTraderID != trader && t.SellTraderID != trader {
			continue
		}
		if requestDate[t.BuyOrderID.String()] != date && requestDate[t.SellOrderID.String()] != date {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Memory) RequestHistory(trader int, date string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.requests {
		if o.TraderID != trader {
			continue
		}
		if o.Timestamp.UTC().Format("2006-01-02") != date {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *Memory) StatusHistory(orderID string) ([]domain.OrderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[orderID]
	if !ok {
		return nil, nil
	}
	return []domain.OrderStatus{status}, nil
}
