package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokex/internal/domain"
	"pokex/internal/journal"
)

func newTestScheduler() *Scheduler {
	fixed := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	return New(journal.NewMemory()).WithClock(func() time.Time { return fixed })
}

func newOrder(trader int, side domain.Side, card domain.Card, price float64, vol int) domain.Order {
	return domain.Order{
		ID:         uuid.New(),
		Timestamp:  time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		Side:       side,
		Card:       card,
		LimitPrice: price,
		Volume:     vol,
		TraderID:   trader,
	}
}

// S1 (spec §8): a resting order on an empty book just confirms.
func TestProcess_RestsOnEmptyBook(t *testing.T) {
	s := newTestScheduler()
	o := newOrder(1, domain.Buy, domain.Pikachu, 5, 1)

	result := s.Process(o)

	assert.Equal(t, domain.TxConfirmed, result)
	entry, ok := s.statuses.GetEntry(1, o.ID.String())
	require.True(t, ok)
	assert.Equal(t, domain.Confirmed, entry.Status)

	cb, _ := s.board.Book(domain.Pikachu)
	assert.Equal(t, 1, cb.Level(domain.Buy, 5).Vol())
}

// S2: an unknown card is rejected before any book mutation.
func TestProcess_UnknownCard(t *testing.T) {
	s := newTestScheduler()
	o := newOrder(1, domain.Buy, domain.Card(99), 5, 1)

	result := s.Process(o)

	assert.Equal(t, domain.UnknownCard, result)
}

// A crossing order from a different trader executes a unit match.
func TestProcess_UnitMatch(t *testing.T) {
	s := newTestScheduler()
	resting := newOrder(1, domain.Sell, domain.Bulbasaur, 5, 1)
	require.Equal(t, domain.TxConfirmed, s.Process(resting))

	taker := newOrder(2, domain.Buy, domain.Bulbasaur, 5, 1)
	result := s.Process(taker)

	assert.Equal(t, domain.TxFilled, result)

	cb, _ := s.board.Book(domain.Bulbasaur)
	assert.Equal(t, 0, cb.Level(domain.Sell, 5).Vol())

	takerEntry, ok := s.statuses.GetEntry(2, taker.ID.String())
	require.True(t, ok)
	assert.Equal(t, domain.Filled, takerEntry.Status)

	restingEntry, ok := s.statuses.GetEntry(1, resting.ID.String())
	require.True(t, ok)
	assert.Equal(t, domain.Filled, restingEntry.Status)

	trades := s.trades.Latest(domain.Bulbasaur)
	require.Len(t, trades, 1)
	assert.Equal(t, 2, trades[0].BuyTraderID) // taker is buyer
	assert.Equal(t, 1, trades[0].SellTraderID)
	assert.Equal(t, 5.0, trades[0].Price)
}

// Self-trade: the same trader resting and arriving is dropped, not matched.
func TestProcess_SelfTradeDropped(t *testing.T) {
	s := newTestScheduler()
	resting := newOrder(1, domain.Sell, domain.Charmander, 5, 1)
	require.Equal(t, domain.TxConfirmed, s.Process(resting))

	taker := newOrder(1, domain.Buy, domain.Charmander, 5, 1)
	result := s.Process(taker)

	assert.Equal(t, domain.TxSelfTraded, result)

	cb, _ := s.board.Book(domain.Charmander)
	assert.Equal(t, 1, cb.Level(domain.Sell, 5).Vol(), "resting order must be untouched")

	entry, ok := s.statuses.GetEntry(1, taker.ID.String())
	require.True(t, ok)
	assert.Equal(t, domain.Dropped, entry.Status)

	assert.Empty(t, s.trades.Latest(domain.Charmander))
}

// A buy that cannot cross any ask rests instead of matching.
func TestProcess_PriceNotAcceptableRests(t *testing.T) {
	s := newTestScheduler()
	resting := newOrder(1, domain.Sell, domain.Squirtle, 8, 1)
	require.Equal(t, domain.TxConfirmed, s.Process(resting))

	buyer := newOrder(2, domain.Buy, domain.Squirtle, 3, 1)
	result := s.Process(buyer)

	assert.Equal(t, domain.TxConfirmed, result)
	cb, _ := s.board.Book(domain.Squirtle)
	assert.Equal(t, 1, cb.Level(domain.Sell, 8).Vol())
	assert.Equal(t, 1, cb.Level(domain.Buy, 3).Vol())
}

// Best-price-first: a buy crosses the lowest acceptable ask, not just any.
func TestProcess_BestPriceFirst(t *testing.T) {
	s := newTestScheduler()
	require.Equal(t, domain.TxConfirmed, s.Process(newOrder(1, domain.Sell, domain.Pikachu, 7, 1)))
	require.Equal(t, domain.TxConfirmed, s.Process(newOrder(2, domain.Sell, domain.Pikachu, 4, 1)))

	buyer := newOrder(3, domain.Buy, domain.Pikachu, 9, 1)
	result := s.Process(buyer)

	assert.Equal(t, domain.TxFilled, result)
	trades := s.trades.Latest(domain.Pikachu)
	require.Len(t, trades, 1)
	assert.Equal(t, 4.0, trades[0].Price)
	assert.Equal(t, 2, trades[0].SellTraderID)

	cb, _ := s.board.Book(domain.Pikachu)
	assert.Equal(t, 1, cb.Level(domain.Sell, 7).Vol())
	assert.Equal(t, 0, cb.Level(domain.Sell, 4).Vol())
}

func TestLatestOrdersAndTrades(t *testing.T) {
	s := newTestScheduler()
	require.Equal(t, domain.TxConfirmed, s.Process(newOrder(1, domain.Sell, domain.Pikachu, 5, 1)))
	require.Equal(t, domain.TxFilled, s.Process(newOrder(2, domain.Buy, domain.Pikachu, 5, 1)))

	orders := s.LatestOrders(1)
	require.Len(t, orders, 1) // the resting order's entry is mutated in place, not re-added
	assert.Equal(t, domain.Filled, orders[0].Status)
	assert.Len(t, s.LatestTrades(domain.Pikachu), 1)
}

func TestEnqueueRejectedAfterStop(t *testing.T) {
	s := newTestScheduler()
	s.Stop()
	err := s.Enqueue(newOrder(1, domain.Buy, domain.Pikachu, 5, 1))
	assert.ErrorIs(t, err, ErrStopping)
}

func TestRunDrainsQueue(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Enqueue(newOrder(1, domain.Sell, domain.Squirtle, 5, 1)))
	require.NoError(t, s.Enqueue(newOrder(2, domain.Buy, domain.Squirtle, 5, 1)))

	deadline := time.After(time.Second)
	for s.QueueLen() > 0 {
		select {
		case <-deadline:
			t.Fatal("queue did not drain")
		default:
			if !s.runOnce() {
				time.Sleep(time.Millisecond)
			}
		}
	}

	assert.Len(t, s.LatestTrades(domain.Squirtle), 1)
}

func TestRecover_RestoresConfirmedOrders(t *testing.T) {
	j := journal.NewMemory()
	o := newOrder(1, domain.Buy, domain.Pikachu, 6, 1)
	require.NoError(t, j.InsertRequest(o))
	require.NoError(t, j.InsertStatus(o.ID.String(), domain.Confirmed))

	s := New(j)
	require.NoError(t, s.Recover(context.Background(), o.Timestamp))

	cb, _ := s.board.Book(domain.Pikachu)
	assert.Equal(t, 1, cb.Level(domain.Buy, 6).Vol())
}
