package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokex/internal/domain"
)

func newOrder(trader int, side domain.Side, card domain.Card, px float64) domain.Order {
	return domain.Order{
		ID:         uuid.New(),
		Timestamp:  time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC),
		Side:       side,
		Card:       card,
		LimitPrice: px,
		Volume:     1,
		TraderID:   trader,
	}
}

// runJournalContractTests exercises the Journal interface identically
// against both implementations, so Memory and Store cannot silently drift.
func runJournalContractTests(t *testing.T, newJournal func(t *testing.T) Journal) {
	t.Run("ConfirmedToday filters by side, card, status and date", func(t *testing.T) {
		j := newJournal(t)
		o := newOrder(1, domain.Buy, domain.Pikachu, 5)
		require.NoError(t, j.InsertRequest(o))
		require.NoError(t, j.InsertStatus(o.ID.String(), domain.Confirmed))

		other := newOrder(1, domain.Sell, domain.Pikachu, 5)
		require.NoError(t, j.InsertRequest(other))
		require.NoError(t, j.InsertStatus(other.ID.String(), domain.Filled))

		orders, err := j.ConfirmedToday(domain.Buy, domain.Pikachu, o.Timestamp)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, o.ID, orders[0].ID)
	})

	t.Run("UpdateStatus is a no-op when the order is unknown", func(t *testing.T) {
		j := newJournal(t)
		assert.NoError(t, j.UpdateStatus(uuid.New().String(), domain.Filled))
	})

	t.Run("TradeHistory and RequestHistory scope to trader and date", func(t *testing.T) {
		j := newJournal(t)
		buy := newOrder(1, domain.Buy, domain.Squirtle, 5)
		sell := newOrder(2, domain.Sell, domain.Squirtle, 5)
		require.NoError(t, j.InsertRequest(buy))
		require.NoError(t, j.InsertRequest(sell))

		trade := domain.Trade{BuyOrderID: buy.ID, SellOrderID: sell.ID, BuyTraderID: 1, SellTraderID: 2, Card: domain.Squirtle, Price: 5, Volume: 1}
		require.NoError(t, j.InsertTrade(trade))

		trades, err := j.TradeHistory(1, "2026-07-31")
		require.NoError(t, err)
		require.Len(t, trades, 1)

		requests, err := j.RequestHistory(1, "2026-07-31")
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, buy.ID, requests[0].ID)

		none, err := j.RequestHistory(1, "2020-01-01")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestMemory_JournalContract(t *testing.T) {
	runJournalContractTests(t, func(t *testing.T) Journal {
		return NewMemory()
	})
}

func TestStore_JournalContract(t *testing.T) {
	runJournalContractTests(t, func(t *testing.T) Journal {
		path := filepath.Join(t.TempDir(), "journal.db")
		store, err := Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestStore_Ping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping())
}
