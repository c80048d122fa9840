package boards

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokex/internal/domain"
)

func newEntry(trader int, status domain.OrderStatus) *domain.StatusEntry {
	return &domain.StatusEntry{
		OrderID:  uuid.New(),
		TraderID: trader,
		Side:     domain.Buy,
		Card:     domain.Pikachu,
		Status:   status,
	}
}

func TestStatusBoard_AddAndGet(t *testing.T) {
	b := New()
	entry := newEntry(1, domain.Confirmed)
	b.AddStatus(1, entry)

	got, ok := b.GetEntry(1, entry.OrderID.String())
	require.True(t, ok)
	assert.Equal(t, domain.Confirmed, got.Status)
}

func TestStatusBoard_UpdateStatus_InPlace(t *testing.T) {
	b := New()
	entry := newEntry(1, domain.Confirmed)
	b.AddStatus(1, entry)

	b.UpdateStatus(1, entry.OrderID.String(), domain.Filled)

	got, ok := b.GetEntry(1, entry.OrderID.String())
	require.True(t, ok)
	assert.Equal(t, domain.Filled, got.Status)
}

func TestStatusBoard_UpdateStatus_MissingIsNoop(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() {
		b.UpdateStatus(1, uuid.New().String(), domain.Filled)
	})
}

func TestStatusBoard_RecencyEviction(t *testing.T) {
	b := New()
	var ids []string
	for i := 0; i < RecencyCapacity+5; i++ {
		entry := newEntry(1, domain.Confirmed)
		ids = append(ids, entry.OrderID.String())
		b.AddStatus(1, entry)
	}

	recent := b.GetRecentEntries(1)
	assert.Len(t, recent, RecencyCapacity)
	// the oldest 5 entries fell out of the recency window...
	assert.Equal(t, ids[5], recent[0].OrderID.String())
	// ...but the full-history index still has them.
	_, ok := b.GetEntry(1, ids[0])
	assert.True(t, ok)
}

func TestTradeBoard_RecencyEviction(t *testing.T) {
	tb := NewTradeBoard()
	for i := 0; i < RecencyCapacity+3; i++ {
		tb.PushTrade(domain.Bulbasaur, domain.Trade{Volume: i})
	}

	latest := tb.Latest(domain.Bulbasaur)
	assert.Len(t, latest, RecencyCapacity)
	assert.Equal(t, 3, latest[0].Volume)
}

func TestTradeBoard_UnknownCardIsEmpty(t *testing.T) {
	tb := NewTradeBoard()
	assert.Empty(t, tb.Latest(domain.Card(99)))
}
