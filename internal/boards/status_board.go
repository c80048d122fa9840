// Package boards implements the two derived, in-memory recency caches that
// sit downstream of the Scheduler: the StatusBoard (spec §4.3) and the
// TradeBoard (spec §4.4). Neither is persisted; both are rebuilt empty on
// restart (recovery only rebuilds the TxBoard, per spec §4.6).
//
// Grounded on original_source/status_board.rs and trade_board.rs for the
// two-index shape (a per-key bounded list of ids plus a full entries index);
// the bounded FIFOs are github.com/emirpasic/gods/v2 queues trimmed by hand
// to capacity 50, and the entries index is a github.com/tidwall/btree Map,
// both grounded on the teacher's and the pack's use of those libraries (see
// DESIGN.md).
package boards

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
	"github.com/tidwall/btree"

	"pokex/internal/domain"
)

// RecencyCapacity bounds every recency window in the system (TradeBoard per
// card, StatusBoard.recent per trader).
const RecencyCapacity = 50

// StatusBoard holds, per trader, a full index of every StatusEntry ever
// added plus a bounded FIFO of the most recently added order ids.
//
// Invariant (spec §4.3): every order id in recent[t] has a corresponding
// entry in entries[t]. When recent[t] evicts its front, the corresponding
// entry in entries[t] is intentionally NOT removed — it remains a visible
// full-history cache, just no longer surfaced by GetRecentEntries.
type StatusBoard struct {
	entries map[int]*btree.Map[string, *domain.StatusEntry]
	recent  map[int]*linkedlistqueue.Queue[string]
}

// New constructs an empty StatusBoard.
func New() *StatusBoard {
	return &StatusBoard{
		entries: make(map[int]*btree.Map[string, *domain.StatusEntry]),
		recent:  make(map[int]*linkedlistqueue.Queue[string]),
	}
}

func (b *StatusBoard) indexFor(trader int) *btree.Map[string, *domain.StatusEntry] {
	idx, ok := b.entries[trader]
	if !ok {
		idx = &btree.Map[string, *domain.StatusEntry]{}
		b.entries[trader] = idx
	}
	return idx
}

func (b *StatusBoard) recentFor(trader int) *linkedlistqueue.Queue[string] {
	q, ok := b.recent[trader]
	if !ok {
		q = linkedlistqueue.New[string]()
		b.recent[trader] = q
	}
	return q
}

// AddStatus inserts entry into trader's full index and appends its order id
// to the recency window, evicting the oldest id once the window exceeds
// RecencyCapacity. The evicted entry is kept in the full index.
func (b *StatusBoard) AddStatus(trader int, entry *domain.StatusEntry) {
	id := entry.OrderID.String()
	b.indexFor(trader).Set(id, entry)

	q := b.recentFor(trader)
	q.Enqueue(id)
	for q.Size() > RecencyCapacity {
		q.Dequeue()
	}
}

// UpdateStatus mutates the status of an existing entry in place, preserving
// every other field. If the entry is absent, this is a silent no-op — the
// observed semantics of spec §4.3 (Open Question 3).
func (b *StatusBoard) UpdateStatus(trader int, orderID string, status domain.OrderStatus) {
	idx, ok := b.entries[trader]
	if !ok {
		return
	}
	entry, ok := idx.Get(orderID)
	if !ok {
		return
	}
	entry.Status = status
}

// GetEntry returns the full-history entry for (trader, orderID), regardless
// of whether it is still within the recency window.
func (b *StatusBoard) GetEntry(trader int, orderID string) (*domain.StatusEntry, bool) {
	idx, ok := b.entries[trader]
	if !ok {
		return nil, false
	}
	return idx.Get(orderID)
}

// GetRecentEntries resolves trader's recency window front-to-back into full
// StatusEntry values, in enqueue order (oldest visible entry first).
func (b *StatusBoard) GetRecentEntries(trader int) []domain.StatusEntry {
	q, ok := b.recent[trader]
	if !ok {
		return nil
	}
	idx := b.entries[trader]
	ids := q.Values()
	out := make([]domain.StatusEntry, 0, len(ids))
	for _, id := range ids {
		if entry, ok := idx.Get(id); ok {
			out = append(out, *entry)
		}
	}
	return out
}
