package boards

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"

	"pokex/internal/domain"
)

// TradeBoard holds, per card, the most recent RecencyCapacity executed
// trades in arrival order. On overflow the oldest trade is dropped.
type TradeBoard struct {
	trades map[domain.Card]*linkedlistqueue.Queue[domain.Trade]
}

// NewTradeBoard constructs a TradeBoard pre-populated with an empty queue
// for every card in the fixed catalog.
func NewTradeBoard() *TradeBoard {
	tb := &TradeBoard{trades: make(map[domain.Card]*linkedlistqueue.Queue[domain.Trade], len(domain.Cards))}
	for _, c := range domain.Cards {
		tb.trades[c] = linkedlistqueue.New[domain.Trade]()
	}
	return tb
}

// PushTrade appends trade to card's queue, evicting the oldest trade once
// the queue exceeds RecencyCapacity.
func (tb *TradeBoard) PushTrade(card domain.Card, trade domain.Trade) {
	q, ok := tb.trades[card]
	if !ok {
		return
	}
	q.Enqueue(trade)
	for q.Size() > RecencyCapacity {
		q.Dequeue()
	}
}

// Latest returns a snapshot of card's recent trades in arrival order
// (oldest first).
func (tb *TradeBoard) Latest(card domain.Card) []domain.Trade {
	q, ok := tb.trades[card]
	if !ok {
		return nil
	}
	return q.Values()
}
