// Package book implements the price-indexed order book: TxBoard, CardBook,
// and PriceLevel from spec.md §4.2. The price grid is the closed integer
// range [1, 10]; every level is pre-populated at construction and none is
// ever inserted or removed at runtime, per the spec's structural invariant.
//
// Grounded on the teacher's internal/book/order_book.go (the package shape),
// but the teacher's heap-ordered BuyBook/SellBook sketch is replaced outright
// by the spec's fixed-size array, and resting orders are represented as Tags
// rather than full Order copies. The per-level FIFO is
// github.com/emirpasic/gods/v2's linked-list queue, grounded on the
// ccyyhlg-lightning-exchange matching engine's dependency on gods/v2 for its
// own order-book collections.
package book

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"

	"pokex/internal/domain"
)

// MinPrice and MaxPrice bound the closed integer price grid.
const (
	MinPrice = 1
	MaxPrice = 10
	numLevels = MaxPrice - MinPrice + 1
)

// PriceLevel is one integer price point on one side of one card's book.
// AggregateVolume equals the sum of volume the Scheduler has added at this
// level and not yet popped; Queue.Size() equals the number of distinct
// resting orders not yet matched at this level.
type PriceLevel struct {
	Price           int
	AggregateVolume int
	queue           *linkedlistqueue.Queue[domain.Tag]
}

func newPriceLevel(price int) *PriceLevel {
	return &PriceLevel{
		Price: price,
		queue: linkedlistqueue.New[domain.Tag](),
	}
}

// PeekFrontTag returns the resting order at the front of the FIFO without
// removing it.
func (l *PriceLevel) PeekFrontTag() (domain.Tag, bool) {
	return l.queue.Peek()
}

// PopFrontTag removes and returns the resting order at the front of the
// FIFO. It does not touch AggregateVolume — callers decrement that
// themselves per the unit-match semantics of spec §4.1.
func (l *PriceLevel) PopFrontTag() (domain.Tag, bool) {
	return l.queue.Dequeue()
}

// PushBackTag appends a newly-resting order to the back of the FIFO.
func (l *PriceLevel) PushBackTag(tag domain.Tag) {
	l.queue.Enqueue(tag)
}

// Vol returns the level's aggregate volume.
func (l *PriceLevel) Vol() int {
	return l.AggregateVolume
}

// SetVol overwrites the level's aggregate volume.
func (l *PriceLevel) SetVol(n int) {
	l.AggregateVolume = n
}

// QueueLen returns the number of distinct resting orders at this level.
func (l *PriceLevel) QueueLen() int {
	return l.queue.Size()
}

// CardBook is one card's two-sided book: ten pre-populated price levels on
// each side.
type CardBook struct {
	Buy  [numLevels]*PriceLevel
	Sell [numLevels]*PriceLevel
}

func newCardBook() *CardBook {
	cb := &CardBook{}
	for i := 0; i < numLevels; i++ {
		cb.Buy[i] = newPriceLevel(i + MinPrice)
		cb.Sell[i] = newPriceLevel(i + MinPrice)
	}
	return cb
}

// Side returns the ten levels for the requested side.
func (cb *CardBook) Side(s domain.Side) *[numLevels]*PriceLevel {
	if s == domain.Buy {
		return &cb.Buy
	}
	return &cb.Sell
}

// Level returns the price level at the given integer price. price must be
// in [MinPrice, MaxPrice]; callers are expected to have validated this
// already (the Scheduler only ever calls with prices derived from the
// fixed grid).
func (cb *CardBook) Level(s domain.Side, price int) *PriceLevel {
	return cb.Side(s)[price-MinPrice]
}

// TxBoard maps each card in the fixed catalog to its CardBook.
type TxBoard struct {
	books map[domain.Card]*CardBook
}

// New constructs a TxBoard with every (card, side, price) triple
// pre-populated, per spec §4.2.
func New() *TxBoard {
	b := &TxBoard{books: make(map[domain.Card]*CardBook, len(domain.Cards))}
	for _, c := range domain.Cards {
		b.books[c] = newCardBook()
	}
	return b
}

// Book returns the CardBook for card, or nil if card is outside the fixed
// catalog (the UnknownCard guard of spec §4.1 step 1).
func (b *TxBoard) Book(card domain.Card) (*CardBook, bool) {
	cb, ok := b.books[card]
	return cb, ok
}
