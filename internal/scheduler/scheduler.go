// Package scheduler implements the single-writer matcher of spec.md §4.1:
// the request queue, the matching algorithm (including self-trade
// prevention), and the read operations the HTTP layer exposes.
//
// Grounded on the teacher's internal/engine/engine.go (the Engine-owns-the-
// book shape, a Trade callback fired on every match) and
// internal/engine/orderbook.go (the taker/maker dispatch and FIXME/TODO
// texture), generalized from the teacher's heap-ordered multi-unit sweep to
// the spec's fixed-grid, single-unit-per-call algorithm (see DESIGN.md's
// Open Question 1 decision).
package scheduler

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"pokex/internal/book"
	"pokex/internal/boards"
	"pokex/internal/domain"
	"pokex/internal/journal"
)

// ErrStopping is returned by Enqueue once Stop has been called: the
// process-wide STOP flag of spec §5 rejects new submissions while letting
// the consumer drain what is already queued.
var ErrStopping = errors.New("scheduler: shutting down, no longer accepting orders")

// Clock is injected so tests can control Trade/StatusEntry timestamps.
// Production code uses time.Now.
type Clock func() time.Time

// Scheduler is the engine: it owns exclusive access to the TxBoard, the
// TradeBoard, the StatusBoard, and the Journal handle, and drains a FIFO
// request queue one order at a time (spec §5).
type Scheduler struct {
	mu sync.Mutex

	queue    *linkedlistqueue.Queue[domain.Order]
	board    *book.TxBoard
	trades   *boards.TradeBoard
	statuses *boards.StatusBoard
	journal  journal.Journal
	now      Clock

	stopping atomic.Bool
}

// New constructs a Scheduler with a freshly pre-populated TxBoard/TradeBoard/
// StatusBoard, backed by j.
func New(j journal.Journal) *Scheduler {
	return &Scheduler{
		queue:    linkedlistqueue.New[domain.Order](),
		board:    book.New(),
		trades:   boards.NewTradeBoard(),
		statuses: boards.New(),
		journal:  j,
		now:      time.Now,
	}
}

// WithClock overrides the Scheduler's time source; intended for tests.
func (s *Scheduler) WithClock(clock Clock) *Scheduler {
	s.now = clock
	return s
}

// Enqueue pushes o onto the back of the request queue under the engine lock
// (spec §5). It does not run the matching algorithm or call the Journal
// itself, but it waits for the lock while the consumer is processing an
// order.
func (s *Scheduler) Enqueue(o domain.Order) error {
	if s.stopping.Load() {
		return ErrStopping
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Enqueue(o)
	return nil
}

// QueueLen reports the current depth of the request queue, used by the
// shutdown supervisor's quiescence poll (spec §5).
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Size()
}

// Stop flips the process-wide STOP flag: producers start rejecting new
// submissions, but the consumer keeps draining the queue (spec §5).
func (s *Scheduler) Stop() {
	s.stopping.Store(true)
}

// Stopping reports whether Stop has been called.
func (s *Scheduler) Stopping() bool {
	return s.stopping.Load()
}

// Run is the consumer loop: acquire lock, pop front of queue if non-empty,
// run process, release lock, repeat with no inter-iteration sleep beyond a
// brief yield on an empty queue. It runs until t is told to die.
func (s *Scheduler) Run(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}
		if !s.runOnce() {
			// Parked-wait on an empty queue: a latency/CPU trade-off, not a
			// correctness concern (spec §5).
			time.Sleep(time.Millisecond)
		}
	}
}

func (s *Scheduler) runOnce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.queue.Dequeue()
	if !ok {
		return false
	}
	result := s.process(o)
	ev := log.Debug()
	if result == domain.TxBoardUpdateFail {
		ev = log.Error()
	}
	ev.
		Str("order", o.ID.String()).
		Int("trader", o.TraderID).
		Str("card", o.Card.String()).
		Str("result", result.String()).
		Msg("processed order")
	return true
}

// Process runs the matching algorithm for o and returns its terminal
// ProcessResult, acquiring the engine lock itself. Exposed for direct use
// by tests and by any caller that wants synchronous processing without
// going through the queue.
func (s *Scheduler) Process(o domain.Order) domain.ProcessResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.process(o)
}

// process implements spec §4.1's matching algorithm. Callers must hold mu.
func (s *Scheduler) process(o domain.Order) domain.ProcessResult {
	if err := s.journal.InsertRequest(o); err != nil {
		log.Error().Err(err).Str("order", o.ID.String()).Msg("journal: insert request failed, aborting match")
		return domain.TxBoardUpdateFail
	}

	cardBook, ok := s.board.Book(o.Card)
	if !ok {
		return domain.UnknownCard
	}

	opposite := o.Side.Opposite()
	for _, price := range traversalOrder(o.Side) {
		level := cardBook.Level(opposite, price)
		if level.Vol() == 0 {
			continue
		}
		if !acceptablePrice(o, price) {
			continue
		}

		tag, ok := level.PeekFrontTag()
		if !ok {
			// Invariant violation: aggregate_volume > 0 but the FIFO is
			// empty. Correct code cannot reach this; return the defensive
			// variant without further mutation (spec §4.1).
			return domain.TxBoardUpdateFail
		}

		if tag.TraderID == o.TraderID {
			return s.dropSelfTrade(o)
		}

		return s.matchUnit(o, level, price, tag)
	}

	return s.rest(o, cardBook)
}

// traversalOrder returns the ten integer price levels in opposite-side
// best-price-first order for side s: ascending (seeking the lowest sell)
// for a Buy, descending (seeking the highest buy) for a Sell.
func traversalOrder(s domain.Side) []int {
	order := make([]int, book.MaxPrice-book.MinPrice+1)
	if s == domain.Buy {
		for i := range order {
			order[i] = book.MinPrice + i
		}
	} else {
		for i := range order {
			order[i] = book.MaxPrice - i
		}
	}
	return order
}

// acceptablePrice reports whether o would trade at level price: a Buy
// accepts any ask at or below its limit, a Sell accepts any bid at or above
// its limit.
func acceptablePrice(o domain.Order, price int) bool {
	if o.Side == domain.Buy {
		return o.LimitPrice >= float64(price)
	}
	return o.LimitPrice <= float64(price)
}

func (s *Scheduler) dropSelfTrade(o domain.Order) domain.ProcessResult {
	entry := &domain.StatusEntry{
		OrderID:    o.ID,
		TraderID:   o.TraderID,
		Timestamp:  o.Timestamp,
		Side:       o.Side,
		Card:       o.Card,
		LimitPrice: o.LimitPrice,
		Volume:     o.Volume,
		Status:     domain.Dropped,
	}
	s.statuses.AddStatus(o.TraderID, entry)
	if err := s.journal.InsertStatus(o.ID.String(), domain.Dropped); err != nil {
		log.Error().Err(err).Str("order", o.ID.String()).Msg("journal: insert dropped status failed")
	}
	return domain.TxSelfTraded
}

// matchUnit executes the unit match of spec §4.1 against the resting order
// identified by tag at level/price, then returns TxFilled.
func (s *Scheduler) matchUnit(o domain.Order, level *book.PriceLevel, price int, tag domain.Tag) domain.ProcessResult {
	if _, ok := level.PopFrontTag(); !ok {
		return domain.TxBoardUpdateFail
	}
	level.SetVol(level.Vol() - 1)

	trade := domain.Trade{
		Timestamp: s.now(),
		Card:      o.Card,
		Price:     float64(price),
		Volume:    o.Volume,
	}
	if o.Side == domain.Buy {
		trade.BuyTraderID, trade.BuyOrderID = o.TraderID, o.ID
		trade.SellTraderID, trade.SellOrderID = tag.TraderID, tag.OrderID
	} else {
		trade.SellTraderID, trade.SellOrderID = o.TraderID, o.ID
		trade.BuyTraderID, trade.BuyOrderID = tag.TraderID, tag.OrderID
	}

	s.trades.PushTrade(o.Card, trade)
	if err := s.journal.InsertTrade(trade); err != nil {
		log.Error().Err(err).Msg("journal: insert trade failed")
	}

	s.statuses.UpdateStatus(tag.TraderID, tag.OrderID.String(), domain.Filled)
	if err := s.journal.UpdateStatus(tag.OrderID.String(), domain.Filled); err != nil {
		log.Error().Err(err).Str("order", tag.OrderID.String()).Msg("journal: update resting status failed")
	}

	incoming := &domain.StatusEntry{
		OrderID:    o.ID,
		TraderID:   o.TraderID,
		Timestamp:  o.Timestamp,
		Side:       o.Side,
		Card:       o.Card,
		LimitPrice: o.LimitPrice,
		Volume:     o.Volume,
		Status:     domain.Filled,
	}
	s.statuses.AddStatus(o.TraderID, incoming)
	if err := s.journal.InsertStatus(o.ID.String(), domain.Filled); err != nil {
		log.Error().Err(err).Str("order", o.ID.String()).Msg("journal: insert filled status failed")
	}

	return domain.TxFilled
}

// rest adds o to its own side's book at floor(limit_price) and records it
// Confirmed (spec §4.1 step 4).
func (s *Scheduler) rest(o domain.Order, cb *book.CardBook) domain.ProcessResult {
	price := restingPrice(o.LimitPrice)
	level := cb.Level(o.Side, price)
	level.PushBackTag(domain.Tag{TraderID: o.TraderID, OrderID: o.ID})
	level.SetVol(level.Vol() + o.Volume)

	entry := &domain.StatusEntry{
		OrderID:    o.ID,
		TraderID:   o.TraderID,
		Timestamp:  o.Timestamp,
		Side:       o.Side,
		Card:       o.Card,
		LimitPrice: o.LimitPrice,
		Volume:     o.Volume,
		Status:     domain.Confirmed,
	}
	s.statuses.AddStatus(o.TraderID, entry)
	if err := s.journal.InsertStatus(o.ID.String(), domain.Confirmed); err != nil {
		log.Error().Err(err).Str("order", o.ID.String()).Msg("journal: insert confirmed status failed")
	}
	return domain.TxConfirmed
}

// restingPrice floors a limit price onto the integer grid and clamps it
// into [MinPrice, MaxPrice]. On the observed inputs (integer prices from
// the load generator) this is exact; the clamp is a defensive guard should
// a future caller ever submit a non-integer or out-of-grid price (spec §4.2
// flags this as implementation-defined).
func restingPrice(limit float64) int {
	p := int(math.Floor(limit))
	if p < book.MinPrice {
		return book.MinPrice
	}
	if p > book.MaxPrice {
		return book.MaxPrice
	}
	return p
}

// --- Read operations (spec §4.1 "Read operations") -------------------------

// LatestTrades returns up to the 50 most recent trades on card, oldest
// first.
func (s *Scheduler) LatestTrades(card domain.Card) []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trades.Latest(card)
}

// LatestOrders returns up to the 50 most recent StatusEntries for trader,
// in enqueue order.
func (s *Scheduler) LatestOrders(trader int) []domain.StatusEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses.GetRecentEntries(trader)
}

// TradeHistory delegates to the Journal for every trade touching trader on
// date (yyyy-mm-dd).
func (s *Scheduler) TradeHistory(trader int, date string) ([]domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal.TradeHistory(trader, date)
}

// RequestHistory delegates to the Journal for every request row for trader
// on date (yyyy-mm-dd).
func (s *Scheduler) RequestHistory(trader int, date string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal.RequestHistory(trader, date)
}

// Recover rebuilds the TxBoard from still-open (Confirmed) requests
// persisted on the current UTC calendar date, per spec §4.6. It must run
// before Run is started.
func (s *Scheduler) Recover(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, card := range domain.Cards {
		cb, ok := s.board.Book(card)
		if !ok {
			continue
		}
		for _, side := range [...]domain.Side{domain.Buy, domain.Sell} {
			orders, err := s.journal.ConfirmedToday(side, card, now)
			if err != nil {
				return err
			}
			for _, o := range orders {
				price := restingPrice(o.LimitPrice)
				level := cb.Level(side, price)
				level.PushBackTag(domain.Tag{TraderID: o.TraderID, OrderID: o.ID})
				level.SetVol(level.Vol() + o.Volume)
			}
			log.Info().
				Str("card", card.String()).
				Str("side", side.String()).
				Int("restored", len(orders)).
				Msg("recovery: restored resting orders")
		}
	}
	return nil
}
