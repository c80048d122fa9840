// Package domain holds the value types shared by every layer of the
// matching engine: the fixed card/side enumerations, the wire-level Order,
// the Tag a price level keeps for a resting order, Trade records, and the
// closed set of order statuses and process results.
//
// Grounded on the teacher's internal/common/order.go and internal/common/trade.go,
// generalized from a free-text ticker/asset-type model to the spec's fixed
// four-card catalog; field names resolved against original_source/data_type.rs.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Card is one of the four tradable symbols. The catalog is closed: no card
// is ever added or removed at runtime.
type Card int

const (
	Pikachu Card = iota
	Bulbasaur
	Charmander
	Squirtle
)

// Cards lists every card in the fixed catalog, in a stable order used by
// Recovery's (side, card) traversal (spec §4.6).
var Cards = [...]Card{Pikachu, Bulbasaur, Charmander, Squirtle}

func (c Card) String() string {
	switch c {
	case Pikachu:
		return "Pikachu"
	case Bulbasaur:
		return "Bulbasaur"
	case Charmander:
		return "Charmander"
	case Squirtle:
		return "Squirtle"
	default:
		return "Unknown"
	}
}

// ParseCard maps a wire string onto a Card. ok is false for anything outside
// the fixed catalog.
func ParseCard(s string) (Card, bool) {
	switch s {
	case "Pikachu":
		return Pikachu, true
	case "Bulbasaur":
		return Bulbasaur, true
	case "Charmander":
		return Charmander, true
	case "Squirtle":
		return Squirtle, true
	default:
		return 0, false
	}
}

func (c Card) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *Card) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	card, ok := ParseCard(s)
	if !ok {
		return fmt.Errorf("unknown card %q", s)
	}
	*c = card
	return nil
}

// Side is one of Buy or Sell.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func ParseSide(s string) (Side, bool) {
	switch s {
	case "Buy":
		return Buy, true
	case "Sell":
		return Sell, true
	default:
		return 0, false
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Side) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	side, ok := ParseSide(str)
	if !ok {
		return fmt.Errorf("unknown side %q", str)
	}
	*s = side
	return nil
}

// OrderStatus is the closed set of terminal/non-terminal statuses a
// StatusEntry can carry.
type OrderStatus int

const (
	Confirmed OrderStatus = iota
	Filled
	Dropped
)

func (s OrderStatus) String() string {
	switch s {
	case Confirmed:
		return "Confirmed"
	case Filled:
		return "Filled"
	case Dropped:
		return "Dropped"
	default:
		return "Unknown"
	}
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ProcessResult is the closed set of outcomes the Scheduler's process
// operation can return.
type ProcessResult int

const (
	TxConfirmed ProcessResult = iota
	TxFilled
	TxBoardUpdateFail
	TxSelfTraded
	UnknownCard
)

func (r ProcessResult) String() string {
	switch r {
	case TxConfirmed:
		return "TxConfirmed"
	case TxFilled:
		return "TxFilled"
	case TxBoardUpdateFail:
		return "TxBoardUpdateFail"
	case TxSelfTraded:
		return "TxSelfTraded"
	case UnknownCard:
		return "UnknownCard"
	default:
		return "Unknown"
	}
}

// Order is the immutable value a trader submits. Volume is always >= 1; see
// DESIGN.md's note on Open Question 1 for how multi-unit volume is
// handled by the matcher.
type Order struct {
	ID         uuid.UUID `json:"uuid"`
	Timestamp  time.Time `json:"tm"`
	Side       Side      `json:"side"`
	Card       Card      `json:"card"`
	LimitPrice float64   `json:"order_px"`
	Volume     int       `json:"vol"`
	TraderID   int       `json:"trader_id"`
}

// Tag is the back-pointer a PriceLevel keeps for a resting order.
type Tag struct {
	TraderID int
	OrderID  uuid.UUID
}

// Trade is the immutable record of one executed match.
type Trade struct {
	Timestamp    time.Time `json:"ts"`
	BuyTraderID  int       `json:"buy_trader_id"`
	SellTraderID int       `json:"sell_trader_id"`
	BuyOrderID   uuid.UUID `json:"buy_uuid"`
	SellOrderID  uuid.UUID `json:"sell_uuid"`
	Card         Card      `json:"card"`
	Price        float64   `json:"price"`
	Volume       int       `json:"volume"`
}

// StatusEntry is a snapshot of an order plus its current status. The
// snapshot fields (everything but Status) never change after creation —
// StatusBoard.UpdateStatus only ever rewrites Status.
type StatusEntry struct {
	OrderID    uuid.UUID   `json:"uuid"`
	TraderID   int         `json:"trader_id"`
	Timestamp  time.Time   `json:"tm"`
	Side       Side        `json:"side"`
	Card       Card        `json:"card"`
	LimitPrice float64     `json:"order_px"`
	Volume     int         `json:"vol"`
	Status     OrderStatus `json:"status"`
}
