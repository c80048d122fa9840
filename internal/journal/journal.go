// Package journal implements the durable relational record of spec.md §4.5:
// one row per accepted request, one status row per order (updated in place
// on each transition), and one row per executed trade, sufficient to drive same-day crash recovery (spec §4.6) and the
// history read endpoints of spec §6.
//
// Grounded on other_examples' klingdex storage.go for the database/sql +
// mattn/go-sqlite3 shape (schema-on-open, a single *sql.DB behind a small
// wrapper type); the schema's column set is spec.md §6 verbatim. The
// original Rust source (original_source/database.rs) used Postgres with
// native enum types — this rewrite follows spec §6's fallback for stores
// without typed enums (TEXT columns with a CHECK constraint).
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"pokex/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS request_table (
	uuid       TEXT PRIMARY KEY,
	ts         TEXT NOT NULL,
	side       TEXT NOT NULL CHECK (side IN ('Buy','Sell')),
	order_px   REAL NOT NULL,
	vol        INTEGER NOT NULL,
	card       TEXT NOT NULL CHECK (card IN ('Pikachu','Bulbasaur','Charmander','Squirtle')),
	trader_id  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS status_table (
	uuid   TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK (status IN ('Confirmed','Filled','Dropped'))
);

CREATE TABLE IF NOT EXISTS trade_table (
	buy_uuid       TEXT NOT NULL,
	sell_uuid      TEXT NOT NULL,
	buy_trader_id  INTEGER NOT NULL,
	sell_trader_id INTEGER NOT NULL,
	price          REAL NOT NULL,
	volume         INTEGER NOT NULL,
	card           TEXT NOT NULL CHECK (card IN ('Pikachu','Bulbasaur','Charmander','Squirtle'))
);

CREATE INDEX IF NOT EXISTS idx_request_card_side_ts ON request_table (card, side, ts);
CREATE INDEX IF NOT EXISTS idx_request_trader ON request_table (trader_id, ts);
CREATE INDEX IF NOT EXISTS idx_trade_traders ON trade_table (buy_trader_id, sell_trader_id);
`

// Store is the sqlite-backed Journal.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) a sqlite-backed journal at path, initializing
// the schema if it does not already exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// The Scheduler is a single writer; one connection avoids sqlite's
	// "database is locked" errors under the synchronous-write contract of
	// spec §5.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping verifies the journal is reachable, used once at startup to fail fast
// rather than surface the failure lazily on the first order (mirrors
// original_source/database.rs's is_connected check).
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertRequest journals an accepted order. This must happen before any
// matching begins (the journal-first rule of spec §4.1).
func (s *Store) InsertRequest(o domain.Order) error {
	_, err := s.db.Exec(
		`INSERT INTO request_table (uuid, ts, side, order_px, vol, card, trader_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID.String(), o.Timestamp.UTC().Format(time.RFC3339Nano), o.Side.String(), o.LimitPrice, o.Volume, o.Card.String(), o.TraderID,
	)
	if err != nil {
		log.Error().Err(err).Str("uuid", o.ID.String()).Msg("journal: insert request failed")
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

// InsertStatus journals a new StatusEntry row.
func (s *Store) InsertStatus(orderID string, status domain.OrderStatus) error {
	_, err := s.db.Exec(
		`INSERT INTO status_table (uuid, status) VALUES (?, ?)`,
		orderID, status.String(),
	)
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

// UpdateStatus rewrites an existing StatusEntry row's status in place.
func (s *Store) UpdateStatus(orderID string, status domain.OrderStatus) error {
	_, err := s.db.Exec(
		`UPDATE status_table SET status = ? WHERE uuid = ?`,
		status.String(), orderID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// InsertTrade journals one executed trade.
func (s *Store) InsertTrade(t domain.Trade) error {
	_, err := s.db.Exec(
		`INSERT INTO trade_table (buy_uuid, sell_uuid, buy_trader_id, sell_trader_id, price, volume, card) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.BuyOrderID.String(), t.SellOrderID.String(), t.BuyTraderID, t.SellTraderID, t.Price, t.Volume, t.Card.String(),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// ConfirmedToday lists every request row for (side, card) whose status is
// still Confirmed and whose ts falls on the current UTC calendar date,
// ordered by ts ascending. Used exclusively by Recovery (spec §4.6).
func (s *Store) ConfirmedToday(side domain.Side, card domain.Card, today time.Time) ([]domain.Order, error) {
	dateStr := today.UTC().Format("2006-01-02")
	rows, err := s.db.Query(
		`SELECT r.uuid, r.ts, r.order_px, r.vol, r.trader_id
		   FROM request_table r
		   JOIN status_table s ON s.uuid = r.uuid
		  WHERE r.side = ? AND r.card = ? AND s.status = 'Confirmed' AND substr(r.ts, 1, 10) = ?
		  ORDER BY r.ts ASC`,
		side.String(), card.String(), dateStr,
	)
	if err != nil {
		return nil, fmt.Errorf("query confirmed-today: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		var idStr, tsStr string
		if err := rows.Scan(&idStr, &tsStr, &o.LimitPrice, &o.Volume, &o.TraderID); err != nil {
			return nil, fmt.Errorf("scan confirmed-today row: %w", err)
		}
		o.ID, err = parseUUID(idStr)
		if err != nil {
			return nil, err
		}
		o.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parse ts: %w", err)
		}
		o.Side = side
		o.Card = card
		out = append(out, o)
	}
	return out, rows.Err()
}

// TradeHistory lists every trade row touching trader on the given
// yyyy-mm-dd date. Trade rows store trader ids directly but no timestamp, so
// the date is taken from the joined request_table rows of either side.
func (s *Store) TradeHistory(trader int, date string) ([]domain.Trade, error) {
	rows, err := s.db.Query(
		`SELECT t.buy_uuid, t.sell_uuid, t.buy_trader_id, t.sell_trader_id, t.price, t.volume, t.card
		   FROM trade_table t
		   JOIN request_table r ON r.uuid = t.buy_uuid OR r.uuid = t.sell_uuid
		  WHERE (t.buy_trader_id = ? OR t.sell_trader_id = ?) AND substr(r.ts, 1, 10) = ?`,
		trader, trader, date,
	)
	if err != nil {
		return nil, fmt.Errorf("query trade history: %w", err)
	}
	defer rows.Close()

	var out []domain.Trade
	seen := make(map[string]bool)
	for rows.Next() {
		var tr domain.Trade
		var buyStr, sellStr, cardStr string
		if err := rows.Scan(&buyStr, &sellStr, &tr.BuyTraderID, &tr.SellTraderID, &tr.Price, &tr.Volume, &cardStr); err != nil {
			return nil, fmt.Errorf("scan trade history row: %w", err)
		}
		key := buyStr + sellStr
		if seen[key] {
			continue
		}
		seen[key] = true
		if tr.BuyOrderID, err = parseUUID(buyStr); err != nil {
			return nil, err
		}
		if tr.SellOrderID, err = parseUUID(sellStr); err != nil {
			return nil, err
		}
		card, ok := domain.ParseCard(cardStr)
		if !ok {
			return nil, fmt.Errorf("unknown card %q in journal", cardStr)
		}
		tr.Card = card
		out = append(out, tr)
	}
	return out, rows.Err()
}

// RequestHistory lists every request row for trader on the given yyyy-mm-dd
// date, in ts-ascending order.
func (s *Store) RequestHistory(trader int, date string) ([]domain.Order, error) {
	rows, err := s.db.Query(
		`SELECT uuid, ts, side, order_px, vol, card, trader_id
		   FROM request_table
		  WHERE trader_id = ? AND substr(ts, 1, 10) = ?
		  ORDER BY ts ASC`,
		trader, date,
	)
	if err != nil {
		return nil, fmt.Errorf("query request history: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		var idStr, tsStr, sideStr, cardStr string
		if err := rows.Scan(&idStr, &tsStr, &sideStr, &o.LimitPrice, &o.Volume, &cardStr, &o.TraderID); err != nil {
			return nil, fmt.Errorf("scan request history row: %w", err)
		}
		if o.ID, err = parseUUID(idStr); err != nil {
			return nil, err
		}
		if o.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr); err != nil {
			return nil, fmt.Errorf("parse ts: %w", err)
		}
		side, ok := domain.ParseSide(sideStr)
		if !ok {
			return nil, fmt.Errorf("unknown side %q in journal", sideStr)
		}
		o.Side = side
		card, ok := domain.ParseCard(cardStr)
		if !ok {
			return nil, fmt.Errorf("unknown card %q in journal", cardStr)
		}
		o.Card = card
		out = append(out, o)
	}
	return out, rows.Err()
}

// StatusHistory lists the status rows for a given order id (normally at
// most one, since status_table rows are updated in place).
func (s *Store) StatusHistory(orderID string) ([]domain.OrderStatus, error) {
	rows, err := s.db.Query(`SELECT status FROM status_table WHERE uuid = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderStatus
	for rows.Next() {
		var statusStr string
		if err := rows.Scan(&statusStr); err != nil {
			return nil, fmt.Errorf("scan status history row: %w", err)
		}
		switch statusStr {
		case "Confirmed":
			out = append(out, domain.Confirmed)
		case "Filled":
			out = append(out, domain.Filled)
		case "Dropped":
			out = append(out, domain.Dropped)
		default:
			return nil, fmt.Errorf("unknown status %q in journal", statusStr)
		}
	}
	return out, rows.Err()
}
