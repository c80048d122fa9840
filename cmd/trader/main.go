// Command trader is a load generator modeled on
// original_source/traders/src/trader.rs: on a fixed tick it picks one of
// {post an order, fetch a card's recent trades, fetch its own recent
// orders} uniformly at random, against a running server's HTTP surface.
//
// This is a supplemented feature (SPEC_FULL.md's "Supplemented features"):
// spec.md's distillation describes only the server side, but the original
// ships a companion load generator and the teacher's own cmd/client/client.go
// established the one-binary-per-role layout this follows.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pokex/internal/domain"
)

const tickInterval = time.Second

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) != 3 {
		log.Error().Msg("usage: trader <server-addr> <trader-id>")
		os.Exit(-1)
	}

	addr := os.Args[1]
	var traderID int
	if _, err := fmt.Sscanf(os.Args[2], "%d", &traderID); err != nil {
		log.Error().Err(err).Msg("trader-id must be an integer")
		os.Exit(-1)
	}

	t := &trader{id: traderID, addr: addr, client: &http.Client{Timeout: 5 * time.Second}}
	t.run()
}

type trader struct {
	id     int
	addr   string
	client *http.Client
}

func (t *trader) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		var err error
		switch rand.Intn(3) {
		case 0:
			err = t.postOrder()
		case 1:
			err = t.getTrades()
		case 2:
			err = t.getOrders()
		}
		if err != nil {
			log.Error().Err(err).Int("trader", t.id).Msg("request failed")
		}
	}
}

func randomCard() domain.Card {
	return domain.Cards[rand.Intn(len(domain.Cards))]
}

func randomSide() domain.Side {
	if rand.Intn(2) == 0 {
		return domain.Buy
	}
	return domain.Sell
}

func (t *trader) postOrder() error {
	body, err := json.Marshal(struct {
		UUID     string      `json:"uuid"`
		TM       time.Time   `json:"tm"`
		Side     domain.Side `json:"side"`
		OrderPX  float64     `json:"order_px"`
		Vol      int         `json:"vol"`
		Card     domain.Card `json:"card"`
		TraderID int         `json:"trader_id"`
	}{
		UUID:     uuid.New().String(),
		TM:       time.Now().UTC(),
		Side:     randomSide(),
		OrderPX:  float64(1 + rand.Intn(10)),
		Vol:      1,
		Card:     randomCard(),
		TraderID: t.id,
	})
	if err != nil {
		return err
	}

	resp, err := t.client.Post(fmt.Sprintf("http://%s/api/pokemon/card", t.addr), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Info().Int("trader", t.id).Str("op", "post_order").Int("status", resp.StatusCode).Msg("request done")
	return nil
}

func (t *trader) getTrades() error {
	url := fmt.Sprintf("http://%s/api/pokemon/trade/%s", t.addr, randomCard().String())
	resp, err := t.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Info().Int("trader", t.id).Str("op", "get_trade").Int("status", resp.StatusCode).Msg("request done")
	return nil
}

func (t *trader) getOrders() error {
	url := fmt.Sprintf("http://%s/api/pokemon/order/%d", t.addr, t.id)
	resp, err := t.client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Info().Int("trader", t.id).Str("op", "get_order").Int("status", resp.StatusCode).Msg("request done")
	return nil
}
