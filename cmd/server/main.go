// Command server runs the matching engine process: it loads an INI config
// file, opens the sqlite journal, recovers same-day resting orders, starts
// the Scheduler's single consumer, and serves the HTTP surface of spec §6.
//
// Grounded on the teacher's cmd/main.go (signal.NotifyContext + a single
// blocking run loop), generalized with the tomb.v2 supervision the teacher
// already depends on for the matcher's consumer goroutine, plus the
// process-wide STOP flag and quiescence supervisor of spec §5.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"pokex/internal/api"
	"pokex/internal/config"
	"pokex/internal/journal"
	"pokex/internal/scheduler"
)

const (
	quiescencePollInterval = 100 * time.Millisecond
	quiescenceChecks       = 10
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) != 2 {
		log.Error().Msg("usage: server <config-path>")
		os.Exit(-1)
	}

	if err := run(os.Args[1]); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(-1)
	}
	log.Info().Msg("server stopped after shutdown quiescence")
	os.Exit(-1)
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := journal.Open(cfg.Database.JournalPath())
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Ping(); err != nil {
		return err
	}

	sched := scheduler.New(store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := sched.Recover(ctx, time.Now()); err != nil {
		return err
	}

	var t tomb.Tomb
	t.Go(func() error {
		return sched.Run(&t)
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.NewRouter(sched),
	}
	t.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	log.Info().Str("addr", cfg.Server.Addr()).Msg("server listening")

	go superviseShutdown(ctx, sched, srv, &t)

	<-t.Dying()
	return t.Err()
}

// superviseShutdown waits for an OS signal, flips the STOP flag, then polls
// the queue for quiescence before tearing down the HTTP server and telling
// the tomb to die (spec §5's cancellation/shutdown model).
func superviseShutdown(ctx context.Context, sched *scheduler.Scheduler, srv *http.Server, t *tomb.Tomb) {
	select {
	case <-ctx.Done():
	case <-t.Dying():
		return
	}

	log.Info().Msg("shutdown signal received, draining queue")
	sched.Stop()

	empty := 0
	ticker := time.NewTicker(quiescencePollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if sched.QueueLen() == 0 {
			empty++
		} else {
			empty = 0
		}
		if empty >= quiescenceChecks {
			break
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}
	t.Kill(nil)
}
