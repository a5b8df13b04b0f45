package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/api"
	"github.com/mcdev12/quizbattle/go/internal/config"
	"github.com/mcdev12/quizbattle/go/internal/export"
	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/identity"
	"github.com/mcdev12/quizbattle/go/internal/inspect"
	"github.com/mcdev12/quizbattle/go/internal/session"
	"github.com/mcdev12/quizbattle/go/internal/transport"
)

func main() {
	pinFlag := flag.String("pin", "", "session pin to open")
	playerFlag := flag.Int("player", 0, "record this player id for the pin before connecting")
	tokenFlag := flag.String("token", "", "record this player token for the pin before connecting")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	pin := *pinFlag
	if pin == "" {
		pin = flag.Arg(0)
	}
	if pin == "" {
		fmt.Fprintln(os.Stderr, "usage: quizclient [-player ID -token TOKEN] PIN")
		os.Exit(2)
	}

	store := identity.NewFileStore(cfg.IdentityFile)
	if *playerFlag > 0 {
		if err := store.Save(game.Identity{Pin: pin, PlayerID: *playerFlag, PlayerToken: *tokenFlag}); err != nil {
			log.Fatal().Err(err).Msg("failed to save identity")
		}
	}

	id, err := identity.NewGuard(store).Verify(pin)
	if err != nil {
		log.Fatal().Err(err).Str("identity_file", store.Path()).Msg("join the session from the entry page first")
	}

	log.Info().
		Str("pin", id.Pin).
		Int("player_id", id.PlayerID).
		Str("server_url", cfg.ServerURL).
		Msg("starting quiz client")

	client := api.NewClient(cfg.ServerURL)

	endpoint, err := transport.Endpoint(cfg.ServerURL, id.Pin, id.PlayerID, id.PlayerToken)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server url")
	}
	clock := clockwork.NewRealClock()
	wsConfig := transport.DefaultConfig()
	wsConfig.ReconnectWait = cfg.ReconnectWait
	ws := transport.NewClient(endpoint, wsConfig, clock)

	sinks := export.Multi{export.NewFileSink(cfg.ExportDir)}
	if cfg.NATSURL != "" {
		natsConfig := export.DefaultNATSConfig()
		natsConfig.URL = cfg.NATSURL
		natsSink, err := export.DialNATS(natsConfig)
		if err != nil {
			log.Error().Err(err).Str("nats_url", cfg.NATSURL).Msg("NATS export disabled")
		} else {
			defer natsSink.Close()
			sinks = append(sinks, natsSink)
		}
	}

	view, err := session.NewView(session.Options{
		Identity:     id,
		Transport:    ws,
		Starter:      client,
		Sink:         sinks,
		Clock:        clock,
		TickInterval: cfg.TickInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session view")
	}
	log.Logger = log.With().Str("view_id", view.ID()).Logger()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 10*time.Second)
	if snapshot, err := client.GameState(fetchCtx, id.Pin); err != nil {
		log.Warn().Err(err).Msg("initial state fetch failed, waiting for websocket")
	} else {
		view.Prime(snapshot)
	}
	fetchCancel()

	go func() {
		if err := ws.Run(ctx); err != nil {
			log.Error().Err(err).Msg("transport failed")
		}
	}()
	go func() {
		if err := view.Run(ctx); err != nil {
			log.Error().Err(err).Msg("session view failed")
		}
	}()

	var server *http.Server
	if cfg.InspectAddr != "" {
		server = inspect.NewServer(cfg.InspectAddr, view)
		go func() {
			log.Info().Str("addr", server.Addr).Msg("inspect server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("inspect server failed")
			}
		}()
	}

	go redraw(ctx, view)
	quit := make(chan struct{})
	go func() {
		readCommands(ctx, view)
		close(quit)
	}()

	// Wait for interrupt signal or quit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-quit:
	case <-view.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("inspect server shutdown failed")
		}
	}

	cancel()
	select {
	case <-view.Done():
	case <-shutdownCtx.Done():
	}

	log.Info().Msg("quiz client shutdown complete")
}

// redraw prints the view whenever it publishes a new state
func redraw(ctx context.Context, view *session.View) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-view.Updates():
			fmt.Fprint(os.Stdout, "\n"+render(view.State()))
		}
	}
}

// readCommands runs the line REPL on stdin until quit or EOF
func readCommands(ctx context.Context, view *session.View) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		intent, err := parseLine(scanner.Text())
		switch {
		case errors.Is(err, errQuit):
			return
		case errors.Is(err, errHelp):
			fmt.Fprintln(os.Stdout, helpText)
			continue
		case errors.Is(err, errShow):
			fmt.Fprint(os.Stdout, render(view.State()))
			continue
		case err != nil:
			fmt.Fprintln(os.Stdout, err)
			continue
		}

		if err := view.Do(ctx, intent); err != nil {
			if game.IsFatal(err) || errors.Is(err, session.ErrViewClosed) {
				log.Error().Err(err).Msg("session ended")
				return
			}
			log.Debug().Err(err).Msg("command not sent")
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("failed to read input")
	}
}
