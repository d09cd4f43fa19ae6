package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/fee-portal/backend"
	"github.com/jrsteele09/fee-portal/internal/config"
	"github.com/jrsteele09/fee-portal/refresh"
	"github.com/jrsteele09/fee-portal/server"
	"github.com/jrsteele09/fee-portal/tokenstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	storage, closeStorage, err := newStorage(c)
	if err != nil {
		return err
	}
	defer closeStorage()

	var sealer *tokenstore.Sealer
	if secret := c.GetStoreSecret(); secret != "" {
		sealer = tokenstore.NewSealer(secret)
	}

	scheduler := refresh.NewScheduler(c.GetRefreshLead())
	defer scheduler.Stop()

	handler, err := server.New(c, server.Deps{
		Storage:   storage,
		Sealer:    sealer,
		Backend:   backend.NewFactory(c.GetAPIBaseURL(), c.GetAPITimeout(), nil),
		Scheduler: scheduler,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newStorage builds the configured token storage and its cleanup
func newStorage(c config.Config) (tokenstore.Storage, func(), error) {
	switch c.GetStorage() {
	case config.StorageRedis:
		client, err := tokenstore.DialRedis(context.Background(), c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("Using redis token storage")
		return tokenstore.NewRedisStorage(client, c.GetStorageTTL()), func() { _ = client.Close() }, nil

	default:
		memory := tokenstore.NewInMemoryStorage()
		janitor, err := tokenstore.NewJanitor(memory, c.GetJanitorSchedule(), c.GetStorageTTL())
		if err != nil {
			return nil, nil, err
		}
		janitor.Start()
		log.Info().Str("schedule", c.GetJanitorSchedule()).Msg("Using in-memory token storage")
		return memory, janitor.Stop, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
