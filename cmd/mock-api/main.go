// Command mock-api serves the skillbox REST endpoints from memory, optionally
// persisted to a JSON file, for local development.
//
// Usage:
//
//	mock-api -addr :3000 -data ./fixtures.json -delay 500ms
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/skillbox/internal/mockapi"
)

func main() {
	addr := flag.String("addr", ":3000", "listen address")
	data := flag.String("data", "", "JSON file to seed from and persist to (empty keeps everything in memory)")
	delay := flag.Duration("delay", 0, "artificial latency added to every /api request")
	quiet := flag.Bool("quiet", false, "disable access logs")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(*addr, *data, *delay, *quiet, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, dataPath string, delay time.Duration, quiet bool, logger *slog.Logger) error {
	store, err := mockapi.NewStore(dataPath)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}

	srv := mockapi.NewServer(store, logger)
	srv.SetDelay(delay)
	var handler http.Handler
	if quiet {
		handler = srv.Handler(nil)
	} else {
		handler = srv.Handler(os.Stdout)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second + delay,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Mock API listening", "addr", addr, "data", dataPath, "delay", delay)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
