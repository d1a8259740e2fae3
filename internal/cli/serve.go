package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/skillbox/internal/model"
	"github.com/Makepad-fr/skillbox/internal/tui"
)

// runTUI runs the interactive front-end at route. When a metrics address is
// configured, /metrics is served next to it for as long as the TUI runs.
func (s *session) runTUI(ctx context.Context, route tui.Route, id model.ID) error {
	g, gctx := errgroup.WithContext(ctx)
	tuiCtx, stop := context.WithCancel(gctx)
	defer stop()

	if addr := s.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			s.logger.Info("Metrics server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-tuiCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer stop()
		opt := tui.Options{
			Start:     route,
			ID:        id,
			AltScreen: s.cfg.UI.AltScreen,
			Logger:    s.logger,
			Input:     s.stdin,
		}
		if s.stdin != nil {
			opt.Output = s.stdout
		}
		return tui.Run(tuiCtx, s.client, opt)
	})
	return g.Wait()
}
