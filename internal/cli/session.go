package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Makepad-fr/skillbox/internal/api"
	"github.com/Makepad-fr/skillbox/internal/config"
	"github.com/Makepad-fr/skillbox/internal/ui"
)

// globalFlags are the persistent flags of the root command. Empty values
// leave the configured setting alone.
type globalFlags struct {
	configPath  string
	apiURL      string
	theme       string
	logLevel    string
	logFile     string
	metricsAddr string
}

// session is what one command invocation runs with.
type session struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	client   *api.Client
	closers  []io.Closer
}

// open loads the layered configuration, applies flag overrides and builds
// the logger and API client. interactive sends logs away from the terminal.
func (r *Runner) open(f *globalFlags, interactive bool) (*session, error) {
	loader := config.NewLoader(slog.New(slog.NewTextHandler(r.Stderr, &slog.HandlerOptions{Level: bootLevel(f.logLevel)})))
	loader.HomeDir = r.HomeDir
	loader.WorkDir = r.WorkDir

	cfg, err := loader.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.apiURL != "" {
		cfg.API.BaseURL = f.apiURL
	}
	if f.theme != "" {
		cfg.UI.Theme = f.theme
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, &usageError{err: fmt.Errorf("invalid configuration: %w", err)}
	}
	ui.SetTheme(strings.ToLower(cfg.UI.Theme))

	s := &session{stdin: r.Stdin, stdout: r.Stdout, stderr: r.Stderr, cfg: cfg}

	var w io.Writer = r.Stderr
	if interactive {
		w = io.Discard
		if cfg.Log.File != "" {
			lf, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			s.closers = append(s.closers, lf)
			w = lf
		}
	}
	s.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.client, err = api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(s.logger),
		api.WithMetrics(api.NewMetrics(s.registry)),
	)
	if err != nil {
		s.close()
		return nil, err
	}
	s.logger.Debug("Session ready", "api", s.client.BaseURL(), "theme", cfg.UI.Theme)
	return s, nil
}

func (s *session) close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
	s.closers = nil
}

// bootLevel is the level used while the config itself is being read.
func bootLevel(flag string) slog.Level {
	if strings.EqualFold(flag, "debug") {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
