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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/loganszeto/recordkv/internal/config"
	"github.com/loganszeto/recordkv/internal/logger"
	"github.com/loganszeto/recordkv/internal/server"
	"github.com/loganszeto/recordkv/internal/stats"
	"github.com/loganszeto/recordkv/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	httpAddr := flag.String("http_addr", "", "HTTP listen address, \"off\" disables it (overrides config)")
	logLevel := flag.String("log_level", "", "log level (overrides config)")
	flag.Parse()

	if err := run(*cfgPath, *addr, *httpAddr, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "kv-server: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, addr, httpAddr, logLevel string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	switch httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = httpAddr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	st := store.NewMemTable()
	s := stats.New()
	s.TrackKeys(st.Len)

	reg := prometheus.NewRegistry()
	reg.MustRegister(s, collectors.NewGoCollector())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(cfg.Server, st, s, log)

	var httpSrv *http.Server
	if cfg.HTTP.Addr != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           srv.HTTPHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("http listening", "addr", cfg.HTTP.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server failed", "error", err)
				cancel()
			}
		}()
	}

	serveErr := srv.ListenAndServe(ctx)

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", "error", err)
	}
	if serveErr != nil {
		return serveErr
	}
	log.Info("stopped")
	return nil
}
