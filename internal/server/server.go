// Package server runs the recordkv command listener and its HTTP status
// surface. Every connection shares one store.Store handle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/loganszeto/recordkv/internal/config"
	"github.com/loganszeto/recordkv/internal/stats"
	"github.com/loganszeto/recordkv/internal/store"
)

const acceptBackoff = 10 * time.Millisecond

var (
	// ErrServerClosed is returned by Serve when Shutdown ran first.
	ErrServerClosed = errors.New("server closed")
	// ErrServerStarted is returned by a second call to Serve.
	ErrServerStarted = errors.New("server already started")
)

type Server struct {
	cfg   config.ServerSection
	st    store.Store
	stats *stats.Stats
	log   *slog.Logger

	// slots caps the connections served at once.
	slots *semaphore.Weighted

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*conn]struct{}
	closing atomic.Bool
	wg      sync.WaitGroup
	// done is closed when Serve returns.
	done chan struct{}
}

func New(cfg config.ServerSection, st store.Store, counters *stats.Stats, log *slog.Logger) *Server {
	if cfg.MaxConns < 1 {
		cfg.MaxConns = config.DefaultMaxConns
	}
	if counters == nil {
		counters = stats.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:   cfg,
		st:    st,
		stats: counters,
		log:   log,
		slots: semaphore.NewWeighted(int64(cfg.MaxConns)),
		conns: make(map[*conn]struct{}),
		done:  make(chan struct{}),
	}
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or Shutdown is called,
// then waits for the connection goroutines to exit. A slot is taken before
// each Accept, so once MaxConns clients are connected new ones wait in the
// listen backlog. ln is closed when Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.ln != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerStarted
	}
	s.ln = ln
	s.mu.Unlock()
	defer close(s.done)
	defer ln.Close()

	// closeAll only reaches listeners stored before it ran.
	if s.closing.Load() {
		return ErrServerClosed
	}

	go func() {
		<-ctx.Done()
		s.closeAll()
	}()

	s.log.Info("listening", "addr", ln.Addr().String(), "max_conns", s.cfg.MaxConns)
	err := s.acceptLoop(ctx, ln)
	cancel()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return nil
		}
		nc, err := ln.Accept()
		if err != nil {
			s.slots.Release(1)
			if ctx.Err() != nil || s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("accept failed", "error", err)
			time.Sleep(acceptBackoff)
			continue
		}

		c := s.newConn(nc)
		s.track(c, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.slots.Release(1)
			defer s.track(c, false)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c *conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.closing.Load() {
			_ = c.Close()
		}
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// closeAll closes the listener and every live connection, unblocking
// goroutines stuck in Accept or Read.
func (s *Server) closeAll() {
	s.closing.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
}

// Shutdown stops accepting, closes live connections and waits for Serve to
// return until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeAll()

	s.mu.Lock()
	started := s.ln != nil
	s.mu.Unlock()
	if !started {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
