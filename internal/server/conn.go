package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/loganszeto/recordkv/internal/protocol"
)

type conn struct {
	id      string
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	// limiter is nil when rate limiting is off.
	limiter *rate.Limiter
	closed  atomic.Bool
}

func (s *Server) newConn(nc net.Conn) *conn {
	return &conn{
		id:      ulid.Make().String(),
		netConn: nc,
		br:      bufio.NewReader(nc),
		bw:      bufio.NewWriter(nc),
		limiter: s.newLimiter(),
	}
}

// newLimiter returns a per-connection token bucket, or nil when rate
// limiting is off.
func (s *Server) newLimiter() *rate.Limiter {
	if s.cfg.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// setReadDeadline arms a read deadline d from now; zero clears it.
func (c *conn) setReadDeadline(d time.Duration) error {
	if d <= 0 {
		return c.netConn.SetReadDeadline(time.Time{})
	}
	return c.netConn.SetReadDeadline(time.Now().Add(d))
}

func (c *conn) setWriteDeadline(d time.Duration) error {
	if d <= 0 {
		return c.netConn.SetWriteDeadline(time.Time{})
	}
	return c.netConn.SetWriteDeadline(time.Now().Add(d))
}

// serveConn answers requests on c one at a time until the peer goes away or
// a transport error occurs. Transport errors close the connection without a
// response. A panic is contained to this connection.
func (s *Server) serveConn(ctx context.Context, c *conn) {
	log := s.log.With("conn", c.id, "remote", c.netConn.RemoteAddr().String())
	s.stats.ConnOpened()
	defer s.stats.ConnClosed()
	defer c.Close()
	defer func() {
		if r := recover(); r != nil {
			s.stats.RecordPanic()
			log.Error("panic while serving connection", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	log.Debug("connection opened")

	for {
		// Idle deadline until the first byte of the next request.
		if err := c.setReadDeadline(s.cfg.IdleTimeout); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.readFailed(log, err)
			return
		}
		if err := c.setReadDeadline(s.cfg.ReadTimeout); err != nil {
			return
		}
		line, err := protocol.ReadRequest(c.br, s.cfg.MaxRequestBytes)
		if err != nil {
			s.readFailed(log, err)
			return
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
		}
		log.Debug("request", "line", line)
		result := s.evaluate(line)

		if err := c.setWriteDeadline(s.cfg.WriteTimeout); err != nil {
			return
		}
		if err := protocol.WriteResponse(c.bw, result); err != nil {
			s.writeFailed(log, err)
			return
		}
		if err := c.bw.Flush(); err != nil {
			s.writeFailed(log, err)
			return
		}
	}
}

func (s *Server) readFailed(log *slog.Logger, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		log.Debug("connection closed")
	case errors.As(err, &netErr) && netErr.Timeout():
		log.Debug("connection timed out")
	default:
		s.stats.RecordDropped()
		log.Warn("dropping connection", "error", err)
	}
}

func (s *Server) writeFailed(log *slog.Logger, err error) {
	s.stats.RecordDropped()
	log.Warn("write failed", "error", err)
}
