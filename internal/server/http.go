package server

import (
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loganszeto/recordkv/internal/config"
	"github.com/loganszeto/recordkv/internal/protocol"
)

// HTTPHandler serves /healthz, /metrics from gatherer, and /ws, a
// WebSocket gateway where every message is one command line and every reply
// carries only the result text. WebSocket sessions share the server's store,
// connection slots and per-connection rate limit.
func (s *Server) HTTPHandler(gatherer prometheus.Gatherer) http.Handler {
	maxBytes := s.cfg.MaxRequestBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxRequestBytes
	}
	ws := &wsHandler{srv: s, maxBytes: int64(maxBytes)}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/ws", ws)
	return withLogging(mux, s.log)
}

func withLogging(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type wsHandler struct {
	srv      *Server
	maxBytes int64
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.srv
	// Waits before the upgrade, like TCP clients wait in the backlog.
	if err := s.slots.Acquire(r.Context(), 1); err != nil {
		return
	}
	defer s.slots.Release(1)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.maxBytes)

	s.stats.ConnOpened()
	defer s.stats.ConnClosed()
	limiter := s.newLimiter()
	log := s.log.With("conn", ulid.Make().String(), "remote", r.RemoteAddr, "transport", "ws")

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("websocket read ended", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if !utf8.Valid(payload) {
			s.stats.RecordDropped()
			log.Warn("dropping websocket", "error", protocol.ErrInvalidEncoding)
			return
		}

		if limiter != nil {
			if err := limiter.Wait(r.Context()); err != nil {
				return
			}
		}
		result := s.evaluate(protocol.CommandLine(string(payload)))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(result)); err != nil {
			return
		}
	}
}
