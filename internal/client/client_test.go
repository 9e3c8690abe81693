package client

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/loganszeto/recordkv/internal/config"
	"github.com/loganszeto/recordkv/internal/logger"
	"github.com/loganszeto/recordkv/internal/protocol"
	"github.com/loganszeto/recordkv/internal/server"
	"github.com/loganszeto/recordkv/internal/stats"
	"github.com/loganszeto/recordkv/internal/store"
)

func startServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := server.New(config.Default().Server, store.NewMemTable(), stats.New(), logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func TestClientSetGet(t *testing.T) {
	ctx := context.Background()
	cl, err := Dial(ctx, startServer(t))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cl.Close()

	values := map[string]string{
		"name":      "john doe",
		"quoted":    `say "hi"`,
		"backslash": `a\b`,
		"space key": "v",
		"tab":       "a\t",
		"lead tab":  "\tb",
		"cr":        "x\r",
		"nbsp":      "a\u00a0",
		"\tkey":     "tabbed key",
	}
	for k, v := range values {
		if err := cl.Set(ctx, k, v); err != nil {
			t.Fatalf("set %q: %v", k, err)
		}
	}
	for k, want := range values {
		got, err := cl.Get(ctx, k)
		if err != nil {
			t.Fatalf("get %q: %v", k, err)
		}
		if got != want {
			t.Fatalf("get %q = %q, want %q", k, got, want)
		}
	}
	if got, err := cl.Get(ctx, "missing"); err != nil || got != "" {
		t.Fatalf("missing key: %q %v", got, err)
	}
	if got, err := cl.Do(ctx, "bogus"); err != nil || got != "invalid command bogus" {
		t.Fatalf("raw bogus: %q %v", got, err)
	}
}

func TestClientContextCancel(t *testing.T) {
	// A peer that reads requests but never answers.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		nc, err := ln.Accept()
		if err != nil {
			return
		}
		defer nc.Close()
		br := bufio.NewReader(nc)
		for {
			if _, err := protocol.ReadPayload(br, protocol.DefaultMaxRequestBytes); err != nil {
				return
			}
		}
	}()

	cl, err := Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = cl.Get(ctx, "k")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("request did not honor the context")
	}
}
