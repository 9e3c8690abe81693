package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/loganszeto/recordkv/internal/config"
	"github.com/loganszeto/recordkv/internal/logger"
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
	cfg := config.Default().Server
	srv := server.New(cfg, store.NewMemTable(), stats.New(), logger.Discard())
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

func runCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.Reader = strings.NewReader(stdin)
	if err := app.Run(append([]string{"kv-cli"}, args...)); err != nil {
		t.Fatalf("kv-cli %v: %v", args, err)
	}
	return out.String()
}

func TestSetGet(t *testing.T) {
	addr := startServer(t)
	if got := runCLI(t, "", "--addr", addr, "set", "name", "john doe"); got != "Ok\n" {
		t.Fatalf("set output %q", got)
	}
	if got := runCLI(t, "", "--addr", addr, "get", "name"); got != "john doe\n" {
		t.Fatalf("get output %q", got)
	}
}

func TestExec(t *testing.T) {
	addr := startServer(t)
	if got := runCLI(t, "", "--addr", addr, "exec", "bogus"); got != "invalid command bogus\n" {
		t.Fatalf("exec output %q", got)
	}
}

func TestShell(t *testing.T) {
	addr := startServer(t)
	in := "set x 1\n\nget x\nquit\nget x\n"
	got := runCLI(t, in, "--addr", addr, "shell")
	want := "> Ok\n> > 1\n> "
	if got != want {
		t.Fatalf("shell output %q, want %q", got, want)
	}
}
