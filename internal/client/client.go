// Package client speaks the recordkv framing protocol over TCP.
package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/loganszeto/recordkv/internal/protocol"
)

// Client holds one connection. It is safe for concurrent use; requests are
// serialized since the protocol answers strictly in order.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		br:   bufio.NewReader(conn),
		bw:   bufio.NewWriter(conn),
	}, nil
}

// Do sends one raw command line and returns the response body.
func (c *Client) Do(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Only ctx ends a request, so a failure after cancellation reports ctx.Err.
	if err := c.conn.SetDeadline(time.Time{}); err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := protocol.WriteRequest(c.bw, line); err != nil {
		return "", err
	}
	if err := c.bw.Flush(); err != nil {
		return "", ctxErr(ctx, err)
	}
	body, err := protocol.ReadResponse(c.br)
	if err != nil {
		return "", ctxErr(ctx, err)
	}
	return body, nil
}

// Get returns the value under key; a missing key reads as "".
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.Do(ctx, "get "+protocol.Quote(key))
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	body, err := c.Do(ctx, "set "+protocol.Quote(key)+" "+protocol.Quote(value))
	if err != nil {
		return err
	}
	if body != "Ok" {
		return fmt.Errorf("set %s: %s", key, body)
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
