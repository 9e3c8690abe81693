package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/loganszeto/recordkv/internal/client"
)

// App builds the kv-cli application. Output goes to the app's Writer so tests
// can capture it.
func App() *cli.App {
	return &cli.App{
		Name:  "kv-cli",
		Usage: "talk to a recordkv server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "server address",
				EnvVars: []string{"RECORDKV_ADDR"},
				Value:   "127.0.0.1:8080",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-request timeout",
				Value: 5 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the value stored under KEY",
				ArgsUsage: "KEY",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.ShowSubcommandHelp(c)
					}
					return withClient(c, func(ctx context.Context, cl *client.Client) error {
						v, err := cl.Get(ctx, c.Args().First())
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, v)
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "store VALUE under KEY",
				ArgsUsage: "KEY VALUE",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return cli.ShowSubcommandHelp(c)
					}
					return withClient(c, func(ctx context.Context, cl *client.Client) error {
						if err := cl.Set(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, "Ok")
						return nil
					})
				},
			},
			{
				Name:      "exec",
				Usage:     "send a raw command line and print the result",
				ArgsUsage: "LINE...",
				Action: func(c *cli.Context) error {
					line := strings.Join(c.Args().Slice(), " ")
					return withClient(c, func(ctx context.Context, cl *client.Client) error {
						body, err := cl.Do(ctx, line)
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, body)
						return nil
					})
				},
			},
			{
				Name:  "shell",
				Usage: "interactive prompt; quit or exit leaves",
				Action: func(c *cli.Context) error {
					cl, err := client.Dial(c.Context, c.String("addr"))
					if err != nil {
						return fmt.Errorf("connect: %w", err)
					}
					defer cl.Close()
					return repl(c.Context, cl, c.App.Reader, c.App.Writer, c.Duration("timeout"))
				},
			},
		},
	}
}

func withClient(c *cli.Context, fn func(context.Context, *client.Client) error) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()
	cl, err := client.Dial(ctx, c.String("addr"))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer cl.Close()
	return fn(ctx, cl)
}

// repl reads command lines from in and prints each result to out. Lines are
// sent as typed, so quoting follows the server's rules.
func repl(ctx context.Context, cl *client.Client, in io.Reader, out io.Writer, timeout time.Duration) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return nil
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		body, err := cl.Do(reqCtx, line)
		cancel()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, body)
	}
}
