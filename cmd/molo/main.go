// Command molo is the command-line client for the diary API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/molo/molo-go/internal/client"
	"github.com/molo/molo-go/internal/client/config"
	"github.com/molo/molo-go/internal/client/seal"
	"github.com/molo/molo-go/internal/client/tokenstore"
)

const usage = `usage: molo [--config FILE] [--server URL] <command> [flags]

commands:
  status                     show server and session state
  init                       set the diary password
  login                      log in and store a session token
  logout                     forget the session token
  list                       list entries, newest first
  show <id>                  print one entry
  write [flags]              create an entry (content from --file or stdin)
  edit <id> [flags]          replace an existing entry
  delete <id>                delete an entry
  export [--out FILE]        export all entries as HTML
`

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	buf    *bufio.Reader

	cfg    config.Config
	client *client.Client
	sealer *seal.Sealer
	// httpClient overrides the default transport in tests.
	httpClient *http.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	os.Exit(a.run(ctx, os.Args[1:]))
}

func (a *app) run(ctx context.Context, args []string) int {
	global := pflag.NewFlagSet("molo", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(a.errOut)
	configPath := global.String("config", config.DefaultPath(), "config file")
	server := global.String("server", "", "API base URL (overrides config)")
	tokenDB := global.String("token-db", "", "session database path (overrides config)")
	global.Usage = func() { fmt.Fprint(a.errOut, usage) }

	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	if *server != "" {
		cfg.Server = *server
	}
	if *tokenDB != "" {
		cfg.TokenDB = *tokenDB
	}
	a.cfg = cfg

	tokens, err := tokenstore.Open(ctx, cfg.TokenDB)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	defer tokens.Close()

	httpClient := a.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	a.client = client.New(cfg.Server, tokens, httpClient)

	cmd, rest := global.Arg(0), global.Args()[1:]
	commands := map[string]func(context.Context, []string) error{
		"status": a.cmdStatus,
		"init":   a.cmdInit,
		"login":  a.cmdLogin,
		"logout": a.cmdLogout,
		"list":   a.cmdList,
		"show":   a.cmdShow,
		"write":  a.cmdWrite,
		"edit":   a.cmdEdit,
		"delete": a.cmdDelete,
		"export": a.cmdExport,
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n\n", cmd)
		global.Usage()
		return 2
	}

	if err := fn(ctx, rest); err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	return 0
}
