package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/amirasaad/payconsole/infra/cache"
	"github.com/amirasaad/payconsole/pkg/apiclient"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/pkg/query"
	"github.com/amirasaad/payconsole/pkg/service"
	"github.com/amirasaad/payconsole/pkg/service/admin"
	"github.com/amirasaad/payconsole/pkg/service/wallet"
	"github.com/amirasaad/payconsole/pkg/ui/confirm"
	"github.com/amirasaad/payconsole/pkg/ui/notify"
	log "github.com/charmbracelet/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.LoadBackend()
	if err != nil {
		fmt.Fprintln(stderr, "Failed to load backend configuration:", err)
		return exitFailure
	}
	token := cfg.Token
	if token == "" {
		if token, err = promptToken(os.Stdin, stderr); err != nil {
			fmt.Fprintln(stderr, "Failed to read token:", err)
			return exitFailure
		}
	}

	logger := slog.New(log.NewWithOptions(stderr, log.Options{
		Level:  log.WarnLevel,
		Prefix: "payconsole",
	}))
	client, err := apiclient.New(
		apiclient.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout, UserAgent: cfg.UserAgent},
		apiclient.WithTokenSource(apiclient.StaticToken(token)),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Invalid backend configuration:", err)
		return exitFailure
	}
	store := cache.NewMemoryCache()
	defer store.Close()

	deps := service.Deps{
		Client: client,
		Cache:  query.New(store, query.WithLogger(logger)),
		Logger: logger,
		Stale:  service.DefaultStaleTimes(),
	}
	cli := &CLI{
		Admin:     admin.New(deps),
		Wallet:    wallet.New(deps),
		Out:       stdout,
		Notifier:  notify.NewConsole(stderr),
		Confirmer: confirm.NewTerminal(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cli.Run(ctx, args)
}
