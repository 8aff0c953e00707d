package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/cinehub/cinehub/internal/api"
	"github.com/cinehub/cinehub/internal/cache"
	"github.com/cinehub/cinehub/internal/cli"
	"github.com/cinehub/cinehub/internal/config"
	"github.com/cinehub/cinehub/internal/domain"
	"github.com/cinehub/cinehub/internal/log"
	"github.com/cinehub/cinehub/internal/service"
	"github.com/cinehub/cinehub/internal/session"
	"github.com/cinehub/cinehub/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

// initTimeout bounds the startup profile refresh
const initTimeout = 20 * time.Second

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, cli.Usage())
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("cinehub %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render(err.Error()))
			fmt.Fprint(os.Stderr, cli.Usage())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", cli.ErrUsage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting cinehub", "version", Version, "server", cfg.Server.URL, "command", args[0])

	if args[0] == "config" {
		return cli.ConfigCommand(cfg, args[1:], os.Stdout, config.SaveConfig)
	}

	tokens, err := store.NewSessionStore(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer tokens.Close()

	client := api.NewClient(cfg.APIBaseURL(), cfg.Server.Timeout, logger)
	refresher := api.NewRefresher(client, tokens, logger)
	do := refresher.Wrap(client.Do)

	responses := cache.New(cfg.Cache.Timeout)
	movies := service.NewMovieService(do, responses, logger)
	lists := service.NewListService(movies, logger)

	ctrl := session.NewController(session.Deps{
		Client:    client,
		Refresher: refresher,
		Tokens:    tokens,
		Auth:      service.NewAuthService(do, logger),
		Cache:     responses,
		Lists:     lists,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()
	select {
	case <-ctrl.Init(initCtx):
	case <-ctx.Done():
		return ctx.Err()
	}

	if s := ctrl.Session(); s.Status == domain.StatusAuthenticated {
		logger.Debug("session restored", "user_id", s.User.ID)
	}

	app := cli.NewApp(ctrl, movies, lists, cli.NewPrompter(os.Stdin, os.Stdout), os.Stdout, logger)
	if err := app.Run(ctx, args); err != nil {
		logger.Error("command failed", "command", args[0], "error", err)
		return err
	}

	logger.Info("shutting down")
	return nil
}
