package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agroscan/agroscan-bot/config"
	telegram "github.com/agroscan/agroscan-bot/internal/api"
	"github.com/agroscan/agroscan-bot/internal/container"
)

func newBotCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Runs the Telegram bot",
		Long:  `Runs the Telegram bot together with a healthcheck endpoint`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), opts.cfg)
		},
	}
}

// sessionEvictionInterval checks a few times per TTL, at most once a minute.
func sessionEvictionInterval(idleTTL time.Duration) time.Duration {
	interval := idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}

func runBot(parent context.Context, cfg *config.Config) error {
	if cfg.TelegramToken == "" {
		return errors.New(config.EnvKeyTelegramToken + " is required")
	}

	/*
		Graceful shutdown: NotifyContext closes on SIGINT/SIGTERM and the
		errgroup context also closes when any goroutine errors out.
	*/
	ctx, done := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer done()
	g, gCtx := errgroup.WithContext(ctx)

	analyzer, err := newAnalyzer(gCtx, cfg)
	if err != nil {
		return err
	}

	appContainer := container.New(analyzer, cfg.AnalysisTimeout)

	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.DiagnosisService, cfg.MaxImageBytes)
	if err != nil {
		return err
	}

	healthchecker := telegram.NewHealthchecker(cfg.HealthcheckPort, appContainer.DiagnosisService)

	g.Go(func() error {
		defer log.Info("exiting bot")
		log.Info("Bot is running...")
		return bot.Run(gCtx)
	})

	// Drop chats that went quiet so their photos do not pile up in memory
	g.Go(func() error {
		defer log.Info("exiting session eviction")
		return appContainer.DiagnosisService.RunEviction(gCtx, cfg.SessionIdleTTL, sessionEvictionInterval(cfg.SessionIdleTTL))
	})

	// For deployed instances, provide a basic healthcheck endpoint to show it's online
	g.Go(func() error {
		if err := healthchecker.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// ...and shut down the server if the bot needs to terminate
	g.Go(func() error {
		<-gCtx.Done()
		defer log.Info("exiting healthchecker")
		return healthchecker.Server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Errorf("caught error: %v", err)
		return err
	}
	return nil
}
