package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
	"github.com/spf13/cobra"

	v1 "github.com/daylog-io/daylog/internal/api/v1"
	"github.com/daylog-io/daylog/internal/config"
	"github.com/daylog-io/daylog/internal/ingest"
	"github.com/daylog-io/daylog/internal/messenger"
	daylogslack "github.com/daylog-io/daylog/internal/messenger/slack"
	"github.com/daylog-io/daylog/internal/messenger/telegram"
	"github.com/daylog-io/daylog/internal/oracle"
	"github.com/daylog-io/daylog/internal/review"
	"github.com/daylog-io/daylog/internal/server"
	"github.com/daylog-io/daylog/internal/source/github"
	"github.com/daylog-io/daylog/internal/stats"
	"github.com/daylog-io/daylog/internal/store/postgres"
	redisstore "github.com/daylog-io/daylog/internal/store/redis"
	"github.com/daylog-io/daylog/internal/syncer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daylog server: API, sync scheduler, and chat listener",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	initLogging()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Redis is optional: without it entries still flow, but cross-restart
	// dedup and the live feed are gone.
	var pubsub *redisstore.Client
	if cfg.Redis.Addr != "" {
		pubsub, err = redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
	} else {
		log.Warn().Msg("DAYLOG_REDIS_ADDR not set; dedup index and live feed disabled")
	}

	// Text oracle: OpenAI when configured, regex fallback otherwise.
	var oracleClient oracle.Client
	if cfg.Oracle.APIKey != "" {
		var opts []oracle.Option
		if cfg.Oracle.BaseURL != "" {
			opts = append(opts, oracle.WithBaseURL(cfg.Oracle.BaseURL))
		}
		opts = append(opts, oracle.WithTimeout(cfg.Oracle.Timeout))
		oracleClient = oracle.NewOpenAI(cfg.Oracle.APIKey, cfg.Oracle.Model, opts...)
	} else {
		log.Warn().Msg("DAYLOG_OPENAI_API_KEY not set; entries use regex normalization only")
		oracleClient = &oracle.Stub{Err: oracle.ErrDisabled}
	}

	// Ingestion pipeline shared by every input channel.
	normalizer := ingest.NewNormalizer(oracleClient)
	var dedup ingest.DedupIndex
	var feed ingest.FeedPublisher
	if pubsub != nil {
		dedup = pubsub
		feed = pubsub
	}
	pipeline := ingest.NewPipeline(store.Logs(), dedup, feed)

	aggregator := stats.NewAggregator(store.Logs())
	reviewer := review.NewReviewer(store.Logs(), oracleClient)

	// Messengers for bot traffic and review delivery.
	registry := messenger.NewRegistry()
	var botAPI *telegram.Client
	if cfg.TelegramEnabled() {
		botAPI = telegram.NewClient(cfg.Telegram.BotToken)
		registry.Register(telegram.NewMessenger(botAPI))
	}
	if cfg.Slack.BotToken != "" {
		registry.Register(daylogslack.NewMessenger(slacklib.New(cfg.Slack.BotToken)))
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Background jobs: GitHub sync and the daily review.
	sched := syncer.NewScheduler()

	var syncTrigger v1.SyncTrigger
	if cfg.GitHubEnabled() {
		ghClient := github.NewClient(cfg.GitHub.Token)
		connector := github.NewConnector(ghClient, cfg.GitHub.Username, cfg.GitHub.Repos, cfg.GitHub.PageSize)
		coordinator := syncer.NewCoordinator(normalizer, pipeline, cfg.GitHub.Lookback)
		syncTrigger = func(tctx context.Context) syncer.CycleResult {
			return coordinator.RunCycle(tctx, connector)
		}

		sched.Every(ctx, "github-sync", cfg.GitHub.SyncInterval, true, func(jobCtx context.Context) {
			coordinator.RunCycle(jobCtx, connector)
		})
	} else {
		log.Warn().Msg("GitHub sync disabled; set DAYLOG_GITHUB_TOKEN and DAYLOG_GITHUB_USERNAME")
	}

	if cfg.Review.Enabled {
		targets := reviewTargets(cfg)
		if len(targets) == 0 {
			log.Warn().Msg("daily review enabled but no review chat configured")
		} else {
			hour, minute, _ := config.ParseTimeOfDay(cfg.Review.At)
			sched.DailyAt(ctx, "daily-review", hour, minute, func(jobCtx context.Context) {
				if reviewErr := reviewer.Deliver(jobCtx, registry, targets); reviewErr != nil {
					log.Error().Err(reviewErr).Msg("daily review failed")
				}
			})
		}
	}

	// Telegram listener.
	if botAPI != nil {
		bot := telegram.NewBot(botAPI, normalizer, pipeline, aggregator, reviewer, cfg.Telegram.ReviewChatID)
		bot.SetPollTimeout(cfg.Telegram.PollTimeout)
		go bot.Run(ctx)
	} else {
		log.Warn().Msg("Telegram listener disabled; set DAYLOG_TELEGRAM_TOKEN")
	}

	// HTTP server.
	srv := server.New(ctx, cfg, server.Deps{
		Store:      store,
		PubSub:     pubsub,
		Normalizer: normalizer,
		Pipeline:   pipeline,
		Stats:      aggregator,
		Reviewer:   reviewer,
		Sync:       syncTrigger,
	})

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	sched.Wait()
	return nil
}

// reviewTargets collects the configured review destinations.
func reviewTargets(cfg *config.Config) []review.Target {
	var targets []review.Target
	if cfg.TelegramEnabled() && cfg.Telegram.ReviewChatID != "" {
		targets = append(targets, review.Target{Platform: "telegram", ChannelID: cfg.Telegram.ReviewChatID})
	}
	if cfg.Slack.BotToken != "" && cfg.Slack.ReviewChannel != "" {
		targets = append(targets, review.Target{Platform: "slack", ChannelID: cfg.Slack.ReviewChannel})
	}
	return targets
}

// initLogging configures zerolog from environment.
func initLogging() {
	level, parseErr := zerolog.ParseLevel(os.Getenv("DAYLOG_LOG_LEVEL"))
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("DAYLOG_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
