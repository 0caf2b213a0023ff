package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mcq-contest-service/internal/app"
	"mcq-contest-service/internal/auth"
	"mcq-contest-service/internal/config"
	"mcq-contest-service/internal/domain"
	"mcq-contest-service/internal/infra/memory"
	"mcq-contest-service/internal/infra/postgres"
	infraredis "mcq-contest-service/internal/infra/redis"
	"mcq-contest-service/internal/logger"
	"mcq-contest-service/internal/metrics"
	transport "mcq-contest-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultTokenTTL = 12 * time.Hour

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the contest server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type stores struct {
	contests app.ContestRepository
	attempts app.AttemptRepository
	users    app.UserDirectory
	close    func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File, MaxSizeMB: cfg.Log.MaxSizeMB})
	if err != nil {
		return err
	}
	defer log.Sync()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, defaultTokenTTL))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	board := app.NewLeaderboardService(st.contests, st.attempts, st.users, app.WithLogger(log))
	hub := app.NewLeaderboardHub(board, app.WithLogger(log))
	attempts := app.NewAttemptService(st.contests, st.attempts, app.WithLogger(log), app.WithNotifier(hub))
	contests := app.NewContestService(st.contests, st.attempts, board, app.WithLogger(log))

	api := transport.NewServer(transport.Deps{
		Contests:    contests,
		Attempts:    attempts,
		Leaderboard: board,
		Hub:         hub,
		Users:       st.users,
		Tokens:      tokens,
		Limiter:     transport.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Gatherer:    reg,
		Log:         log,
		Location:    loc,
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Handler(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		log.Info("starting contest service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStores picks the backing stores from config: Postgres when a URL is
// set, attempts in Redis when only Redis is set, memory otherwise. Redis,
// when present, also caches contest definitions.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	closeRedis := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	cacheTTL := config.TTLDuration(cfg.Contest.CacheTTL, time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			closeRedis()
			return stores{}, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			closeRedis()
			return stores{}, err
		}

		var contests app.ContestRepository = postgres.NewContestStore(pool)
		if redisClient != nil {
			contests = infraredis.NewContestCache(redisClient, contests, redisTTL)
		} else {
			contests = memory.NewContestCache(contests, cacheTTL)
		}
		log.Info("using postgres stores", zap.Bool("redis_cache", redisClient != nil))
		return stores{
			contests: contests,
			attempts: postgres.NewAttemptStore(pool),
			users:    postgres.NewUserDirectory(pool),
			close: func() {
				pool.Close()
				closeRedis()
			},
		}, nil
	}

	contests := memory.NewContestStore(sampleContests(time.Now())...)
	if redisClient != nil {
		log.Info("using redis attempt store with in-memory contests")
		return stores{
			contests: infraredis.NewContestCache(redisClient, contests, redisTTL),
			attempts: infraredis.NewAttemptStore(redisClient),
			users:    memory.NewUserDirectory(),
			close:    closeRedis,
		}, nil
	}

	log.Info("using in-memory stores")
	return stores{
		contests: contests,
		attempts: memory.NewAttemptStore(),
		users:    memory.NewUserDirectory(),
		close:    func() {},
	}, nil
}

// sampleContests seeds in-memory deployments with one contest that is open
// right away.
func sampleContests(now time.Time) []domain.Contest {
	start := now.Truncate(time.Minute)
	return []domain.Contest{
		{
			ID:              "warm-up",
			Name:            "Warm-up",
			StartsAt:        start,
			EndsAt:          start.Add(24 * time.Hour),
			DurationMinutes: 30,
			Active:          true,
			CreatedAt:       now,
			Questions: []domain.Question{
				{
					Type:    domain.SingleChoice,
					Prompt:  "What is 2 + 2?",
					Choices: []string{"3", "4", "5"},
					Answer:  "4",
					Points:  1,
				},
				{
					Type:    domain.MultiChoice,
					Prompt:  "Which of these are prime?",
					Choices: []string{"2", "3", "4", "9"},
					Answers: []string{"2", "3"},
					Points:  2,
				},
				{
					Type:   domain.FreeText,
					Prompt: "Name the chemical symbol for gold.",
					Answer: "Au",
					Points: 1,
				},
			},
		},
	}
}
