package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feudlive/internal/cache"
	"feudlive/internal/config"
	"feudlive/internal/logging"
	"feudlive/internal/metrics"
	"feudlive/internal/repository"
	"feudlive/internal/service"
	"feudlive/internal/store"
	"feudlive/internal/transport/rest"
	"feudlive/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logging.Error(logger, "server exited", err)
		os.Exit(1)
	}
	logging.Info(logger, "server exited")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Question sources: bundled YAML files, MongoDB first when configured
	fileSource := repository.NewFileSource(cfg.QuestionDir)
	questions := repository.ChainSource{fileSource}
	var results repository.ResultRepo

	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(dctx)
		}()

		// Ping MongoDB
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			return err
		}
		logging.Info(logger, "connected to mongodb", "database", cfg.MongoDatabase)

		db := mongoClient.Database(cfg.MongoDatabase)
		questions = repository.ChainSource{repository.NewQuestionRepo(db), fileSource}
		results = repository.NewResultRepo(db)
	} else {
		logging.Warn(logger, "MONGO_URI not set, serving question files only and not archiving results")
	}

	var codes cache.CodeCache
	var scoreboard cache.ScoreboardCache
	if cfg.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr(),
		})
		defer rdb.Close()

		// Ping Redis
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return err
		}
		logging.Info(logger, "connected to redis", "addr", cfg.RedisAddr())

		codes = cache.NewCodeCache(rdb, cfg.SessionTTL)
		scoreboard = cache.NewScoreboardCache(rdb, cfg.SessionTTL)
	} else {
		logging.Warn(logger, "REDIS_URI not set, session codes are only unique on this instance")
	}

	recorder := metrics.NewRecorder()
	st := store.New(store.WithMaxPlayers(cfg.MaxPlayers))
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)

	opts := []service.Option{
		service.WithAuth(authSvc),
		service.WithLogger(logger),
		service.WithMetrics(recorder),
		service.WithMaxPerTeam(cfg.MaxPerTeam()),
		service.WithTiming(service.Timing{
			RevealDelay:           cfg.RevealDelay,
			LightningAdvanceDelay: cfg.LightningAdvanceDelay,
			RestartDelay:          cfg.RestartDelay,
		}),
	}
	if results != nil {
		opts = append(opts, service.WithResults(results))
	}
	if scoreboard != nil {
		opts = append(opts, service.WithScoreboard(scoreboard))
	}
	games := service.NewGameService(st, opts...)

	// Inject broadcaster (hub implements service.Broadcaster)
	hub := ws.NewHub(logger, recorder)
	defer hub.Close()
	games.SetBroadcaster(hub)

	sessions := service.NewSessionService(games, questions, codes, scoreboard, authSvc, logger)
	sweeper := service.NewSweeper(st, sessions, hub, logger, recorder, cfg.SweepInterval, cfg.SessionTTL)

	router := rest.NewRouter(&rest.Container{
		Sessions: sessions,
		Games:    games,
		Auth:     authSvc,
		Results:  results,
		Hub:      hub,
		Metrics:  recorder,
		Logger:   logger,
		Origins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info(logger, "server starting", "addr", srv.Addr, "owner", sessions.Owner())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweeper.Start(gctx)
		<-gctx.Done()
		sweeper.Stop()

		logging.Info(logger, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
