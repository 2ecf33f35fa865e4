package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"feudlive/internal/config"
	"feudlive/internal/logging"
	"feudlive/internal/repository"
	"feudlive/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seed loads every YAML question set in a directory into MongoDB
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	dir := flag.String("dir", cfg.QuestionDir, "directory of question set YAML files")
	flag.Parse()

	if cfg.MongoURI == "" {
		logging.Error(logger, "MONGO_URI is required", nil)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Error(logger, "connect to mongodb", err)
		os.Exit(1)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewQuestionRepo(client.Database(cfg.MongoDatabase))

	paths, err := filepath.Glob(filepath.Join(*dir, "*.yaml"))
	if err != nil {
		logging.Error(logger, "list question files", err)
		os.Exit(1)
	}

	failed := 0
	for _, path := range paths {
		set, err := repository.LoadSetFile(path)
		if err == nil {
			err = service.ValidateQuestions(set.Questions, set.TossUp)
		}
		if err == nil {
			err = repo.SaveSet(ctx, set)
		}
		if err != nil {
			logging.Error(logger, "seed question set failed", err, logging.FieldPath, path)
			failed++
			continue
		}
		logging.Info(logger, "seeded question set", "set", set.ID, logging.FieldCount, len(set.Questions))
	}

	if failed > 0 {
		os.Exit(1)
	}
	logging.Info(logger, "seed complete", logging.FieldCount, len(paths))
}
