package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/intenus/preranker/internal/config"
	"github.com/intenus/preranker/internal/ingest"
	"github.com/intenus/preranker/internal/server"
	"github.com/intenus/preranker/pkg/blob"
	"github.com/intenus/preranker/pkg/broadcast"
	"github.com/intenus/preranker/pkg/dispatch"
	"github.com/intenus/preranker/pkg/ledger"
	"github.com/intenus/preranker/pkg/poller"
	"github.com/intenus/preranker/pkg/preranking"
	"github.com/intenus/preranker/pkg/repository"
	"github.com/intenus/preranker/pkg/repository/mongodb"
	"github.com/intenus/preranker/pkg/results"
	"github.com/intenus/preranker/pkg/state"
	"github.com/syndtr/goleveldb/leveldb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Intent and solution events are emitted by different move modules of the
// intent package, so each stream polls its own fully-qualified event type.
const (
	intentEventSuffix   = "::intents::IntentSubmitted"
	solutionEventSuffix = "::solutions::SolutionSubmitted"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := buildLogger(cfg)
	defer logger.Sync()

	shutdownOrchestrator := broadcast.NewErrorWaitChannel()

	// The cursor store and the result cache share one LevelDB handle.
	db, err := leveldb.OpenFile(cfg.State.Path, nil)
	if err != nil {
		logger.Fatal("Failed to open state database", zap.Error(err))
	}
	defer db.Close()

	stateStore := state.NewLevelDBStoreWithDB(db)
	resultStore := results.NewLevelDBStoreWithDB(db, cfg.Results.TTL.Duration())

	mongoDb := connectMongo(cfg, logger)
	repo := buildRepository(logger.With(zap.String("module", "repository")), mongoDb)

	ledgerClient := ledger.NewRPCClient(logger.With(zap.String("module", "ledger")), cfg.Ledger.RpcUrl)

	blobStore := blob.NewHTTPStore(
		logger.With(zap.String("module", "blob")),
		cfg.Blob.Endpoint,
		cfg.Blob.RequestTimeout.Duration(),
	)
	resolver := blob.NewResolver(logger.With(zap.String("module", "blob")), blobStore)

	validator := preranking.NewValidator(logger.With(zap.String("module", "preranking")))
	engine := preranking.NewEngine(logger, validator, ledgerClient)

	pipeline := ingest.NewPipeline(logger, resolver, engine, resultStore, repo.Solutions())

	dispatcher := dispatch.NewDispatcher(logger.With(zap.String("module", "dispatch")))
	pipeline.Register(dispatcher)

	eventPoller := poller.NewPoller(
		logger,
		ledgerClient,
		dispatcher,
		stateStore,
		[]poller.Stream{
			{
				Name:  "intents",
				Query: ledger.ByEventType(cfg.Ledger.IntentPackageId + intentEventSuffix),
			},
			{
				Name:  "solutions",
				Query: ledger.ByEventType(cfg.Ledger.IntentPackageId + solutionEventSuffix),
			},
		},
		cfg.Ledger.PollInterval.Duration(),
		cfg.Ledger.PageLimit,
		cfg.Ledger.MaxPagesPerCycle,
	)
	if cfg.Ledger.AutoStart {
		eventPoller.Start()
	}

	sweeper := results.NewSweeper(
		logger.With(zap.String("module", "sweeper")),
		resultStore,
		cfg.Results.SweepInterval.Duration(),
	)
	go sweeper.StartLoop(shutdownOrchestrator.Subscribe())

	httpServer := server.NewServer(
		cfg,
		logger.With(zap.String("module", "server")),
		repo,
		resultStore,
		stateStore,
		eventPoller,
	)

	go func() {
		if err := httpServer.Run(); err != nil {
			logger.Fatal("Failed to run HTTP server", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-stop

	// Shutdown gracefully
	logger.Info("Received shutdown signal!")

	if err := eventPoller.Stop(); err != nil {
		logger.Error("Failed to shutdown event poller", zap.Error(err))
	} else {
		logger.Info("Event poller shutdown successfully")
	}

	if err := shutdownOrchestrator.Await(time.Second * 15); err != nil {
		logger.Error("Failed to shutdown background workers", zap.Error(err))
	} else {
		logger.Info("Background workers shutdown successfully")
	}
}

func buildLogger(cfg config.Config) *zap.Logger {
	var logCfg zap.Config
	if cfg.Production {
		logCfg = zap.NewProductionConfig()

		if cfg.PrettyLogs {
			logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			logCfg.Encoding = "console"
		}
	} else {
		logCfg = zap.NewDevelopmentConfig()
		logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "error":
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	case "warn":
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "info":
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "debug":
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	default:
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := logCfg.Build()
	if err != nil {
		panic(err)
	}

	return logger
}

func connectMongo(cfg config.Config, logger *zap.Logger) *mongo.Database {
	opts := options.Client().
		ApplyURI(cfg.MongoDB.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}

	// Ping server
	if err := client.Ping(context.Background(), nil); err != nil {
		logger.Fatal("failed to ping MongoDB server", zap.Error(err))
	}

	return client.Database(cfg.MongoDB.DatabaseName)
}

func buildRepository(logger *zap.Logger, db *mongo.Database) repository.Repository {
	repo := mongodb.NewMongoRepository(logger, db)
	if err := repo.InitSchema(context.Background()); err != nil {
		logger.Fatal("failed to initialize MongoDB schema", zap.Error(err))
	}

	return repo
}
