package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"ethics-review-service/internal/audit"
	"ethics-review-service/internal/common/config"
	"ethics-review-service/internal/common/database"
	"ethics-review-service/internal/common/logger"
	"ethics-review-service/internal/common/observability"
	"ethics-review-service/internal/models"
	"ethics-review-service/internal/notify"
	"ethics-review-service/internal/server"
	"ethics-review-service/internal/storage"
	"ethics-review-service/internal/workflow"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting review service",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.Server.Port),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Postgres ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "postgres initialization")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis client init failed", zap.Error(err))
	}
	defer rdb.Close()
	if pingErr := rdb.Ping(ctx); pingErr != nil {
		// Committee lookups degrade to direct database reads.
		zapLog.Warn("redis unavailable, committee cache disabled", zap.Error(pingErr))
	}

	// --- Elasticsearch (optional audit mirror) ---
	var indexer *audit.Indexer
	if cfg.Database.Elasticsearch.Enabled {
		es, esErr := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if esErr != nil {
			zapLog.Warn("elasticsearch init failed, audit mirror disabled", zap.Error(esErr))
		} else {
			indexer = audit.NewIndexer(es.Client, cfg.Audit.Index)
		}
	}

	// --- Stores ---
	appStore := storage.NewApplicationStore(pg.GetDB(), log)
	transitionStore := storage.NewTransitionStore(pg.GetDB())
	committeeStore := storage.NewCommitteeStore(pg.GetDB(), rdb.GetClient(), cfg.Workflow.CommitteeCacheTTL, log)
	directory := storage.NewDirectory(appStore, committeeStore)

	recorder := audit.NewRecorder(transitionStore, indexer, log)

	// --- Notifications ---
	var sesClient notify.SESService
	var snsClient notify.SNSService
	if cfg.Integrations.AWS.SES.Enabled {
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Integrations.AWS.Region))
		if awsErr != nil {
			zapLog.Fatal("aws config load failed", zap.Error(awsErr))
		}
		sesClient = ses.NewFromConfig(awsCfg)
		if cfg.Integrations.AWS.SNS.Enabled {
			snsClient = sns.NewFromConfig(awsCfg)
		}
	} else {
		sesClient = notify.NopSES{}
		zapLog.Warn("SES disabled, notifications will be logged only")
	}
	dispatcher := notify.NewEmailDispatcher(
		cfg.Notifications,
		cfg.Integrations.AWS.SNS,
		cfg.Integrations.AWS.SES.FromEmail,
		sesClient,
		snsClient,
		directory,
		log,
	)
	defer dispatcher.Close()

	// --- Engine ---
	table := workflow.DefaultTable()
	for action, roles := range cfg.Workflow.RoleOverrides {
		override := make([]models.Role, 0, len(roles))
		for _, role := range roles {
			override = append(override, models.Role(role))
		}
		table.OverrideRoles(models.Action(action), override)
	}

	engine := workflow.NewEngine(
		table,
		appStore,
		recorder,
		workflow.NewRouter(committeeStore),
		dispatcher,
		log,
		workflow.WithPaymentRequired(cfg.Workflow.RequirePaymentBeforeForward),
		workflow.WithObservability(obs),
	)

	// --- HTTP server ---
	srvHandler := server.New(
		engine,
		appStore,
		recorder,
		cfg.Workflow.ActionTimeout,
		log,
		server.WithHealthCheck("postgres", pg.Ping),
		server.WithHealthCheck("redis", rdb.Ping),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srvHandler.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLog.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
}
