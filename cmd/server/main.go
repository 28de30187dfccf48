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

	"modelguard/internal/alert"
	conformalports "modelguard/internal/conformal/ports"
	conformalservice "modelguard/internal/conformal/service"
	conformalstore "modelguard/internal/conformal/store"
	"modelguard/internal/deploy"
	deployports "modelguard/internal/deploy/ports"
	deploystore "modelguard/internal/deploy/store"
	driftservice "modelguard/internal/drift/service"
	historyports "modelguard/internal/history/ports"
	"modelguard/internal/history/refresher"
	historystore "modelguard/internal/history/store"
	"modelguard/internal/jobs"
	jobports "modelguard/internal/jobs/ports"
	"modelguard/internal/platform/config"
	"modelguard/internal/platform/httpserver"
	"modelguard/internal/platform/logger"
	"modelguard/internal/platform/metrics"
	"modelguard/internal/platform/postgres"
	redisplatform "modelguard/internal/platform/redis"
	"modelguard/internal/retrain"
	"modelguard/internal/scheduler"
	httptransport "modelguard/internal/transport/http"
	"modelguard/pkg/domain"
)

// main wires the pipeline: storage backends degrade to in-memory when their
// backing service is not configured, so a bare `go run` serves predictions
// locally. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	// Calibration cache: Redis when configured, else process-local.
	var calibration conformalports.CalibrationStore
	if redisClient != nil {
		calibration = conformalstore.NewRedis(redisClient.Client)
	} else {
		calibration = conformalstore.NewInMemory(conformalstore.WithLogger(log))
	}

	// History readers: the Postgres tables are populated by external
	// writers; without them the pipeline idles on empty windows.
	var predictionLog historyports.PredictionLogReader
	var snapshots historyports.SnapshotReader
	if db != nil {
		predictionLog = historystore.NewPostgresLog(db)
		snapshots = historystore.NewPostgresSnapshots(db)
	} else {
		log.Warn("no postgres configured, history reads are empty")
		predictionLog = historystore.NewInMemoryLog()
		snapshots = historystore.NewInMemorySnapshots()
	}

	var activations deployports.ActivationStore
	if db != nil {
		activations = deploystore.NewPostgres(db)
	} else {
		activations = deploystore.NewInMemory()
	}

	var sink alert.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := alert.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic,
			alert.WithKafkaLogger(log))
		if err != nil {
			log.Error("kafka producer setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		log.Warn("no kafka brokers configured, drift alerts stay in process")
		sink = alert.NewInMemorySink()
	}

	var registry jobports.JobRegistry
	if redisClient != nil {
		registry = jobs.NewRedisRegistry(redisClient.Client, jobs.DefaultJobTTL)
	} else {
		registry = jobs.NewInMemoryRegistry()
	}
	invoker := jobs.NewLoggingInvoker(log)

	predictor, err := conformalservice.New(calibration,
		conformalservice.WithLogger(log), conformalservice.WithMetrics(m))
	if err != nil {
		log.Error("conformal service setup failed", "error", err)
		os.Exit(1)
	}

	drift, err := driftservice.New(predictionLog, snapshots, sink,
		driftservice.WithLogger(log), driftservice.WithMetrics(m))
	if err != nil {
		log.Error("drift service setup failed", "error", err)
		os.Exit(1)
	}

	deployer, err := deploy.NewService(activations, predictionLog,
		deploy.WithLogger(log), deploy.WithMetrics(m))
	if err != nil {
		log.Error("deploy service setup failed", "error", err)
		os.Exit(1)
	}

	monitor, err := deploy.NewMonitor(activations, predictionLog,
		deploy.WithMonitorLogger(log), deploy.WithMonitorMetrics(m))
	if err != nil {
		log.Error("rollback monitor setup failed", "error", err)
		os.Exit(1)
	}

	refresh, err := refresher.New(predictionLog, calibration, refresher.WithLogger(log))
	if err != nil {
		log.Error("calibration refresher setup failed", "error", err)
		os.Exit(1)
	}

	retrainCfg := retrain.DefaultConfig()
	retrainCfg.AutoRetrainEnabled = cfg.Pipeline.AutoRetrainEnabled
	evaluator, err := retrain.New(deployer, historystore.NewSampleCounter(predictionLog), registry, invoker,
		retrain.WithConfig(retrainCfg), retrain.WithLogger(log), retrain.WithMetrics(m))
	if err != nil {
		log.Error("safeguard evaluator setup failed", "error", err)
		os.Exit(1)
	}

	watched := parseWatchedModels(cfg.Pipeline.WatchedModels, log)

	handler := httptransport.New(predictor, drift, deployer, log)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(watched) > 0 {
		sched, err := scheduler.New(watched, refresh, drift, evaluator, monitor,
			scheduler.WithLogger(log), scheduler.WithInterval(cfg.Server.EvaluatorInterval))
		if err != nil {
			log.Error("scheduler setup failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("scheduler stopped", "error", err)
			}
		}()
	} else {
		log.Warn("no watched models configured, evaluator passes disabled")
	}

	go func() {
		log.Info("modelguard listening", "addr", cfg.Server.Addr,
			"auto_retrain", cfg.Pipeline.AutoRetrainEnabled,
			"watched_models", len(watched))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}

func parseWatchedModels(specs []string, log *slog.Logger) []domain.ModelID {
	out := make([]domain.ModelID, 0, len(specs))
	for _, spec := range specs {
		id, err := domain.ParseModelID(spec)
		if err != nil {
			log.Warn("skipping invalid watched model", "model", spec, "error", err)
			continue
		}
		out = append(out, id)
	}
	return out
}
