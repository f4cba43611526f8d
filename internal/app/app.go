package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/sto/internal/cli"
	"github.com/vladislavdragonenkov/sto/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/sto/internal/health"
	"github.com/vladislavdragonenkov/sto/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/sto/internal/metrics"
	"github.com/vladislavdragonenkov/sto/internal/service/query"
	"github.com/vladislavdragonenkov/sto/internal/service/store"
	"github.com/vladislavdragonenkov/sto/internal/storage/jsonfile"
	"github.com/vladislavdragonenkov/sto/internal/storage/postgres"
	"github.com/vladislavdragonenkov/sto/internal/version"
)

// Config описывает настройки запуска приложения СТО.
type Config struct {
	// DataFile — путь к JSON-документу с данными (основной бэкенд).
	DataFile string
	// InvoiceDir — каталог для сохранения файлов счетов.
	InvoiceDir string
	// MetricsAddr включает HTTP-эндпоинт /metrics и /healthz, если непуст.
	MetricsAddr string
	// PostgresDSN переключает персистентность на PostgreSQL, если непуст.
	PostgresDSN string
	// KafkaBrokers включает публикацию событий жизненного цикла, если непуст.
	KafkaBrokers []string
}

// DefaultConfig возвращает базовую конфигурацию: JSON-файл рядом с программой,
// без метрик и Kafka.
func DefaultConfig() Config {
	return Config{
		DataFile:   "sto_data.json",
		InvoiceDir: ".",
	}
}

// Run собирает зависимости и крутит CLI до выхода пользователя или сигнала.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	repo, storageChecker, cleanup, err := buildRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	storeMetrics := metrics.NewStoreMetrics()

	var publisher domain.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			defer func() { _ = producer.Close() }()
			publisher = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	st, err := store.New(repo, publisher, storeMetrics, logger.WithField("component", "store"))
	if err != nil {
		return err
	}
	engine := query.NewEngine(st)

	if cfg.MetricsAddr != "" {
		healthHandler := healthcheck.NewHandler(version.GetVersion())
		healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", storageChecker))
		startMetricsServer(ctx, cfg.MetricsAddr, healthHandler, logger)
	}

	app := cli.New(st, engine, os.Stdin, os.Stdout, cfg.InvoiceDir, logger.WithField("component", "cli"))
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildRepository выбирает бэкенд персистентности по конфигурации.
func buildRepository(ctx context.Context, cfg Config, logger *log.Entry) (domain.SnapshotRepository, func() error, func(), error) {
	if cfg.PostgresDSN != "" {
		pgStore, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pgStore.MigrateUp(ctx, 0); err != nil {
			_ = pgStore.Close()
			return nil, nil, nil, err
		}
		logger.Info("используем PostgreSQL-бэкенд")
		checker := func() error { return pgStore.Ping(context.Background()) }
		cleanup := func() { _ = pgStore.Close() }
		return postgres.NewSnapshotRepository(pgStore), checker, cleanup, nil
	}

	repo := jsonfile.NewRepository(cfg.DataFile, logger.WithField("component", "jsonfile-repository"))
	logger.WithField("data_file", cfg.DataFile).Info("используем файловый бэкенд")
	return repo, repo.Ping, func() {}, nil
}

// startMetricsServer поднимает HTTP-сервер метрик и health-проверок
// и гасит его при отмене контекста.
func startMetricsServer(ctx context.Context, addr string, healthHandler http.Handler, logger *log.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.WithField("metrics_addr", addr).Info("metrics server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
