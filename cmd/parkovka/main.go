package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"parkovka/internal/config"
	"parkovka/internal/domain"
	"parkovka/internal/events"
	"parkovka/internal/export"
	"parkovka/internal/logging"
	"parkovka/internal/metrics"
	"parkovka/internal/models"
	"parkovka/internal/notify"
	"parkovka/internal/relocation"
	"parkovka/internal/repository"
	"parkovka/internal/store"
	"parkovka/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := logging.Component(baseLogger, "main")

	metrics.Register()

	db, err := store.New(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	holds := initHolds(ctx, cfg, &logger)

	eventBus := events.NewEventBus()
	subscribeEvents(eventBus, &logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.Booking.NotifyRatePerSecond), cfg.Booking.NotifyBurst)
	notifier := notify.New(db, eventBus, limiter, &logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	workflow := relocation.NewWorkflow(db, db, holds, notifier, eventBus, cfg.Floors, cfg.Operators, rng, &logger)

	detector := worker.NewDetector(db, workflow, notifier,
		time.Duration(cfg.Booking.DetectorIntervalSeconds)*time.Second,
		worker.RetryPolicy{}, &logger)
	detector.Start(ctx)

	exporter := export.New(db, db, cfg.Exports.Path)
	go serveOps(ctx, cfg, db, detector, exporter, &logger)

	logger.Info().Str("env", cfg.App.Environment).Msg("parkovka core started")
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	return nil
}

func initHolds(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.HoldRepository {
	memory := repository.NewMemoryHoldRepository()
	if cfg.Redis.Address == "" {
		logger.Warn().Msg("redis not configured, slot holds are in-memory only")
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, slot holds start on memory fallback")
	}
	return repository.NewFailoverHoldRepository(repository.NewRedisHoldRepository(client), memory, logger)
}

func subscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	logEvent := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("domain event")
		return nil
	}
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingCancelled,
		events.EventBookingRelocated,
		events.EventRelocationOffered,
		events.EventRelocationBlocked,
		events.EventCouponIssued,
		events.EventFinePaid,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}

// serveOps exposes the operational surface only: health, metrics and two
// operator actions. The reservation core itself is a library, callers
// link it directly.
func serveOps(ctx context.Context, cfg *config.Config, db *store.Store, detector *worker.Detector, exporter *export.Exporter, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	// Operator reports a physically unusable slot; every active booking
	// on it gets a relocation incident.
	mux.HandleFunc("/ops/slot-unusable", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ref := models.SlotRef{Floor: r.URL.Query().Get("floor"), SlotID: r.URL.Query().Get("slot")}
		if ref.Floor == "" || ref.SlotID == "" {
			http.Error(w, "floor and slot are required", http.StatusBadRequest)
			return
		}
		if err := detector.ReportUnusable(r.Context(), ref); err != nil {
			logger.Error().Err(err).Msg("report unusable failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	mux.HandleFunc("/ops/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		start, err1 := time.Parse("2006-01-02", r.URL.Query().Get("start"))
		end, err2 := time.Parse("2006-01-02", r.URL.Query().Get("end"))
		if err1 != nil || err2 != nil {
			http.Error(w, "start and end must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		path, err := exporter.Export(r.Context(), start, end)
		if err != nil {
			logger.Error().Err(err).Msg("export failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(path))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Monitoring.HealthCheckPort),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("ops server error")
	}
}
