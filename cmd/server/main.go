package main

import (
	"context"
	"database/sql"
	"delivery-dispatch-service/internal/adapters/events"
	"delivery-dispatch-service/internal/adapters/locks"
	"delivery-dispatch-service/internal/adapters/memory"
	"delivery-dispatch-service/internal/adapters/metrics"
	"delivery-dispatch-service/internal/adapters/repositories"
	"delivery-dispatch-service/internal/adapters/seed"
	"delivery-dispatch-service/internal/api"
	"delivery-dispatch-service/internal/config"
	"delivery-dispatch-service/internal/platform/db"
	"delivery-dispatch-service/internal/platform/logging"
	"delivery-dispatch-service/internal/ports"
	"delivery-dispatch-service/internal/services"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// stores bundles the store ports of one backend.
type stores struct {
	routes ports.RouteRepository
	zones  ports.ZoneRepository
	staff  ports.StaffRepository
	shops  ports.ShopRepository
	tx     ports.Transactor
}

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, Redis, brokers) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	log, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		logrus.Fatal(err)
	}
	if envErr != nil {
		log.Info("No .env file found (using environment variables)")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
	log.Info("server stopped")
}

// run owns every resource it opens and closes them all before returning,
// so main exits only after cleanup.
func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.WithError(err).Warn("close failed")
			}
		}
	}()

	st, closer, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	locker, closer, err := newZoneLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	publisher, closer, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	dispatchMetrics := metrics.NewPrometheus(reg, cfg.MetricsNamespace)

	lifecycle := services.NewRouteLifecycle(st.routes, st.tx, publisher, dispatchMetrics)
	lifecycle.Log = log

	filter := services.NewEligibilityFilter(st.routes, st.shops, cfg.DailyDistanceCeilingKm)
	filter.Log = log

	scorer := services.NewScorer(services.ScoringConfig{
		JitterMax:          cfg.ScoreJitterMax,
		RejectionWindow:    cfg.RejectionWindow,
		FamiliarityRecency: cfg.FamiliarityRecency,
	}, nil)

	assigner := &services.Assigner{
		Routes:      st.routes,
		Zones:       st.zones,
		Staff:       st.staff,
		Shops:       st.shops,
		Tx:          st.tx,
		Locker:      locker,
		Lifecycle:   lifecycle,
		Eligibility: filter,
		Scorer:      scorer,
		Metrics:     dispatchMetrics,
		Log:         log,
		Now:         time.Now,
	}

	planner := services.NewRoutePlanner(st.routes, st.shops)
	planner.Log = log

	router := api.NewRouter(api.Deps{
		Lifecycle: lifecycle,
		Assigner:  assigner,
		Planner:   planner,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:       log,
	})

	// A batch run over many routes can take a while; keep the write timeout generous.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":   cfg.HTTPAddr,
		"store":  cfg.StoreBackend,
		"locks":  cfg.ZoneLockBackend,
		"broker": cfg.EventBroker,
	}).Info("Server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", cfg.HTTPAddr, err)
	}
	return nil
}

func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (stores, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		mem := memory.NewDB()
		if cfg.SeedPath != "" {
			ds, err := seed.Load(cfg.SeedPath)
			if err != nil {
				return stores{}, nil, fmt.Errorf("open stores: %w", err)
			}
			memory.Load(mem, ds, time.Now())
			log.WithFields(logrus.Fields{
				"shops":  len(ds.Shops),
				"staff":  len(ds.Staff),
				"zones":  len(ds.Zones),
				"routes": len(ds.Routes),
			}).Info("memory store seeded")
		}
		return stores{
			routes: memory.NewRouteRepository(mem),
			zones:  memory.NewZoneRepository(mem),
			staff:  memory.NewStaffRepository(mem),
			shops:  memory.NewShopRepository(mem),
			tx:     memory.NewTransactor(mem),
		}, nil, nil

	default:
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, nil, err
		}
		if err := repositories.InitSchema(ctx, conn); err != nil {
			_ = conn.Close()
			return stores{}, nil, fmt.Errorf("open stores: %w", err)
		}

		zones := repositories.NewPostgresZoneRepository(conn)
		zones.Log = log
		return stores{
			routes: repositories.NewPostgresRouteRepository(conn),
			zones:  zones,
			staff:  repositories.NewPostgresStaffRepository(conn),
			shops:  repositories.NewPostgresShopRepository(conn),
			tx:     repositories.NewPostgresTransactor(conn),
		}, dbCloser{conn}, nil
	}
}

type dbCloser struct{ db *sql.DB }

func (c dbCloser) Close() error { return c.db.Close() }

func newZoneLocker(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (ports.ZoneLocker, io.Closer, error) {
	if cfg.ZoneLockBackend != config.LockRedis {
		return locks.NewLocalZoneLocker(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("zone locker: ping redis %s: %w", cfg.RedisAddr, err)
	}

	return locks.NewRedisZoneLocker(client,
		locks.WithTTL(cfg.ZoneLockTTL),
		locks.WithRetryInterval(cfg.ZoneLockRetry),
		locks.WithLogger(log),
	), client, nil
}

func newPublisher(cfg config.Config, log logrus.FieldLogger) (ports.RouteEventPublisher, io.Closer, error) {
	switch cfg.EventBroker {
	case config.BrokerKafka:
		p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.BrokerRabbitMQ:
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case config.BrokerNone:
		return events.NopPublisher{}, nil, nil
	default:
		return events.NewLogPublisher(log), nil, nil
	}
}
