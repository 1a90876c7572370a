// @title                       Coupon Service API
// @version                     1.0
// @description                 Coupon catalogue, assignment and redemption service.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/couponhub/coupon-service/docs"
	"github.com/couponhub/coupon-service/internal/api"
	"github.com/couponhub/coupon-service/internal/api/handler"
	"github.com/couponhub/coupon-service/internal/core/ports"
	"github.com/couponhub/coupon-service/internal/core/service"
	mongostore "github.com/couponhub/coupon-service/internal/infrastructure/db/mongo"
	"github.com/couponhub/coupon-service/internal/infrastructure/db/postgres"
	redisstore "github.com/couponhub/coupon-service/internal/infrastructure/db/redis"
	"github.com/couponhub/coupon-service/internal/infrastructure/kafka"
	"github.com/couponhub/coupon-service/internal/infrastructure/ldap"
	"github.com/couponhub/coupon-service/internal/infrastructure/queue"
	"github.com/couponhub/coupon-service/internal/pkg/config"
	"github.com/couponhub/coupon-service/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// application aggregates the wired dependencies.
type application struct {
	cfg        *config.Config
	log        zerolog.Logger
	db         *sql.DB
	mongo      *mongostore.Store
	redis      *goredis.Client
	producer   *kafka.Producer
	dispatcher *queue.Dispatcher
	router     *echo.Echo
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "coupon-service",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build application")
		os.Exit(1)
	}

	if err := app.run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		app.close()
		os.Exit(1)
	}
	app.close()
	log.Info().Msg("server exited")
}

// buildApplication connects the stores, bootstraps the schema and wires the
// services behind the router. Connections opened before a failure are closed.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *application, err error) {
	app := &application{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	app.db, err = postgres.Connect(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err = postgres.EnsureSchema(ctx, app.db); err != nil {
		return nil, err
	}

	app.mongo, err = mongostore.Open(ctx, mongostore.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	audit := app.mongo.Audit

	app.redis, err = redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}

	sinks := []ports.EventSink{audit}
	if len(cfg.Kafka.Brokers) > 0 {
		app.producer, err = kafka.NewProducer(kafka.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, logger.Component("kafka"))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, app.producer)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("event stream enabled")
	}
	app.dispatcher = queue.NewDispatcher(queue.Config{
		Workers:        cfg.Events.Workers,
		QueueSize:      cfg.Events.QueueSize,
		EnqueueTimeout: cfg.Events.EnqueueTimeout,
	}, logger.Component("dispatcher"), sinks...)

	users := postgres.NewUserRepository(app.db)
	coupons := postgres.NewCouponRepository(app.db)
	ledger := postgres.NewAssignmentRepository(app.db)

	authOpts := []service.AuthOption{
		service.WithLoginLimiter(redisstore.NewLoginLimiter(app.redis, cfg.LoginRate.Attempts, cfg.LoginRate.Window)),
	}
	if cfg.LDAP.URL != "" {
		authOpts = append(authOpts, service.WithDirectory(ldap.NewDirectory(ldap.Config{
			URL:         cfg.LDAP.URL,
			BaseDN:      cfg.LDAP.BaseDN,
			EmailDomain: cfg.LDAP.EmailDomain,
			Timeout:     cfg.LDAP.Timeout,
		})))
		log.Info().Str("url", cfg.LDAP.URL).Msg("directory login enabled")
	}

	userService := service.NewUserService(users, app.dispatcher, log)
	if cfg.SeedAdmin.Password != "" {
		if _, err = userService.EnsureAdmin(ctx, cfg.SeedAdmin.Username, cfg.SeedAdmin.Email, cfg.SeedAdmin.Password); err != nil {
			return nil, err
		}
	}

	app.router = api.NewRouter(api.Dependencies{
		Log:         log,
		JWTSecret:   cfg.JWTSecret,
		Auth:        service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL, log, authOpts...),
		Users:       userService,
		Coupons:     service.NewCouponService(coupons, app.dispatcher, log),
		Assignments: service.NewAssignmentService(ledger, coupons, app.dispatcher, log),
		Audit:       service.NewAuditService(audit),
		Idempotency: redisstore.NewIdempotencyGuard(app.redis, cfg.Redis.IdempotencyTTL),
		Readiness:   readinessChecks(app.db, app.mongo, app.redis),
	})

	return app, nil
}

// run serves HTTP until ctx is cancelled, then drains in-flight requests
// before stopping the event workers.
func (a *application) run(ctx context.Context) error {
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()
	a.dispatcher.Start(dispatchCtx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("address", addr).Msg("HTTP server starting")
		if err := a.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.router.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		stopDispatch()
		a.dispatcher.Wait()
		return nil
	})

	return g.Wait()
}

// close releases every connection that was opened.
func (a *application) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close kafka producer")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mongo != nil {
		if err := a.mongo.Close(5 * time.Second); err != nil {
			a.log.Warn().Err(err).Msg("close audit store")
		}
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func readinessChecks(db *sql.DB, audit *mongostore.Store, rdb *goredis.Client) map[string]handler.Pinger {
	return map[string]handler.Pinger{
		"postgres": db.PingContext,
		"mongodb":  audit.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}
