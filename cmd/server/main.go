package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	accounthandler "nameplate/internal/account/handler"
	accountmetrics "nameplate/internal/account/metrics"
	accountservice "nameplate/internal/account/service"
	accountstore "nameplate/internal/account/store"
	delegatehandler "nameplate/internal/delegate/handler"
	delegatemetrics "nameplate/internal/delegate/metrics"
	delegateservice "nameplate/internal/delegate/service"
	delegatestore "nameplate/internal/delegate/store"
	"nameplate/internal/devtoken"
	"nameplate/internal/event"
	eventhandler "nameplate/internal/event/handler"
	"nameplate/internal/platform/config"
	"nameplate/internal/platform/httpserver"
	"nameplate/internal/platform/logger"
	platformmetrics "nameplate/internal/platform/metrics"
	platformredis "nameplate/internal/platform/redis"
	"nameplate/internal/platform/token"
	"nameplate/internal/sequence"
	httptransport "nameplate/internal/transport/http"
	usernamehandler "nameplate/internal/username/handler"
	usernamemetrics "nameplate/internal/username/metrics"
	usernameservice "nameplate/internal/username/service"
	usernamestore "nameplate/internal/username/store"
	"nameplate/pkg/platform/tx"
)

// main wires the backends picked by configuration, assembles the services,
// and runs the server until a shutdown signal arrives. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		runner        tx.Runner
		usernames     usernameservice.UsernameStore
		accounts      accountservice.AccountStore
		delegateDir   accountservice.DelegateDirectory
		delegateStore delegateservice.DelegateStore
		events        event.Log
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := ensureSchema(ctx, db); err != nil {
			return err
		}
		runner = tx.NewSQLRunner(db)
		usernames = usernamestore.NewPostgres(db)
		accounts = accountstore.NewPostgres(db)
		delegates := delegatestore.NewPostgres(db)
		delegateDir, delegateStore = delegates, delegates
		events = event.NewPostgresLog(db)
		log.Info("storage backend", "kind", "postgres")
	} else {
		runner = tx.NewMemoryRunner()
		usernames = usernamestore.NewInMemory()
		accounts = accountstore.NewInMemory()
		delegates := delegatestore.NewInMemory()
		delegateDir, delegateStore = delegates, delegates
		events = event.NewInMemoryLog()
		log.Info("storage backend", "kind", "memory")
	}

	// Counters: Redis when configured, in-memory otherwise.
	var seq sequence.Allocator = sequence.NewMemory()
	if cfg.RedisURL != "" {
		rdb, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		seq = sequence.NewRedis(rdb.Client)
		log.Info("sequence backend", "kind", "redis")
	}

	// Event fan-out: best effort, only when brokers are configured.
	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		// Drain buffered records before the client goes away.
		defer kp.Close()
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := kp.Flush(flushCtx); err != nil {
				log.Warn("kafka flush on shutdown failed", "error", err)
			}
		}()
		publisher = kp
		log.Info("event fan-out enabled", "topic", cfg.KafkaTopic)
	}

	tokens := token.NewManager(cfg.JWTSigningKey)

	usernameSvc := usernameservice.New(usernames, seq, events, runner, cfg.AdminAddress,
		usernameservice.WithLogger(log),
		usernameservice.WithPublisher(publisher),
		usernameservice.WithMetrics(usernamemetrics.New()),
	)

	accountSvc := accountservice.New(accounts, usernameSvc, delegateDir, seq, events, runner, cfg.AdminAddress,
		accountservice.WithLogger(log),
		accountservice.WithPublisher(publisher),
		accountservice.WithMetrics(accountmetrics.New()),
	)

	delegateSvc := delegateservice.New(accounts, delegateStore, seq, events, runner,
		delegateservice.WithLogger(log),
		delegateservice.WithPublisher(publisher),
		delegateservice.WithMetrics(delegatemetrics.New()),
	)

	handlers := []httptransport.Registrar{
		usernamehandler.New(usernameSvc, log, tokens),
		accounthandler.New(accountSvc, log, tokens),
		delegatehandler.New(delegateSvc, log, tokens),
		eventhandler.New(events, log),
	}
	if cfg.DevTokenSecretHash != "" {
		handlers = append(handlers, devtoken.New(tokens, cfg.DevTokenSecretHash, log))
		log.Warn("dev token endpoint enabled")
	}
	router := httptransport.NewRouter(log, platformmetrics.New(), handlers...)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting nameplate directory", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, schema := range []string{
		usernamestore.Schema,
		accountstore.Schema,
		delegatestore.Schema,
		event.Schema,
	} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}
