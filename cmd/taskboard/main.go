package main

import (
	"context"
	"errors"
	"flag"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/taskboard/internal/auth"
	"github.com/dropDatabas3/taskboard/internal/cache"
	"github.com/dropDatabas3/taskboard/internal/config"
	"github.com/dropDatabas3/taskboard/internal/events"
	httpx "github.com/dropDatabas3/taskboard/internal/http"
	"github.com/dropDatabas3/taskboard/internal/metrics"
	"github.com/dropDatabas3/taskboard/internal/notify"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
	"github.com/dropDatabas3/taskboard/internal/rate"
	"github.com/dropDatabas3/taskboard/internal/store/core"
	"github.com/dropDatabas3/taskboard/internal/store/memory"
	"github.com/dropDatabas3/taskboard/internal/store/pg"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvOnly    = flag.Bool("env", false, "usar SOLO env (y .env si se pasa -env-file)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if *flagEnvFile != "" && (fileExists(*flagEnvFile) || *flagEnvOnly) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if *flagEnvOnly {
		cfg, err = config.FromEnv()
	} else {
		cfgPath := *flagConfigPath
		if cfgPath == "" {
			cfgPath = os.Getenv("CONFIG_PATH")
		}
		if cfgPath == "" {
			if fileExists("configs/config.yaml") {
				cfgPath = "configs/config.yaml"
			} else {
				cfgPath = "configs/config.example.yaml"
			}
		}
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	defer logger.Sync()
	lg := logger.L()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("metrics: %v", err)
	}

	ctx := context.Background()

	// ─── Storage ───
	var (
		tasks  core.TaskStore
		evts   core.EventStore
		pinger core.Pinger
		closer func()
	)
	switch strings.ToLower(cfg.Storage.Driver) {
	case "postgres":
		var lifetime time.Duration
		if cfg.Storage.Postgres.ConnMaxLifetime != "" {
			lifetime = config.Dur(cfg.Storage.Postgres.ConnMaxLifetime)
		}
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: lifetime,
		})
		if err != nil {
			log.Fatalf("store open: %v", err)
		}
		if cfg.Flags.Migrate {
			if err := st.RunMigrations(ctx, "migrations/postgres"); err != nil {
				log.Fatalf("migrations: %v", err)
			}
		}
		tasks, evts, pinger = st, st, st
		closer = st.Close
	case "memory", "":
		st := memory.New()
		tasks, evts = st, st
		closer = func() {}
	default:
		log.Fatalf("storage driver desconocido: %q", cfg.Storage.Driver)
	}
	defer closer()

	// ─── Cache ───
	cc, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: config.Dur(cfg.Cache.Memory.DefaultTTL),
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer cc.Close()

	// ─── Rate limiting ───
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.Dur(cfg.Rate.Window)
		if strings.EqualFold(cfg.Cache.Kind, "redis") {
			rc := rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			limiter = rate.NewRedisLimiter(rc, cfg.Cache.Redis.Prefix+"rl:", cfg.Rate.MaxRequests, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window)
		}
	}

	// ─── Auth (verificación contra el JWKS del IdP; acá no se emite nada) ───
	resolver := auth.NewKeyResolver(auth.ResolverConfig{
		BaseURL:            cfg.Keycloak.BaseURL,
		Realm:              cfg.Keycloak.Realm,
		HTTPTimeout:        config.Dur(cfg.Keycloak.HTTPTimeout),
		TTL:                config.Dur(cfg.Keycloak.JWKSTTL),
		RefreshMinInterval: config.Dur(cfg.Keycloak.RefreshMinInterval),
	})
	verifier := auth.NewVerifier(resolver)
	guard := auth.NewGuard(auth.PolicyFromConfig(cfg.Authz.Policies))

	// ─── Notificaciones ───
	var sender notify.Sender
	if strings.EqualFold(cfg.Notify.Sender, "smtp") {
		s := notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		s.TLSMode = cfg.SMTP.TLS
		s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		sender = s
	} else {
		sender = notify.LogSender{}
	}
	dispatcher := notify.NewDispatcher(sender, notify.DispatcherConfig{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		Backoff:     config.Dur(cfg.Notify.Backoff),
	})

	recorder := events.NewRecorder(evts)

	handler := httpx.NewRouter(httpx.RouterDeps{
		Tasks:    tasks,
		Events:   recorder,
		Verifier: verifier,
		Guard:    guard,
		Notifier: dispatcher,
		Cache:    cc,
		Limiter:  limiter,
		Pinger:   pinger,
	})

	srv := &nethttp.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.Dur(cfg.Server.ReadTimeout),
		WriteTimeout: config.Dur(cfg.Server.WriteTimeout),
	}

	go func() {
		lg.Info("taskboard up",
			logger.String("addr", cfg.Server.Addr),
			logger.String("storage", cfg.Storage.Driver),
			logger.String("realm", cfg.Keycloak.Realm),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	lg.Info("shutdown: drenando")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("shutdown http", logger.Err(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		lg.Warn("shutdown dispatcher", logger.Err(err))
	}
}
