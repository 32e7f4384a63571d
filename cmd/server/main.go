package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/invite-users/internal/api"
	"github.com/ignite/invite-users/internal/config"
	"github.com/ignite/invite-users/internal/pkg/logger"
	"github.com/ignite/invite-users/internal/sender"
	"github.com/ignite/invite-users/internal/session"
	"github.com/ignite/invite-users/internal/spreadsheet"
	"github.com/ignite/invite-users/internal/storage"
)

// sweepInterval is how often the in-memory store drops expired sessions.
const sweepInterval = time.Minute

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v", addr, err)
	}
	return ln.Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	// An empty CONFIG_PATH runs on defaults plus environment overrides.
	cfg, err := config.LoadFromEnv(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetRedactPII(!cfg.Log.ShowEmail)

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probes := map[string]api.Probe{}

	// Session store
	var store session.Store
	switch cfg.Session.Store {
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = session.NewRedisStore(rdb, cfg.Session.TTL(), cfg.Session.LockTTL(), cfg.Session.LockWait())
		probes["sessions"] = api.Probe{
			Critical: true,
			Slow:     500 * time.Millisecond,
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}
		logger.Info("session store ready", "store", "redis", "addr", opts.Addr)
	default:
		mem := session.NewMemoryStore(cfg.Session.TTL(), cfg.Session.LockWait())
		go mem.RunSweeper(ctx, sweepInterval)
		store = mem
		logger.Info("session store ready", "store", "memory")
	}

	// Delivery backend
	snd, err := sender.New(ctx, cfg.Delivery)
	if err != nil {
		log.Fatalf("Failed to initialize %s delivery: %v", cfg.Delivery.Driver, err)
	}
	defer func() {
		if err := snd.Close(); err != nil {
			logger.Warn("closing sender failed", "sender", snd.Name(), "error", err)
		}
	}()
	if p, ok := snd.(pinger); ok {
		probes["delivery"] = api.Probe{Critical: true, Slow: time.Second, Check: p.Ping}
	}
	logger.Info("delivery ready", "sender", snd.Name())

	deps := api.Deps{
		Sessions: session.NewManager(store),
		Sender:   snd,
		Parser:   spreadsheet.NewParser(cfg.Upload.MaxBytes),
		Cookie: api.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.TTL(),
		},
		MaxUpload: cfg.Upload.MaxBytes,
	}
	// Without a bucket the API streams the template workbook itself.
	if cfg.Template.Enabled() {
		publisher, err := storage.NewTemplatePublisher(ctx, cfg.Template, storage.TemplateObject{
			FileName:    spreadsheet.TemplateFileName,
			ContentType: spreadsheet.TemplateContentType,
			Build:       spreadsheet.BuildTemplate,
		})
		if err != nil {
			log.Fatalf("Failed to initialize template storage: %v", err)
		}
		if err := publisher.Publish(ctx); err != nil {
			// Retried lazily on the first download.
			logger.Warn("template publish failed", "bucket", cfg.Template.S3Bucket, "error", err)
		}
		deps.Templates = publisher
	}

	server := api.NewServer(cfg.Server, api.NewHandlers(deps), api.NewHealthChecker(probes))

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
