// @title         printshop API
// @version       1.0
// @description   Print-shop order intake: accounts, PDF uploads with server-side page counting, order history.
// @BasePath      /
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Authorization token: "Bearer <JWT>" or "<JWT>".
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	swagger "github.com/gofiber/swagger"

	api "github.com/fotcopier/printshop/api/http"
	"github.com/fotcopier/printshop/api/http/handlers"
	_ "github.com/fotcopier/printshop/docs"
	"github.com/fotcopier/printshop/pkg/auth"
	"github.com/fotcopier/printshop/pkg/config"
	"github.com/fotcopier/printshop/pkg/health"
	healthpg "github.com/fotcopier/printshop/pkg/health/checkers"
	"github.com/fotcopier/printshop/pkg/logging"
	"github.com/fotcopier/printshop/pkg/order"
	"github.com/fotcopier/printshop/pkg/pagecount"
	"github.com/fotcopier/printshop/pkg/pagecount/vision"
	pgrepo "github.com/fotcopier/printshop/pkg/repository/postgres"
	"github.com/fotcopier/printshop/pkg/security/jwt"
	"github.com/fotcopier/printshop/pkg/storage/blob"
	"github.com/fotcopier/printshop/pkg/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool, pgrepo.Migrations, "migrations"); err != nil {
		return err
	}

	userRepo := pgrepo.NewUserRepository(pool)
	orderRepo := pgrepo.NewOrderRepository(pool)

	jwtGen := jwt.NewGenerator(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	authUC := auth.NewAuthService(userRepo, jwtGen, cfg.BcryptCost)

	analysisTimeout := time.Duration(cfg.AnalysisTimeoutSeconds) * time.Second
	var analyzer pagecount.Analyzer
	if cfg.VisionAPIKey != "" {
		analyzer = vision.New(cfg.VisionAPIKey, cfg.VisionBaseURL, analysisTimeout)
	} else {
		log.Warn("VISION_API_KEY not set, page counts will be structural only")
	}
	counter := pagecount.NewCounter(analyzer, analysisTimeout, log)

	archive, err := documentStore(ctx, cfg)
	if err != nil {
		return err
	}
	maxUpload := int64(cfg.MaxUploadMB) << 20
	orderUC := order.NewService(orderRepo, counter, userRepo, order.Options{
		MaxUploadBytes: maxUpload,
		Archive:        archive,
	}, log)

	readiness := health.NewService(healthpg.NewPostgresChecker(pool))

	app := api.NewApp(api.AppConfig{MaxUploadBytes: maxUpload, CORSOrigins: cfg.CORSOrigins}, api.Handlers{
		Auth:        handlers.NewAuthHandler(authUC),
		Health:      handlers.NewHealthHandler(readiness),
		Orders:      handlers.NewOrderHandler(orderUC),
		RequireAuth: jwt.NewAuthMiddleware(jwt.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer), log),
	}, log)
	app.Get("/swagger/*", swagger.HandlerDefault)

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "port", cfg.Port, "document_store", cfg.DocumentStore)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// documentStore returns nil when archiving is disabled.
func documentStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.DocumentStore {
	case "disk":
		return blob.NewDiskStore(cfg.DocumentDir), nil
	case "s3":
		s, err := blob.NewS3Store(ctx, blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 document store: %w", err)
		}
		return s, nil
	default:
		return nil, nil
	}
}
