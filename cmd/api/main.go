package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/dichoptic/docs"
	"github.com/redmonkez12/dichoptic/internal/auth"
	"github.com/redmonkez12/dichoptic/internal/config"
	"github.com/redmonkez12/dichoptic/internal/database"
	"github.com/redmonkez12/dichoptic/internal/email"
	httpServer "github.com/redmonkez12/dichoptic/internal/http"
	"github.com/redmonkez12/dichoptic/internal/logging"
	"github.com/redmonkez12/dichoptic/internal/ratelimit"
	"github.com/redmonkez12/dichoptic/internal/scores"
	"github.com/redmonkez12/dichoptic/internal/settings"
	"github.com/redmonkez12/dichoptic/internal/user"
)

// @title           Dichoptic API
// @version         1.0
// @description     Accounts, score ledger and colour filter settings for the dichoptic training games.

// @contact.name   API Support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	sqlDB, err := database.Open(ctx, cfg.Database.ConnectionString(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, sqlDB); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	db := database.NewBunDB(sqlDB)

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	emailService, err := email.NewService(cfg.Email, cfg.Auth.PasswordResetTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, email links will only be logged")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	authService := auth.NewService(
		user.NewRepository(db),
		tokenService,
		emailService,
		logger,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
		cfg.Auth.PasswordResetTTL,
	)
	scoreService := scores.NewService(
		scores.NewRepository(db),
		scores.NewRedisCache(redisClient, cfg.Scores.CacheTTL),
		validate,
		cfg.Scores.RejectZero,
	)
	settingsService := settings.NewService(settings.NewRepository(db), validate)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService, ratelimit.NewLimiter(redisClient)),
		AuthMiddleware: auth.NewMiddleware(tokenService),
		Scores:         scores.NewHandler(scoreService),
		Settings:       settings.NewHandler(settingsService),
		Checks: map[string]httpServer.HealthCheck{
			"postgres": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, logger)

	server := httpServer.NewServer(
		cfg.Server.Address(),
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// registration and reset emails still in flight
		authService.Wait()
	}

	return nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == config.TokenFormatJWT {
		return auth.NewJWTService(cfg.JWTSecret)
	}
	return auth.NewPasetoService(cfg.PasetoKey)
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
