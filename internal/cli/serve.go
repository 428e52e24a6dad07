package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msomdec/contact-book/internal/config"
	"github.com/msomdec/contact-book/internal/handler"
	"github.com/msomdec/contact-book/internal/service"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Configuration comes from the environment (and an optional .env file):
PORT, DATABASE_PATH, JWT_SECRET, COOKIE_SECURE, PAGE_SIZE, PASSWORD_STORAGE,
BCRYPT_COST, COLLATION_LOCALE, LOG_LEVEL, LOGIN_RATE, LOGIN_BURST.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if rootOpts.DatabasePath != "" {
				cfg.DatabasePath = rootOpts.DatabasePath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	setupLogger(cfg.Level())

	db, err := openDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database ready", "path", cfg.DatabasePath)

	hasher, err := service.PasswordHasherFor(cfg.PasswordStorage, cfg.BcryptCost)
	if err != nil {
		return err
	}
	if cfg.PasswordStorage == "plaintext" {
		slog.Warn("passwords are stored in plaintext; set PASSWORD_STORAGE=bcrypt to hash them")
	}

	store := db.Store()
	authService, err := service.NewAuthService(ctx, store, service.WithPasswordHasher(hasher))
	if err != nil {
		return fmt.Errorf("load auth state: %w", err)
	}
	contactService, err := service.NewContactService(ctx, store, authService)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	slog.Info("state loaded",
		"users", len(authService.Users()),
		"contacts", len(contactService.All()),
		"authenticated", authService.Session().IsAuthenticated)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, contactService,
		service.NewTokenIssuer(cfg.JWTSecret, service.DefaultTokenTTL),
		handler.Options{
			CookieSecure: cfg.CookieSecure,
			PageSize:     cfg.PageSize,
			Locale:       cfg.Locale(),
			LoginLimiter: service.NewTokenBucket(cfg.LoginRate, float64(cfg.LoginBurst)),
		})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
