package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ontriq-site/internal/infra/database"
	"github.com/xavierca1/ontriq-site/internal/infra/identity"
	"github.com/xavierca1/ontriq-site/internal/infra/queue"
	"github.com/xavierca1/ontriq-site/internal/infra/worker"
)

var (
	skipMigrations bool

	adminEmail    string
	adminPassword string
	adminFlag     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Register a dashboard user",
	Long: `Register a user in the identity store with a bcrypt-hashed password.
The user gets the admin profile flag unless --admin=false is given.`,
	RunE: runCreateAdmin,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply migrations on startup")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password, at least 6 characters (required)")
	createAdminCmd.Flags().BoolVar(&adminFlag, "admin", true, "Grant dashboard access")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("password")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, !skipMigrations)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		worker.NewBoardSweeper(a.boards, cfg.BoardIdleTTL, logger.Named("sweeper")).Start(ctx)
		return nil
	})

	if a.notifier != nil {
		g.Go(func() error {
			return a.notifier.Start(ctx, queue.QueueName)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.PersistenceEnabled() {
		return errors.New("migrate needs DATABASE_URL")
	}
	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.ApplyMigrations(cmd.Context(), db); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.PersistenceEnabled() {
		return errors.New("create-admin needs DATABASE_URL; the in-memory store does not outlive this command")
	}
	repos, db, err := openRepositories(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := identity.NewAuthenticator(repos.users, repos.profiles).
		CreateUser(cmd.Context(), adminEmail, adminPassword, adminFlag)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	logger.Info("user created", zap.String("user_id", user.ID), zap.String("email", user.Email), zap.Bool("admin", adminFlag))
	return nil
}
