package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"truckFleetManagement/internal/assignment"
	"truckFleetManagement/internal/config"
	"truckFleetManagement/internal/db"
	"truckFleetManagement/internal/httpapi"
	"truckFleetManagement/internal/routing"
	"truckFleetManagement/repository"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("config", cfg.String()))

	// Open DB
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("close db", zap.Error(err))
		}
	}()

	users := repository.NewUserRepository(d)
	companies := repository.NewCompanyRepository(d)
	drivers := repository.NewDriverRepository(d)
	trucks := repository.NewTruckRepository(d)
	destinations := repository.NewDestinationRepository(d)
	tasks := repository.NewTaskRepository(d)

	if err := bootstrapSuperuser(cfg, users, logger); err != nil {
		logger.Fatal("bootstrap superuser", zap.Error(err))
	}

	router := routing.NewOpenRouteClient(cfg.Routing, logger)
	engine := assignment.NewEngine(d, tasks, destinations, router, logger)
	api := httpapi.NewServer(cfg, logger, users, companies, drivers, trucks, destinations, tasks, engine, router)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// bootstrapSuperuser seeds the first superuser account when the users table
// is empty and the bootstrap credentials are configured. Without it a fresh
// deployment has no way to log in.
func bootstrapSuperuser(cfg *config.Config, users *repository.UserRepository, logger *zap.Logger) error {
	if cfg.Bootstrap.SuperuserUsername == "" || cfg.Bootstrap.SuperuserPassword == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Bootstrap.SuperuserPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u, err := users.Create(ctx, cfg.Bootstrap.SuperuserUsername, string(hash), true)
	if err != nil {
		return err
	}
	logger.Info("bootstrapped superuser", zap.String("username", u.Username))
	return nil
}
