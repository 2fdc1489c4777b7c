// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity_bridge_backend/internal/config"
	"identity_bridge_backend/internal/profile"
	"identity_bridge_backend/internal/provider"
	"identity_bridge_backend/internal/user"

	"go.uber.org/zap"
)

func main() {
	// set-admin is the out-of-band path for the first administrator, which the
	// HTTP admin endpoint cannot create on its own.
	setAdminCmd := flag.NewFlagSet("set-admin", flag.ExitOnError)
	setAdminUser := setAdminCmd.String("user", "", "Internal user id, e.g. vk_12345")
	setAdminValue := setAdminCmd.Bool("admin", true, "Value to store in isAdmin")

	checkKeysCmd := flag.NewFlagSet("check-keys", flag.ExitOnError)
	checkKeysTimeout := checkKeysCmd.Duration("timeout", 10*time.Second, "Deadline for discovery and key set fetch")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "set-admin":
			_ = setAdminCmd.Parse(os.Args[2:])
			runCommand(func(cfg *config.Config, logger *zap.Logger) error {
				return runSetAdmin(cfg, logger, *setAdminUser, *setAdminValue)
			})
			return
		case "check-keys":
			_ = checkKeysCmd.Parse(os.Args[2:])
			runCommand(func(cfg *config.Config, logger *zap.Logger) error {
				return runCheckKeys(cfg, logger, *checkKeysTimeout)
			})
			return
		}
	}

	// Default: Start server
	startServer()
}

func runCommand(fn func(cfg *config.Config, logger *zap.Logger) error) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger, cleanup, err := provideLogger(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := fn(cfg, appLogger); err != nil {
		appLogger.Fatal("Command failed", zap.Error(err))
	}
}

func runSetAdmin(cfg *config.Config, logger *zap.Logger, userID string, isAdmin bool) error {
	if userID == "" {
		return fmt.Errorf("-user is required")
	}
	fb, closeFirebase, err := provideFirebase(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFirebase()

	store, closeStore, err := profile.NewStore(cfg, fb.Firestore(), logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := user.NewService(store, logger).SetAdmin(context.Background(), "cli", userID, isAdmin)
	if err != nil {
		return err
	}
	logger.Info("Profile updated", zap.String("userID", userID), zap.Bool("isAdmin", rec.IsAdmin))
	return nil
}

func runCheckKeys(cfg *config.Config, logger *zap.Logger, timeout time.Duration) error {
	registry := provider.NewRegistryFromConfig(cfg, provider.NewHTTPClient(cfg), provideRedactor(cfg), logger)
	keys := registry.Keys()
	if keys == nil {
		return fmt.Errorf("PROVIDER_ISSUER is not set; signed token verification is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := keys.Refresh(ctx); err != nil {
		return err
	}
	logger.Info("Provider key set fetched", zap.String("discovery", provider.DiscoveryURL(cfg)), zap.Int("keys", keys.Len()))
	return nil
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
