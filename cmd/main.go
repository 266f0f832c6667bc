package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pubgate/pubgate/access"
	"github.com/pubgate/pubgate/config"
	"github.com/pubgate/pubgate/server"
	"github.com/pubgate/pubgate/server/handlers"
	"github.com/pubgate/pubgate/store"
	"github.com/pubgate/pubgate/store/localfs"
	s3store "github.com/pubgate/pubgate/store/s3"
	"github.com/pubgate/pubgate/thumbs"
)

var rootCmd = &cobra.Command{
	Use:   "pubgate",
	Short: "pubgate - private file-publishing gateway",
	Long: `pubgate exposes a tree of objects held in an object store through
path-scoped access control, signed share URLs and derived thumbnails.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pubgate server",
	RunE:  runServe,
}

var shareURLCmd = &cobra.Command{
	Use:   "share-url <path>",
	Short: "Issue a signed share URL for a path",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareURL,
}

var thumbnailsCmd = &cobra.Command{
	Use:   "generate-thumbnails",
	Short: "Refresh the derived thumbnail cache",
	RunE:  runGenerateThumbnails,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runValidateConfig,
}

var configFilePath string

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd, shareURLCmd, thumbnailsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	logger.Info("Starting pubgate server",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("store_backend", cfg.Store.Backend))

	tree, err := cfg.Access.PolicyTree()
	if err != nil {
		return fmt.Errorf("failed to build policy tree: %w", err)
	}

	objectStore, err := newObjectStore(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	signer := access.NewTokenSigner(cfg.Access.SigningSecret)
	gate := access.NewGate(tree, signer, cfg.Access.Users)
	thumbCache := thumbs.NewManager(objectStore, cfg.Thumbnails, thumbs.DefaultConverters(), logger)

	logger.Info("Initializing HTTP router")
	router := server.NewRouter(gate, signer, tree, objectStore, thumbCache, &cfg, logger)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

func runShareURL(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tree, err := cfg.Access.PolicyTree()
	if err != nil {
		return fmt.Errorf("failed to build policy tree: %w", err)
	}

	path := args[0]
	switch access.Resolve(tree, path) {
	case access.LevelSign, access.LevelHTTP:
	case access.LevelNone:
		return fmt.Errorf("path %q does not require a token", path)
	default:
		return fmt.Errorf("path %q is private", path)
	}

	signer := access.NewTokenSigner(cfg.Access.SigningSecret)
	fmt.Println(handlers.ShareURL(cfg.Server.ExternalURL, signer, path))
	return nil
}

func runGenerateThumbnails(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	tree, err := cfg.Access.PolicyTree()
	if err != nil {
		return fmt.Errorf("failed to build policy tree: %w", err)
	}

	objectStore, err := newObjectStore(cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	thumbCache := thumbs.NewManager(objectStore, cfg.Thumbnails, thumbs.DefaultConverters(), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	summary, err := thumbCache.RefreshAll(ctx, tree, cfg.Thumbnails.Workers)
	if err != nil {
		return fmt.Errorf("thumbnail refresh failed: %w", err)
	}

	logger.Info("Thumbnail refresh finished",
		zap.Int("generated", summary.Generated),
		zap.Int("fresh", summary.Fresh),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return nil
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.Load(configFilePath)
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("External URL: %s\n", cfg.Server.ExternalURL)
	fmt.Printf("Store Backend: %s\n", cfg.Store.Backend)
	if cfg.Store.Backend == "localfs" {
		fmt.Printf("Local Root: %s\n", cfg.Store.LocalRootPath)
	} else {
		fmt.Printf("S3 Bucket: %s\n", cfg.Store.S3Bucket)
		fmt.Printf("S3 Region: %s\n", cfg.Store.S3Region)
	}
	fmt.Printf("Policy Rules: %d\n", len(cfg.Access.Policy))
	fmt.Printf("Users: %d\n", len(cfg.Access.Users))
	fmt.Printf("Thumbnail Namespace: %s\n", cfg.Thumbnails.Prefix)
	return nil
}

// newObjectStore builds the configured store backend. Configuration
// validation has already rejected unknown backends.
func newObjectStore(cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Backend {
	case "localfs":
		logger.Info("Initializing local filesystem store",
			zap.String("root", cfg.LocalRootPath))
		return localfs.NewAdapter(cfg.LocalRootPath)
	default:
		logger.Info("Initializing S3 store",
			zap.String("bucket", cfg.S3Bucket),
			zap.String("region", cfg.S3Region))
		return s3store.NewAdapter(cfg, logger)
	}
}

// initializeLogger creates a zap logger based on configuration.
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
