package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/tournament-history/internal/config"
	"github.com/AdamBeresnev/tournament-history/internal/storage"
	"github.com/AdamBeresnev/tournament-history/internal/store"
	"github.com/AdamBeresnev/tournament-history/internal/upload"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	production := flag.Bool("production", false, "run with production settings")
	serve := flag.Bool("serve", false, "confirm the process is supervised by a process manager")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if *production {
		cfg.Production = true
	}

	if refuseToStart(cfg, *serve, os.Stderr) {
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg, os.Stdout))

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("application exited")
}

// refuseToStart prints the production instructions and reports true when the
// binary was started in production mode without --serve.
func refuseToStart(cfg *config.Config, serve bool, out io.Writer) bool {
	if !cfg.Production || serve {
		return false
	}
	fmt.Fprintln(out, "Error: For production, run the server under a process manager (systemd, supervisord, a container runtime):")
	fmt.Fprintf(out, "  APP_ENV=production HOST=127.0.0.1 PORT=%d BASE_PATH=%s web --serve\n", cfg.Port, cfg.BasePath)
	return true
}

func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !cfg.Production {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func newUploader(ctx context.Context, cfg *config.Config) (storage.FileUploader, error) {
	if cfg.UploadBackend == config.BackendS3 {
		return storage.NewS3Uploader(ctx, storage.S3UploaderConfig{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
	}
	return storage.NewDiskUploader(cfg.UploadFolder, cfg.BasePath+"/uploads")
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tournamentStore, err := store.NewTournamentStore(cfg.DataFolder)
	if err != nil {
		return err
	}
	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("storage ready", "data_file", tournamentStore.Path(), "upload_backend", cfg.UploadBackend)

	app := newApplication(cfg, tournamentStore, upload.NewImages(uploader))

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(app),
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "addr", "http://"+cfg.Addr()+cfg.BasePath+"/")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server", "timeout", shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
