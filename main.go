package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/config"
	"github.com/nijaru/yt-transcribe/handlers/api"
	"github.com/nijaru/yt-transcribe/logger"
	"github.com/nijaru/yt-transcribe/media"
	"github.com/nijaru/yt-transcribe/pipeline"
	"github.com/nijaru/yt-transcribe/repository/sqlite"
	"github.com/nijaru/yt-transcribe/storage"
	"github.com/nijaru/yt-transcribe/transcription"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.PrepareDirs(); err != nil {
		logrus.Fatalf("Failed to prepare directories: %v", err)
	}

	log, err := logger.New(logger.Options{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		JSON:  cfg.IsProduction(),
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())
	logrus.SetOutput(log.Out)

	// Missing credentials abort here rather than on the first request.
	transcriber, err := transcription.New(transcription.Config{
		APIKey:  cfg.Transcription.APIKey,
		BaseURL: cfg.Transcription.BaseURL,
		Timeout: cfg.Transcription.Timeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize transcription service")
	}

	youtube := media.NewYouTubeSource()
	sources := []media.AudioSource{youtube}
	if cfg.Media.EnableFallback {
		sources = append(sources, media.NewYtDlpSource(cfg.Media.YtDlpPath))
	}
	fetcher := media.NewFetcher(media.NewScratch(cfg.TempDir, cfg.Media.TargetExt), sources...)

	opts := []pipeline.Option{pipeline.WithFetchTimeout(cfg.Media.FetchTimeout)}
	var runs api.RunReader
	var transcripts api.TranscriptReader

	if cfg.Database.Enabled {
		dbConfig := sqlite.DefaultDBConfig()
		dbConfig.MaxConnections = cfg.Database.MaxConnections

		db, err := sqlite.Open(context.Background(), cfg.Database.Path, dbConfig)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize database")
		}
		repo := sqlite.NewRepository(db)
		defer repo.Close()

		if n, err := repo.FailStale(context.Background(), cfg.RequestTimeout); err != nil {
			log.WithError(err).Warn("Failed to mark stale runs")
		} else if n > 0 {
			log.WithField("count", n).Info("Marked abandoned runs as failed")
		}

		opts = append(opts, pipeline.WithRecorder(repo))
		runs = repo
	}

	if cfg.Spaces.Bucket != "" {
		spaces, err := storage.NewSpacesClient(context.Background(), storage.SpacesConfig{
			AccessKey: cfg.Spaces.AccessKey,
			SecretKey: cfg.Spaces.SecretKey,
			Region:    cfg.Spaces.Region,
			Endpoint:  cfg.Spaces.Endpoint,
			Bucket:    cfg.Spaces.Bucket,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize transcript archive")
		}
		opts = append(opts, pipeline.WithArchiver(spaces))
		transcripts = spaces
	}

	svc := pipeline.NewService(fetcher, youtube, transcriber, opts...)

	server := api.NewServer(cfg,
		api.WithLogger(log),
		api.WithPipeline(svc),
		api.WithHistory(runs, transcripts),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server error")
		}
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Graceful shutdown failed")
		}
	}

	log.WithField("time", time.Now().UTC()).Info("Server stopped")
}
