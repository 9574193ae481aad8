package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lexiqai/live-transcriber/internal/capture"
	"github.com/lexiqai/live-transcriber/internal/capture/device"
	"github.com/lexiqai/live-transcriber/internal/config"
	"github.com/lexiqai/live-transcriber/internal/observability"
	"github.com/lexiqai/live-transcriber/internal/pipeline"
	"github.com/lexiqai/live-transcriber/internal/segment"
	"github.com/lexiqai/live-transcriber/internal/server"
	"github.com/lexiqai/live-transcriber/internal/session"
	"github.com/lexiqai/live-transcriber/internal/storage"
	"github.com/lexiqai/live-transcriber/internal/stt"
)

func main() {
	audioPath := flag.String("audio", "", "Transcribe this WAV file, write the result and exit")
	outputPath := flag.String("output", "transcription.txt", "Output text file for -audio")
	language := flag.String("language", "", "Language code for -audio (defaults to LANGUAGE)")
	diarize := flag.Bool("diarize", false, "Label speaker turns in -audio mode")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	sessionID := observability.NewSessionID()
	logger := observability.WithSessionID(sessionID)

	logger.Info().
		Str("host", cfg.HTTPHost).
		Str("http_port", cfg.HTTPPort).
		Str("grpc_port", cfg.GRPCPort).
		Str("backend", cfg.STTBackend).
		Str("language", cfg.Language).
		Dur("chunk_duration", cfg.ChunkDuration).
		Bool("diarization", cfg.DiarizationEnabled).
		Msg("Live Transcriber starting")

	backend := newBackend(cfg, observability.Component("stt"))
	transcriber := backend.transcriber

	segmenter := segment.NewSegmenter(&segment.Config{
		EnergyThreshold: cfg.SegmentEnergyThreshold,
		MinSilence:      cfg.SegmentMinSilence,
		MinSegment:      cfg.SegmentMinDuration,
	}, segment.AlternatingLabeler{})

	if *audioPath != "" {
		job := fileJob{Input: *audioPath, Output: *outputPath, Language: *language, Diarize: *diarize}
		if job.Language == "" {
			job.Language = cfg.Language
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		err := runFile(ctx, transcriber, segmenter, job, logger)
		stop()
		backend.Close()
		if err != nil {
			logger.Fatal().Err(err).Str("input", job.Input).Msg("File transcription failed")
		}
		return
	}
	defer backend.Close()

	source, err := device.NewSource(observability.Component("device"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize audio backend")
	}
	defer source.Close()

	recorder, err := capture.NewRecorder(source, capture.Config{
		SampleRate:    cfg.SampleRate,
		Channels:      cfg.Channels,
		ChunkDuration: cfg.ChunkDuration,
		PollInterval:  cfg.PollInterval,
		StopTimeout:   cfg.StopTimeout,
		TempDir:       cfg.TempDir,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create recorder")
	}

	state := session.NewState(cfg.Language, cfg.DiarizationEnabled)
	worker := pipeline.NewWorker(transcriber, segmenter, state, pipeline.Config{
		SampleRate:     stt.SampleRate,
		PollInterval:   cfg.PollInterval,
		StopTimeout:    cfg.StopTimeout,
		RequestTimeout: cfg.STTTimeout,
	}, logger)
	sess := session.New(sessionID, recorder, worker, state, logger)
	defer sess.Close()

	options := server.Options{
		UpdateInterval: cfg.UpdateInterval,
		MetricsEnabled: cfg.MetricsEnabled,
		FileDir:        cfg.TranscriptDir,
		Checks:         []observability.DependencyCheck{{Name: "stt", Check: backend.readiness()}},
	}

	if cfg.ArchiveEnabled {
		sink, err := storage.NewMinIOSink(storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		}, sessionID)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create transcript archive")
		}
		options.Archive = sink
		logger.Info().Str("endpoint", cfg.MinIOEndpoint).Str("bucket", cfg.MinIOBucket).Msg("Transcript archive enabled")
	}

	srv := server.New(sess, options, logger)

	if cfg.AudioDevice != "" {
		if err := sess.StartRecording(cfg.AudioDevice); err != nil {
			logger.Warn().Err(err).Str("device", cfg.AudioDevice).Msg("Failed to start recording on configured device")
		}
	}

	// Create HTTP server with timeouts; WriteTimeout stays unset for WebSocket clients
	httpServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort),
		Handler:     srv.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	status := healthpb.HealthCheckResponse_SERVING
	if !stt.IsAvailable(transcriber) {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	healthServer.SetServingStatus("", status)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("port", cfg.HTTPPort).
			Str("endpoint", fmt.Sprintf("ws://%s/transcript/ws", httpServer.Addr)).
			Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", net.JoinHostPort(cfg.HTTPHost, cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		logger.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server listening")
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		return srv.RunPump(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
	}

	sess.StopRecording()
	logger.Info().Msg("Server exited gracefully")
}
