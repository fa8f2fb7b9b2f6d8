// Command main is the entry point for the CampusWell backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campuswell/internal/config"
	"campuswell/internal/mailer"
	"campuswell/internal/observability"
	"campuswell/internal/repository"
	"campuswell/internal/scheduler"
	"campuswell/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "campuswell-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.SamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Scheduled email jobs share the server's connection pool. Without an
	// SMTP relay the jobs are skipped, not fatal.
	var jobs *scheduler.Scheduler
	if m, err := mailer.NewSMTPMailer(cfg); err != nil {
		log.Printf("Mailer disabled, scheduled jobs will not run: %v", err)
	} else {
		db := srv.DB()
		jobs = scheduler.New(cfg, m,
			repository.NewUserRepository(db),
			repository.NewQuestionnaireRepository(db),
			repository.NewWeatherRepository(db),
		)
		if err := jobs.Start(cfg); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if jobs != nil {
			jobs.Stop()
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	log.Fatal(srv.Start())
}
