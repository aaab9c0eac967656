package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openmesa/binderd/internal/infrastructure/config"
	"github.com/openmesa/binderd/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Admin API port (overrides ADMIN_PORT)")
	host := flag.String("host", "", "Admin API host (overrides ADMIN_HOST)")
	logLevel := flag.String("log-level", "", "Log level (overrides LOG_LEVEL)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Admin.Port = *port
	}
	if *host != "" {
		cfg.Admin.Host = *host
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}
