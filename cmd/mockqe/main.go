// Command mockqe runs the simulated Quantum Engine platform as a standalone
// server for local development. Point a Runner (or curl) at it instead of
// the real platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/goqe/internal/logging"
	"github.com/me/goqe/internal/mockqe"
)

func main() {
	addr := flag.String("addr", "localhost:8089", "Listen address")
	baseURL := flag.String("base-url", "", "Externally reachable base URL (default http://<addr>)")
	readyAfter := flag.Int("ready-after", 3, "Result queries before a workflow completes")
	fail := flag.Bool("fail", false, "Mark every submitted workflow as failed")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	flag.Parse()

	logger := logging.NewLogger(logging.ParseLevel(*logLevel), *logFormat)

	platform := mockqe.New(mockqe.Options{
		ReadyAfter: *readyAfter,
		Fail:       *fail,
		Logger:     logger,
	})
	url := *baseURL
	if url == "" {
		url = "http://" + *addr
	}
	platform.SetBaseURL(url)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: platform,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock platform starting", "addr", *addr, "base_url", url)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
