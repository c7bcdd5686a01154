// cmd/scheduler/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/drive-signin/internal/app"
	"github.com/unclebandit/drive-signin/internal/scheduler"
)

func main() {
	a, err := app.Setup(context.Background(), "scheduler", os.Args[1:])
	if err != nil {
		log.Fatalf("❌ startup failed: %v", err)
	}
	defer a.Close()

	s := scheduler.New(a.Job, a.Config.SignInSchedule, a.Config.RunTimeout, a.Logger)
	if err := s.Start(); err != nil {
		a.Logger.Error("failed to start scheduler", "error", err)
		return
	}
	a.Logger.Info("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.Logger.Info("shutdown signal received, stopping scheduler")
	<-s.Stop().Done()
	a.Logger.Info("scheduler stopped gracefully")
}
