// cmd/server/main.go
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/drive-signin/internal/app"
	"github.com/unclebandit/drive-signin/internal/controller"
	"github.com/unclebandit/drive-signin/internal/handler"
	"github.com/unclebandit/drive-signin/internal/queue"
	"github.com/unclebandit/drive-signin/internal/service"
)

func main() {
	a, err := app.Setup(context.Background(), "server", os.Args[1:])
	if err != nil {
		log.Fatalf("❌ startup failed: %v", err)
	}
	defer a.Close()

	q, err := a.OpenQueue()
	if err != nil {
		a.Logger.Error("failed to open queue", "error", err)
		return
	}

	// With RabbitMQ the runs happen in cmd/worker; the in-process queue is
	// consumed right here.
	if a.Config.RabbitMQURL == "" {
		worker := service.NewWorker(a.Job, a.Config.RunTimeout, a.Logger)
		if err := q.Subscribe(queue.RunTopic, worker.Handle); err != nil {
			a.Logger.Error("failed to subscribe to run queue", "error", err)
			return
		}
	}

	runController := controller.NewRunController(q, a.Logger)
	reportHandler := &handler.ReportHandler{Job: a.Job}
	r := newRouter(runController, reportHandler, a.Config.RabbitMQURL == "")

	srv := &http.Server{
		Addr:              ":" + a.Config.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.Logger.Info("🚀 server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("server stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error("server shutdown failed", "error", err)
	}
	a.Logger.Info("server stopped")
}

// newRouter registers /runs/latest only when runs execute in this process.
// Behind RabbitMQ the reports live in cmd/worker.
func newRouter(runs *controller.RunController, reports *handler.ReportHandler, serveReports bool) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", reports.Health)
	r.Post("/runs", runs.TriggerRun)
	if serveReports {
		r.Get("/runs/latest", reports.GetLatestReport)
	}
	return r
}
