// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/drive-signin/internal/app"
	"github.com/unclebandit/drive-signin/internal/queue"
	"github.com/unclebandit/drive-signin/internal/service"
)

func main() {
	a, err := app.Setup(context.Background(), "worker", os.Args[1:])
	if err != nil {
		log.Fatalf("❌ startup failed: %v", err)
	}
	defer a.Close()

	if a.Config.RabbitMQURL == "" {
		a.Logger.Error("RABBITMQ_URL is required for the worker")
		return
	}

	q, err := a.OpenQueue()
	if err != nil {
		a.Logger.Error("failed to open queue", "error", err)
		return
	}

	worker := service.NewWorker(a.Job, a.Config.RunTimeout, a.Logger)
	if err := q.Subscribe(queue.RunTopic, worker.Handle); err != nil {
		a.Logger.Error("failed to register consumer", "error", err)
		return
	}

	a.Logger.Info("worker running, waiting for run requests", "queue", queue.RunTopic)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	a.Logger.Info("worker stopping")
}
