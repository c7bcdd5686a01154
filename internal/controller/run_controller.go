// internal/controller/run_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/drive-signin/internal/queue"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type RunController struct {
	Queue  Publisher
	Logger *slog.Logger
	Now    func() time.Time
}

func NewRunController(q Publisher, logger *slog.Logger) *RunController {
	return &RunController{Queue: q, Logger: logger, Now: time.Now}
}

// TriggerRun queues a sign-in run. The run itself happens on the queue
// consumer; the response only carries the request id.
func (c *RunController) TriggerRun(w http.ResponseWriter, r *http.Request) {
	req := queue.RunRequest{
		RequestID:   uuid.NewString(),
		RequestedAt: c.Now().UTC(),
		Source:      "api",
	}

	payload, err := queue.EncodeRunRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := c.Queue.Publish(r.Context(), queue.RunTopic, payload); err != nil {
		c.Logger.Error("failed to queue run", "request_id", req.RequestID, "error", err)
		status := http.StatusServiceUnavailable
		if errors.Is(err, queue.ErrQueueFull) {
			status = http.StatusTooManyRequests
		}
		http.Error(w, "failed to queue run", status)
		return
	}

	c.Logger.Info("run queued", "request_id", req.RequestID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"request_id":   req.RequestID,
		"requested_at": req.RequestedAt,
		"status":       "queued",
	})
}
