// Package notify delivers run reports to the configured push channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unclebandit/drive-signin/internal/model"
)

// Backend is one push channel.
type Backend interface {
	Name() string
	Send(ctx context.Context, env model.Envelope) error
}

// Dispatcher fans one envelope out to every enabled backend, in the order
// the backends were registered.
type Dispatcher struct {
	backends []Backend
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger, backends ...Backend) *Dispatcher {
	d := &Dispatcher{logger: logger}
	for _, b := range backends {
		d.Register(b)
	}
	return d
}

func (d *Dispatcher) Register(b Backend) {
	d.backends = append(d.backends, b)
}

// Dispatch ignores names without a registered backend. A failing backend is
// logged and does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, enabled []string, env model.Envelope) []model.Delivery {
	wanted := NormalizeChannels(enabled)

	var deliveries []model.Delivery
	for _, b := range d.backends {
		if !wanted[strings.ToLower(b.Name())] {
			continue
		}

		err := d.send(ctx, b, env)
		if err != nil {
			d.logger.Error("push failed", "channel", b.Name(), "title", env.Title, "error", err)
		} else {
			d.logger.Info("push sent", "channel", b.Name(), "title", env.Title)
		}
		deliveries = append(deliveries, model.Delivery{Channel: b.Name(), Err: err})
	}
	return deliveries
}

func (d *Dispatcher) send(ctx context.Context, b Backend, env model.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s backend panicked: %v", b.Name(), r)
		}
	}()
	return b.Send(ctx, env)
}

// NormalizeChannels lower-cases and trims channel names.
func NormalizeChannels(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = true
		}
	}
	return set
}
