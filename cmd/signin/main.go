// cmd/signin/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/unclebandit/drive-signin/internal/app"
	"github.com/unclebandit/drive-signin/internal/service"
)

func main() {
	ctx := context.Background()

	a, err := app.Setup(ctx, "signin", legacyArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("❌ startup failed: %v", err)
	}
	defer a.Close()

	if a.Config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.RunTimeout)
		defer cancel()
	}

	report, err := a.Job.Run(ctx)
	if errors.Is(err, service.ErrNoAccounts) {
		a.Logger.Error("no refresh tokens configured, nothing to do")
		a.Close()
		os.Exit(1)
	}
	if err != nil {
		a.Logger.Error("sign-in run failed", "error", err)
		a.Close()
		os.Exit(1)
	}

	a.Logger.Info("sign-in run complete",
		"run_id", report.RunID.String(),
		"succeeded", report.Succeeded(),
		"accounts", len(report.Outcomes))
}

// legacyArgs accepts the old bare "action" argument used by existing
// workflow files.
func legacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "action" {
			arg = "--action"
		}
		out = append(out, arg)
	}
	return out
}
