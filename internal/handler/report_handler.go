// internal/handler/report_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/service"
)

// LatestReporter exposes the last finished run.
type LatestReporter interface {
	Latest() *service.Report
}

// ReportHandler serves read-only run information.
type ReportHandler struct {
	Job LatestReporter
}

type accountView struct {
	AccountID     string `json:"account_id"`
	Success       bool   `json:"success"`
	State         string `json:"state"`
	StreakCount   int    `json:"streak_count"`
	RewardText    string `json:"reward_text,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Error         string `json:"error,omitempty"`
	Redemption    string `json:"redemption,omitempty"`
	TokenAcquired bool   `json:"token_acquired"`
}

type reportView struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Succeeded  int           `json:"succeeded"`
	Accounts   []accountView `json:"accounts"`
	Text       string        `json:"text"`
	RewardText string        `json:"reward_text,omitempty"`
}

// GetLatestReport returns the last run of this process, or 404 when none
// has finished yet.
func (h *ReportHandler) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	report := h.Job.Latest()
	if report == nil {
		http.Error(w, "no run has finished yet", http.StatusNotFound)
		return
	}

	view := reportView{
		RunID:      report.RunID.String(),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Succeeded:  report.Succeeded(),
		Accounts:   make([]accountView, 0, len(report.Outcomes)),
		Text:       report.Text,
		RewardText: report.RewardText,
	}
	for _, o := range report.Outcomes {
		a := accountView{
			AccountID:     o.AccountID,
			Success:       o.Success,
			State:         o.State.String(),
			StreakCount:   o.StreakCount,
			RewardText:    o.RewardText,
			TokenAcquired: o.TokenAcquired,
		}
		if o.Err != nil {
			a.ErrorKind = appErrors.Kind(o.Err)
			a.Error = o.Err.Error()
		}
		if o.Redemption != nil {
			a.Redemption = string(o.Redemption.Status)
		}
		view.Accounts = append(view.Accounts, a)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *ReportHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
