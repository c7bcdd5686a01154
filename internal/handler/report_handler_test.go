package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/handler"
	"github.com/unclebandit/drive-signin/internal/model"
	"github.com/unclebandit/drive-signin/internal/service"
)

type MockJob struct {
	Report *service.Report
}

func (m *MockJob) Latest() *service.Report { return m.Report }

func TestGetLatestReport_NoRunYet(t *testing.T) {
	h := &handler.ReportHandler{Job: &MockJob{}}

	w := httptest.NewRecorder()
	h.GetLatestReport(w, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLatestReport(t *testing.T) {
	started := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	report := &service.Report{
		RunID:      uuid.New(),
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Outcomes: []model.AccountOutcome{
			{AccountID: "13800000000", Success: true, StreakCount: 5, RewardText: "no reward", State: model.StateDone, TokenAcquired: true},
			{AccountID: "abcd****ijkl", State: model.StateFailed, Err: &appErrors.InvalidCredential{Code: "RefreshTokenExpired"}},
		},
		Text: "report text",
	}
	h := &handler.ReportHandler{Job: &MockJob{Report: report}}

	w := httptest.NewRecorder()
	h.GetLatestReport(w, httptest.NewRequest(http.MethodGet, "/runs/latest", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		RunID     string `json:"run_id"`
		Succeeded int    `json:"succeeded"`
		Text      string `json:"text"`
		Accounts  []struct {
			AccountID string `json:"account_id"`
			State     string `json:"state"`
			ErrorKind string `json:"error_kind"`
		} `json:"accounts"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))

	assert.Equal(t, report.RunID.String(), body.RunID)
	assert.Equal(t, 1, body.Succeeded)
	assert.Equal(t, "report text", body.Text)
	require.Len(t, body.Accounts, 2)
	assert.Equal(t, "DONE", body.Accounts[0].State)
	assert.Empty(t, body.Accounts[0].ErrorKind)
	assert.Equal(t, "FAILED", body.Accounts[1].State)
	assert.Equal(t, "InvalidCredential", body.Accounts[1].ErrorKind)
}

func TestHealth(t *testing.T) {
	h := &handler.ReportHandler{}

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
