package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/unclebandit/drive-signin/internal/model"
)

const defaultServerChanEndpoint = "https://sctapi.ftqq.com"

type ServerChan struct {
	cfg    ServerChanConfig
	client *http.Client
}

func NewServerChan(cfg ServerChanConfig, client *http.Client) *ServerChan {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultServerChanEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	return &ServerChan{cfg: cfg, client: client}
}

func (s *ServerChan) Name() string { return "serverchan" }

func (s *ServerChan) Send(ctx context.Context, env model.Envelope) error {
	if s.cfg.SendKey == "" {
		return errors.New("serverchan send key is not configured")
	}

	form := url.Values{}
	form.Set("title", env.Title)
	form.Set("desp", markdownLines(env.PlainText))

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	endpoint := fmt.Sprintf("%s/%s.send", s.cfg.Endpoint, s.cfg.SendKey)
	if err := postForm(ctx, s.client, endpoint, form, &resp); err != nil {
		return fmt.Errorf("serverchan: %w", err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("serverchan: error %d: %s", resp.Code, resp.Message)
	}
	return nil
}
