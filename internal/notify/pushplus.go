package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/unclebandit/drive-signin/internal/model"
)

const defaultPushPlusEndpoint = "https://www.pushplus.plus/send"

type PushPlus struct {
	cfg    PushPlusConfig
	client *http.Client
}

func NewPushPlus(cfg PushPlusConfig, client *http.Client) *PushPlus {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultPushPlusEndpoint
	}
	return &PushPlus{cfg: cfg, client: client}
}

func (p *PushPlus) Name() string { return "pushplus" }

func (p *PushPlus) Send(ctx context.Context, env model.Envelope) error {
	if p.cfg.Token == "" {
		return errors.New("pushplus token is not configured")
	}

	body := map[string]string{
		"token":    p.cfg.Token,
		"title":    env.Title,
		"content":  strings.ReplaceAll(env.MarkupText, "\n", "<br>"),
		"template": "html",
	}

	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := postJSON(ctx, p.client, p.cfg.Endpoint, body, &resp); err != nil {
		return fmt.Errorf("pushplus: %w", err)
	}
	if resp.Code != 200 {
		return fmt.Errorf("pushplus: error %d: %s", resp.Code, resp.Msg)
	}
	return nil
}
