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

const defaultPushDeerEndpoint = "https://api2.pushdeer.com"

type PushDeer struct {
	cfg    PushDeerConfig
	client *http.Client
}

func NewPushDeer(cfg PushDeerConfig, client *http.Client) *PushDeer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultPushDeerEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	return &PushDeer{cfg: cfg, client: client}
}

func (p *PushDeer) Name() string { return "pushdeer" }

func (p *PushDeer) Send(ctx context.Context, env model.Envelope) error {
	if p.cfg.SendKey == "" {
		return errors.New("pushdeer send key is not configured")
	}

	form := url.Values{}
	form.Set("pushkey", p.cfg.SendKey)
	form.Set("text", env.Title)
	form.Set("desp", markdownLines(env.PlainText))
	form.Set("type", "markdown")

	var resp struct {
		Code  int    `json:"code"`
		Error string `json:"error"`
	}
	if err := postForm(ctx, p.client, p.cfg.Endpoint+"/message/push", form, &resp); err != nil {
		return fmt.Errorf("pushdeer: %w", err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("pushdeer: error %d: %s", resp.Code, resp.Error)
	}
	return nil
}
