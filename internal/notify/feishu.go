package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/unclebandit/drive-signin/internal/model"
)

type Feishu struct {
	cfg    FeishuConfig
	client *http.Client
}

func NewFeishu(cfg FeishuConfig, client *http.Client) *Feishu {
	return &Feishu{cfg: cfg, client: client}
}

func (f *Feishu) Name() string { return "feishu" }

func (f *Feishu) Send(ctx context.Context, env model.Envelope) error {
	if f.cfg.Webhook == "" {
		return errors.New("feishu webhook is not configured")
	}

	body := map[string]any{
		"msg_type": "text",
		"content": map[string]string{
			"text": env.Title + "\n\n" + env.PlainText,
		},
	}

	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := postJSON(ctx, f.client, f.cfg.Webhook, body, &resp); err != nil {
		return fmt.Errorf("feishu: %w", err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("feishu: error %d: %s", resp.Code, resp.Msg)
	}
	return nil
}
