package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/unclebandit/drive-signin/internal/model"
)

const defaultTelegramEndpoint = "https://api.telegram.org"

// Telegram sends the marked-up text with HTML parse mode.
type Telegram struct {
	cfg    TelegramConfig
	client *http.Client
}

func NewTelegram(cfg TelegramConfig, client *http.Client) *Telegram {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultTelegramEndpoint
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	return &Telegram{cfg: cfg, client: client}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, env model.Envelope) error {
	if t.cfg.BotToken == "" || t.cfg.ChatID == "" {
		return errors.New("telegram bot token or chat id is not configured")
	}

	body := map[string]any{
		"chat_id":    t.cfg.ChatID,
		"text":       "<b>" + html.EscapeString(env.Title) + "</b>\n\n" + env.MarkupText,
		"parse_mode": "HTML",
	}

	var resp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.Endpoint, t.cfg.BotToken)
	if err := postJSON(ctx, t.client, endpoint, body, &resp); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram: %s", resp.Description)
	}
	return nil
}
