package notify

import (
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	DingTalk   DingTalkConfig
	ServerChan ServerChanConfig
	PushDeer   PushDeerConfig
	Telegram   TelegramConfig
	PushPlus   PushPlusConfig
	SMTP       SMTPConfig
	Feishu     FeishuConfig
}

type DingTalkConfig struct {
	Endpoint    string
	AccessToken string
	Secret      string
}

type ServerChanConfig struct {
	Endpoint string
	SendKey  string
}

type PushDeerConfig struct {
	Endpoint string
	SendKey  string
}

type TelegramConfig struct {
	Endpoint string
	BotToken string
	ChatID   string
	Proxy    string
}

type PushPlusConfig struct {
	Endpoint string
	Token    string
}

type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	User     string
	Password string
	Sender   string
	Receiver string
}

type FeishuConfig struct {
	Webhook string
}

// Backends returns every channel in registration order.
func Backends(cfg Config) []Backend {
	client := &http.Client{Timeout: 15 * time.Second}

	return []Backend{
		NewDingTalk(cfg.DingTalk, client),
		NewServerChan(cfg.ServerChan, client),
		NewPushDeer(cfg.PushDeer, client),
		NewTelegram(cfg.Telegram, telegramClient(cfg.Telegram.Proxy, client)),
		NewPushPlus(cfg.PushPlus, client),
		NewSMTP(cfg.SMTP),
		NewFeishu(cfg.Feishu, client),
	}
}

func telegramClient(proxy string, fallback *http.Client) *http.Client {
	if proxy == "" {
		return fallback
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return fallback
	}
	return &http.Client{
		Timeout:   fallback.Timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
}
