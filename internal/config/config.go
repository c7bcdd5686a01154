// Package config loads settings from defaults, an optional config file and
// environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/unclebandit/drive-signin/internal/notify"
)

const (
	StoreFile     = "file"
	StoreGitHub   = "github"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

// Config holds all configuration for the sign-in job and its run modes.
type Config struct {
	RefreshTokens []string `mapstructure:"refresh_tokens"`
	PushTypes     []string `mapstructure:"push_types"`

	RewardEnabled bool   `mapstructure:"reward_enabled"`
	RewardCode    string `mapstructure:"reward_code"`

	CredentialStore  string `mapstructure:"credential_store"`
	ConfigFile       string `mapstructure:"config"`
	DatabaseURL      string `mapstructure:"database_url"`
	GitHubToken      string `mapstructure:"github_token"`
	GitHubRepository string `mapstructure:"github_repository"`
	GitHubSecretName string `mapstructure:"github_secret_name"`

	RabbitMQURL    string        `mapstructure:"rabbitmq_url"`
	ServerPort     string        `mapstructure:"server_port"`
	SignInSchedule string        `mapstructure:"signin_schedule"`
	RunTimeout     time.Duration `mapstructure:"run_timeout"`

	Action  bool   `mapstructure:"action"`
	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`

	DingTalkEndpoint    string `mapstructure:"dingtalk_endpoint"`
	DingTalkAccessToken string `mapstructure:"dingtalk_access_token"`
	DingTalkSecret      string `mapstructure:"dingtalk_secret"`
	ServerChanEndpoint  string `mapstructure:"serverchan_endpoint"`
	ServerChanSendKey   string `mapstructure:"serverchan_send_key"`
	PushDeerEndpoint    string `mapstructure:"pushdeer_endpoint"`
	PushDeerSendKey     string `mapstructure:"pushdeer_send_key"`
	TelegramEndpoint    string `mapstructure:"telegram_endpoint"`
	TelegramBotToken    string `mapstructure:"telegram_bot_token"`
	TelegramChatID      string `mapstructure:"telegram_chat_id"`
	TelegramProxy       string `mapstructure:"telegram_proxy"`
	PushPlusEndpoint    string `mapstructure:"pushplus_endpoint"`
	PushPlusToken       string `mapstructure:"pushplus_token"`
	SMTPHost            string `mapstructure:"smtp_host"`
	SMTPPort            int    `mapstructure:"smtp_port"`
	SMTPTLS             bool   `mapstructure:"smtp_tls"`
	SMTPUser            string `mapstructure:"smtp_user"`
	SMTPPassword        string `mapstructure:"smtp_password"`
	SMTPSender          string `mapstructure:"smtp_sender"`
	SMTPReceiver        string `mapstructure:"smtp_receiver"`
	FeishuWebhook       string `mapstructure:"feishu_webhook"`
}

var keys = []string{
	"refresh_tokens", "push_types", "reward_enabled", "reward_code",
	"credential_store", "config", "database_url",
	"github_token", "github_repository", "github_secret_name",
	"rabbitmq_url", "server_port", "signin_schedule", "run_timeout",
	"action", "debug", "log_file",
	"dingtalk_endpoint", "dingtalk_access_token", "dingtalk_secret",
	"serverchan_endpoint", "serverchan_send_key",
	"pushdeer_endpoint", "pushdeer_send_key",
	"telegram_endpoint", "telegram_bot_token", "telegram_chat_id", "telegram_proxy",
	"pushplus_endpoint", "pushplus_token",
	"smtp_host", "smtp_port", "smtp_tls", "smtp_user", "smtp_password", "smtp_sender", "smtp_receiver",
	"feishu_webhook",
}

// Flags registers the command line flags shared by every binary.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.BoolP("action", "a", false, "run inside GitHub Actions: configuration from environment, tokens saved to a repository secret")
	fs.BoolP("debug", "d", false, "debug logging")
	fs.StringP("config", "c", "config.toml", "config file")
	return fs
}

// LoadConfig reads configuration. flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("push_types", []string{})
	v.SetDefault("reward_enabled", false)
	v.SetDefault("reward_code", "阿里云盘两周年")
	v.SetDefault("config", "config.toml")
	v.SetDefault("github_secret_name", "REFRESH_TOKENS")
	v.SetDefault("server_port", "8080")
	v.SetDefault("signin_schedule", "0 8 * * *") // every day at 08:00
	v.SetDefault("run_timeout", "10m")
	v.SetDefault("log_file", "aliyun_auto_signin.log")
	v.SetDefault("telegram_endpoint", "https://api.telegram.org")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	if flags != nil {
		for _, name := range []string{"action", "debug", "config"} {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(name, f)
			}
		}
	}

	// In Actions everything comes from the environment, as before.
	if !v.GetBool("action") {
		v.SetConfigFile(v.GetString("config"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.PushTypes = splitList(cfg.PushTypes)
	cfg.RefreshTokens = splitList(cfg.RefreshTokens)

	if cfg.CredentialStore == "" {
		switch {
		case cfg.Action:
			cfg.CredentialStore = StoreGitHub
		case cfg.DatabaseURL != "":
			cfg.CredentialStore = StorePostgres
		default:
			cfg.CredentialStore = StoreFile
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the chosen credential store depends on.
func (c *Config) Validate() error {
	switch c.CredentialStore {
	case StoreFile, StoreNone:
	case StoreGitHub:
		if c.GitHubToken == "" || c.GitHubRepository == "" {
			return errors.New("GITHUB_TOKEN and GITHUB_REPOSITORY are required for the github credential store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres credential store")
		}
	default:
		return fmt.Errorf("unknown credential store %q", c.CredentialStore)
	}
	if c.RewardEnabled && strings.TrimSpace(c.RewardCode) == "" {
		return errors.New("REWARD_CODE is required when reward redemption is enabled")
	}
	return nil
}

// Notify maps the flat push settings onto the backend configs.
func (c *Config) Notify() notify.Config {
	return notify.Config{
		DingTalk: notify.DingTalkConfig{
			Endpoint:    c.DingTalkEndpoint,
			AccessToken: c.DingTalkAccessToken,
			Secret:      c.DingTalkSecret,
		},
		ServerChan: notify.ServerChanConfig{Endpoint: c.ServerChanEndpoint, SendKey: c.ServerChanSendKey},
		PushDeer:   notify.PushDeerConfig{Endpoint: c.PushDeerEndpoint, SendKey: c.PushDeerSendKey},
		Telegram: notify.TelegramConfig{
			Endpoint: c.TelegramEndpoint,
			BotToken: c.TelegramBotToken,
			ChatID:   c.TelegramChatID,
			Proxy:    c.TelegramProxy,
		},
		PushPlus: notify.PushPlusConfig{Endpoint: c.PushPlusEndpoint, Token: c.PushPlusToken},
		SMTP: notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			TLS:      c.SMTPTLS,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			Sender:   c.SMTPSender,
			Receiver: c.SMTPReceiver,
		},
		Feishu: notify.FeishuConfig{Webhook: c.FeishuWebhook},
	}
}

// splitList accepts both real lists and comma-separated strings.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
