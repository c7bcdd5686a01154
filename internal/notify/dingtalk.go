package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/unclebandit/drive-signin/internal/model"
)

const defaultDingTalkEndpoint = "https://oapi.dingtalk.com/robot/send"

// DingTalk posts a markdown message to a signed custom robot.
type DingTalk struct {
	cfg    DingTalkConfig
	client *http.Client
	now    func() time.Time
}

func NewDingTalk(cfg DingTalkConfig, client *http.Client) *DingTalk {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultDingTalkEndpoint
	}
	return &DingTalk{cfg: cfg, client: client, now: time.Now}
}

func (d *DingTalk) Name() string { return "dingtalk" }

func (d *DingTalk) Send(ctx context.Context, env model.Envelope) error {
	if d.cfg.AccessToken == "" {
		return errors.New("dingtalk access token is not configured")
	}

	q := url.Values{}
	q.Set("access_token", d.cfg.AccessToken)
	if d.cfg.Secret != "" {
		ts := d.now().UnixMilli()
		q.Set("timestamp", strconv.FormatInt(ts, 10))
		q.Set("sign", dingTalkSign(ts, d.cfg.Secret))
	}

	body := map[string]any{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": env.Title,
			"text":  "## " + env.Title + "\n\n" + markdownLines(env.PlainText),
		},
	}

	var resp struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := postJSON(ctx, d.client, d.cfg.Endpoint+"?"+q.Encode(), body, &resp); err != nil {
		return fmt.Errorf("dingtalk: %w", err)
	}
	if resp.ErrCode != 0 {
		return fmt.Errorf("dingtalk: error %d: %s", resp.ErrCode, resp.ErrMsg)
	}
	return nil
}

// dingTalkSign is base64(HMAC-SHA256(secret, "timestamp\nsecret")).
func dingTalkSign(ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d\n%s", ts, secret)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
