package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/drive-signin/internal/model"
)

var report = model.Envelope{
	PlainText:  "[138****0000] sign-in succeeded\nThis sign-in: no reward",
	MarkupText: "<code>138****0000</code> sign-in succeeded\nThis sign-in: no reward",
	Title:      "Aliyun Drive Sign-in",
}

func decodeJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestTelegram_Send(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botBOT:TOKEN/sendMessage", r.URL.Path)
		body = decodeJSON(t, r)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{Endpoint: srv.URL + "/", BotToken: "BOT:TOKEN", ChatID: "42"}, srv.Client())
	require.NoError(t, tg.Send(context.Background(), report))

	assert.Equal(t, "42", body["chat_id"])
	assert.Equal(t, "HTML", body["parse_mode"])
	assert.Equal(t, "<b>Aliyun Drive Sign-in</b>\n\n"+report.MarkupText, body["text"])
}

func TestTelegram_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{Endpoint: srv.URL, BotToken: "t", ChatID: "1"}, srv.Client())
	assert.EqualError(t, tg.Send(context.Background(), report), "telegram: chat not found")
}

func TestDingTalk_SignedRequest(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	var query map[string]string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"access_token": r.URL.Query().Get("access_token"),
			"timestamp":    r.URL.Query().Get("timestamp"),
			"sign":         r.URL.Query().Get("sign"),
		}
		body = decodeJSON(t, r)
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	dt := NewDingTalk(DingTalkConfig{Endpoint: srv.URL, AccessToken: "tok", Secret: "SEC123"}, srv.Client())
	dt.now = func() time.Time { return now }
	require.NoError(t, dt.Send(context.Background(), report))

	mac := hmac.New(sha256.New, []byte("SEC123"))
	mac.Write([]byte("1700000000000\nSEC123"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, "tok", query["access_token"])
	assert.Equal(t, "1700000000000", query["timestamp"])
	assert.Equal(t, want, query["sign"])
	assert.Equal(t, "markdown", body["msgtype"])

	md := body["markdown"].(map[string]any)
	assert.Equal(t, report.Title, md["title"])
	assert.True(t, strings.HasPrefix(md["text"].(string), "## Aliyun Drive Sign-in\n\n"))
}

func TestDingTalk_ErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
	}))
	defer srv.Close()

	dt := NewDingTalk(DingTalkConfig{Endpoint: srv.URL, AccessToken: "tok"}, srv.Client())
	assert.EqualError(t, dt.Send(context.Background(), report), "dingtalk: error 310000: sign not match")
}

func TestServerChan_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/SCT123.send", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, report.Title, r.PostForm.Get("title"))
		assert.Equal(t, "[138****0000] sign-in succeeded\n\nThis sign-in: no reward", r.PostForm.Get("desp"))
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	sc := NewServerChan(ServerChanConfig{Endpoint: srv.URL, SendKey: "SCT123"}, srv.Client())
	assert.NoError(t, sc.Send(context.Background(), report))
}

func TestPushDeer_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/message/push", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "PDU1", r.PostForm.Get("pushkey"))
		assert.Equal(t, "markdown", r.PostForm.Get("type"))
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	pd := NewPushDeer(PushDeerConfig{Endpoint: srv.URL, SendKey: "PDU1"}, srv.Client())
	assert.NoError(t, pd.Send(context.Background(), report))
}

func TestPushPlus_Send(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = decodeJSON(t, r)
		w.Write([]byte(`{"code":200,"msg":"ok"}`))
	}))
	defer srv.Close()

	pp := NewPushPlus(PushPlusConfig{Endpoint: srv.URL, Token: "pp"}, srv.Client())
	require.NoError(t, pp.Send(context.Background(), report))

	assert.Equal(t, "html", body["template"])
	assert.Equal(t, "<code>138****0000</code> sign-in succeeded<br>This sign-in: no reward", body["content"])
}

func TestFeishu_Send(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = decodeJSON(t, r)
		w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer srv.Close()

	fs := NewFeishu(FeishuConfig{Webhook: srv.URL}, srv.Client())
	require.NoError(t, fs.Send(context.Background(), report))

	assert.Equal(t, "text", body["msg_type"])
	content := body["content"].(map[string]any)
	assert.Equal(t, report.Title+"\n\n"+report.PlainText, content["text"])
}

func TestFeishu_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	fs := NewFeishu(FeishuConfig{Webhook: srv.URL}, srv.Client())
	assert.ErrorContains(t, fs.Send(context.Background(), report), "returned error status 400")
}

func TestSMTP_Message(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "smtp.example.com", Sender: "bot@example.com", Receiver: "a@example.com, b@example.com"})
	s.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }

	msg := string(s.message(model.Envelope{PlainText: "line one\nline two", Title: "阿里云盘签到"}, splitAddresses(s.cfg.Receiver)))

	assert.Equal(t, 25, s.cfg.Port)
	assert.Contains(t, msg, "From: bot@example.com\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "Date: Fri, 01 Mar 2024 08:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestSMTP_DefaultTLSPort(t *testing.T) {
	assert.Equal(t, 465, NewSMTP(SMTPConfig{TLS: true}).cfg.Port)
	assert.Equal(t, 587, NewSMTP(SMTPConfig{Port: 587}).cfg.Port)
}

func TestTelegramClient_Proxy(t *testing.T) {
	fallback := &http.Client{Timeout: time.Second}
	assert.Same(t, fallback, telegramClient("", fallback))

	proxied := telegramClient("http://127.0.0.1:7890", fallback)
	require.NotSame(t, fallback, proxied)
	transport := proxied.Transport.(*http.Transport)
	proxyURL, err := transport.Proxy(httptest.NewRequest(http.MethodGet, "https://api.telegram.org", nil))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7890", proxyURL.Host)
}
