package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	appErrors "github.com/unclebandit/drive-signin/internal/errors"
	"github.com/unclebandit/drive-signin/internal/model"
)

// PlainText renders an outcome for plain-text channels.
func PlainText(o model.AccountOutcome) string {
	if o.Success {
		return fmt.Sprintf("[%s] sign-in succeeded, signed in %d days this month.\nThis sign-in: %s",
			o.AccountID, o.StreakCount, o.RewardText)
	}
	return fmt.Sprintf("[%s] sign-in failed\n%s", o.AccountID, ErrorDocument(o.Err))
}

// MarkupText renders an outcome with the identifying fields wrapped in
// <code> tags. Everything else is HTML-escaped.
func MarkupText(o model.AccountOutcome) string {
	id := "<code>" + html.EscapeString(o.AccountID) + "</code>"
	if o.Success {
		return fmt.Sprintf("%s sign-in succeeded, signed in %d days this month.\nThis sign-in: %s",
			id, o.StreakCount, html.EscapeString(o.RewardText))
	}
	return fmt.Sprintf("%s sign-in failed\n<code>%s</code>", id, html.EscapeString(ErrorDocument(o.Err)))
}

type errorDocument struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorDocument serialises err as indented JSON. Struct fields keep their
// order and map keys are sorted, so equal errors render identically.
func ErrorDocument(err error) string {
	doc := errorDocument{Kind: "Error", Message: "unknown error"}
	if err != nil {
		doc = errorDocument{
			Kind:    appErrors.Kind(err),
			Message: err.Error(),
			Payload: appErrors.Payload(err),
		}
	}

	out, encErr := encodeIndented(doc)
	if encErr != nil {
		doc.Payload = fmt.Sprint(doc.Payload)
		out, _ = encodeIndented(doc)
	}
	return out
}

func encodeIndented(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// RedemptionText is the reward report line for one account.
func RedemptionText(account string, r model.Redemption) string {
	return fmt.Sprintf("[%s] %s", account, r.Message)
}
