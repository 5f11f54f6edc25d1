// Package notify delivers rendered cards.
package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kevinmichaelchen/trend-watch/internal/card"
	"github.com/kevinmichaelchen/trend-watch/internal/httpx"
	"github.com/kevinmichaelchen/trend-watch/internal/logging"
)

// Notifier sends one card. Delivery is best effort; failures are logged.
type Notifier interface {
	Notify(ctx context.Context, c card.Card)
}

// Payload is the body of a custom-bot webhook call.
type Payload struct {
	Timestamp string    `json:"timestamp,omitempty"`
	Sign      string    `json:"sign,omitempty"`
	MsgType   string    `json:"msg_type"`
	Card      card.Card `json:"card"`
}

// Webhook posts cards to a Feishu/Lark custom bot. When Secret is set the
// payload is signed.
type Webhook struct {
	URL    string
	Secret string
	Client *httpx.Client
	Now    func() time.Time
}

func NewWebhook(url, secret string) *Webhook {
	return &Webhook{URL: url, Secret: secret, Client: httpx.NewClient(nil)}
}

type botReply struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (w *Webhook) Notify(ctx context.Context, c card.Card) {
	logger := logging.FromContext(ctx)

	payload := Payload{MsgType: "interactive", Card: c}
	if w.Secret != "" {
		now := time.Now
		if w.Now != nil {
			now = w.Now
		}
		ts := strconv.FormatInt(now().Unix(), 10)
		payload.Timestamp = ts
		payload.Sign = Sign(ts, w.Secret)
	}

	logger.Info("posting card", "title", c.Header.Title.Content)
	resp := w.Client.Do(ctx, httpx.Request{
		Method: http.MethodPost,
		URL:    w.URL,
		Body:   payload,
	})
	if !resp.OK {
		logger.Error("webhook delivery failed", "status", resp.StatusCode)
		return
	}

	var reply botReply
	if resp.Decode(&reply) && reply.Code != 0 {
		logger.Warn("webhook rejected card", "code", reply.Code, "msg", reply.Msg)
		return
	}
	logger.Info("card delivered", "response", string(resp.Raw))
}

// Sign computes the custom-bot signature: HMAC-SHA256 keyed with
// "<timestamp>\n<secret>" over an empty message, base64-encoded.
func Sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(timestamp+"\n"+secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Writer prints the webhook payload as indented JSON instead of sending it.
type Writer struct {
	Out io.Writer
}

func (w *Writer) Notify(ctx context.Context, c card.Card) {
	data, err := json.MarshalIndent(Payload{MsgType: "interactive", Card: c}, "", "  ")
	if err != nil {
		logging.FromContext(ctx).Error("encoding card", "err", err)
		return
	}
	_, _ = fmt.Fprintln(w.Out, string(data))
}
