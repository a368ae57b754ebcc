package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/janda5134-web/solana-signer/internal/httputil"
)

const (
	defaultBotName = "SolanaSigner"

	colorOK     = 0x2eb67d
	colorFailed = 0xe01e5a
)

// TradeEvent describes the outcome of one relayed swap. Stage and Err are
// set only for failures.
type TradeEvent struct {
	Pubkey   string
	MintOut  string
	Lamports uint64
	Tx       string
	Stage    string
	Err      error
}

func (e TradeEvent) Succeeded() bool { return e.Err == nil }

// SOL renders the input amount in SOL without float rounding.
func (e TradeEvent) SOL() string {
	return decimal.NewFromUint64(e.Lamports).Shift(-9).String()
}

func (e TradeEvent) Summary() string {
	if e.Succeeded() {
		return fmt.Sprintf("Swap sent: %s SOL (%d lamports) -> %s | tx %s", e.SOL(), e.Lamports, e.MintOut, e.Tx)
	}
	return fmt.Sprintf("Swap failed at %s: %s SOL -> %s | %v", e.Stage, e.SOL(), e.MintOut, e.Err)
}

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (e TradeEvent) fields() []field {
	out := []field{
		{Name: "Mint", Value: e.MintOut},
		{Name: "Amount", Value: fmt.Sprintf("%s SOL (%d lamports)", e.SOL(), e.Lamports)},
		{Name: "Signer", Value: e.Pubkey},
	}
	if e.Succeeded() {
		return append(out, field{Name: "Tx", Value: e.Tx})
	}
	return append(out,
		field{Name: "Stage", Value: e.Stage},
		field{Name: "Error", Value: e.Err.Error()},
	)
}

// Sender posts relay events to a Slack or Discord compatible webhook. With
// no webhook configured it only logs.
type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	timeout    time.Duration
}

func NewSender(webhookURL, botName string) *Sender {
	if botName == "" {
		botName = defaultBotName
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
		timeout: 30 * time.Second,
	}
}

// Send posts a plain status line such as the startup notice.
func (s *Sender) Send(msg string) {
	text := fmt.Sprintf("[%s] %s", s.botName, msg)
	log.WithField("component", "notify").Info(text)
	s.post(s.textPayload(text))
}

// Trade posts a swap outcome with its mint, amount and transaction or
// failing stage as separate fields.
func (s *Sender) Trade(ev TradeEvent) {
	logger := log.WithFields(log.Fields{
		"component": "notify",
		"mint_out":  ev.MintOut,
		"lamports":  ev.Lamports,
	})
	if ev.Succeeded() {
		logger.WithField("tx", ev.Tx).Info(ev.Summary())
	} else {
		logger.WithField("stage", ev.Stage).Warn(ev.Summary())
	}
	s.post(s.tradePayload(ev))
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// --- delivery ---

func (s *Sender) post(payload map[string]any) {
	if s.webhookURL == "" {
		return
	}
	logger := log.WithField("component", "notify")

	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Warn("marshal notification")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		logger.WithError(err).Warn("failed to deliver notification after retries")
		return
	}
	resp.Body.Close()
}

// --- payloads ---

func (s *Sender) discord() bool {
	return strings.Contains(s.webhookURL, "discord")
}

func (s *Sender) textPayload(text string) map[string]any {
	if s.discord() {
		return map[string]any{"content": text, "username": s.botName}
	}
	return map[string]any{"text": fmt.Sprintf("`%s`", text), "username": s.botName}
}

func (s *Sender) tradePayload(ev TradeEvent) map[string]any {
	color, title := colorOK, "Swap sent"
	if !ev.Succeeded() {
		color, title = colorFailed, "Swap failed"
	}
	fields := ev.fields()

	if s.discord() {
		return map[string]any{
			"username": s.botName,
			"content":  ev.Summary(),
			"embeds": []map[string]any{{
				"title":  title,
				"color":  color,
				"fields": fields,
			}},
		}
	}

	slackFields := make([]map[string]any, len(fields))
	for i, f := range fields {
		slackFields[i] = map[string]any{"title": f.Name, "value": f.Value, "short": f.Name != "Error"}
	}
	return map[string]any{
		"username": s.botName,
		"text":     ev.Summary(),
		"attachments": []map[string]any{{
			"title":  title,
			"color":  fmt.Sprintf("#%06x", color),
			"fields": slackFields,
		}},
	}
}
