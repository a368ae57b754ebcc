package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/janda5134-web/solana-signer/internal/auth"
	"github.com/janda5134-web/solana-signer/internal/models"
)

var trade = cli.Command{
	Name:  "trade",
	Usage: "send one authenticated swap request to a running signer",
	Flags: []cli.Flag{
		secretFlag,
		&cli.StringFlag{
			Name:    "url",
			Usage:   "signer base URL",
			Value:   "http://localhost:8080",
			EnvVars: []string{"SIGNER_URL"},
		},
		&cli.StringFlag{
			Name:     "mint",
			Usage:    "output token mint",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "SOL amount to spend",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "timestamp",
			Usage: "X-Timestamp value, defaults to now in unix milliseconds",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: 60 * time.Second,
		},
	},
	Action: tradeAction,
}

func tradeAction(ctx *cli.Context) error {
	secret, err := requireSecret(ctx)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(ctx.String("amount"))
	if err != nil {
		return fmt.Errorf("invalid --amount: %w", err)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("--amount must be positive")
	}

	body, err := json.Marshal(models.TradeBody{
		MintOut:   ctx.String("mint"),
		AmountSol: json.Number(amount.String()),
	})
	if err != nil {
		return err
	}
	ts := timestampOrNow(ctx)

	endpoint := strings.TrimRight(ctx.String("url"), "/") + "/trade"
	req, err := http.NewRequestWithContext(ctx.Context, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Sign", auth.Sign(secret, body, ts))

	client := &http.Client{Timeout: ctx.Duration("timeout")}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%s\n", bytes.TrimSpace(out))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("signer returned %d", resp.StatusCode)
	}
	return nil
}
