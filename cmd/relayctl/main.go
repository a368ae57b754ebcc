package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
)

var secretFlag = &cli.StringFlag{
	Name:    "secret",
	Usage:   "shared HMAC secret",
	EnvVars: []string{"HMAC_SECRET"},
}

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "relayctl"
	app.Usage = "Command line interface for solana-signer operators"
	app.Commands = append(
		app.Commands,
		&sign,
		&pubkey,
		&trade,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func requireSecret(ctx *cli.Context) ([]byte, error) {
	secret := ctx.String(secretFlag.Name)
	if secret == "" {
		return nil, errors.New("--secret or HMAC_SECRET is required")
	}
	return []byte(secret), nil
}

// timestampOrNow returns the --timestamp flag, defaulting to the current
// unix time in milliseconds.
func timestampOrNow(ctx *cli.Context) string {
	if ts := ctx.String("timestamp"); ts != "" {
		return ts
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "[relayctl] %v\n", err)
	os.Exit(1)
}
