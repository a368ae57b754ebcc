package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/janda5134-web/solana-signer/internal/auth"
)

var sign = cli.Command{
	Name:  "sign",
	Usage: "compute the X-Sign header for a request body",
	Flags: []cli.Flag{
		secretFlag,
		&cli.StringFlag{
			Name:     "body",
			Usage:    "exact request body to sign",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "timestamp",
			Usage: "X-Timestamp value, defaults to now in unix milliseconds",
		},
	},
	Action: signAction,
}

func signAction(ctx *cli.Context) error {
	secret, err := requireSecret(ctx)
	if err != nil {
		return err
	}
	ts := timestampOrNow(ctx)

	fmt.Fprintf(ctx.App.Writer, "X-Timestamp: %s\n", ts)
	fmt.Fprintf(ctx.App.Writer, "X-Sign: %s\n", auth.Sign(secret, []byte(ctx.String("body")), ts))
	return nil
}
