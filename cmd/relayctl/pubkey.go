package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/janda5134-web/solana-signer/internal/chain"
)

var pubkey = cli.Command{
	Name:  "pubkey",
	Usage: "print the address of the configured trader key",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "secret-base58",
			Usage:   "64-byte secret key, base58",
			EnvVars: []string{"TRADER_SECRET_BASE58"},
		},
		&cli.StringFlag{
			Name:    "secret-json",
			Usage:   "64-byte secret key as a JSON array of integers",
			EnvVars: []string{"TRADER_SECRET_JSON"},
		},
	},
	Action: pubkeyAction,
}

func pubkeyAction(ctx *cli.Context) error {
	src, err := chain.ResolveKeySource(ctx.String("secret-base58"), ctx.String("secret-json"))
	if err != nil {
		return err
	}
	kp, err := chain.LoadKeypair(src)
	if err != nil {
		return fmt.Errorf("%s key: %w", src.Encoding, err)
	}

	fmt.Fprintln(ctx.App.Writer, kp.Address())
	return nil
}
