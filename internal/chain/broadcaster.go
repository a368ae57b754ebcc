package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/janda5134-web/solana-signer/internal/models"
)

const (
	broadcastMaxRetries = 3
	preflightCommitment = "confirmed"
)

// Broadcaster submits signed transactions to a Solana JSON-RPC node.
type Broadcaster struct {
	rpc        *rpc.Client
	maxRetries uint
	commitment string
}

func NewBroadcaster(ctx context.Context, endpoint string, httpClient *http.Client) (*Broadcaster, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c, err := rpc.DialOptions(ctx, endpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	return &Broadcaster{
		rpc:        c,
		maxRetries: broadcastMaxRetries,
		commitment: preflightCommitment,
	}, nil
}

func (b *Broadcaster) Close() { b.rpc.Close() }

type sendTransactionOpts struct {
	Encoding            string `json:"encoding"`
	SkipPreflight       bool   `json:"skipPreflight"`
	PreflightCommitment string `json:"preflightCommitment"`
	MaxRetries          uint   `json:"maxRetries"`
}

// Submit sends the signed transaction with full preflight and returns the
// signature the node reports. Resending is left to the node, bounded by
// maxRetries.
func (b *Broadcaster) Submit(ctx context.Context, signed models.SignedTransaction) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(signed.Raw)
	opts := sendTransactionOpts{
		Encoding:            "base64",
		SkipPreflight:       false,
		PreflightCommitment: b.commitment,
		MaxRetries:          b.maxRetries,
	}

	var txSig string
	if err := b.rpc.CallContext(ctx, &txSig, "sendTransaction", encoded, opts); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return txSig, nil
}
