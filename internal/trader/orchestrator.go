package trader

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/janda5134-web/solana-signer/internal/auth"
	"github.com/janda5134-web/solana-signer/internal/chain"
	"github.com/janda5134-web/solana-signer/internal/external"
	"github.com/janda5134-web/solana-signer/internal/models"
	"github.com/janda5134-web/solana-signer/internal/notifications"
)

type QuoteProvider interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (models.Quote, error)
}

type SwapProvider interface {
	BuildSwap(ctx context.Context, quote models.Quote, userPublicKey string, wrapAndUnwrapSol bool, priorityFeeLamports *int64) (models.UnsignedSwapTransaction, error)
}

type TxBroadcaster interface {
	Submit(ctx context.Context, signed models.SignedTransaction) (string, error)
}

type Notifier interface {
	Trade(ev notifications.TradeEvent)
}

type Config struct {
	HMACSecret                string
	InputMint                 string
	SlippageBps               int
	PrioritizationFeeLamports *int64
}

type Deps struct {
	Keypair     *chain.Keypair
	Quotes      QuoteProvider
	Swaps       SwapProvider
	Broadcaster TxBroadcaster
	Notify      Notifier
}

// Orchestrator runs one trade request through authentication, quote, swap
// build, signing and broadcast. Requests are independent: nothing here
// serializes concurrent trades that share the signing key.
type Orchestrator struct {
	cfg    Config
	secret []byte
	kp     *chain.Keypair
	quotes QuoteProvider
	swaps  SwapProvider
	bcast  TxBroadcaster
	notify Notifier
}

func NewOrchestrator(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Keypair == nil {
		return nil, chain.ErrMissingKey
	}
	if deps.Quotes == nil || deps.Swaps == nil || deps.Broadcaster == nil {
		return nil, errors.New("trader: quote, swap and broadcast providers are required")
	}
	return &Orchestrator{
		cfg:    cfg,
		secret: []byte(cfg.HMACSecret),
		kp:     deps.Keypair,
		quotes: deps.Quotes,
		swaps:  deps.Swaps,
		bcast:  deps.Broadcaster,
		notify: deps.Notify,
	}, nil
}

// Pubkey is the address every trade is executed from.
func (o *Orchestrator) Pubkey() string { return o.kp.Address() }

// Execute returns a *Error for every failure.
func (o *Orchestrator) Execute(ctx context.Context, req *models.TradeRequest) (*models.TradeResult, error) {
	if !o.authenticated(req) {
		return nil, fail(KindBadAuthentication, nil)
	}

	ord, err := parseOrder(req.RawBody)
	if err != nil {
		return nil, fail(KindBadRequestBody, err)
	}

	logger := log.WithFields(log.Fields{
		"component": "trader",
		"mint_out":  ord.MintOut,
		"lamports":  ord.Lamports,
	})

	quote, err := o.quotes.GetQuote(ctx, o.cfg.InputMint, ord.MintOut, ord.Lamports, o.cfg.SlippageBps)
	if err != nil {
		return nil, o.failed(logger, ord, "quote", err)
	}

	unsigned, err := o.swaps.BuildSwap(ctx, quote, o.kp.Address(), true, o.cfg.PrioritizationFeeLamports)
	if err != nil {
		return nil, o.failed(logger, ord, "swap", err)
	}

	signed, err := chain.SignTransaction(unsigned, o.kp)
	if err != nil {
		return nil, o.failed(logger, ord, "sign", err)
	}

	txSig, err := o.bcast.Submit(ctx, signed)
	if err != nil {
		return nil, o.failed(logger, ord, "broadcast", err)
	}

	logger.WithField("tx", txSig).Info("swap broadcast")
	o.send(notifications.TradeEvent{
		Pubkey:   o.kp.Address(),
		MintOut:  ord.MintOut,
		Lamports: ord.Lamports,
		Tx:       txSig,
	})

	return &models.TradeResult{
		OK:       true,
		Tx:       txSig,
		Pubkey:   o.kp.Address(),
		MintOut:  ord.MintOut,
		Lamports: ord.Lamports,
	}, nil
}

func (o *Orchestrator) authenticated(req *models.TradeRequest) bool {
	return auth.Verify(req.RawBody, req.Timestamp, req.Signature, o.secret)
}

// failed classifies a stage error into the closed error set.
func (o *Orchestrator) failed(logger *log.Entry, ord *order, stage string, err error) *Error {
	kind := KindInternal
	switch {
	case errors.Is(err, external.ErrQuoteFailed):
		kind = KindQuoteFailed
	case errors.Is(err, external.ErrSwapPrepFailed):
		kind = KindSwapPrepFailed
	}

	logger.WithError(err).WithField("stage", stage).Warn("trade failed")
	o.send(notifications.TradeEvent{
		Pubkey:   o.kp.Address(),
		MintOut:  ord.MintOut,
		Lamports: ord.Lamports,
		Stage:    stage,
		Err:      err,
	})
	return fail(kind, err)
}

func (o *Orchestrator) send(ev notifications.TradeEvent) {
	if o.notify == nil {
		return
	}
	go o.notify.Trade(ev)
}
