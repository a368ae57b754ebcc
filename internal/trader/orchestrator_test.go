package trader

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janda5134-web/solana-signer/internal/auth"
	"github.com/janda5134-web/solana-signer/internal/chain"
	"github.com/janda5134-web/solana-signer/internal/external"
	"github.com/janda5134-web/solana-signer/internal/models"
	"github.com/janda5134-web/solana-signer/internal/notifications"
	"github.com/janda5134-web/solana-signer/internal/testutil"
)

const (
	testSecret = "s3cr3t"
	wsol       = "So11111111111111111111111111111111111111112"
)

type fakeQuotes struct {
	t      *testing.T
	forbid bool
	quote  models.Quote
	err    error
	calls  int

	inputMint, outputMint string
	amount                uint64
	slippageBps           int
}

func (f *fakeQuotes) GetQuote(_ context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (models.Quote, error) {
	if f.forbid {
		f.t.Fatal("quote endpoint must not be called")
	}
	f.calls++
	f.inputMint, f.outputMint, f.amount, f.slippageBps = inputMint, outputMint, amount, slippageBps
	return f.quote, f.err
}

type fakeSwaps struct {
	t      *testing.T
	forbid bool
	tx     models.UnsignedSwapTransaction
	err    error
	calls  int

	quote  models.Quote
	user   string
	wrap   bool
	feePtr *int64
}

func (f *fakeSwaps) BuildSwap(_ context.Context, quote models.Quote, user string, wrap bool, fee *int64) (models.UnsignedSwapTransaction, error) {
	if f.forbid {
		f.t.Fatal("swap endpoint must not be called")
	}
	f.calls++
	f.quote, f.user, f.wrap, f.feePtr = quote, user, wrap, fee
	return f.tx, f.err
}

type fakeBroadcaster struct {
	t      *testing.T
	forbid bool
	sig    string
	err    error
	calls  int
	got    models.SignedTransaction
}

func (f *fakeBroadcaster) Submit(_ context.Context, signed models.SignedTransaction) (string, error) {
	if f.forbid {
		f.t.Fatal("broadcaster must not be called")
	}
	f.calls++
	f.got = signed
	return f.sig, f.err
}

type chanNotifier chan notifications.TradeEvent

func (c chanNotifier) Trade(ev notifications.TradeEvent) { c <- ev }

type harness struct {
	kp     *chain.Keypair
	quotes *fakeQuotes
	swaps  *fakeSwaps
	bcast  *fakeBroadcaster
	orch   *Orchestrator
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	kp, _ := testutil.NewKeypair(t)
	h := &harness{
		kp:     kp,
		quotes: &fakeQuotes{t: t, quote: models.Quote(`{"outAmount":"42"}`)},
		swaps:  &fakeSwaps{t: t, tx: testutil.UnsignedTransfer(t, kp.PublicKey())},
		bcast:  &fakeBroadcaster{t: t, sig: "sig123"},
	}
	if cfg.InputMint == "" {
		cfg.InputMint = wsol
	}
	orch, err := NewOrchestrator(cfg, Deps{
		Keypair:     kp,
		Quotes:      h.quotes,
		Swaps:       h.swaps,
		Broadcaster: h.bcast,
	})
	require.NoError(t, err)
	h.orch = orch
	return h
}

func (h *harness) forbidNetwork() {
	h.quotes.forbid = true
	h.swaps.forbid = true
	h.bcast.forbid = true
}

func signedRequest(body string) *models.TradeRequest {
	ts := fmt.Sprint(time.Now().UnixMilli())
	return &models.TradeRequest{
		RawBody:   []byte(body),
		Timestamp: ts,
		Signature: auth.Sign([]byte(testSecret), []byte(body), ts),
	}
}

func TestExecute_Success(t *testing.T) {
	fee := int64(10_000)
	h := newHarness(t, Config{HMACSecret: testSecret, SlippageBps: 50, PrioritizationFeeLamports: &fee})

	res, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, "sig123", res.Tx)
	assert.Equal(t, h.kp.Address(), res.Pubkey)
	assert.Equal(t, uint64(10_000_000), res.Lamports)

	assert.Equal(t, wsol, h.quotes.inputMint)
	assert.Equal(t, "TOKEN", h.quotes.outputMint)
	assert.Equal(t, uint64(10_000_000), h.quotes.amount)
	assert.Equal(t, 50, h.quotes.slippageBps)

	assert.Equal(t, `{"outAmount":"42"}`, string(h.swaps.quote))
	assert.Equal(t, h.kp.Address(), h.swaps.user)
	assert.True(t, h.swaps.wrap)
	require.NotNil(t, h.swaps.feePtr)
	assert.Equal(t, fee, *h.swaps.feePtr)

	require.Equal(t, 1, h.bcast.calls)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(h.bcast.got.Raw))
	require.NoError(t, err)
	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	pub := h.kp.PublicKey()
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub[:]), msg, tx.Signatures[0][:]))
}

func TestExecute_NoPriorityFeeConfigured(t *testing.T) {
	h := newHarness(t, Config{HMACSecret: testSecret, SlippageBps: 50})

	_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":1.5}`))
	require.NoError(t, err)
	assert.Nil(t, h.swaps.feePtr)
	assert.Equal(t, uint64(1_500_000_000), h.quotes.amount)
}

func TestExecute_BadSignature(t *testing.T) {
	bodies := []string{
		`{"mintOut":"TOKEN","amountSol":0.01}`,
		`{"amountSol":0.01}`,
		`not json`,
	}
	for _, body := range bodies {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.forbidNetwork()

		req := signedRequest(body)
		req.Signature = auth.Sign([]byte("wrong"), req.RawBody, req.Timestamp)

		_, err := h.orch.Execute(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, KindBadAuthentication, KindOf(err), body)
		assert.Equal(t, "bad_hmac", CodeOf(err))
	}
}

func TestExecute_MissingAuthInputs(t *testing.T) {
	body := `{"mintOut":"TOKEN","amountSol":0.01}`

	t.Run("no secret configured", func(t *testing.T) {
		h := newHarness(t, Config{})
		h.forbidNetwork()
		_, err := h.orch.Execute(context.Background(), signedRequest(body))
		assert.Equal(t, KindBadAuthentication, KindOf(err))
	})

	t.Run("no timestamp", func(t *testing.T) {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.forbidNetwork()
		req := signedRequest(body)
		req.Timestamp = ""
		_, err := h.orch.Execute(context.Background(), req)
		assert.Equal(t, KindBadAuthentication, KindOf(err))
	})

	t.Run("no signature", func(t *testing.T) {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.forbidNetwork()
		req := signedRequest(body)
		req.Signature = ""
		_, err := h.orch.Execute(context.Background(), req)
		assert.Equal(t, KindBadAuthentication, KindOf(err))
	})
}

func TestExecute_BadBody(t *testing.T) {
	bodies := []string{
		`{"amountSol":0.01}`,
		`{"mintOut":"TOKEN"}`,
		`{"mintOut":"TOKEN","amountSol":0}`,
		`{"mintOut":"TOKEN","amountSol":-1}`,
		`{"mintOut":"","amountSol":1}`,
		`garbage`,
	}
	for _, body := range bodies {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.forbidNetwork()

		_, err := h.orch.Execute(context.Background(), signedRequest(body))
		require.Error(t, err)
		assert.Equal(t, KindBadRequestBody, KindOf(err), body)
		assert.Equal(t, "bad_body", CodeOf(err))
	}
}

func TestExecute_QuoteFailed(t *testing.T) {
	h := newHarness(t, Config{HMACSecret: testSecret})
	h.quotes.err = fmt.Errorf("%w: status 400", external.ErrQuoteFailed)
	h.swaps.forbid = true
	h.bcast.forbid = true

	_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
	require.Error(t, err)
	assert.Equal(t, KindQuoteFailed, KindOf(err))
	assert.Equal(t, "quote_failed", CodeOf(err))
	assert.Equal(t, 1, h.quotes.calls)
}

func TestExecute_SwapPrepFailed(t *testing.T) {
	h := newHarness(t, Config{HMACSecret: testSecret})
	h.swaps.err = fmt.Errorf("%w: status 500", external.ErrSwapPrepFailed)
	h.bcast.forbid = true

	_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
	require.Error(t, err)
	assert.Equal(t, KindSwapPrepFailed, KindOf(err))
	assert.Equal(t, "swap_prep_failed", CodeOf(err))
}

func TestExecute_GenericFailures(t *testing.T) {
	t.Run("quote transport error", func(t *testing.T) {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.quotes.err = errors.New("dial tcp: connection refused")
		h.swaps.forbid = true
		h.bcast.forbid = true

		_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Equal(t, "dial tcp: connection refused", CodeOf(err))
	})

	t.Run("signer is not fee payer", func(t *testing.T) {
		h := newHarness(t, Config{HMACSecret: testSecret})
		stranger, _ := testutil.NewKeypair(t)
		h.swaps.tx = testutil.UnsignedTransfer(t, stranger.PublicKey())
		h.bcast.forbid = true

		_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
		assert.Equal(t, KindInternal, KindOf(err))
		assert.ErrorIs(t, err, chain.ErrNotSigner)
	})

	t.Run("undecodable transaction", func(t *testing.T) {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.swaps.tx = "%%%"
		h.bcast.forbid = true

		_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
		assert.Equal(t, KindInternal, KindOf(err))
	})

	t.Run("broadcast rejected", func(t *testing.T) {
		h := newHarness(t, Config{HMACSecret: testSecret})
		h.bcast.err = errors.New("send transaction: Transaction simulation failed")

		_, err := h.orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Equal(t, "send transaction: Transaction simulation failed", CodeOf(err))
	})
}

func TestExecute_Notifies(t *testing.T) {
	kp, _ := testutil.NewKeypair(t)
	notes := make(chanNotifier, 1)
	orch, err := NewOrchestrator(Config{HMACSecret: testSecret, InputMint: wsol}, Deps{
		Keypair:     kp,
		Quotes:      &fakeQuotes{t: t, quote: models.Quote(`{}`)},
		Swaps:       &fakeSwaps{t: t, tx: testutil.UnsignedTransfer(t, kp.PublicKey())},
		Broadcaster: &fakeBroadcaster{t: t, sig: "sig123"},
		Notify:      notes,
	})
	require.NoError(t, err)

	_, err = orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":0.01}`))
	require.NoError(t, err)

	select {
	case ev := <-notes:
		assert.True(t, ev.Succeeded())
		assert.Equal(t, "sig123", ev.Tx)
		assert.Equal(t, "TOKEN", ev.MintOut)
		assert.Equal(t, uint64(10_000_000), ev.Lamports)
		assert.Equal(t, kp.Address(), ev.Pubkey)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification")
	}
}

func TestExecute_NotifiesFailedStage(t *testing.T) {
	kp, _ := testutil.NewKeypair(t)
	notes := make(chanNotifier, 1)
	orch, err := NewOrchestrator(Config{HMACSecret: testSecret, InputMint: wsol}, Deps{
		Keypair:     kp,
		Quotes:      &fakeQuotes{t: t, quote: models.Quote(`{}`)},
		Swaps:       &fakeSwaps{t: t, err: fmt.Errorf("%w: status 500", external.ErrSwapPrepFailed)},
		Broadcaster: &fakeBroadcaster{t: t, forbid: true},
		Notify:      notes,
	})
	require.NoError(t, err)

	_, err = orch.Execute(context.Background(), signedRequest(`{"mintOut":"TOKEN","amountSol":1.5}`))
	require.Error(t, err)

	select {
	case ev := <-notes:
		assert.False(t, ev.Succeeded())
		assert.Equal(t, "swap", ev.Stage)
		assert.Equal(t, uint64(1_500_000_000), ev.Lamports)
		assert.ErrorIs(t, ev.Err, external.ErrSwapPrepFailed)
		assert.Empty(t, ev.Tx)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a failure notification")
	}
}

func TestNewOrchestrator_RequiresKey(t *testing.T) {
	_, err := NewOrchestrator(Config{}, Deps{})
	assert.ErrorIs(t, err, chain.ErrMissingKey)
}
