package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/janda5134-web/solana-signer/internal/models"
)

const defaultJupiterBase = "https://quote-api.jup.ag"

var (
	ErrQuoteFailed    = errors.New("quote_failed")
	ErrSwapPrepFailed = errors.New("swap_prep_failed")
)

// JupiterClient talks to the Jupiter v6 swap API. Calls are made once; a
// non-2xx answer is reported as ErrQuoteFailed or ErrSwapPrepFailed and left
// to the caller to retry.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

type JupiterOptions struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond paces outbound calls; 0 disables pacing.
	RequestsPerSecond int
}

func NewJupiterClient(opts JupiterOptions) *JupiterClient {
	base := opts.BaseURL
	if base == "" {
		base = defaultJupiterBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limiter := ratelimit.NewUnlimited()
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(opts.RequestsPerSecond)
	}

	return &JupiterClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// GetQuote asks for the best route converting amount base units of
// inputMint into outputMint.
func (j *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (models.Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/v6/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	if err := j.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := j.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jupiter quote: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: status %d: %s", ErrQuoteFailed, resp.StatusCode, snippet(resp.Body))
	}

	var quote models.Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	return quote, nil
}

type swapRequest struct {
	QuoteResponse             models.Quote `json:"quoteResponse"`
	UserPublicKey             string       `json:"userPublicKey"`
	WrapAndUnwrapSol          bool         `json:"wrapAndUnwrapSol"`
	PrioritizationFeeLamports *int64       `json:"prioritizationFeeLamports,omitempty"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwap asks the aggregator for an unsigned transaction executing quote
// with userPublicKey as fee payer. A nil priorityFeeLamports leaves the
// field out of the request entirely.
func (j *JupiterClient) BuildSwap(ctx context.Context, quote models.Quote, userPublicKey string, wrapAndUnwrapSol bool, priorityFeeLamports *int64) (models.UnsignedSwapTransaction, error) {
	body, err := json.Marshal(swapRequest{
		QuoteResponse:             quote,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          wrapAndUnwrapSol,
		PrioritizationFeeLamports: priorityFeeLamports,
	})
	if err != nil {
		return "", fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := j.wait(ctx); err != nil {
		return "", err
	}
	resp, err := j.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("jupiter swap: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", fmt.Errorf("%w: status %d: %s", ErrSwapPrepFailed, resp.StatusCode, snippet(resp.Body))
	}

	var data swapResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode swap response: %w", err)
	}
	if data.SwapTransaction == "" {
		return "", fmt.Errorf("swap response missing swapTransaction")
	}

	log.WithField("component", "jupiter").Debugf("swap transaction built for %s", userPublicKey)
	return models.UnsignedSwapTransaction(data.SwapTransaction), nil
}

// --- helpers ---

// wait takes a pacing slot and reports whether ctx ended while waiting.
func (j *JupiterClient) wait(ctx context.Context) error {
	j.limiter.Take()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("jupiter: %w", err)
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func snippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(body)
}
