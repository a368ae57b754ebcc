package trader

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/janda5134-web/solana-signer/internal/models"
)

const (
	lamportsPerSOLExp = 9

	// Limits checked before any decimal arithmetic, which scales by 10^|exp|.
	maxAmountLen      = 64
	maxAmountExponent = 32
)

var (
	errMissingMint   = errors.New("mintOut is required")
	errMissingAmount = errors.New("amountSol is required")
	errAmountRange   = errors.New("amountSol must be a positive amount of at least one lamport")
	errAmountFormat  = errors.New("amountSol is too long or its exponent is out of range")
)

var maxLamports = decimal.NewFromInt(math.MaxInt64)

// order is a validated trade body.
type order struct {
	MintOut  string
	Lamports uint64
}

// LamportsFromSOL converts a decimal SOL amount to lamports, truncating any
// fraction below one lamport.
func LamportsFromSOL(amount string) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) > maxAmountLen {
		return 0, errAmountFormat
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("amountSol: %w", err)
	}
	if exp := d.Exponent(); exp < -maxAmountExponent || exp > maxAmountExponent {
		return 0, errAmountFormat
	}
	lamports := d.Shift(lamportsPerSOLExp).Floor()
	if !lamports.IsPositive() || lamports.GreaterThan(maxLamports) {
		return 0, errAmountRange
	}
	return uint64(lamports.IntPart()), nil
}

func parseOrder(raw []byte) (*order, error) {
	var body models.TradeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if strings.TrimSpace(body.MintOut) == "" {
		return nil, errMissingMint
	}
	if body.AmountSol == "" {
		return nil, errMissingAmount
	}
	lamports, err := LamportsFromSOL(body.AmountSol.String())
	if err != nil {
		return nil, err
	}
	return &order{MintOut: body.MintOut, Lamports: lamports}, nil
}
