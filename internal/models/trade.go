package models

import "encoding/json"

// TradeRequest is an inbound /trade call as received on the wire. RawBody is
// kept byte-for-byte because the request signature covers it.
type TradeRequest struct {
	RawBody   []byte
	Timestamp string
	Signature string
}

// TradeBody is the JSON payload of a trade request.
type TradeBody struct {
	MintOut   string      `json:"mintOut"`
	AmountSol json.Number `json:"amountSol"`
}

// Quote is the aggregator's quote response, forwarded without interpretation.
type Quote json.RawMessage

func (q Quote) MarshalJSON() ([]byte, error) {
	if len(q) == 0 {
		return []byte("null"), nil
	}
	return q, nil
}

func (q *Quote) UnmarshalJSON(data []byte) error {
	*q = append((*q)[:0], data...)
	return nil
}

// UnsignedSwapTransaction is the base64 serialized transaction returned by
// the aggregator for a specific quote and fee payer.
type UnsignedSwapTransaction string

// SignedTransaction is a wire-format transaction carrying our signature.
type SignedTransaction struct {
	Raw       []byte
	Signature string
}

type TradeResult struct {
	OK       bool   `json:"ok"`
	Tx       string `json:"tx"`
	Pubkey   string `json:"pubkey"`
	MintOut  string `json:"-"`
	Lamports uint64 `json:"-"`
}
