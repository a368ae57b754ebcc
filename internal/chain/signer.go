package chain

import (
	"encoding/base64"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/janda5134-web/solana-signer/internal/models"
)

var ErrNotSigner = errors.New("keypair is not a required signer of the transaction")

// SignTransaction decodes an aggregator-built transaction, places the
// keypair's signature in its signer slot and re-serializes it for
// broadcast. Both legacy and v0 messages are supported.
func SignTransaction(unsigned models.UnsignedSwapTransaction, kp *Keypair) (models.SignedTransaction, error) {
	raw, err := base64.StdEncoding.DecodeString(string(unsigned))
	if err != nil {
		return models.SignedTransaction{}, fmt.Errorf("decode swap transaction: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return models.SignedTransaction{}, fmt.Errorf("deserialize swap transaction: %w", err)
	}

	idx, err := signerIndex(tx, kp.PublicKey())
	if err != nil {
		return models.SignedTransaction{}, err
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return models.SignedTransaction{}, fmt.Errorf("serialize message: %w", err)
	}
	sig, err := kp.Sign(message)
	if err != nil {
		return models.SignedTransaction{}, fmt.Errorf("sign message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) < required {
		padded := make([]solana.Signature, required)
		copy(padded, tx.Signatures)
		tx.Signatures = padded
	}
	tx.Signatures[idx] = sig

	out, err := tx.MarshalBinary()
	if err != nil {
		return models.SignedTransaction{}, fmt.Errorf("serialize signed transaction: %w", err)
	}

	return models.SignedTransaction{Raw: out, Signature: sig.String()}, nil
}

// signerIndex finds key among the leading required-signer accounts.
func signerIndex(tx *solana.Transaction, key solana.PublicKey) (int, error) {
	required := int(tx.Message.Header.NumRequiredSignatures)
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNotSigner, key)
}
