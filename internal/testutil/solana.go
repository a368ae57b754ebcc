package testutil

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/janda5134-web/solana-signer/internal/chain"
	"github.com/janda5134-web/solana-signer/internal/models"
)

// NewKeypair generates an ephemeral signing key for a test.
func NewKeypair(t *testing.T) (*chain.Keypair, solana.PrivateKey) {
	t.Helper()

	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	kp, err := chain.NewKeypair(priv)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	return kp, priv
}

// UnsignedV0Swap builds a versioned (v0) transaction paid for by payer whose
// recipient is resolved through an address lookup table, the way aggregator
// swaps reference most of their accounts.
func UnsignedV0Swap(t *testing.T, payer solana.PublicKey) models.UnsignedSwapTransaction {
	t.Helper()

	recipient := solana.NewWallet().PublicKey()
	table := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(2_500, payer, recipient).Build(),
		},
		solana.Hash{9, 8, 7, 6},
		solana.TransactionPayer(payer),
		solana.TransactionAddressTables(map[solana.PublicKey]solana.PublicKeySlice{
			table: {recipient},
		}),
	)
	if err != nil {
		t.Fatalf("build v0 transaction: %v", err)
	}
	if !tx.Message.IsVersioned() || tx.Message.AddressTableLookups.NumLookups() == 0 {
		t.Fatal("expected a v0 message with address table lookups")
	}
	return encodeUnsigned(t, tx)
}

// UnsignedTransfer builds a base64 transaction paid for by payer with its
// signature slots zeroed, the same shape the aggregator returns.
func UnsignedTransfer(t *testing.T, payer solana.PublicKey) models.UnsignedSwapTransaction {
	t.Helper()

	recipient := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1_000, payer, recipient).Build(),
		},
		solana.Hash{1, 2, 3, 4},
		solana.TransactionPayer(payer),
	)
	if err != nil {
		t.Fatalf("build transaction: %v", err)
	}
	return encodeUnsigned(t, tx)
}

// encodeUnsigned zero-fills the signature slots and base64-encodes tx.
func encodeUnsigned(t *testing.T, tx *solana.Transaction) models.UnsignedSwapTransaction {
	t.Helper()

	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("serialize transaction: %v", err)
	}
	return models.UnsignedSwapTransaction(base64.StdEncoding.EncodeToString(raw))
}
