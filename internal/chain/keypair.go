package chain

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const secretKeyLen = 64

var (
	ErrMissingKey = errors.New("no private key provided: set TRADER_SECRET_BASE58 or TRADER_SECRET_JSON")
	ErrInvalidKey = errors.New("invalid secret key")
)

type KeyEncoding int

const (
	KeyEncodingBase58 KeyEncoding = iota + 1
	KeyEncodingJSON
)

func (e KeyEncoding) String() string {
	switch e {
	case KeyEncodingBase58:
		return "base58"
	case KeyEncodingJSON:
		return "json"
	default:
		return "unknown"
	}
}

// KeySource is the configured secret in one of the two supported encodings.
type KeySource struct {
	Encoding KeyEncoding
	Value    string
}

// ResolveKeySource picks the configured key encoding. The base58 form takes
// precedence when both are set.
func ResolveKeySource(secretBase58, secretJSON string) (KeySource, error) {
	if v := strings.TrimSpace(secretBase58); v != "" {
		return KeySource{Encoding: KeyEncodingBase58, Value: v}, nil
	}
	if v := strings.TrimSpace(secretJSON); v != "" {
		return KeySource{Encoding: KeyEncodingJSON, Value: v}, nil
	}
	return KeySource{}, ErrMissingKey
}

// Keypair is the process signing key. It is immutable once loaded and safe
// for concurrent use.
type Keypair struct {
	private solana.PrivateKey
	public  solana.PublicKey
}

func LoadKeypair(src KeySource) (*Keypair, error) {
	var raw []byte
	switch src.Encoding {
	case KeyEncodingBase58:
		b, err := base58.Decode(src.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: base58 decode: %v", ErrInvalidKey, err)
		}
		raw = b
	case KeyEncodingJSON:
		b, err := decodeJSONKey(src.Value)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, ErrMissingKey
	}
	return NewKeypair(raw)
}

// NewKeypair wraps a 64-byte secret key (seed followed by public key) after
// checking that the public half really belongs to the seed.
func NewKeypair(secret []byte) (*Keypair, error) {
	if len(secret) != secretKeyLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, secretKeyLen, len(secret))
	}
	derived, err := publicFromSeed(secret[:32])
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(derived, secret[32:]) != 1 {
		return nil, fmt.Errorf("%w: public key does not match seed", ErrInvalidKey)
	}

	priv := make(solana.PrivateKey, secretKeyLen)
	copy(priv, secret)
	return &Keypair{
		private: priv,
		public:  solana.PublicKeyFromBytes(secret[32:]),
	}, nil
}

func (k *Keypair) PublicKey() solana.PublicKey { return k.public }
func (k *Keypair) Address() string             { return k.public.String() }

// String renders the public address only.
func (k *Keypair) String() string { return k.public.String() }

// Sign signs message with the ed25519 secret key.
func (k *Keypair) Sign(message []byte) (solana.Signature, error) {
	return k.private.Sign(message)
}

// --- helpers ---

func decodeJSONKey(s string) ([]byte, error) {
	var values []int
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("%w: json decode: %v", ErrInvalidKey, err)
	}
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrInvalidKey, i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// publicFromSeed derives the RFC 8032 ed25519 public key for seed.
func publicFromSeed(seed []byte) ([]byte, error) {
	h := sha512.Sum512(seed)
	s, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return new(edwards25519.Point).ScalarBaseMult(s).Bytes(), nil
}
