package issuer

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// jwsHeader is the protected header of a detached, unencoded-payload ES256K
// JWS (RFC 7797).
const jwsHeader = `{"alg":"ES256K","b64":false,"crit":["b64"]}`

// Signer produces detached JWS proofs over credential hashes with a
// secp256k1 key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex encoded secp256k1 private key, with or without 0x.
func NewSigner(keyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse issuer signing key: %w", err)
	}
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address is the Ethereum address controlling the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// PublicKeyHex is the compressed public key, used in DID documents.
func (s *Signer) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(crypto.CompressPubkey(&s.key.PublicKey))
}

// Sign returns a compact detached JWS (header..signature) over payload.
func (s *Signer) Sign(payload string) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(jwsHeader))
	digest := sha256.Sum256([]byte(header + "." + payload))
	sig, err := crypto.Sign(digest[:], s.key)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	// Drop the recovery byte; JWS carries R || S only.
	return header + ".." + base64.RawURLEncoding.EncodeToString(sig[:64]), nil
}

// VerifyJWS checks a detached JWS produced by Sign against payload and a
// public key (compressed or uncompressed).
func VerifyJWS(jws, payload string, publicKey []byte) error {
	header, sig, ok := strings.Cut(jws, "..")
	if !ok {
		return errors.New("jws is not in detached form")
	}
	raw, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("decode jws signature: %w", err)
	}
	digest := sha256.Sum256([]byte(header + "." + payload))
	if !crypto.VerifySignature(publicKey, digest[:], raw) {
		return errors.New("jws signature does not match")
	}
	return nil
}
