package registry

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Contract methods.
const (
	MethodHasDID           = "hasDID"
	MethodGetDID           = "getDID"
	MethodRegisterDID      = "registerDID"
	MethodUpdateDID        = "updateDID"
	MethodDeactivateDID    = "deactivateDID"
	MethodIssueCredential  = "issueCredential"
	MethodVerifyCredential = "verifyCredential"
	MethodGetCredential    = "getCredential"
	MethodRevokeCredential = "revokeCredential"
)

// PreparedTx is unsigned calldata for the user's wallet to sign and send.
type PreparedTx struct {
	To            string   `json:"to"`
	Data          string   `json:"data"`
	Method        string   `json:"method"`
	Args          []string `json:"args"`
	ChainID       int64    `json:"chainId,omitempty"`
	WalletAddress string   `json:"walletAddress,omitempty"`
}

// DIDDocument is the DIDRegistry entry for an address.
type DIDDocument struct {
	Controller common.Address
	PublicKey  string
	CreatedAt  time.Time
	IsActive   bool
}

// CredentialRecord is the CredentialRegistry entry for a hash.
type CredentialRecord struct {
	CredentialHash common.Hash
	Subject        common.Address
	Issuer         common.Address
	IssuedAt       time.Time
	ExpiresAt      time.Time
	IsRevoked      bool
}

// Receipt is the part of a mined transaction receipt the services use.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Succeeded   bool
}

// NetworkStatus describes the RPC endpoint as seen by the last probe.
type NetworkStatus struct {
	Connected   bool      `json:"connected"`
	ChainID     int64     `json:"chainId,omitempty"`
	BlockNumber uint64    `json:"blockNumber,omitempty"`
	Contracts   Contracts `json:"contracts"`
	Error       string    `json:"error,omitempty"`
}

type Contracts struct {
	DIDRegistry        string `json:"didRegistry"`
	CredentialRegistry string `json:"credentialRegistry"`
}

// didTuple and credentialTuple mirror the ABI tuple outputs so abi.ConvertType
// can copy into them.
type didTuple struct {
	Controller common.Address
	PublicKey  string
	CreatedAt  *big.Int
	IsActive   bool
}

type credentialTuple struct {
	CredentialHash [32]byte
	Subject        common.Address
	Issuer         common.Address
	IssuedAt       *big.Int
	ExpiresAt      *big.Int
	IsRevoked      bool
}

func unixTime(v *big.Int) time.Time {
	if v == nil || v.Sign() == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}
