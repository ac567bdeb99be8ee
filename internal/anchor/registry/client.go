// Package registry reads the DIDRegistry and CredentialRegistry contracts over
// JSON-RPC and builds unsigned calldata for the holder's wallet. The service
// never holds user keys, so it never sends transactions itself.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"verifyx/internal/sentinel"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/circuit"
	"verifyx/pkg/platform/tracer"
)

// Backend is the subset of *ethclient.Client the registry uses.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// ErrReverted marks a call the contract rejected. It is never retried.
var ErrReverted = errors.New("execution reverted")

// BackoffConfig configures retries for failed reads.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
	Multiplier   float64
}

type Config struct {
	DIDRegistry        common.Address
	CredentialRegistry common.Address
	ChainID            int64
	Network            string
}

type Client struct {
	backend Backend
	cfg     Config
	didABI  abi.ABI
	credABI abi.ABI
	breaker *circuit.Breaker
	tracer  tracer.Tracer
	metrics *Metrics
	backoff BackoffConfig
	logger  *slog.Logger
}

type Option func(*Client)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithBackoff(cfg BackoffConfig) Option {
	return func(c *Client) {
		c.backoff = cfg
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New binds the client to the configured contracts. Reads retry 3 times,
// starting at 200ms and doubling up to 2s.
func New(backend Backend, cfg Config, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, errors.New("chain backend is required")
	}
	didABI, credABI, err := loadABIs()
	if err != nil {
		return nil, err
	}
	if cfg.Network == "" {
		cfg.Network = "ethereum"
	}
	c := &Client{
		backend: backend,
		cfg:     cfg,
		didABI:  didABI,
		credABI: credABI,
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
		backoff: BackoffConfig{InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second, MaxRetries: 3, Multiplier: 2},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backoff.Multiplier <= 1 {
		c.backoff.Multiplier = 2
	}
	if c.backoff.MaxRetries < 0 {
		c.backoff.MaxRetries = 0
	}
	return c, nil
}

func (c *Client) Contracts() Contracts {
	return Contracts{
		DIDRegistry:        c.cfg.DIDRegistry.Hex(),
		CredentialRegistry: c.cfg.CredentialRegistry.Hex(),
	}
}

func (c *Client) Network() string {
	return c.cfg.Network
}

func (c *Client) HasDID(ctx context.Context, owner common.Address) (bool, error) {
	out, err := c.read(ctx, c.cfg.DIDRegistry, c.didABI, MethodHasDID, owner)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GetDID returns sentinel.ErrNotFound when the registry has no entry.
func (c *Client) GetDID(ctx context.Context, owner common.Address) (*DIDDocument, error) {
	out, err := c.read(ctx, c.cfg.DIDRegistry, c.didABI, MethodGetDID, owner)
	if errors.Is(err, ErrReverted) {
		return nil, fmt.Errorf("DID not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t := abi.ConvertType(out[0], new(didTuple)).(*didTuple)
	return &DIDDocument{
		Controller: t.Controller,
		PublicKey:  t.PublicKey,
		CreatedAt:  unixTime(t.CreatedAt),
		IsActive:   t.IsActive,
	}, nil
}

// VerifyCredential reports whether the hash is anchored, unrevoked and unexpired.
func (c *Client) VerifyCredential(ctx context.Context, hash common.Hash) (bool, error) {
	out, err := c.read(ctx, c.cfg.CredentialRegistry, c.credABI, MethodVerifyCredential, [32]byte(hash))
	if errors.Is(err, ErrReverted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// GetCredential returns sentinel.ErrNotFound for hashes the registry never saw.
func (c *Client) GetCredential(ctx context.Context, hash common.Hash) (*CredentialRecord, error) {
	out, err := c.read(ctx, c.cfg.CredentialRegistry, c.credABI, MethodGetCredential, [32]byte(hash))
	if errors.Is(err, ErrReverted) {
		return nil, fmt.Errorf("credential not anchored: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	t := abi.ConvertType(out[0], new(credentialTuple)).(*credentialTuple)
	return &CredentialRecord{
		CredentialHash: common.Hash(t.CredentialHash),
		Subject:        t.Subject,
		Issuer:         t.Issuer,
		IssuedAt:       unixTime(t.IssuedAt),
		ExpiresAt:      unixTime(t.ExpiresAt),
		IsRevoked:      t.IsRevoked,
	}, nil
}

// Receipt returns sentinel.ErrNotFound while the transaction is not mined.
func (c *Client) Receipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanChainReceipt)
	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	span.End(err)
	if errors.Is(err, ethereum.NotFound) {
		return nil, fmt.Errorf("transaction not mined: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "chain receipt lookup failed")
	}
	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	return &Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: block,
		Succeeded:   receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

// Status probes the endpoint. Failures are reported in the result, not returned.
func (c *Client) Status(ctx context.Context) NetworkStatus {
	status := NetworkStatus{Contracts: c.Contracts()}
	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	block, err := c.backend.BlockNumber(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true
	status.ChainID = chainID.Int64()
	status.BlockNumber = block
	return status
}

func (c *Client) PrepareRegisterDID(publicKey string) (*PreparedTx, error) {
	return c.prepare(c.cfg.DIDRegistry, c.didABI, MethodRegisterDID, []string{publicKey}, publicKey)
}

func (c *Client) PrepareUpdateDID(newPublicKey string) (*PreparedTx, error) {
	return c.prepare(c.cfg.DIDRegistry, c.didABI, MethodUpdateDID, []string{newPublicKey}, newPublicKey)
}

func (c *Client) PrepareDeactivateDID() (*PreparedTx, error) {
	return c.prepare(c.cfg.DIDRegistry, c.didABI, MethodDeactivateDID, []string{})
}

// PrepareIssueCredential anchors hash for subject until expiresAt (unix seconds).
func (c *Client) PrepareIssueCredential(hash common.Hash, subject common.Address, expiresAt time.Time) (*PreparedTx, error) {
	expiry := big.NewInt(expiresAt.Unix())
	return c.prepare(c.cfg.CredentialRegistry, c.credABI, MethodIssueCredential,
		[]string{hash.Hex(), subject.Hex(), expiry.String()},
		[32]byte(hash), subject, expiry)
}

func (c *Client) prepare(to common.Address, contract abi.ABI, method string, display []string, args ...any) (*PreparedTx, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+method+" arguments")
	}
	return &PreparedTx{
		To:      to.Hex(),
		Data:    hexutil.Encode(data),
		Method:  method,
		Args:    display,
		ChainID: c.cfg.ChainID,
	}, nil
}

// read packs and executes an eth_call, retrying transport failures with
// backoff. Exhausted retries surface as CodeUnavailable.
func (c *Client) read(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+method+" arguments")
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanChainRead,
		tracer.String(tracer.AttrChainMethod, method),
		tracer.String(tracer.AttrContract, to.Hex()),
	)
	var raw []byte
	delay := c.backoff.InitialDelay
	for attempt := 0; attempt <= c.backoff.MaxRetries; attempt++ {
		if attempt > 0 {
			span.AddEvent(tracer.EventRetry, tracer.Int64(tracer.AttrAttempt, int64(attempt)))
			select {
			case <-ctx.Done():
				err = ctx.Err()
				span.End(err)
				return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "chain read cancelled")
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoff.Multiplier)
			if delay > c.backoff.MaxDelay {
				delay = c.backoff.MaxDelay
			}
		}

		start := time.Now()
		raw, err = c.call(ctx, to, data)
		c.metrics.observe(method, time.Since(start).Seconds(), err)
		if err == nil || errors.Is(err, ErrReverted) {
			break
		}
		c.logger.WarnContext(ctx, "chain read failed",
			"method", method,
			"attempt", attempt+1,
			"error", err,
		)
	}
	span.End(err)
	if errors.Is(err, ErrReverted) {
		return nil, err
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "chain registry unavailable")
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode "+method+" result")
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeInternal, method+" returned no values")
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, errors.New("chain circuit open")
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if isRevert(err) {
		// A revert is a healthy node answering; it does not trip the breaker.
		if c.breaker != nil {
			c.breaker.RecordSuccess()
		}
		return nil, fmt.Errorf("%w: %v", ErrReverted, err)
	}
	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return out, err
}

func isRevert(err error) bool {
	if err == nil {
		return false
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// ParseHash accepts 64 hex characters with or without the 0x prefix.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	b, err := hexutil.Decode("0x" + s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash must be 32 bytes of hex: %w", sentinel.ErrInvalidInput)
	}
	return common.BytesToHash(b), nil
}
