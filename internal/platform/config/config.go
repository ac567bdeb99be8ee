package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	TrustedProxies []string
}

// Database configures the PostgreSQL pool. An empty URL selects in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis configures the Redis client. An empty URL disables Redis-backed stores.
type Redis struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the audit event producer. Empty Brokers disables Kafka.
type Kafka struct {
	Brokers         string
	AuditTopic      string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// Chain configures the on-chain registry client.
type Chain struct {
	RPCURL             string
	ChainID            int64
	Network            string
	DIDRegistry        string
	CredentialRegistry string
	ReadTimeout        time.Duration
	ReadRetries        int
}

// Oracle configures the AI scoring oracle client.
type Oracle struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// RateLimit configures the fixed-window limiter on public endpoints.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Verification configures session lifetime and storage.
type Verification struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	// StoreBackend is "memory", "postgres" or "redis". Empty picks postgres
	// when a database is configured, otherwise memory.
	StoreBackend string
}

// Issuer identifies this service as a credential issuer.
type Issuer struct {
	DID           string
	Name          string
	SigningKeyHex string
	Validity      time.Duration
}

// Audit selects where audit events go: "log", "postgres" or "kafka".
type Audit struct {
	Sink       string
	BufferSize int
}

// Config is the full service configuration.
type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	Kafka        Kafka
	Chain        Chain
	Oracle       Oracle
	RateLimit    RateLimit
	Verification Verification
	Issuer       Issuer
	Audit        Audit
}

// Defaults mirrored by FromEnv when a variable is unset.
const (
	DefaultSessionTTL         = 30 * time.Minute
	DefaultCredentialValidity = 365 * 24 * time.Hour
	DefaultIssuerDID          = "did:ethr:verifyx"
	DefaultIssuerName         = "VerifyX"
)

// FromEnv builds the configuration from environment variables so main stays lean.
// Malformed values are collected and returned together.
func FromEnv() (Config, error) {
	e := &envReader{}

	cfg := Config{
		Server: Server{
			Addr:           e.str("VERIFYX_ADDR", ":8080"),
			Environment:    e.str("VERIFYX_ENV", "development"),
			JWTSigningKey:  e.str("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:      e.str("JWT_ISSUER", "verifyx"),
			JWTAudience:    e.str("JWT_AUDIENCE", "verifyx-api"),
			TokenTTL:       e.duration("TOKEN_TTL", 24*time.Hour),
			RequestTimeout: e.duration("REQUEST_TIMEOUT", 30*time.Second),
			TrustedProxies: e.list("TRUSTED_PROXIES"),
		},
		Database: Database{
			URL:             e.str("DATABASE_URL", ""),
			MaxOpenConns:    e.int("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    e.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: Redis{
			URL:          e.str("REDIS_URL", ""),
			PoolSize:     e.int("REDIS_POOL_SIZE", 10),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:         e.str("KAFKA_BROKERS", ""),
			AuditTopic:      e.str("KAFKA_AUDIT_TOPIC", "verifyx.audit"),
			Acks:            e.str("KAFKA_ACKS", "all"),
			Retries:         e.int("KAFKA_RETRIES", 3),
			DeliveryTimeout: e.duration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		Chain: Chain{
			RPCURL:             e.str("CHAIN_RPC_URL", "http://127.0.0.1:8545"),
			ChainID:            int64(e.int("CHAIN_ID", 31337)),
			Network:            e.str("CHAIN_NETWORK", "localhost"),
			DIDRegistry:        e.str("DID_REGISTRY_ADDRESS", "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
			CredentialRegistry: e.str("CREDENTIAL_REGISTRY_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3"),
			ReadTimeout:        e.duration("CHAIN_READ_TIMEOUT", 10*time.Second),
			ReadRetries:        e.int("CHAIN_READ_RETRIES", 3),
		},
		Oracle: Oracle{
			BaseURL:    e.str("AI_SERVICE_URL", "http://localhost:8000"),
			APIKey:     e.str("AI_SERVICE_API_KEY", ""),
			Timeout:    e.duration("AI_SERVICE_TIMEOUT", 30*time.Second),
			MaxRetries: e.int("AI_SERVICE_MAX_RETRIES", 2),
		},
		RateLimit: RateLimit{
			Requests: e.int("RATE_LIMIT_REQUESTS", 10),
			Window:   e.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Verification: Verification{
			SessionTTL:      e.duration("VERIFICATION_SESSION_TTL", DefaultSessionTTL),
			CleanupInterval: e.duration("VERIFICATION_CLEANUP_INTERVAL", 5*time.Minute),
			StoreBackend:    strings.ToLower(e.str("VERIFICATION_STORE", "")),
		},
		Issuer: Issuer{
			DID:           e.str("ISSUER_DID", DefaultIssuerDID),
			Name:          e.str("ISSUER_NAME", DefaultIssuerName),
			SigningKeyHex: e.str("ISSUER_SIGNING_KEY", ""),
			Validity:      e.duration("CREDENTIAL_VALIDITY", DefaultCredentialValidity),
		},
		Audit: Audit{
			Sink:       strings.ToLower(e.str("AUDIT_SINK", "log")),
			BufferSize: e.int("AUDIT_BUFFER_SIZE", 1024),
		},
	}

	e.check(cfg.Verification.SessionTTL > 0, "VERIFICATION_SESSION_TTL must be positive")
	e.check(cfg.RateLimit.Requests > 0, "RATE_LIMIT_REQUESTS must be positive")
	e.check(cfg.RateLimit.Window > 0, "RATE_LIMIT_WINDOW must be positive")
	switch cfg.Verification.StoreBackend {
	case "", "memory", "postgres", "redis":
	default:
		e.check(false, "VERIFICATION_STORE must be memory, postgres or redis")
	}
	switch cfg.Audit.Sink {
	case "log", "postgres", "kafka":
	default:
		e.check(false, "AUDIT_SINK must be log, postgres or kafka")
	}

	return cfg, errors.Join(e.errs...)
}

type envReader struct {
	errs []error
}

func (e *envReader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) list(key string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e *envReader) check(ok bool, msg string) {
	if !ok {
		e.errs = append(e.errs, errors.New(msg))
	}
}
