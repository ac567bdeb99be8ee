package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"

	activityhandler "verifyx/internal/activity/handler"
	activityservice "verifyx/internal/activity/service"
	anchorhandler "verifyx/internal/anchor/handler"
	"verifyx/internal/anchor/registry"
	anchorservice "verifyx/internal/anchor/service"
	credentialhandler "verifyx/internal/credential/handler"
	"verifyx/internal/credential/issuer"
	"verifyx/internal/credential/ledger"
	credentialmetrics "verifyx/internal/credential/metrics"
	credentialservice "verifyx/internal/credential/service"
	credentialstore "verifyx/internal/credential/store"
	dochandler "verifyx/internal/document/handler"
	docservice "verifyx/internal/document/service"
	docstore "verifyx/internal/document/store"
	idservice "verifyx/internal/identity/service"
	idstore "verifyx/internal/identity/store"
	"verifyx/internal/jwttoken"
	"verifyx/internal/oracle"
	"verifyx/internal/platform/config"
	"verifyx/internal/platform/database"
	"verifyx/internal/platform/health"
	"verifyx/internal/platform/kafka/producer"
	"verifyx/internal/platform/metrics"
	"verifyx/internal/platform/redis"
	ratelimitmetrics "verifyx/internal/ratelimit/metrics"
	ratelimitmw "verifyx/internal/ratelimit/middleware"
	ratelimitstore "verifyx/internal/ratelimit/store"
	vhandler "verifyx/internal/verification/handler"
	vmetrics "verifyx/internal/verification/metrics"
	vservice "verifyx/internal/verification/service"
	vstore "verifyx/internal/verification/store"
	"verifyx/internal/verification/workers/cleanup"
	"verifyx/pkg/platform/audit"
	auditmetrics "verifyx/pkg/platform/audit/metrics"
	"verifyx/pkg/platform/audit/publisher"
	auditpostgres "verifyx/pkg/platform/audit/store/postgres"
	"verifyx/pkg/platform/circuit"
	"verifyx/pkg/platform/middleware/auth"
	"verifyx/pkg/platform/middleware/metadata"
	"verifyx/pkg/platform/middleware/request"
	"verifyx/pkg/platform/tracer"
)

// app holds the wired handlers plus everything that needs closing.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	db       *database.Pool
	redis    *redis.Client
	kafka    *producer.Producer
	auditPub *publisher.Publisher

	credentialSvc *credentialservice.Service
	cleanup       *cleanup.CleanupService

	auth        func(http.Handler) http.Handler
	metadata    *metadata.Middleware
	rateLimiter *ratelimitmw.Middleware
	reqMetrics  *request.Metrics
	health      *health.Handler

	documents    *dochandler.Handler
	verification *vhandler.Handler
	credentials  *credentialhandler.Handler
	anchor       *anchorhandler.Handler
	activity     *activityhandler.Handler
}

// build connects the optional infrastructure and wires every bounded context.
// Postgres and Redis are optional; without them the in-memory stores are used.
func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}
	platformMetrics := metrics.New(prometheus.DefaultRegisterer, health.Version)

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	if db != nil {
		if err := metrics.RegisterDBStats(prometheus.DefaultRegisterer, db.DB(), "verifyx"); err != nil {
			log.Warn("failed to register database stats", "error", err)
		}
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	a.redis = rc

	auditor, err := a.buildAuditor()
	if err != nil {
		a.close()
		return nil, err
	}

	chain, err := a.buildRegistry(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// identity and documents
	var users *idservice.Service
	var documents *docservice.Service
	if db != nil {
		users = idservice.New(idstore.NewPostgres(db.DB()), idservice.WithLogger(log))
		documents = docservice.New(docstore.NewPostgres(db.DB()), docservice.WithLogger(log), docservice.WithAuditor(auditor))
	} else {
		users = idservice.New(idstore.NewInMemoryUserStore(), idservice.WithLogger(log))
		documents = docservice.New(docstore.NewInMemoryDocumentStore(), docservice.WithLogger(log), docservice.WithAuditor(auditor))
	}

	// verification
	sessionStore, err := a.sessionStore()
	if err != nil {
		a.close()
		return nil, err
	}
	verificationMetrics := vmetrics.New()
	oracleClient := oracle.New(cfg.Oracle.BaseURL,
		oracle.WithAPIKey(cfg.Oracle.APIKey),
		oracle.WithBreaker(circuit.New("oracle")),
		oracle.WithTracer(tracer.NewOTel("verifyx/oracle")),
		oracle.WithMetrics(oracle.NewMetrics(prometheus.DefaultRegisterer)),
		oracle.WithBackoff(oracle.BackoffConfig{MaxRetries: cfg.Oracle.MaxRetries}),
		oracle.WithLogger(log),
	)
	sessions := vservice.New(sessionStore, documents,
		vservice.WithLogger(log),
		vservice.WithAuditor(auditor),
		vservice.WithMetrics(verificationMetrics),
		vservice.WithOracle(oracleClient),
		vservice.WithSessionTTL(cfg.Verification.SessionTTL),
	)
	a.cleanup, err = cleanup.New(sessionStore,
		cleanup.WithCleanupInterval(cfg.Verification.CleanupInterval),
		cleanup.WithCleanupLogger(log),
		cleanup.WithCleanupMetrics(verificationMetrics),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	// credentials
	iss, err := a.buildIssuer()
	if err != nil {
		a.close()
		return nil, err
	}
	var creds interface {
		credentialservice.Store
		ledger.Store
		activityservice.Credentials
	}
	if db != nil {
		creds = credentialstore.NewPostgres(db.DB())
	} else {
		creds = credentialstore.NewInMemoryStore()
	}
	a.credentialSvc = credentialservice.New(creds, ledger.New(creds), iss, sessions, documents, users,
		credentialservice.WithLogger(log),
		credentialservice.WithAuditor(auditor),
		credentialservice.WithMetrics(credentialmetrics.New()),
		credentialservice.WithRegistry(chain),
	)

	// chain anchor and activity
	anchors := anchorservice.New(users, chain, anchorservice.WithLogger(log), anchorservice.WithAuditor(auditor))
	activity := activityservice.New(users, documents, creds)

	// http
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience, cfg.Server.TokenTTL)
	a.auth = auth.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log)
	proxies, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		a.close()
		return nil, err
	}
	a.metadata = metadata.NewMiddleware(&metadata.Config{TrustedProxies: proxies})
	a.rateLimiter = a.buildRateLimiter()
	a.reqMetrics = request.NewMetrics(prometheus.DefaultRegisterer)

	a.documents = dochandler.New(documents, log)
	a.verification = vhandler.New(sessions, log)
	a.credentials = credentialhandler.New(a.credentialSvc, log)
	a.anchor = anchorhandler.New(anchors, log)
	a.activity = activityhandler.New(activity, log)

	a.health = health.New(cfg.Server.Environment,
		health.WithCheckTimeout(2*time.Second),
		health.WithObserver(platformMetrics.ObserveDependency),
	)
	if db != nil {
		a.health.RegisterCheck("postgres", db.Health)
	}
	if rc != nil {
		a.health.RegisterCheck("redis", func(ctx context.Context) error {
			rc.RecordPoolStats()
			return rc.Health(ctx)
		})
	}
	if a.kafka != nil {
		a.health.RegisterCheck("kafka", a.kafka.Health)
	}
	a.health.RegisterCheck("oracle", oracleClient.Health)
	a.health.RegisterCheck("chain", func(ctx context.Context) error {
		if st := chain.Status(ctx); !st.Connected {
			return fmt.Errorf("chain unreachable: %s", st.Error)
		}
		return nil
	})

	return a, nil
}

// buildAuditor selects the audit sink. Events are delivered off the request path.
func (a *app) buildAuditor() (audit.Emitter, error) {
	var sink audit.Sink
	switch a.cfg.Audit.Sink {
	case "postgres":
		if a.db == nil {
			return nil, errors.New("AUDIT_SINK=postgres requires DATABASE_URL")
		}
		sink = auditpostgres.New(a.db.DB())
	case "kafka":
		p, err := producer.New(a.cfg.Kafka, a.logger)
		if err != nil {
			return nil, fmt.Errorf("kafka audit sink: %w", err)
		}
		a.kafka = p
		sink = producer.NewAuditSink(p, a.cfg.Kafka.AuditTopic)
	default:
		sink = &logSink{logger: a.logger}
	}
	a.auditPub = publisher.New(sink,
		publisher.WithAsyncBuffer(a.cfg.Audit.BufferSize),
		publisher.WithLogger(a.logger),
		publisher.WithMetrics(auditmetrics.New(prometheus.DefaultRegisterer)),
	)
	return a.auditPub, nil
}

// buildRegistry dials the chain node lazily; an unreachable node only shows
// as a failing readiness check.
func (a *app) buildRegistry(ctx context.Context) (*registry.Client, error) {
	chainCfg := a.cfg.Chain
	if !common.IsHexAddress(chainCfg.DIDRegistry) || !common.IsHexAddress(chainCfg.CredentialRegistry) {
		return nil, errors.New("registry contract addresses must be hex addresses")
	}
	backend, err := ethclient.DialContext(ctx, chainCfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}
	return registry.New(backend, registry.Config{
		DIDRegistry:        common.HexToAddress(chainCfg.DIDRegistry),
		CredentialRegistry: common.HexToAddress(chainCfg.CredentialRegistry),
		ChainID:            chainCfg.ChainID,
		Network:            chainCfg.Network,
	},
		registry.WithBreaker(circuit.New("chain")),
		registry.WithTracer(tracer.NewOTel("verifyx/chain")),
		registry.WithMetrics(registry.NewMetrics(prometheus.DefaultRegisterer)),
		registry.WithBackoff(registry.BackoffConfig{
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			MaxRetries:   chainCfg.ReadRetries,
			Multiplier:   2,
		}),
		registry.WithLogger(a.logger),
	)
}

func (a *app) buildIssuer() (*issuer.Issuer, error) {
	opts := []issuer.Option{
		issuer.WithIdentity(a.cfg.Issuer.DID, a.cfg.Issuer.Name),
		issuer.WithValidity(a.cfg.Issuer.Validity),
	}
	if a.cfg.Issuer.SigningKeyHex != "" {
		signer, err := issuer.NewSigner(a.cfg.Issuer.SigningKeyHex)
		if err != nil {
			return nil, fmt.Errorf("issuer signing key: %w", err)
		}
		opts = append(opts, issuer.WithSigner(signer))
	} else {
		a.logger.Warn("ISSUER_SIGNING_KEY not set, credentials are issued without proofs")
	}
	return issuer.New(opts...), nil
}

// sessionBackend is satisfied by every verification store.
type sessionBackend interface {
	vservice.Store
	cleanup.SessionStore
}

func (a *app) sessionStore() (sessionBackend, error) {
	backend := a.cfg.Verification.StoreBackend
	if backend == "" {
		backend = "memory"
		if a.db != nil {
			backend = "postgres"
		}
	}
	switch backend {
	case "postgres":
		if a.db == nil {
			return nil, errors.New("VERIFICATION_STORE=postgres requires DATABASE_URL")
		}
		return vstore.NewPostgres(a.db.DB()), nil
	case "redis":
		if a.redis == nil {
			return nil, errors.New("VERIFICATION_STORE=redis requires REDIS_URL")
		}
		return vstore.NewRedis(a.redis.Client), nil
	default:
		return vstore.NewInMemoryStore(), nil
	}
}

// buildRateLimiter shares windows through Redis when configured, falling
// back to per-instance windows while Redis is unreachable.
func (a *app) buildRateLimiter() *ratelimitmw.Middleware {
	local := ratelimitstore.NewInMemoryStore()
	m := ratelimitmetrics.New()
	if a.redis == nil {
		return ratelimitmw.New(local, a.logger, ratelimitmw.WithMetrics(m))
	}
	breaker := circuit.New("ratelimit", circuit.WithCooldown(10*time.Second))
	return ratelimitmw.New(ratelimitstore.NewRedis(a.redis.Client), a.logger,
		ratelimitmw.WithFallback(local, breaker),
		ratelimitmw.WithMetrics(m),
	)
}

// close releases resources in reverse dependency order. Pending credential
// usage writes finish before the stores go away.
func (a *app) close() {
	if a.credentialSvc != nil {
		a.credentialSvc.Wait()
	}
	if a.auditPub != nil {
		a.auditPub.Close()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}
