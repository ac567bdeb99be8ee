package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"verifyx/internal/credential/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists credentials in PostgreSQL. State transitions are
// conditional updates so concurrent callers cannot both win.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const credentialColumns = `id, hash, hash_algorithm, type, issuer_did, issuer_name, subject_user_id, subject_did,
	verification_id, claims, included_claims, status, issued_at, expires_at,
	revoked_at, revocation_reason, revoked_by, share_count, verify_count, last_shared_at, last_verified_at,
	chain_stored, chain_tx_hash, chain_block_number, chain_network, chain_contract, chain_stored_at, proof`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) Create(ctx context.Context, cred *models.Credential) error {
	if cred == nil {
		return fmt.Errorf("credential is required")
	}
	claims, err := json.Marshal(cred.Claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	included, err := json.Marshal(cred.IncludedClaims)
	if err != nil {
		return fmt.Errorf("encode included claims: %w", err)
	}
	var proof sql.NullString
	if cred.Proof != nil {
		raw, err := json.Marshal(cred.Proof)
		if err != nil {
			return fmt.Errorf("encode proof: %w", err)
		}
		proof = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, hash, hash_algorithm, type, issuer_did, issuer_name, subject_user_id, subject_did,
			verification_id, claims, included_claims, status, issued_at, expires_at, chain_network, proof)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		cred.ID, cred.Hash, cred.HashAlgorithm, string(cred.Type), cred.Issuer.DID, cred.Issuer.Name,
		uuid.UUID(cred.Subject.UserID), cred.Subject.DID, uuid.UUID(cred.VerificationID),
		string(claims), string(included), string(cred.Status), cred.IssuedAt, cred.ExpiresAt,
		nullString(cred.Blockchain.Network), proof,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("credential already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, credentialID string) (*models.Credential, error) {
	return s.findOne(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, credentialID)
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*models.Credential, error) {
	return s.findOne(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE hash = $1`, hash)
}

func (s *PostgresStore) ListBySubject(ctx context.Context, userID id.UserID) ([]*models.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+credentialColumns+`
		FROM credentials
		WHERE subject_user_id = $1
		ORDER BY issued_at DESC, id DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

// Revoke is a conditional update on status='active'. When no row changes the
// current row is read back to tell a missing credential from a refused one.
func (s *PostgresStore) Revoke(ctx context.Context, credentialID string, userID id.UserID, reason string, now time.Time) (*models.Credential, error) {
	cred, err := s.findOne(ctx, `
		UPDATE credentials
		SET status = 'revoked', revoked_at = $3, revocation_reason = $4, revoked_by = $2
		WHERE id = $1 AND subject_user_id = $2 AND status = 'active'
		RETURNING `+credentialColumns,
		credentialID, uuid.UUID(userID), now, reason)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("revoke credential: %w", err)
	}

	current, err := s.FindByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if !current.IsOwnedBy(userID) {
		return nil, fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	return current, fmt.Errorf("credential is %s: %w", current.Status, sentinel.ErrInvalidState)
}

func (s *PostgresStore) IncrementShare(ctx context.Context, credentialID string, now time.Time) error {
	return s.exec(ctx, `
		UPDATE credentials SET share_count = share_count + 1, last_shared_at = $2 WHERE id = $1
	`, credentialID, now)
}

func (s *PostgresStore) IncrementVerify(ctx context.Context, credentialID string, now time.Time) error {
	return s.exec(ctx, `
		UPDATE credentials SET verify_count = verify_count + 1, last_verified_at = $2 WHERE id = $1
	`, credentialID, now)
}

// RecordAnchor stores anchoring metadata once; an anchored row is returned unchanged.
func (s *PostgresStore) RecordAnchor(ctx context.Context, credentialID string, chain models.Blockchain) (*models.Credential, error) {
	var block sql.NullInt64
	if chain.BlockNumber != nil {
		block = sql.NullInt64{Int64: int64(*chain.BlockNumber), Valid: true}
	}
	cred, err := s.findOne(ctx, `
		UPDATE credentials
		SET chain_stored = TRUE, chain_tx_hash = $2, chain_block_number = $3, chain_network = $4,
			chain_contract = $5, chain_stored_at = $6
		WHERE id = $1 AND NOT chain_stored
		RETURNING `+credentialColumns,
		credentialID, chain.TxHash, block, nullString(chain.Network), nullString(chain.ContractAddress), chain.StoredAt)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.FindByID(ctx, credentialID)
	}
	if err != nil {
		return nil, fmt.Errorf("record credential anchor: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Credential, error) {
	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return cred, nil
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credential usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential usage: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		cred                        models.Credential
		subject, verification       uuid.UUID
		credType, status            string
		claims, included, proof     []byte
		revokedAt, lastShared       sql.NullTime
		lastVerified, chainStoredAt sql.NullTime
		reason, txHash              sql.NullString
		network, contract           sql.NullString
		revokedBy                   uuid.NullUUID
		block                       sql.NullInt64
	)
	if err := row.Scan(&cred.ID, &cred.Hash, &cred.HashAlgorithm, &credType, &cred.Issuer.DID, &cred.Issuer.Name,
		&subject, &cred.Subject.DID, &verification, &claims, &included, &status, &cred.IssuedAt, &cred.ExpiresAt,
		&revokedAt, &reason, &revokedBy, &cred.Usage.ShareCount, &cred.Usage.VerifyCount, &lastShared, &lastVerified,
		&cred.Blockchain.Stored, &txHash, &block, &network, &contract, &chainStoredAt, &proof); err != nil {
		return nil, err
	}

	cred.Type = models.Type(credType)
	cred.Status = models.Status(status)
	cred.Subject.UserID = id.UserID(subject)
	cred.VerificationID = id.VerificationID(verification)
	cred.IssuedAt = cred.IssuedAt.UTC()
	cred.ExpiresAt = cred.ExpiresAt.UTC()
	if err := json.Unmarshal(claims, &cred.Claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	if err := json.Unmarshal(included, &cred.IncludedClaims); err != nil {
		return nil, fmt.Errorf("decode included claims: %w", err)
	}
	if len(proof) > 0 {
		cred.Proof = &models.Proof{}
		if err := json.Unmarshal(proof, cred.Proof); err != nil {
			return nil, fmt.Errorf("decode proof: %w", err)
		}
	}

	cred.Revocation = models.Revocation{RevokedAt: timePtr(revokedAt), Reason: reason.String}
	if revokedBy.Valid {
		by := id.UserID(revokedBy.UUID)
		cred.Revocation.RevokedBy = &by
	}
	cred.Usage.LastSharedAt = timePtr(lastShared)
	cred.Usage.LastVerifiedAt = timePtr(lastVerified)

	cred.Blockchain.TxHash = txHash.String
	cred.Blockchain.Network = network.String
	cred.Blockchain.ContractAddress = contract.String
	cred.Blockchain.StoredAt = timePtr(chainStoredAt)
	if block.Valid {
		n := uint64(block.Int64)
		cred.Blockchain.BlockNumber = &n
	}
	return &cred, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
