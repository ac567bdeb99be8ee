package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, wallet_address, did, public_key, is_verified, verified_at, verification_level,
	did_registered, did_tx_hash, did_controller, did_registered_at, last_login, login_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			public_key = EXCLUDED.public_key,
			is_verified = EXCLUDED.is_verified,
			verified_at = EXCLUDED.verified_at,
			verification_level = EXCLUDED.verification_level,
			did_registered = EXCLUDED.did_registered,
			did_tx_hash = EXCLUDED.did_tx_hash,
			did_controller = EXCLUDED.did_controller,
			did_registered_at = EXCLUDED.did_registered_at,
			last_login = EXCLUDED.last_login,
			login_count = EXCLUDED.login_count,
			updated_at = EXCLUDED.updated_at
	`, userArgs(user)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("wallet already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) FindByWallet(ctx context.Context, wallet id.WalletAddress) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, wallet.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by wallet: %w", err)
	}
	return user, nil
}

// Execute atomically validates and mutates a user under a row lock.
func (s *PostgresStore) Execute(ctx context.Context, userID id.UserID, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin user execute tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user for execute: %w", err)
	}

	if err := validate(user); err != nil {
		return nil, err
	}
	mutate(user)

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET
			public_key = $2, is_verified = $3, verified_at = $4, verification_level = $5,
			did_registered = $6, did_tx_hash = $7, did_controller = $8, did_registered_at = $9,
			last_login = $10, login_count = $11, updated_at = $12
		WHERE id = $1
	`,
		uuid.UUID(user.ID),
		nullString(user.PublicKey),
		user.Verification.IsVerified,
		user.Verification.VerifiedAt,
		string(user.Verification.Level),
		user.Blockchain.DIDRegistered,
		nullString(user.Blockchain.DIDTxHash),
		nullString(user.Blockchain.Controller),
		user.Blockchain.RegisteredAt,
		user.LastLogin,
		user.LoginCount,
		user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user execute: %w", err)
	}
	return user, nil
}

func userArgs(u *models.User) []any {
	return []any{
		uuid.UUID(u.ID),
		u.WalletAddress.String(),
		u.DID,
		nullString(u.PublicKey),
		u.Verification.IsVerified,
		u.Verification.VerifiedAt,
		string(u.Verification.Level),
		u.Blockchain.DIDRegistered,
		nullString(u.Blockchain.DIDTxHash),
		nullString(u.Blockchain.Controller),
		u.Blockchain.RegisteredAt,
		u.LastLogin,
		u.LoginCount,
		u.CreatedAt,
		u.UpdatedAt,
	}
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		rawID      uuid.UUID
		wallet     string
		publicKey  sql.NullString
		level      string
		txHash     sql.NullString
		controller sql.NullString
		verifiedAt sql.NullTime
		regAt      sql.NullTime
		lastLogin  sql.NullTime
	)
	if err := row.Scan(&rawID, &wallet, &u.DID, &publicKey, &u.Verification.IsVerified, &verifiedAt, &level,
		&u.Blockchain.DIDRegistered, &txHash, &controller, &regAt, &lastLogin, &u.LoginCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(rawID)
	u.WalletAddress = id.WalletAddress(wallet)
	u.PublicKey = publicKey.String
	u.Verification.Level = models.VerificationLevel(level)
	u.Verification.VerifiedAt = timePtr(verifiedAt)
	u.Blockchain.DIDTxHash = txHash.String
	u.Blockchain.Controller = controller.String
	u.Blockchain.RegisteredAt = timePtr(regAt)
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
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
