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

	"verifyx/internal/sentinel"
	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
)

const uniqueViolation = "23505"

// PostgresStore persists sessions in PostgreSQL. The one-active-session rule
// is backed by the partial unique index uq_verification_sessions_active_user.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sessionColumns = `id, user_id, document_id, status, result, steps, scores, overall_confidence,
	errors, credential, metadata, created_at, started_at, completed_at, expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Create expires the user's stale sessions and inserts the new one in a single
// transaction. A surviving active session trips the unique index.
func (s *PostgresStore) Create(ctx context.Context, session *models.Session, now time.Time) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	doc, err := encodeSession(session)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create session tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE verification_sessions
		SET status = $3, completed_at = $2
		WHERE user_id = $1 AND status = ANY($4) AND expires_at <= $2
	`, uuid.UUID(session.UserID), now, string(models.StatusExpired), statusArray(activeStatuses))
	if err != nil {
		return fmt.Errorf("expire stale sessions: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO verification_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		uuid.UUID(session.ID), uuid.UUID(session.UserID), uuid.UUID(session.DocumentID),
		string(session.Status), string(session.Result),
		doc.steps, doc.scores, session.OverallConfidence, doc.errors, doc.credential, doc.metadata,
		session.CreatedAt, session.StartedAt, session.CompletedAt, session.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("user has an active session: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.VerificationID) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM verification_sessions WHERE id = $1`, uuid.UUID(sessionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM verification_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindActiveByUser(ctx context.Context, userID id.UserID, now time.Time) (*models.Session, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM verification_sessions
		WHERE user_id = $1 AND status = ANY($2) AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`, uuid.UUID(userID), statusArray(activeStatuses), now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return session, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, so concurrent callers
// observe each other's writes and at most one completion wins.
func (s *PostgresStore) Execute(ctx context.Context, sessionID id.VerificationID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session execute tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	session, err := scanSession(tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM verification_sessions WHERE id = $1 FOR UPDATE`, uuid.UUID(sessionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}

	if err := validate(session); err != nil {
		return nil, err
	}
	mutate(session)

	doc, err := encodeSession(session)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE verification_sessions SET
			status = $2, result = $3, steps = $4, scores = $5, overall_confidence = $6,
			errors = $7, credential = $8, completed_at = $9
		WHERE id = $1
	`,
		uuid.UUID(session.ID), string(session.Status), string(session.Result),
		doc.steps, doc.scores, session.OverallConfidence, doc.errors, doc.credential, session.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session execute: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM verification_sessions
		WHERE status = ANY($1) AND expires_at <= $2
	`, statusArray(sweepableStatuses), now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions rows: %w", err)
	}
	return int(n), nil
}

type encodedSession struct {
	steps, scores, errors, credential, metadata []byte
}

func encodeSession(s *models.Session) (*encodedSession, error) {
	var (
		out encodedSession
		err error
	)
	errs := s.Errors
	if errs == nil {
		errs = []models.SessionError{}
	}
	if out.steps, err = json.Marshal(s.Steps); err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}
	if out.scores, err = json.Marshal(s.Scores); err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	if out.errors, err = json.Marshal(errs); err != nil {
		return nil, fmt.Errorf("marshal errors: %w", err)
	}
	if out.credential, err = json.Marshal(s.Credential); err != nil {
		return nil, fmt.Errorf("marshal credential link: %w", err)
	}
	if out.metadata, err = json.Marshal(s.Metadata); err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return &out, nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		session                                   models.Session
		rawID, rawUser, rawDoc                    uuid.UUID
		status, result                            string
		steps, scores, errs, credential, metadata []byte
		confidence                                sql.NullFloat64
		completedAt                               sql.NullTime
	)
	if err := row.Scan(&rawID, &rawUser, &rawDoc, &status, &result, &steps, &scores, &confidence,
		&errs, &credential, &metadata, &session.CreatedAt, &session.StartedAt, &completedAt, &session.ExpiresAt); err != nil {
		return nil, err
	}
	session.ID = id.VerificationID(rawID)
	session.UserID = id.UserID(rawUser)
	session.DocumentID = id.DocumentID(rawDoc)
	session.Status = models.Status(status)
	session.Result = models.Result(result)
	if confidence.Valid {
		v := confidence.Float64
		session.OverallConfidence = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	for _, part := range []struct {
		raw []byte
		dst any
	}{
		{steps, &session.Steps},
		{scores, &session.Scores},
		{errs, &session.Errors},
		{credential, &session.Credential},
		{metadata, &session.Metadata},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dst); err != nil {
			return nil, fmt.Errorf("unmarshal session column: %w", err)
		}
	}
	return &session, nil
}

func statusArray(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
