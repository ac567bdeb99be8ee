package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"verifyx/internal/document/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

// PostgresStore persists document metadata in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, user_id, document_type, issuing_country, file_name, mime_type, size_bytes, ipfs_hash,
	verification_status, verified_at, rejection_reason, ai_confidence, is_deleted, deleted_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) Save(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			verification_status = EXCLUDED.verification_status,
			verified_at = EXCLUDED.verified_at,
			rejection_reason = EXCLUDED.rejection_reason,
			ai_confidence = EXCLUDED.ai_confidence,
			is_deleted = EXCLUDED.is_deleted,
			deleted_at = EXCLUDED.deleted_at,
			updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(doc.ID), uuid.UUID(doc.UserID), string(doc.Type), nullString(doc.IssuingCountry),
		nullString(doc.FileName), nullString(doc.MimeType), doc.Size, doc.IPFSHash,
		string(doc.Verification.Status), doc.Verification.VerifiedAt, nullString(doc.Verification.RejectionReason),
		doc.Verification.AIConfidence, doc.IsDeleted, doc.DeletedAt, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, uuid.UUID(documentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Execute locks the row, validates, mutates and writes back the mutable columns.
func (s *PostgresStore) Execute(ctx context.Context, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin document tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := scanDocument(tx.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, uuid.UUID(documentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock document: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}
	mutate(doc)

	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET
			verification_status = $2, verified_at = $3, rejection_reason = $4, ai_confidence = $5,
			is_deleted = $6, deleted_at = $7, updated_at = $8
		WHERE id = $1
	`, uuid.UUID(doc.ID), string(doc.Verification.Status), doc.Verification.VerifiedAt,
		nullString(doc.Verification.RejectionReason), doc.Verification.AIConfidence,
		doc.IsDeleted, doc.DeletedAt, doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit document tx: %w", err)
	}
	return doc, nil
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc                                   models.Document
		rawID, rawUser                        uuid.UUID
		docType, status                       string
		country, fileName, mimeType, rejected sql.NullString
		verifiedAt, deletedAt                 sql.NullTime
		confidence                            sql.NullFloat64
	)
	if err := row.Scan(&rawID, &rawUser, &docType, &country, &fileName, &mimeType, &doc.Size, &doc.IPFSHash,
		&status, &verifiedAt, &rejected, &confidence, &doc.IsDeleted, &deletedAt, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.ID = id.DocumentID(rawID)
	doc.UserID = id.UserID(rawUser)
	doc.Type = models.DocumentType(docType)
	doc.IssuingCountry = country.String
	doc.FileName = fileName.String
	doc.MimeType = mimeType.String
	doc.Verification = models.Verification{
		Status:          models.Status(status),
		VerifiedAt:      timePtr(verifiedAt),
		RejectionReason: rejected.String,
	}
	if confidence.Valid {
		v := confidence.Float64
		doc.Verification.AIConfidence = &v
	}
	doc.DeletedAt = timePtr(deletedAt)
	return &doc, nil
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
