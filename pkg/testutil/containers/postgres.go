//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"verifyx/migrations"
	id "verifyx/pkg/domain"
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container with migrations applied.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("verifyx_test"),
		postgres.WithUsername("verifyx"),
		postgres.WithPassword("verifyx_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	pc := &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}

	if err := pc.runMigrations(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Note: We don't register t.Cleanup here because the container is managed
	// by the singleton Manager and shared across test suites. Ryuk (testcontainers'
	// cleanup sidecar) handles container cleanup when the test process exits.

	return pc
}

// runMigrations executes all *.up.sql migrations from the embedded migrations.FS.
func (p *PostgresContainer) runMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		if _, err := p.DB.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", file, err)
		}
	}

	return nil
}

// TruncateTables clears all data from the specified tables.
// Use between tests to ensure isolation without restarting the container.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		if err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// TruncateModuleTables truncates every table owned by the service.
func (p *PostgresContainer) TruncateModuleTables(ctx context.Context) error {
	return p.TruncateTables(ctx,
		"audit_events",
		"credentials",
		"verification_sessions",
		"documents",
		"users",
	)
}

// Exec runs a SQL statement and returns the result.
func (p *PostgresContainer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.DB.ExecContext(ctx, query, args...)
}

// Query runs a SQL query and returns rows.
func (p *PostgresContainer) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.DB.QueryContext(ctx, query, args...)
}

// QueryRow runs a SQL query expected to return a single row.
func (p *PostgresContainer) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return p.DB.QueryRowContext(ctx, query, args...)
}

// CreateTestUser inserts a user with a random wallet and returns its ID.
// Fails the test if insertion fails.
func (p *PostgresContainer) CreateTestUser(ctx context.Context, t testing.TB) id.UserID {
	t.Helper()
	userID := id.NewUserID()
	wallet := "0x" + strings.ReplaceAll(uuid.NewString(), "-", "") + "00000000"
	_, err := p.Exec(ctx, `
		INSERT INTO users (id, wallet_address, did, verification_level, created_at, updated_at)
		VALUES ($1, $2, $3, 'none', NOW(), NOW())
	`, uuid.UUID(userID), wallet, "did:ethr:"+wallet)
	if err != nil {
		t.Fatalf("CreateTestUser: %v", err)
	}
	return userID
}

// CreateTestDocument inserts a pending passport document for the user and returns its ID.
func (p *PostgresContainer) CreateTestDocument(ctx context.Context, t testing.TB, userID id.UserID) id.DocumentID {
	t.Helper()
	documentID := id.NewDocumentID()
	_, err := p.Exec(ctx, `
		INSERT INTO documents (id, user_id, document_type, file_name, mime_type, size_bytes, ipfs_hash, verification_status, created_at, updated_at)
		VALUES ($1, $2, 'passport', 'passport.jpg', 'image/jpeg', 1024, $3, 'pending', NOW(), NOW())
	`, uuid.UUID(documentID), uuid.UUID(userID), "Qm"+strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err != nil {
		t.Fatalf("CreateTestDocument: %v", err)
	}
	return documentID
}

// CreateTestSession inserts a completed verification session for the user and
// document and returns its ID.
func (p *PostgresContainer) CreateTestSession(ctx context.Context, t testing.TB, userID id.UserID, documentID id.DocumentID) id.VerificationID {
	t.Helper()
	sessionID := id.NewVerificationID()
	_, err := p.Exec(ctx, `
		INSERT INTO verification_sessions (id, user_id, document_id, status, result, steps, scores, created_at, started_at, completed_at, expires_at)
		VALUES ($1, $2, $3, 'completed', 'passed', '[]'::jsonb, '{}'::jsonb, NOW(), NOW(), NOW(), NOW() + INTERVAL '30 minutes')
	`, uuid.UUID(sessionID), uuid.UUID(userID), uuid.UUID(documentID))
	if err != nil {
		t.Fatalf("CreateTestSession: %v", err)
	}
	return sessionID
}
