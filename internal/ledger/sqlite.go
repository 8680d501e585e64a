package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLStore keeps the ledger in a SQLite database.
type SQLStore struct {
	conn *sql.DB
	mu   sync.RWMutex // serializes check-then-write sequences
}

// OpenSQLite opens or creates the SQLite ledger at path and applies pending
// migrations.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}

	return &SQLStore{conn: conn}, nil
}

// migrateUp applies the embedded migrations. The migrate instance is not
// closed because that would close conn as well.
func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("init migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

const selectRecords = `SELECT name, type, content, proxied, owner, created_at FROM records`

func scanRecords(rows *sql.Rows) ([]Record, error) {
	out := make([]Record, 0)
	for rows.Next() {
		var (
			r       Record
			proxied int
			created string
		)
		if err := rows.Scan(&r.Name, &r.Type, &r.Content, &proxied, &r.Owner, &created); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Proxied = proxied != 0
		if created != "" {
			if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
				r.CreatedAt = ts
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Append implements Store.
func (s *SQLStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := appendTx(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

func appendTx(ctx context.Context, tx *sql.Tx, rec Record) error {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM records WHERE name = ?", rec.Name).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.Name)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check record %s: %w", rec.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (name, type, content, proxied, owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Name, rec.Type, rec.Content, boolToInt(rec.Proxied), rec.Owner, formatTime(rec.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert record %s: %w", rec.Name, err)
	}
	return nil
}

// FindByOwner implements Store.
func (s *SQLStore) FindByOwner(ctx context.Context, owner string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, selectRecords+" WHERE owner = ? ORDER BY id", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// UpdateByNameAndOwner implements Store.
func (s *SQLStore) UpdateByNameAndOwner(ctx context.Context, oldName, owner string, patch Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM records WHERE name = ? AND owner = ?", oldName, owner).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up record %s: %w", oldName, err)
	}

	if patch.Name != oldName {
		var other int
		err = tx.QueryRowContext(ctx, "SELECT 1 FROM records WHERE name = ? AND id != ?", patch.Name, id).Scan(&other)
		if err == nil {
			return false, fmt.Errorf("%w: %s", ErrDuplicate, patch.Name)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("failed to check record %s: %w", patch.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE records SET name = ?, type = ?, content = ?, proxied = ?
		WHERE id = ?
	`, patch.Name, patch.Type, patch.Content, boolToInt(patch.Proxied), id)
	if isUniqueViolation(err) {
		return false, fmt.Errorf("%w: %s", ErrDuplicate, patch.Name)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update record %s: %w", oldName, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit update: %w", err)
	}
	return true, nil
}

// Contains implements Store.
func (s *SQLStore) Contains(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.conn.QueryRowContext(ctx, "SELECT 1 FROM records WHERE name = ?", name).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check record %s: %w", name, err)
	}
	return true, nil
}

// All implements Store.
func (s *SQLStore) All(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, selectRecords+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Import copies every entry of src into the database in a single transaction,
// skipping names that are already present. It returns the number of entries
// added. Used to move an existing JSON ledger onto SQLite.
func (s *SQLStore) Import(ctx context.Context, src Store) (int, error) {
	records, err := src.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read source ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, rec := range records {
		err := appendTx(ctx, tx, rec)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return 0, err
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return added, nil
}

// Health checks database connectivity.
func (s *SQLStore) Health(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.conn.Close()
}
