package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/lewtec/fotoalbum/internal/domain"
	"github.com/lewtec/fotoalbum/internal/journal/migrations"
)

// Journal records deleted images in a SQLite database. It is registered as
// a domain.Notifier on the album store.
type Journal struct {
	db      *sql.DB
	albumID string
	now     func() time.Time
}

func GetDatabase(filename string) (*sql.DB, error) {
	return sql.Open("sqlite", filename)
}

// Open opens the journal database at filename and applies the migrations
func Open(filename, albumID string) (*Journal, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	db, err := GetDatabase(filepath.Clean(filename) + "?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("while opening journal database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("while connecting to journal database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, albumID), nil
}

// New wraps an already migrated database
func New(db *sql.DB, albumID string) *Journal {
	return &Journal{db: db, albumID: albumID, now: time.Now}
}

// Migrate brings the schema up to date
func Migrate(db *sql.DB) error {
	log.Printf("journal: applying migrations")
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("while loading journal migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("while preparing journal migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("while preparing journal migrations: %w", err)
	}
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("while migrating journal database: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// AfterDelete records name as deleted now
func (j *Journal) AfterDelete(ctx context.Context, name string) error {
	_, err := j.db.ExecContext(ctx,
		"insert into deletions (album_id, filename, deleted_at) values (?, ?, ?)",
		j.albumID, name, j.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("while recording deletion of '%s': %w", name, err)
	}
	log.Printf("journal: recorded deletion of %s", name)
	return nil
}

// Recent retrieves the latest deletions, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]*domain.Deletion, error) {
	if limit <= 0 {
		limit = 20
	}
	return j.query(ctx,
		"select id, album_id, filename, deleted_at from deletions order by deleted_at desc, id desc limit ?",
		limit)
}

// ForFilename retrieves every deletion of filename, newest first
func (j *Journal) ForFilename(ctx context.Context, filename string) ([]*domain.Deletion, error) {
	return j.query(ctx,
		"select id, album_id, filename, deleted_at from deletions where filename = ? order by deleted_at desc, id desc",
		filename)
}

// Stats returns overall deletion statistics
func (j *Journal) Stats(ctx context.Context) (*domain.DeletionStats, error) {
	var total int64
	var last sql.NullInt64
	err := j.db.QueryRowContext(ctx, "select count(*), max(deleted_at) from deletions").Scan(&total, &last)
	if err != nil {
		return nil, fmt.Errorf("while computing deletion stats: %w", err)
	}
	stats := &domain.DeletionStats{TotalDeletions: total}
	if last.Valid {
		stats.LastDeletedAt = fromMillis(last.Int64)
	}
	return stats, nil
}

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]*domain.Deletion, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("while querying deletions: %w", err)
	}
	defer rows.Close()
	result := []*domain.Deletion{}
	for rows.Next() {
		var d domain.Deletion
		var deletedAt int64
		if err := rows.Scan(&d.ID, &d.AlbumID, &d.Filename, &deletedAt); err != nil {
			return nil, err
		}
		d.DeletedAt = fromMillis(deletedAt)
		result = append(result, &d)
	}
	return result, rows.Err()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Verify that Journal implements domain.DeletionJournal
var _ domain.DeletionJournal = (*Journal)(nil)
