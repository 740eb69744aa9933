package holiday

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/0xc0d3d00d/candleseries/internal/domain"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite holiday store opened", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS holiday_years (
		year       INTEGER PRIMARY KEY,
		dates      TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, year int) (domain.HolidayYear, bool, error) {
	var (
		dates     string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT dates, fetched_at FROM holiday_years WHERE year = ?`, year,
	).Scan(&dates, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HolidayYear{}, false, nil
	}
	if err != nil {
		return domain.HolidayYear{}, false, err
	}

	data := domain.HolidayYear{Year: year, FetchedAt: fetchedAt}
	if err := json.Unmarshal([]byte(dates), &data.Dates); err != nil {
		return domain.HolidayYear{}, false, fmt.Errorf("decode dates for %d: %w", year, err)
	}
	return data, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, data domain.HolidayYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, err := json.Marshal(data.Dates)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO holiday_years (year, dates, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET dates = excluded.dates, fetched_at = excluded.fetched_at`,
		data.Year, string(dates), data.FetchedAt,
	)
	return err
}

func (s *SQLiteStore) Close() error {
	slog.Info("closing sqlite holiday store")
	return s.db.Close()
}
