// Package store is the sqlite-backed ledger for bookings, slot occupancy,
// notifications, coupons, fines and visitor registrations. Every multi-record
// mutation runs in a single transaction so readers never observe a partially
// applied relocation or commit.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

type Store struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func New(path string, logger *zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("store initialized")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL,
            booking_kind TEXT NOT NULL,
            rate_type TEXT NOT NULL,
            floor TEXT NOT NULL,
            slot_id TEXT NOT NULL,
            entry_date TEXT NOT NULL,
            entry_time TEXT,
            exit_date TEXT NOT NULL,
            exit_time TEXT,
            price REAL NOT NULL,
            status TEXT NOT NULL DEFAULT 'confirmed',
            cancel_reason TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		// Advisory occupancy cache, rebuilt from active bookings after
		// every commit. Never read as ground truth.
		`CREATE TABLE IF NOT EXISTS parking_slots (
            floor TEXT NOT NULL,
            slot_id TEXT NOT NULL,
            date TEXT NOT NULL,
            time_range TEXT,
            username TEXT NOT NULL,
            status TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id TEXT PRIMARY KEY,
            recipient TEXT NOT NULL,
            message TEXT NOT NULL,
            floor TEXT,
            slot_id TEXT,
            booking_kind TEXT,
            timestamp INTEGER NOT NULL,
            read BOOLEAN NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS coupons (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL,
            booking_id TEXT NOT NULL,
            discount_percent INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            expiry_date DATETIME NOT NULL,
            used BOOLEAN NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS pay_fine (
            booking_id TEXT PRIMARY KEY,
            overdue_minutes INTEGER NOT NULL,
            rounds INTEGER NOT NULL,
            fine_amount REAL NOT NULL,
            original_price REAL NOT NULL,
            paid BOOLEAN NOT NULL DEFAULT 0,
            paid_at DATETIME
        )`,
		`CREATE TABLE IF NOT EXISTS visitors (
            id TEXT PRIMARY KEY,
            resident TEXT NOT NULL,
            name TEXT NOT NULL,
            plate TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS relocations (
            booking_id TEXT PRIMARY KEY,
            state TEXT NOT NULL,
            offer_floor TEXT,
            offer_slot_id TEXT,
            new_booking_id TEXT,
            coupon_id TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_slot ON bookings(floor, slot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_username ON bookings(username)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_entry_date ON bookings(entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_ref ON parking_slots(floor, slot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_coupons_username ON coupons(username)`,
		`CREATE INDEX IF NOT EXISTS idx_visitors_resident ON visitors(resident)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Ping reports store reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
