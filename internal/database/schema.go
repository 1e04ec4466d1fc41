package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/standakozak/ticketsbooking/internal/model"
)

// EnsureSchema creates the tables if they do not exist yet. The schema is
// small enough that idempotent DDL at startup beats a migration tool.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attendees (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(100) NOT NULL,
			phone VARCHAR(100) NOT NULL DEFAULT '',
			pickup_place VARCHAR(20) NOT NULL DEFAULT 'unspecified',
			paid TINYINT(1) NOT NULL DEFAULT 0,
			collected TINYINT(1) NOT NULL DEFAULT 0,
			PRIMARY KEY (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS seats (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			table_ref INT UNSIGNED NULL,
			owner_id BIGINT UNSIGNED NULL,
			booked TINYINT(1) NOT NULL DEFAULT 0,
			paid TINYINT(1) NOT NULL DEFAULT 0,
			collected TINYINT(1) NOT NULL DEFAULT 0,
			booked_at DATETIME NULL,
			PRIMARY KEY (id),
			KEY idx_seats_table_booked (table_ref, booked),
			KEY idx_seats_owner (owner_id),
			CONSTRAINT fk_seats_owner FOREIGN KEY (owner_id) REFERENCES attendees (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SeedSeats fills an empty seats table with the venue inventory: every
// table gets seatsPerTable rows, plus standingCapacity standing rows.
// A non-empty table is left alone so restarts never duplicate inventory.
func SeedSeats(ctx context.Context, db *sql.DB, seatsPerTable, standingCapacity int) error {
	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&existing); err != nil {
		return fmt.Errorf("seed seats: %w", err)
	}
	if existing > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed seats: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for table := model.FirstTable; table <= model.LastTable; table++ {
		for i := 0; i < seatsPerTable; i++ {
			if _, err := tx.ExecContext(ctx, `INSERT INTO seats (table_ref) VALUES (?)`, table); err != nil {
				return fmt.Errorf("seed seats: table %d: %w", table, err)
			}
		}
	}
	for i := 0; i < standingCapacity; i++ {
		if _, err := tx.ExecContext(ctx, `INSERT INTO seats (table_ref) VALUES (NULL)`); err != nil {
			return fmt.Errorf("seed seats: standing: %w", err)
		}
	}
	return tx.Commit()
}
