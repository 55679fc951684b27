package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkovka/internal/models"
)

// CreateVisitor registers a guest for a resident. The cap is counted and
// the row inserted in one transaction so two concurrent registrations
// cannot both slip under the limit within this store.
func (s *Store) CreateVisitor(ctx context.Context, v *models.Visitor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin visitor tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visitors WHERE resident = ?`, v.Resident).Scan(&count); err != nil {
		return fmt.Errorf("failed to count visitors: %w", err)
	}
	if count >= models.MaxVisitorsPerResident {
		return ErrVisitorCapExceeded
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO visitors (id, resident, name, plate, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.Resident, v.Name, nullable(v.Plate), now); err != nil {
		return fmt.Errorf("failed to insert visitor: %w", err)
	}
	v.CreatedAt = now
	return tx.Commit()
}

func (s *Store) GetVisitors(ctx context.Context, resident string) ([]*models.Visitor, error) {
	query := `SELECT id, resident, name, plate, created_at FROM visitors
              WHERE resident = ? ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, resident)
	if err != nil {
		return nil, fmt.Errorf("failed to get visitors: %w", err)
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		v := &models.Visitor{}
		var plate sql.NullString
		if err := rows.Scan(&v.ID, &v.Resident, &v.Name, &plate, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		v.Plate = plate.String
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}
