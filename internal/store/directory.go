package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ghxstship/marketplace/model"
)

// PgDirectory resolves organization roles and vendor links from the
// marketplace_members table. Absence of a row means no membership, which is
// a valid answer, not an error.
type PgDirectory struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPgDirectory creates a PostgreSQL-backed role directory.
func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool, timeout: 5 * time.Second}
}

// OrgRole implements model.RoleDirectory.
func (d *PgDirectory) OrgRole(orgID, userID string) (model.OrgRole, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var role string
	err := d.pool.QueryRow(ctx, `
		SELECT role
		FROM marketplace_members
		WHERE org_id = $1 AND user_id = $2`,
		orgID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query member role: %w", err)
	}
	return model.OrgRole(role), nil
}

// Vendor implements model.RoleDirectory.
func (d *PgDirectory) Vendor(orgID, userID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var vendorID *string
	err := d.pool.QueryRow(ctx, `
		SELECT vendor_id
		FROM marketplace_members
		WHERE org_id = $1 AND user_id = $2`,
		orgID, userID,
	).Scan(&vendorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query vendor link: %w", err)
	}
	if vendorID == nil {
		return "", nil
	}
	return *vendorID, nil
}
