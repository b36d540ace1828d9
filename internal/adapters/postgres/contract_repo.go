package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/freightline/tracker/internal/core/domain"
)

// ContractRepo implements ports.ContractRepository with pgx.
type ContractRepo struct {
	db *DB
}

// NewContractRepo creates a new ContractRepo.
func NewContractRepo(db *DB) *ContractRepo {
	return &ContractRepo{db: db}
}

const contractColumns = `id, COALESCE(freight_id, ''), COALESCE(driver_id, ''),
	origin_address, destination_address, status, created_at`

func scanContract(row pgx.Row, c *domain.Contract) error {
	return row.Scan(
		&c.ID, &c.FreightID, &c.DriverID,
		&c.OriginAddress, &c.DestinationAddress, &c.Status, &c.CreatedAt,
	)
}

// Upsert inserts or updates a contract mirrored from the freight API.
func (r *ContractRepo) Upsert(ctx context.Context, c *domain.Contract) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO contracts (id, freight_id, driver_id, origin_address, destination_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET freight_id = EXCLUDED.freight_id, driver_id = EXCLUDED.driver_id,
		    origin_address = EXCLUDED.origin_address,
		    destination_address = EXCLUDED.destination_address,
		    status = EXCLUDED.status, updated_at = now()
	`, c.ID, nilIfEmpty(c.FreightID), nilIfEmpty(c.DriverID),
		c.OriginAddress, c.DestinationAddress, string(c.Status))
	return err
}

// GetByID returns a contract, or domain.ErrNotFound.
func (r *ContractRepo) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	var c domain.Contract
	row := r.db.Pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	if err := scanContract(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListActive returns every active contract, oldest first.
func (r *ContractRepo) ListActive(ctx context.Context) ([]domain.Contract, error) {
	contracts, _, err := r.List(ctx, domain.ContractActive, 0, 0)
	return contracts, err
}

// List returns contracts filtered by status (all when empty) together with
// the unpaginated total. limit <= 0 returns everything from offset.
func (r *ContractRepo) List(ctx context.Context, status domain.ContractStatus, offset, limit int) ([]domain.Contract, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM contracts WHERE $1 = '' OR status = $1
	`, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+contractColumns+`
		FROM contracts
		WHERE $1 = '' OR status = $1
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3
	`, string(status), offset, lim)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contracts []domain.Contract
	for rows.Next() {
		var c domain.Contract
		if err := scanContract(rows, &c); err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, c)
	}
	return contracts, total, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
