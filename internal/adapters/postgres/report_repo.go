package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/freightline/tracker/internal/core/domain"
)

// TrackingReportRepo implements ports.TrackingReportRepository. Every report
// is kept with its verdict.
type TrackingReportRepo struct {
	db *DB
}

func NewTrackingReportRepo(db *DB) *TrackingReportRepo {
	return &TrackingReportRepo{db: db}
}

func (r *TrackingReportRepo) Insert(ctx context.Context, report *domain.TrackingReport, accepted bool) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO tracking_reports (time, contract_id, location, accepted)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)
	`, report.ReportedAt, report.ContractID,
		report.Position.Lon, report.Position.Lat, accepted)
	return err
}

// Latest returns the newest report for a contract regardless of verdict, so
// the caller can re-evaluate it. domain.ErrNotFound when none exist.
func (r *TrackingReportRepo) Latest(ctx context.Context, contractID string) (*domain.TrackingReport, error) {
	var rep domain.TrackingReport
	err := r.db.Pool.QueryRow(ctx, `
		SELECT time, contract_id,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon
		FROM tracking_reports
		WHERE contract_id = $1
		ORDER BY time DESC
		LIMIT 1
	`, contractID).Scan(&rep.ReportedAt, &rep.ContractID, &rep.Position.Lat, &rep.Position.Lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}
