package ports

import (
	"context"

	"github.com/freightline/tracker/internal/core/domain"
)

// ContractRepository persists freight contracts.
type ContractRepository interface {
	Upsert(ctx context.Context, contract *domain.Contract) error
	GetByID(ctx context.Context, id string) (*domain.Contract, error)
	ListActive(ctx context.Context) ([]domain.Contract, error)
	List(ctx context.Context, status domain.ContractStatus, offset, limit int) ([]domain.Contract, int, error)
}

// TrackingReportRepository persists driver position reports.
type TrackingReportRepository interface {
	Insert(ctx context.Context, report *domain.TrackingReport, accepted bool) error
	Latest(ctx context.Context, contractID string) (*domain.TrackingReport, error)
}
