package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
)

// ContractService handles contract lookups and registration.
type ContractService struct {
	contracts ports.ContractRepository
}

// NewContractService creates a new ContractService.
func NewContractService(contracts ports.ContractRepository) *ContractService {
	return &ContractService{contracts: contracts}
}

// GetByID returns a contract by ID.
func (s *ContractService) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	return s.contracts.GetByID(ctx, id)
}

// ListActive returns every contract currently expecting tracking reports.
func (s *ContractService) ListActive(ctx context.Context) ([]domain.Contract, error) {
	return s.contracts.ListActive(ctx)
}

// List returns a page of contracts, optionally filtered by status, and the
// total number matching.
func (s *ContractService) List(ctx context.Context, status domain.ContractStatus, offset, limit int) ([]domain.Contract, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.contracts.List(ctx, status, offset, limit)
}

// Register validates and stores a contract mirrored from the freight API.
func (s *ContractService) Register(ctx context.Context, c *domain.Contract) error {
	var errs []string
	if c.ID == "" {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(c.OriginAddress) == "" {
		errs = append(errs, "origin_address is required")
	}
	if strings.TrimSpace(c.DestinationAddress) == "" {
		errs = append(errs, "destination_address is required")
	}
	switch c.Status {
	case "":
		c.Status = domain.ContractPending
	case domain.ContractPending, domain.ContractActive, domain.ContractCompleted, domain.ContractCancelled:
	default:
		errs = append(errs, fmt.Sprintf("unknown status %q", c.Status))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
	}

	if err := s.contracts.Upsert(ctx, c); err != nil {
		return fmt.Errorf("upsert contract: %w", err)
	}
	return nil
}
