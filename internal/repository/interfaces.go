package repository

import (
	"context"

	"github.com/segyhp/loan-tracker/internal/domain"
)

// LoanRepository defines the interface for loan data operations.
// Missing or malformed ids are reported as errors.ErrLoanNotFound.
type LoanRepository interface {
	// List returns every loan, newest first
	List(ctx context.Context) ([]*domain.Loan, error)

	// Create stores a draft, assigning its id and timestamps. The stored
	// status is always Pending.
	Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)

	// GetByID retrieves a loan by its id
	GetByID(ctx context.Context, id string) (*domain.Loan, error)

	// Update applies the set fields of patch and returns the updated loan
	Update(ctx context.Context, id string, patch *domain.LoanPatch) (*domain.Loan, error)

	// Delete removes a loan permanently
	Delete(ctx context.Context, id string) error

	// Ping checks connectivity to the store
	Ping(ctx context.Context) error
}

// IndexEnsurer is implemented by stores that manage their own indexes
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}
