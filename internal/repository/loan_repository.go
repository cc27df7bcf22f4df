package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/loan-tracker/internal/database"
	"github.com/segyhp/loan-tracker/internal/domain"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

const loanColumns = `id, name, company, amount, phone_number, due_date, status, receipt, created_at, updated_at`

type loanRepository struct {
	handle *database.Handle[*sqlx.DB]
}

// NewLoanRepository returns the PostgreSQL loan store
func NewLoanRepository(handle *database.Handle[*sqlx.DB]) LoanRepository {
	return &loanRepository{handle: handle}
}

func (r *loanRepository) db(ctx context.Context) (*sqlx.DB, error) {
	return r.handle.Get(ctx)
}

func (r *loanRepository) List(ctx context.Context) ([]*domain.Loan, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`

	loans := []*domain.Loan{}
	if err := db.SelectContext(ctx, &loans, query); err != nil {
		return nil, storeError(r.handle, "list loans", err)
	}

	return loans, nil
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *loan
	created.ID = uuid.NewString()
	created.Status = domain.StatusPending
	created.CreatedAt = now
	created.UpdatedAt = now

	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = db.ExecContext(ctx, query,
		created.ID,
		created.Name,
		created.Company,
		created.Amount,
		created.PhoneNumber,
		created.DueDate,
		created.Status,
		created.Receipt,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		return nil, storeError(r.handle, "create loan", err)
	}

	return &created, nil
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, customError.ErrLoanNotFound
	}

	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := db.GetContext(ctx, &loan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrLoanNotFound
		}
		return nil, storeError(r.handle, "get loan", err)
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, id string, patch *domain.LoanPatch) (*domain.Loan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, customError.ErrLoanNotFound
	}

	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError(r.handle, "begin update", err)
	}
	defer tx.Rollback()

	var loan domain.Loan
	selectQuery := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &loan, selectQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrLoanNotFound
		}
		return nil, storeError(r.handle, "lock loan", err)
	}

	patch.Apply(&loan)
	loan.UpdatedAt = time.Now().UTC()

	updateQuery := `
		UPDATE loans
		SET name = $2, company = $3, amount = $4, phone_number = $5, due_date = $6,
		    status = $7, receipt = $8, updated_at = $9
		WHERE id = $1
	`

	_, err = tx.ExecContext(ctx, updateQuery,
		loan.ID,
		loan.Name,
		loan.Company,
		loan.Amount,
		loan.PhoneNumber,
		loan.DueDate,
		loan.Status,
		loan.Receipt,
		loan.UpdatedAt,
	)
	if err != nil {
		return nil, storeError(r.handle, "update loan", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(r.handle, "commit update", err)
	}

	return &loan, nil
}

func (r *loanRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return customError.ErrLoanNotFound
	}

	db, err := r.db(ctx)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return storeError(r.handle, "delete loan", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	if affected == 0 {
		return customError.ErrLoanNotFound
	}

	return nil
}

func (r *loanRepository) Ping(ctx context.Context) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return storeError(r.handle, "ping", err)
	}
	return nil
}
