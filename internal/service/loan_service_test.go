package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/mocks"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/logger"
)

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}

func newTestService() (*LoanService, *mocks.MockLoanRepository) {
	repo := new(mocks.MockLoanRepository)
	svc := NewLoanService(repo, logger.Discard(), time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func loan(id string, status domain.Status, due string) *domain.Loan {
	return &domain.Loan{
		ID:          id,
		Name:        "Borrower " + id,
		Company:     "Acme",
		Amount:      decimal.NewFromInt(100),
		PhoneNumber: "99001122",
		DueDate:     date(due),
		Status:      status,
	}
}

func TestLoanService_Create(t *testing.T) {
	validRequest := func() *domain.CreateLoanRequest {
		return &domain.CreateLoanRequest{
			Name:        " Saraa ",
			Company:     "Nomad LLC",
			Amount:      ptr(decimal.RequireFromString("2500.75")),
			PhoneNumber: "88112233",
			DueDate:     "2024-07-01",
		}
	}

	tests := []struct {
		name      string
		request   func() *domain.CreateLoanRequest
		setupMock func(*mocks.MockLoanRepository)
		wantErr   error
	}{
		{
			name:    "successful loan creation",
			request: validRequest,
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
					return l.Name == "Saraa" &&
						l.Status == domain.StatusPending &&
						l.DueDate.Equal(date("2024-07-01")) &&
						l.Amount.Equal(decimal.RequireFromString("2500.75")) &&
						l.Receipt == nil
				})).Return(loan("new", domain.StatusPending, "2024-07-01"), nil).Once()
			},
		},
		{
			name: "missing amount",
			request: func() *domain.CreateLoanRequest {
				r := validRequest()
				r.Amount = nil
				return r
			},
			wantErr: customError.ErrValidation,
		},
		{
			name: "negative amount",
			request: func() *domain.CreateLoanRequest {
				r := validRequest()
				r.Amount = ptr(decimal.NewFromInt(-1))
				return r
			},
			wantErr: customError.ErrValidation,
		},
		{
			name: "blank name",
			request: func() *domain.CreateLoanRequest {
				r := validRequest()
				r.Name = "   "
				return r
			},
			wantErr: customError.ErrValidation,
		},
		{
			name: "missing company",
			request: func() *domain.CreateLoanRequest {
				r := validRequest()
				r.Company = ""
				return r
			},
			wantErr: customError.ErrValidation,
		},
		{
			name: "malformed due date",
			request: func() *domain.CreateLoanRequest {
				r := validRequest()
				r.DueDate = "01/07/2024"
				return r
			},
			wantErr: customError.ErrValidation,
		},
		{
			name:    "store unavailable",
			request: validRequest,
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Create", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: dial tcp", customError.ErrStoreUnavailable)).Once()
			},
			wantErr: customError.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			item, err := svc.Create(context.Background(), tt.request())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, item)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "new", item.ID)
				assert.Equal(t, domain.StatusPending, item.DisplayStatus)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLoanService_Create_KeepsReceipt(t *testing.T) {
	svc, repo := newTestService()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Receipt != nil && *l.Receipt == "https://blob.example/receipts/a.png"
	})).Return(loan("new", domain.StatusPending, "2024-07-01"), nil).Once()

	_, err := svc.Create(context.Background(), &domain.CreateLoanRequest{
		Name:        "Saraa",
		Company:     "Nomad",
		Amount:      ptr(decimal.Zero),
		PhoneNumber: "1",
		DueDate:     "2024-07-01",
		Receipt:     "https://blob.example/receipts/a.png",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLoanService_Update(t *testing.T) {
	tests := []struct {
		name      string
		request   *domain.UpdateLoanRequest
		setupMock func(*mocks.MockLoanRepository)
		wantErr   error
	}{
		{
			name:    "changes only the given fields",
			request: &domain.UpdateLoanRequest{Amount: ptr(decimal.NewFromInt(300)), DueDate: ptr("2024-08-01")},
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Update", mock.Anything, "l1", mock.MatchedBy(func(p *domain.LoanPatch) bool {
					return p.Amount.Equal(decimal.NewFromInt(300)) &&
						p.DueDate.Equal(date("2024-08-01")) &&
						p.Name == nil && p.Status == nil && p.Receipt == nil
				})).Return(loan("l1", domain.StatusPending, "2024-08-01"), nil).Once()
			},
		},
		{
			name:    "blank receipt clears it",
			request: &domain.UpdateLoanRequest{Receipt: ptr("")},
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Update", mock.Anything, "l1", mock.MatchedBy(func(p *domain.LoanPatch) bool {
					return p.Receipt != nil && *p.Receipt == ""
				})).Return(loan("l1", domain.StatusPending, "2024-08-01"), nil).Once()
			},
		},
		{
			name:    "whitespace receipt clears it",
			request: &domain.UpdateLoanRequest{Receipt: ptr("   ")},
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Update", mock.Anything, "l1", mock.MatchedBy(func(p *domain.LoanPatch) bool {
					return p.Receipt != nil && *p.Receipt == ""
				})).Return(loan("l1", domain.StatusPending, "2024-08-01"), nil).Once()
			},
		},
		{
			name:    "new receipt url",
			request: &domain.UpdateLoanRequest{Receipt: ptr("https://blob.example/receipts/b.png")},
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Update", mock.Anything, "l1", mock.MatchedBy(func(p *domain.LoanPatch) bool {
					return p.Receipt != nil && *p.Receipt == "https://blob.example/receipts/b.png"
				})).Return(loan("l1", domain.StatusPending, "2024-08-01"), nil).Once()
			},
		},
		{
			name:    "receipt must be a url",
			request: &domain.UpdateLoanRequest{Receipt: ptr("not a url")},
			wantErr: customError.ErrValidation,
		},
		{
			name:    "overdue is not a storable status",
			request: &domain.UpdateLoanRequest{Status: ptr(domain.StatusOverdue)},
			wantErr: customError.ErrValidation,
		},
		{
			name:    "blank name",
			request: &domain.UpdateLoanRequest{Name: ptr(" ")},
			wantErr: customError.ErrValidation,
		},
		{
			name:    "empty patch",
			request: &domain.UpdateLoanRequest{},
			wantErr: customError.ErrNothingToUpdate,
		},
		{
			name:    "unknown loan",
			request: &domain.UpdateLoanRequest{Status: ptr(domain.StatusPaid)},
			setupMock: func(repo *mocks.MockLoanRepository) {
				repo.On("Update", mock.Anything, "l1", mock.Anything).Return(nil, customError.ErrLoanNotFound).Once()
			},
			wantErr: customError.ErrLoanNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			item, err := svc.Update(context.Background(), "l1", tt.request)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, item)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "l1", item.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLoanService_ToggleStatus(t *testing.T) {
	tests := []struct {
		name    string
		current domain.Status
		want    domain.Status
	}{
		{"pending becomes paid", domain.StatusPending, domain.StatusPaid},
		{"paid becomes pending", domain.StatusPaid, domain.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			repo.On("GetByID", mock.Anything, "l1").Return(loan("l1", tt.current, "2024-06-01"), nil).Once()
			repo.On("Update", mock.Anything, "l1", mock.MatchedBy(func(p *domain.LoanPatch) bool {
				return p.Status != nil && *p.Status == tt.want
			})).Return(loan("l1", tt.want, "2024-06-01"), nil).Once()

			item, err := svc.ToggleStatus(context.Background(), "l1")

			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Status)
			repo.AssertExpectations(t)
		})
	}

	t.Run("unknown loan", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("GetByID", mock.Anything, "nope").Return(nil, customError.ErrLoanNotFound).Once()

		_, err := svc.ToggleStatus(context.Background(), "nope")

		var be *customError.BusinessError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, customError.ErrCodeLoanNotFound, be.Code)
	})
}

func TestLoanService_List_EngineOrder(t *testing.T) {
	svc, repo := newTestService()
	repo.On("List", mock.Anything).Return([]*domain.Loan{
		loan("paid", domain.StatusPaid, "2024-06-01"),
		loan("later", domain.StatusPending, "2024-07-01"),
		loan("overdue", domain.StatusPending, "2024-06-10"),
		loan("soon", domain.StatusPending, "2024-06-15"),
	}, nil).Once()

	items, err := svc.List(context.Background())

	require.NoError(t, err)
	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"overdue", "soon", "later", "paid"}, ids)
	assert.Equal(t, domain.StatusOverdue, items[0].DisplayStatus)
	assert.Equal(t, domain.StatusPending, items[0].Status, "stored status is untouched")
}

func TestLoanService_View(t *testing.T) {
	svc, repo := newTestService()
	repo.On("List", mock.Anything).Return([]*domain.Loan{
		loan("a", domain.StatusPaid, "2024-06-01"),
		loan("b", domain.StatusPending, "2024-06-10"),
		loan("c", domain.StatusPending, "2024-07-01"),
	}, nil).Once()

	view, err := svc.View(context.Background(), domain.ViewCriteria{SearchTerm: "borrower c"})

	require.NoError(t, err)
	require.Len(t, view.Loans, 1)
	assert.Equal(t, "c", view.Loans[0].ID)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, domain.StatusCounts{Pending: 1, Paid: 1, Overdue: 1}, view.Counts)
}

func TestLoanService_DeletePaid(t *testing.T) {
	book := []*domain.Loan{
		loan("p1", domain.StatusPaid, "2024-06-01"),
		loan("open", domain.StatusPending, "2024-06-01"),
		loan("p2", domain.StatusPaid, "2024-06-02"),
		loan("p3", domain.StatusPaid, "2024-06-03"),
	}

	t.Run("all deleted", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("List", mock.Anything).Return(book, nil).Once()
		repo.On("Delete", mock.Anything, mock.Anything).Return(nil).Times(3)

		result, err := svc.DeletePaid(context.Background())

		require.NoError(t, err)
		assert.Equal(t, domain.BulkOutcomeSuccess, result.Outcome)
		assert.Equal(t, 3, result.Requested)
		assert.Equal(t, []string{"p1", "p2", "p3"}, result.Deleted)
		repo.AssertNotCalled(t, "Delete", mock.Anything, "open")
	})

	t.Run("one failure still attempts the rest", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("List", mock.Anything).Return(book, nil).Once()
		repo.On("Delete", mock.Anything, "p1").Return(nil).Once()
		repo.On("Delete", mock.Anything, "p2").Return(errors.New("lock timeout")).Once()
		repo.On("Delete", mock.Anything, "p3").Return(nil).Once()

		result, err := svc.DeletePaid(context.Background())

		assert.ErrorIs(t, err, customError.ErrBulkDeleteIncomplete)
		require.NotNil(t, result)
		assert.Equal(t, domain.BulkOutcomePartial, result.Outcome)
		assert.Equal(t, []string{"p1", "p3"}, result.Deleted)
		assert.Contains(t, result.Failed["p2"], "lock timeout")
		repo.AssertExpectations(t)
	})

	t.Run("everything failed", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("List", mock.Anything).Return(book, nil).Once()
		repo.On("Delete", mock.Anything, mock.Anything).Return(errors.New("read only")).Times(3)

		result, err := svc.DeletePaid(context.Background())

		assert.ErrorIs(t, err, customError.ErrBulkDeleteIncomplete)
		assert.Equal(t, domain.BulkOutcomeFailed, result.Outcome)
		assert.Len(t, result.Failed, 3)
		assert.Empty(t, result.Deleted)
	})

	t.Run("nothing to delete", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("List", mock.Anything).Return([]*domain.Loan{loan("open", domain.StatusPending, "2024-06-01")}, nil).Once()

		result, err := svc.DeletePaid(context.Background())

		require.NoError(t, err)
		assert.Equal(t, domain.BulkOutcomeSuccess, result.Outcome)
		assert.Zero(t, result.Requested)
	})
}

func TestLoanService_DailyReport(t *testing.T) {
	svc, repo := newTestService()
	repo.On("List", mock.Anything).Return([]*domain.Loan{
		loan("overdue", domain.StatusPending, "2024-06-14"),
		loan("today", domain.StatusPending, "2024-06-15"),
		loan("in3", domain.StatusPending, "2024-06-18"),
		loan("in4", domain.StatusPending, "2024-06-19"),
		loan("paid", domain.StatusPaid, "2024-06-16"),
	}, nil).Once()

	report, err := svc.DailyReport(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, date("2024-06-15"), report.Date)
	assert.Equal(t, domain.StatusCounts{Pending: 3, Paid: 1, Overdue: 1}, report.Counts)
	require.Len(t, report.Overdue, 1)
	assert.Equal(t, "overdue", report.Overdue[0].ID)
	require.Len(t, report.DueSoon, 2)
	assert.Equal(t, "today", report.DueSoon[0].ID)
	assert.Equal(t, "in3", report.DueSoon[1].ID)
}

func TestLoanService_Delete(t *testing.T) {
	svc, repo := newTestService()
	repo.On("Delete", mock.Anything, "gone").Return(customError.ErrLoanNotFound).Once()
	repo.On("Delete", mock.Anything, "l1").Return(nil).Once()

	assert.ErrorIs(t, svc.Delete(context.Background(), "gone"), customError.ErrLoanNotFound)
	assert.NoError(t, svc.Delete(context.Background(), "l1"))
}
