package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-tracker/internal/domain"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) List(ctx context.Context) ([]*domain.LoanItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanItem), args.Error(1)
}

func (m *MockLoanService) View(ctx context.Context, criteria domain.ViewCriteria) (*domain.LoanView, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanView), args.Error(1)
}

func (m *MockLoanService) Get(ctx context.Context, id string) (*domain.LoanItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanItem), args.Error(1)
}

func (m *MockLoanService) Create(ctx context.Context, request *domain.CreateLoanRequest) (*domain.LoanItem, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanItem), args.Error(1)
}

func (m *MockLoanService) Update(ctx context.Context, id string, request *domain.UpdateLoanRequest) (*domain.LoanItem, error) {
	args := m.Called(ctx, id, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanItem), args.Error(1)
}

func (m *MockLoanService) ToggleStatus(ctx context.Context, id string) (*domain.LoanItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanItem), args.Error(1)
}

func (m *MockLoanService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLoanService) DeletePaid(ctx context.Context) (*domain.BulkDeleteResponse, error) {
	args := m.Called(ctx)
	var result *domain.BulkDeleteResponse
	if args.Get(0) != nil {
		result = args.Get(0).(*domain.BulkDeleteResponse)
	}
	return result, args.Error(1)
}

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) IssueToken(ctx context.Context, request *domain.UploadTokenRequest) (*domain.UploadTokenResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadTokenResponse), args.Error(1)
}

func (m *MockUploadService) Upload(ctx context.Context, token, contentType string, body io.Reader, size int64) (*domain.UploadResponse, error) {
	args := m.Called(ctx, token, contentType, body, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResponse), args.Error(1)
}

func (m *MockUploadService) Complete(ctx context.Context, token string) (*domain.UploadResponse, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResponse), args.Error(1)
}

// MockPinger stands in for any dependency the readiness check pings
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
