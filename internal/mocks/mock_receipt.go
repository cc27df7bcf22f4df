package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/loan-tracker/internal/domain"
)

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) PresignedPut(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Put(ctx context.Context, objectName string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectName, body, size, contentType)
	return args.Error(0)
}

func (m *MockBlobStore) Stat(ctx context.Context, objectName string) (int64, error) {
	args := m.Called(ctx, objectName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlobStore) Remove(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockBlobStore) PublicURL(objectName string) string {
	args := m.Called(objectName)
	return args.String(0)
}

func (m *MockBlobStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Save(ctx context.Context, ticket *domain.UploadTicket, ttl time.Duration) error {
	args := m.Called(ctx, ticket, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) Take(ctx context.Context, token string) (*domain.UploadTicket, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadTicket), args.Error(1)
}

func (m *MockTokenStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
