// Package receipt lets clients attach receipt images to loans. A client asks
// for a short-lived upload token, sends the file either straight to the blob
// store through a presigned URL or through the API, and gets back the
// permanent URL it stores on the loan.
package receipt

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
)

// ErrObjectMissing is returned by BlobStore.Stat for objects that do not exist
var ErrObjectMissing = errors.New("object does not exist")

// BlobStore holds receipt objects
type BlobStore interface {
	// PresignedPut returns a URL the client can PUT the object to directly
	PresignedPut(ctx context.Context, objectName string, expiry time.Duration) (string, error)

	Put(ctx context.Context, objectName string, body io.Reader, size int64, contentType string) error

	// Stat returns the size of a stored object or ErrObjectMissing
	Stat(ctx context.Context, objectName string) (int64, error)

	Remove(ctx context.Context, objectName string) error

	// PublicURL is the permanent address of an object
	PublicURL(objectName string) string

	Ping(ctx context.Context) error
}

// TokenStore keeps issued upload tickets until they are used or expire
type TokenStore interface {
	Save(ctx context.Context, ticket *domain.UploadTicket, ttl time.Duration) error

	// Take returns and removes the ticket, so a token works only once.
	// Unknown or expired tokens yield errors.ErrUploadTokenInvalid.
	Take(ctx context.Context, token string) (*domain.UploadTicket, error)

	Ping(ctx context.Context) error
}
