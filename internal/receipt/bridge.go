package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/domain"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/logger"
	"github.com/segyhp/loan-tracker/pkg/validation"
)

const objectPrefix = "receipts/"

type Bridge struct {
	blobs    BlobStore
	tokens   TokenStore
	config   config.UploadConfig
	log      logrus.FieldLogger
	validate *validator.Validate
	now      func() time.Time
}

func NewBridge(blobs BlobStore, tokens TokenStore, cfg config.UploadConfig, log logrus.FieldLogger) *Bridge {
	return &Bridge{
		blobs:    blobs,
		tokens:   tokens,
		config:   cfg,
		log:      log.WithField("component", "receipt"),
		validate: validation.New(),
		now:      time.Now,
	}
}

// IssueToken reserves an object name for one upload and returns the token
// together with a presigned URL for uploading straight to the blob store.
func (b *Bridge) IssueToken(ctx context.Context, req *domain.UploadTokenRequest) (*domain.UploadTokenResponse, error) {
	if err := b.validate.Struct(req); err != nil {
		return nil, customError.WrapValidation(validation.Describe(err))
	}

	contentType := mediaType(req.ContentType)
	if !b.allowed(contentType) {
		return nil, customError.WrapUploadRejected(fmt.Sprintf("content type %s is not allowed", req.ContentType))
	}

	ticket := &domain.UploadTicket{
		Token:       uuid.NewString(),
		ObjectName:  objectName(req.Filename, contentType),
		Filename:    req.Filename,
		ContentType: contentType,
		ExpiresAt:   b.now().UTC().Add(b.config.TokenTTL),
	}

	uploadURL, err := b.blobs.PresignedPut(ctx, ticket.ObjectName, b.config.TokenTTL)
	if err != nil {
		return nil, customError.WrapBlobStoreError(err)
	}

	if err := b.tokens.Save(ctx, ticket, b.config.TokenTTL); err != nil {
		return nil, err
	}

	logger.WithContext(ctx, b.log).WithFields(logrus.Fields{
		"token":        ticket.Token,
		"object":       ticket.ObjectName,
		"content_type": ticket.ContentType,
	}).Info("upload token issued")

	return &domain.UploadTokenResponse{
		Token:      ticket.Token,
		ObjectName: ticket.ObjectName,
		UploadURL:  uploadURL,
		ExpiresAt:  ticket.ExpiresAt,
	}, nil
}

// Upload stores body under the object reserved by token. size may be -1
// when the length is unknown. The token is spent even if the upload is
// rejected.
func (b *Bridge) Upload(ctx context.Context, token, contentType string, body io.Reader, size int64) (*domain.UploadResponse, error) {
	ticket, err := b.tokens.Take(ctx, token)
	if err != nil {
		return nil, err
	}

	if got := mediaType(contentType); got != ticket.ContentType {
		return nil, customError.WrapUploadRejected(fmt.Sprintf("expected content type %s, got %s", ticket.ContentType, got))
	}

	if size > b.config.MaxBytes {
		return nil, b.tooLarge()
	}
	if size < 0 {
		buf, err := io.ReadAll(io.LimitReader(body, b.config.MaxBytes+1))
		if err != nil {
			return nil, customError.WrapUploadRejected("request body could not be read")
		}
		if int64(len(buf)) > b.config.MaxBytes {
			return nil, b.tooLarge()
		}
		body, size = bytes.NewReader(buf), int64(len(buf))
	}
	if size == 0 {
		return nil, customError.WrapUploadRejected("upload body is empty")
	}

	if err := b.blobs.Put(ctx, ticket.ObjectName, body, size, ticket.ContentType); err != nil {
		return nil, customError.WrapBlobStoreError(err)
	}

	b.logCompleted(ctx, ticket, size, "proxy")
	return &domain.UploadResponse{URL: b.blobs.PublicURL(ticket.ObjectName)}, nil
}

// Complete confirms an upload the client made with the presigned URL.
// Objects over the size limit are removed and rejected.
func (b *Bridge) Complete(ctx context.Context, token string) (*domain.UploadResponse, error) {
	ticket, err := b.tokens.Take(ctx, token)
	if err != nil {
		return nil, err
	}

	size, err := b.blobs.Stat(ctx, ticket.ObjectName)
	if err != nil {
		if errors.Is(err, ErrObjectMissing) {
			return nil, customError.WrapUploadRejected(fmt.Sprintf("nothing was uploaded for token %s", token))
		}
		return nil, customError.WrapBlobStoreError(err)
	}
	// the token is spent, so an oversized object could never be confirmed
	if size > b.config.MaxBytes {
		if err := b.blobs.Remove(ctx, ticket.ObjectName); err != nil {
			logger.WithContext(ctx, b.log).WithError(err).WithField("object", ticket.ObjectName).
				Warn("could not remove oversized upload")
		}
		return nil, b.tooLarge()
	}

	b.logCompleted(ctx, ticket, size, "direct")
	return &domain.UploadResponse{URL: b.blobs.PublicURL(ticket.ObjectName)}, nil
}

// Ping reports whether both backing stores answer
func (b *Bridge) Ping(ctx context.Context) error {
	if err := b.blobs.Ping(ctx); err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	if err := b.tokens.Ping(ctx); err != nil {
		return fmt.Errorf("token store: %w", err)
	}
	return nil
}

func (b *Bridge) allowed(contentType string) bool {
	return slices.ContainsFunc(b.config.AllowedTypes, func(t string) bool {
		return strings.EqualFold(t, contentType)
	})
}

func (b *Bridge) tooLarge() error {
	return customError.WrapUploadRejected(fmt.Sprintf("upload exceeds %d bytes", b.config.MaxBytes))
}

func (b *Bridge) logCompleted(ctx context.Context, ticket *domain.UploadTicket, size int64, mode string) {
	logger.WithContext(ctx, b.log).WithFields(logrus.Fields{
		"token":    ticket.Token,
		"object":   ticket.ObjectName,
		"filename": ticket.Filename,
		"size":     size,
		"mode":     mode,
	}).Info("receipt upload completed")
}

// mediaType drops parameters such as charset and lowercases the type
func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func objectName(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return objectPrefix + uuid.NewString() + ext
}
