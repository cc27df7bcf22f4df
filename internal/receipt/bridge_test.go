package receipt

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/mocks"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/logger"
)

var uploadConfig = config.UploadConfig{
	TokenTTL:     10 * time.Minute,
	MaxBytes:     16,
	AllowedTypes: []string{"image/jpeg", "image/png", "video/mp4"},
}

func newTestBridge() (*Bridge, *mocks.MockBlobStore, *mocks.MockTokenStore) {
	blobs := new(mocks.MockBlobStore)
	tokens := new(mocks.MockTokenStore)
	bridge := NewBridge(blobs, tokens, uploadConfig, logger.Discard())
	bridge.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return bridge, blobs, tokens
}

func TestBridge_IssueToken(t *testing.T) {
	t.Run("issues a token for an allowed type", func(t *testing.T) {
		bridge, blobs, tokens := newTestBridge()

		blobs.On("PresignedPut", mock.Anything, mock.MatchedBy(func(name string) bool {
			return strings.HasPrefix(name, "receipts/") && strings.HasSuffix(name, ".png")
		}), uploadConfig.TokenTTL).Return("https://blob.example/presigned", nil).Once()
		tokens.On("Save", mock.Anything, mock.MatchedBy(func(ticket *domain.UploadTicket) bool {
			return ticket.ContentType == "image/png" && ticket.Filename == "Receipt.PNG" && ticket.Token != ""
		}), uploadConfig.TokenTTL).Return(nil).Once()

		resp, err := bridge.IssueToken(context.Background(), &domain.UploadTokenRequest{
			Filename:    "Receipt.PNG",
			ContentType: "image/png",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "https://blob.example/presigned", resp.UploadURL)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC), resp.ExpiresAt)
		blobs.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("rejects disallowed content type", func(t *testing.T) {
		bridge, blobs, tokens := newTestBridge()

		_, err := bridge.IssueToken(context.Background(), &domain.UploadTokenRequest{
			Filename:    "notes.pdf",
			ContentType: "application/pdf",
		})

		assert.ErrorIs(t, err, customError.ErrUploadRejected)
		blobs.AssertNotCalled(t, "PresignedPut", mock.Anything, mock.Anything, mock.Anything)
		tokens.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires a filename", func(t *testing.T) {
		bridge, _, _ := newTestBridge()

		_, err := bridge.IssueToken(context.Background(), &domain.UploadTokenRequest{ContentType: "image/png"})

		assert.ErrorIs(t, err, customError.ErrValidation)
	})

	t.Run("presign failure is a blob store error", func(t *testing.T) {
		bridge, blobs, _ := newTestBridge()
		blobs.On("PresignedPut", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("no route")).Once()

		_, err := bridge.IssueToken(context.Background(), &domain.UploadTokenRequest{
			Filename:    "a.jpg",
			ContentType: "image/jpeg",
		})

		assert.ErrorIs(t, err, customError.ErrBlobStore)
	})
}

func TestBridge_Upload(t *testing.T) {
	ticket := &domain.UploadTicket{
		Token:       "tok",
		ObjectName:  "receipts/abc.png",
		ContentType: "image/png",
	}

	t.Run("stores the body and returns the public url", func(t *testing.T) {
		bridge, blobs, tokens := newTestBridge()
		tokens.On("Take", mock.Anything, "tok").Return(ticket, nil).Once()
		blobs.On("Put", mock.Anything, "receipts/abc.png", mock.Anything, int64(4), "image/png").Return(nil).Once()
		blobs.On("PublicURL", "receipts/abc.png").Return("https://blob.example/receipts/abc.png").Once()

		resp, err := bridge.Upload(context.Background(), "tok", "image/png", strings.NewReader("data"), 4)

		require.NoError(t, err)
		assert.Equal(t, "https://blob.example/receipts/abc.png", resp.URL)
		blobs.AssertExpectations(t)
	})

	t.Run("unknown length is measured", func(t *testing.T) {
		bridge, blobs, tokens := newTestBridge()
		tokens.On("Take", mock.Anything, "tok").Return(ticket, nil).Once()
		blobs.On("Put", mock.Anything, "receipts/abc.png", mock.Anything, int64(5), "image/png").Return(nil).Once()
		blobs.On("PublicURL", "receipts/abc.png").Return("u").Once()

		_, err := bridge.Upload(context.Background(), "tok", "image/png; charset=binary", strings.NewReader("bytes"), -1)

		require.NoError(t, err)
		blobs.AssertExpectations(t)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		bridge, blobs, tokens := newTestBridge()
		tokens.On("Take", mock.Anything, "tok").Return(ticket, nil).Once()

		_, err := bridge.Upload(context.Background(), "tok", "image/png", strings.NewReader(strings.Repeat("x", 17)), -1)

		assert.ErrorIs(t, err, customError.ErrUploadRejected)
		blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("content type must match the token", func(t *testing.T) {
		bridge, _, tokens := newTestBridge()
		tokens.On("Take", mock.Anything, "tok").Return(ticket, nil).Once()

		_, err := bridge.Upload(context.Background(), "tok", "image/jpeg", strings.NewReader("data"), 4)

		assert.ErrorIs(t, err, customError.ErrUploadRejected)
	})

	t.Run("spent token cannot be reused", func(t *testing.T) {
		bridge, _, tokens := newTestBridge()
		tokens.On("Take", mock.Anything, "tok").Return(nil, customError.WrapUploadTokenInvalid("tok")).Once()

		_, err := bridge.Upload(context.Background(), "tok", "image/png", strings.NewReader("data"), 4)

		assert.ErrorIs(t, err, customError.ErrUploadTokenInvalid)
	})
}

func TestBridge_Complete(t *testing.T) {
	ticket := &domain.UploadTicket{Token: "tok", ObjectName: "receipts/abc.mp4", ContentType: "video/mp4"}

	tests := []struct {
		name       string
		statSize   int64
		statErr    error
		wantErr    error
		wantRemove bool
	}{
		{name: "object present", statSize: 8},
		{name: "nothing uploaded", statErr: ErrObjectMissing, wantErr: customError.ErrUploadRejected},
		{name: "blob store down", statErr: errors.New("timeout"), wantErr: customError.ErrBlobStore},
		{name: "object too large", statSize: 64, wantErr: customError.ErrUploadRejected, wantRemove: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge, blobs, tokens := newTestBridge()
			tokens.On("Take", mock.Anything, "tok").Return(ticket, nil).Once()
			blobs.On("Stat", mock.Anything, "receipts/abc.mp4").Return(tt.statSize, tt.statErr).Once()
			blobs.On("PublicURL", "receipts/abc.mp4").Return("https://blob.example/receipts/abc.mp4").Maybe()
			if tt.wantRemove {
				blobs.On("Remove", mock.Anything, "receipts/abc.mp4").Return(nil).Once()
			}

			resp, err := bridge.Complete(context.Background(), "tok")

			if tt.wantRemove {
				blobs.AssertExpectations(t)
			} else {
				blobs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://blob.example/receipts/abc.mp4", resp.URL)
		})
	}
}

func TestObjectName(t *testing.T) {
	name := objectName("Photo.JPG", "image/jpeg")
	assert.True(t, strings.HasPrefix(name, "receipts/"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	assert.NotEqual(t, objectName("a.png", "image/png"), objectName("a.png", "image/png"))
}

func TestPublicURL(t *testing.T) {
	cfg := config.BlobConfig{Endpoint: "localhost:9000", Bucket: "receipts"}
	assert.Equal(t, "http://localhost:9000/receipts/receipts/a.png", publicURL(cfg, "receipts/a.png"))

	cfg.UseSSL = true
	assert.Equal(t, "https://localhost:9000/receipts/receipts/a.png", publicURL(cfg, "receipts/a.png"))

	cfg.PublicURL = "https://cdn.example/"
	assert.Equal(t, "https://cdn.example/receipts/a.png", publicURL(cfg, "receipts/a.png"))
}

func TestDecodeTicket(t *testing.T) {
	ticket, err := decodeTicket("tok", []byte(`{"token":"tok","objectName":"receipts/a.png","contentType":"image/png"}`))
	require.NoError(t, err)
	assert.Equal(t, "receipts/a.png", ticket.ObjectName)
	assert.Equal(t, "upload:token:tok", tokenKey("tok"))

	_, err = decodeTicket("tok", []byte("{"))
	assert.Error(t, err)
}
