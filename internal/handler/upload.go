package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/domain"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/response"
)

// UploadService is what the upload endpoints need from the receipt bridge
type UploadService interface {
	IssueToken(ctx context.Context, request *domain.UploadTokenRequest) (*domain.UploadTokenResponse, error)
	Upload(ctx context.Context, token, contentType string, body io.Reader, size int64) (*domain.UploadResponse, error)
	Complete(ctx context.Context, token string) (*domain.UploadResponse, error)
}

type UploadHandler struct {
	service UploadService
	log     logrus.FieldLogger
}

func NewUploadHandler(service UploadService, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{
		service: service,
		log:     log,
	}
}

// IssueToken handles POST /uploads
func (h *UploadHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var request domain.UploadTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		handleError(w, r, h.log, customError.WrapInvalidRequest(err))
		return
	}

	ticket, err := h.service.IssueToken(r.Context(), &request)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Created(w, ticket)
}

// Upload handles PUT /uploads/{token} with the raw file as body
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Upload(r.Context(), mux.Vars(r)["token"], r.Header.Get("Content-Type"), r.Body, r.ContentLength)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Created(w, result)
}

// Complete handles POST /uploads/{token}/complete after a direct upload
func (h *UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Complete(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, result)
}
