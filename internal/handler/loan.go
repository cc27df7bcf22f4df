package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/domain"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/logger"
	"github.com/segyhp/loan-tracker/pkg/response"
	"github.com/segyhp/loan-tracker/pkg/utils"
)

// LoanService is what the loan endpoints need from the service layer
type LoanService interface {
	List(ctx context.Context) ([]*domain.LoanItem, error)
	View(ctx context.Context, criteria domain.ViewCriteria) (*domain.LoanView, error)
	Get(ctx context.Context, id string) (*domain.LoanItem, error)
	Create(ctx context.Context, request *domain.CreateLoanRequest) (*domain.LoanItem, error)
	Update(ctx context.Context, id string, request *domain.UpdateLoanRequest) (*domain.LoanItem, error)
	ToggleStatus(ctx context.Context, id string) (*domain.LoanItem, error)
	Delete(ctx context.Context, id string) error
	DeletePaid(ctx context.Context) (*domain.BulkDeleteResponse, error)
}

type LoanHandler struct {
	service LoanService
	log     logrus.FieldLogger
}

func NewLoanHandler(service LoanService, log logrus.FieldLogger) *LoanHandler {
	return &LoanHandler{
		service: service,
		log:     log,
	}
}

// ListLoans handles GET /loans
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, items)
}

// ViewLoans handles GET /loans/view?search=&startDate=&endDate=
func (h *LoanHandler) ViewLoans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	criteria := domain.ViewCriteria{SearchTerm: query.Get("search")}

	bounds := []struct {
		param  string
		target *time.Time
	}{
		{"startDate", &criteria.StartDate},
		{"endDate", &criteria.EndDate},
	}
	for _, b := range bounds {
		value := query.Get(b.param)
		if value == "" {
			continue
		}
		parsed, err := utils.ParseDate(value)
		if err != nil {
			handleError(w, r, h.log, customError.WrapValidation(b.param+" must be a date in YYYY-MM-DD format"))
			return
		}
		*b.target = parsed
	}

	view, err := h.service.View(r.Context(), criteria)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, view)
}

// GetLoan handles GET /loans/{id}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, item)
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		handleError(w, r, h.log, customError.WrapInvalidRequest(err))
		return
	}

	item, err := h.service.Create(r.Context(), &request)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Created(w, item)
}

// UpdateLoan handles PATCH /loans/{id} and the legacy PATCH /loans?id=
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		handleError(w, r, h.log, customError.WrapValidation("loan id is required"))
		return
	}

	var request domain.UpdateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		handleError(w, r, h.log, customError.WrapInvalidRequest(err))
		return
	}

	item, err := h.service.Update(r.Context(), id, &request)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, item)
}

// ToggleStatus handles POST /loans/{id}/toggle
func (h *LoanHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.ToggleStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, item)
}

// DeleteLoan handles DELETE /loans/{id}, DELETE /loans?id= and the bulk
// DELETE /loans?status=Paid
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		if r.URL.Query().Get("status") == string(domain.StatusPaid) {
			h.deletePaid(w, r)
			return
		}
		handleError(w, r, h.log, customError.WrapValidation("loan id or status=Paid is required"))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	response.Success(w, map[string]string{"_id": id})
}

func (h *LoanHandler) deletePaid(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DeletePaid(r.Context())
	if result == nil {
		handleError(w, r, h.log, err)
		return
	}
	if err != nil {
		logger.WithContext(r.Context(), h.log).WithError(err).Warn("bulk delete incomplete")
	}

	switch result.Outcome {
	case domain.BulkOutcomePartial:
		response.JSON(w, http.StatusMultiStatus, result)
	case domain.BulkOutcomeFailed:
		response.JSON(w, http.StatusInternalServerError, result)
	default:
		response.Success(w, result)
	}
}

// loanID reads the id from the path, falling back to the ?id= query
func loanID(r *http.Request) (string, bool) {
	if id := mux.Vars(r)["id"]; id != "" {
		return id, true
	}
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		return id, true
	}
	return "", false
}

// handleError answers with the status and code carried by err
func handleError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := customError.HTTPStatus(err)
	entry := logger.WithContext(r.Context(), log).WithError(err).WithField("status", status)

	var be *customError.BusinessError
	if !errors.As(err, &be) {
		entry.Error("unhandled error")
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	if status >= http.StatusInternalServerError {
		entry.Error(be.Message)
	} else {
		entry.Warn(be.Message)
	}
	response.ErrorWithCode(w, status, be.Code, be.Message, be.Err)
}
