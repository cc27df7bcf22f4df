package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/internal/engine"
	"github.com/segyhp/loan-tracker/internal/repository"
	customError "github.com/segyhp/loan-tracker/pkg/errors"
	"github.com/segyhp/loan-tracker/pkg/logger"
	"github.com/segyhp/loan-tracker/pkg/utils"
	"github.com/segyhp/loan-tracker/pkg/validation"
)

type LoanService struct {
	LoanRepo repository.LoanRepository
	log      logrus.FieldLogger
	validate *validator.Validate
	location *time.Location
	now      func() time.Time
}

// NewLoanService builds the service. location is the zone "today" is taken
// in when deriving overdue status.
func NewLoanService(loanRepo repository.LoanRepository, log logrus.FieldLogger, location *time.Location) *LoanService {
	if location == nil {
		location = time.UTC
	}
	return &LoanService{
		LoanRepo: loanRepo,
		log:      log.WithField("component", "loan_service"),
		validate: validation.New(),
		location: location,
		now:      time.Now,
	}
}

func (s *LoanService) today() time.Time {
	return utils.Today(s.now(), s.location)
}

// List returns every loan in display order
func (s *LoanService) List(ctx context.Context) ([]*domain.LoanItem, error) {
	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	today := s.today()
	sorted := engine.Sort(loans, today)

	items := make([]*domain.LoanItem, 0, len(sorted))
	for _, loan := range sorted {
		items = append(items, s.item(loan, today))
	}
	return items, nil
}

// View returns the filtered, ordered loans together with counts over the
// whole book
func (s *LoanService) View(ctx context.Context, criteria domain.ViewCriteria) (*domain.LoanView, error) {
	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return engine.DeriveView(loans, s.today(), criteria), nil
}

func (s *LoanService) Get(ctx context.Context, id string) (*domain.LoanItem, error) {
	loan, err := s.LoanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(id, err)
	}
	return s.item(loan, s.today()), nil
}

// Create validates the request and stores a new Pending loan
func (s *LoanService) Create(ctx context.Context, request *domain.CreateLoanRequest) (*domain.LoanItem, error) {
	// 1. Field rules
	if err := s.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Describe(err))
	}

	// 2. Blank text counts as missing
	draft := &domain.Loan{
		Name:        strings.TrimSpace(request.Name),
		Company:     strings.TrimSpace(request.Company),
		Amount:      *request.Amount,
		PhoneNumber: strings.TrimSpace(request.PhoneNumber),
		Status:      domain.StatusPending,
	}
	if err := requireText(map[string]string{
		"name":        draft.Name,
		"company":     draft.Company,
		"phoneNumber": draft.PhoneNumber,
	}); err != nil {
		return nil, err
	}

	dueDate, err := utils.ParseDate(request.DueDate)
	if err != nil {
		return nil, customError.WrapValidation("dueDate must be a date in YYYY-MM-DD format")
	}
	draft.DueDate = dueDate

	if receipt := strings.TrimSpace(request.Receipt); receipt != "" {
		draft.Receipt = &receipt
	}

	// 3. Persist
	loan, err := s.LoanRepo.Create(ctx, draft)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	logger.WithContext(ctx, s.log).WithField("loan_id", loan.ID).Info("loan created")
	return s.item(loan, s.today()), nil
}

// Update applies a partial update. Only fields present in the request change.
func (s *LoanService) Update(ctx context.Context, id string, request *domain.UpdateLoanRequest) (*domain.LoanItem, error) {
	patch, err := s.patchFrom(request)
	if err != nil {
		return nil, err
	}

	loan, err := s.LoanRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError(id, err)
	}

	logger.WithContext(ctx, s.log).WithField("loan_id", id).Info("loan updated")
	return s.item(loan, s.today()), nil
}

// ToggleStatus flips a loan between Pending and Paid
func (s *LoanService) ToggleStatus(ctx context.Context, id string) (*domain.LoanItem, error) {
	current, err := s.LoanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(id, err)
	}

	next := domain.StatusPaid
	if current.Status == domain.StatusPaid {
		next = domain.StatusPending
	}

	loan, err := s.LoanRepo.Update(ctx, id, &domain.LoanPatch{Status: &next})
	if err != nil {
		return nil, s.storeError(id, err)
	}

	logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
		"loan_id": id,
		"status":  next,
	}).Info("loan status toggled")
	return s.item(loan, s.today()), nil
}

func (s *LoanService) Delete(ctx context.Context, id string) error {
	if err := s.LoanRepo.Delete(ctx, id); err != nil {
		return s.storeError(id, err)
	}

	logger.WithContext(ctx, s.log).WithField("loan_id", id).Info("loan deleted")
	return nil
}

// DeletePaid removes every loan stored as Paid. Each deletion is attempted
// even when earlier ones fail; the response lists what happened to each id.
// When anything failed the returned error wraps ErrBulkDeleteIncomplete and
// the response is still returned.
func (s *LoanService) DeletePaid(ctx context.Context) (*domain.BulkDeleteResponse, error) {
	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	result := &domain.BulkDeleteResponse{Deleted: []string{}}
	var errs *multierror.Error

	for _, loan := range loans {
		if loan.Status != domain.StatusPaid {
			continue
		}
		result.Requested++

		if err := s.LoanRepo.Delete(ctx, loan.ID); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[loan.ID] = err.Error()
			errs = multierror.Append(errs, fmt.Errorf("delete %s: %w", loan.ID, err))
			continue
		}
		result.Deleted = append(result.Deleted, loan.ID)
	}

	switch {
	case len(result.Failed) == 0:
		result.Outcome = domain.BulkOutcomeSuccess
	case len(result.Deleted) == 0:
		result.Outcome = domain.BulkOutcomeFailed
	default:
		result.Outcome = domain.BulkOutcomePartial
	}

	entry := logger.WithContext(ctx, s.log).WithFields(logrus.Fields{
		"requested": result.Requested,
		"deleted":   len(result.Deleted),
		"failed":    len(result.Failed),
	})
	if err := errs.ErrorOrNil(); err != nil {
		entry.WithError(err).Warn("bulk delete of paid loans incomplete")
		return result, fmt.Errorf("%w: %w", customError.ErrBulkDeleteIncomplete, err)
	}

	entry.Info("paid loans deleted")
	return result, nil
}

// DailyReport gathers the counts, the overdue loans and the loans falling
// due within reminderDays for the scheduler.
func (s *LoanService) DailyReport(ctx context.Context, reminderDays int) (*domain.DailyReport, error) {
	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	today := s.today()
	return &domain.DailyReport{
		Date:    today,
		Counts:  engine.Aggregate(loans, today),
		Overdue: engine.Overdue(loans, today),
		DueSoon: engine.DueWithin(loans, today, reminderDays),
	}, nil
}

func (s *LoanService) item(loan *domain.Loan, today time.Time) *domain.LoanItem {
	return &domain.LoanItem{
		Loan:          loan,
		DisplayStatus: engine.EffectiveStatus(loan, today),
	}
}

func (s *LoanService) patchFrom(request *domain.UpdateLoanRequest) (*domain.LoanPatch, error) {
	if err := s.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation(validation.Describe(err))
	}

	patch := &domain.LoanPatch{
		Amount: request.Amount,
		Status: request.Status,
	}

	present := map[string]string{}
	if request.Name != nil {
		name := strings.TrimSpace(*request.Name)
		patch.Name = &name
		present["name"] = name
	}
	if request.Company != nil {
		company := strings.TrimSpace(*request.Company)
		patch.Company = &company
		present["company"] = company
	}
	if request.PhoneNumber != nil {
		phone := strings.TrimSpace(*request.PhoneNumber)
		patch.PhoneNumber = &phone
		present["phoneNumber"] = phone
	}
	if err := requireText(present); err != nil {
		return nil, err
	}

	if request.DueDate != nil {
		dueDate, err := utils.ParseDate(*request.DueDate)
		if err != nil {
			return nil, customError.WrapValidation("dueDate must be a date in YYYY-MM-DD format")
		}
		patch.DueDate = &dueDate
	}

	if request.Receipt != nil {
		receipt := strings.TrimSpace(*request.Receipt)
		if receipt != "" {
			if err := s.validate.Var(receipt, "url"); err != nil {
				return nil, customError.WrapValidation("receipt must be a valid URL")
			}
		}
		patch.Receipt = &receipt
	}

	if patch.IsEmpty() {
		return nil, customError.WrapNothingToUpdate()
	}
	return patch, nil
}

// storeError reports a missing loan by id and anything else as a store failure
func (s *LoanService) storeError(id string, err error) error {
	if errors.Is(err, customError.ErrLoanNotFound) {
		return customError.WrapLoanNotFound(id)
	}
	return customError.WrapDatabaseError(err)
}

// requireText rejects any field whose value is blank
func requireText(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"name", "company", "phoneNumber"} {
		if value, ok := fields[name]; ok && value == "" {
			missing = append(missing, name+" is required")
		}
	}
	if len(missing) > 0 {
		return customError.WrapValidation(strings.Join(missing, "; "))
	}
	return nil
}
