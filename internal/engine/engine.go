// Package engine derives what the loan list shows: display status, urgency
// order, search/date filtering and per-status counts. Every function is pure
// and takes "today" explicitly; nothing is cached between calls.
package engine

import (
	"slices"
	"strings"
	"time"

	"github.com/segyhp/loan-tracker/internal/domain"
	"github.com/segyhp/loan-tracker/pkg/utils"
)

// EffectiveStatus returns the status a loan is displayed with on the given day.
// A Pending loan whose due date is strictly before today is Overdue.
func EffectiveStatus(loan *domain.Loan, today time.Time) domain.Status {
	if loan.Status == domain.StatusPaid {
		return domain.StatusPaid
	}
	if utils.IsDateBefore(loan.DueDate, today) {
		return domain.StatusOverdue
	}
	return domain.StatusPending
}

func rank(status domain.Status) int {
	switch status {
	case domain.StatusOverdue:
		return 0
	case domain.StatusPending:
		return 1
	default:
		return 2
	}
}

// Sort returns a new slice ordered Overdue, Pending, Paid and by ascending
// due date within each bucket. Ties keep their input order.
func Sort(loans []*domain.Loan, today time.Time) []*domain.Loan {
	sorted := slices.Clone(loans)
	slices.SortStableFunc(sorted, func(a, b *domain.Loan) int {
		if d := rank(EffectiveStatus(a, today)) - rank(EffectiveStatus(b, today)); d != 0 {
			return d
		}
		return utils.DateOf(a.DueDate).Compare(utils.DateOf(b.DueDate))
	})
	return sorted
}

// Matches reports whether a loan passes the search term and date range of c.
func Matches(loan *domain.Loan, c domain.ViewCriteria) bool {
	return matchesTerm(loan, c.SearchTerm) && matchesRange(loan, c.StartDate, c.EndDate)
}

func matchesTerm(loan *domain.Loan, term string) bool {
	if term == "" {
		return true
	}
	lower := strings.ToLower(term)
	if strings.Contains(strings.ToLower(loan.Name), lower) {
		return true
	}
	// phone numbers are matched as typed
	if strings.Contains(loan.PhoneNumber, term) {
		return true
	}
	return loan.Company != "" && strings.Contains(strings.ToLower(loan.Company), lower)
}

func matchesRange(loan *domain.Loan, start, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return true
	}
	return utils.IsDateBetween(loan.DueDate, start, end)
}

// Filter returns the loans matching c, in input order. The input is not modified.
func Filter(loans []*domain.Loan, c domain.ViewCriteria) []*domain.Loan {
	filtered := make([]*domain.Loan, 0, len(loans))
	for _, loan := range loans {
		if Matches(loan, c) {
			filtered = append(filtered, loan)
		}
	}
	return filtered
}

// Aggregate counts loans per display status.
func Aggregate(loans []*domain.Loan, today time.Time) domain.StatusCounts {
	var counts domain.StatusCounts
	for _, loan := range loans {
		switch EffectiveStatus(loan, today) {
		case domain.StatusPaid:
			counts.Paid++
		case domain.StatusOverdue:
			counts.Overdue++
		default:
			counts.Pending++
		}
	}
	return counts
}

// DeriveView filters and orders loans for display. Counts always cover the
// full input, independent of the criteria.
func DeriveView(loans []*domain.Loan, today time.Time, c domain.ViewCriteria) *domain.LoanView {
	visible := Sort(Filter(loans, c), today)

	items := make([]*domain.LoanItem, 0, len(visible))
	for _, loan := range visible {
		items = append(items, &domain.LoanItem{
			Loan:          loan,
			DisplayStatus: EffectiveStatus(loan, today),
		})
	}

	return &domain.LoanView{
		Loans:  items,
		Counts: Aggregate(loans, today),
		Total:  len(loans),
	}
}

// DueWithin returns the Pending, not yet overdue loans due between today and
// today+days inclusive, soonest first.
func DueWithin(loans []*domain.Loan, today time.Time, days int) []*domain.Loan {
	until := utils.DateOf(today).AddDate(0, 0, days)

	var due []*domain.Loan
	for _, loan := range loans {
		if EffectiveStatus(loan, today) != domain.StatusPending {
			continue
		}
		if utils.IsDateBetween(loan.DueDate, today, until) {
			due = append(due, loan)
		}
	}
	return Sort(due, today)
}

// Overdue returns the overdue loans, oldest due date first.
func Overdue(loans []*domain.Loan, today time.Time) []*domain.Loan {
	var overdue []*domain.Loan
	for _, loan := range loans {
		if EffectiveStatus(loan, today) == domain.StatusOverdue {
			overdue = append(overdue, loan)
		}
	}
	return Sort(overdue, today)
}
