package analyzer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// Session is the caller-owned selection the analyses run against: which months, with
// which lookback, and how much history a trajectory needs.
type Session struct {
	ID        string
	Lookback  int
	Months    []models.Month
	MinMonths int
}

// NewSession creates a session over the inclusive range [from, to].
func NewSession(from, to models.Month, lookback, minMonths int) (*Session, error) {
	months, err := models.MonthsBetween(from, to)
	if err != nil {
		return nil, err
	}
	if lookback < 0 {
		return nil, fmt.Errorf("lookback months must not be negative, got %d", lookback)
	}
	if minMonths < 1 {
		return nil, errors.New("min months must be at least 1")
	}
	return &Session{
		ID:        uuid.New().String(),
		Lookback:  lookback,
		Months:    months,
		MinMonths: minMonths,
	}, nil
}

// Restrict keeps only the session months present in available.
func (s *Session) Restrict(available []models.Month) {
	ok := make(map[models.Month]bool, len(available))
	for _, m := range available {
		ok[m] = true
	}
	kept := s.Months[:0]
	for _, m := range s.Months {
		if ok[m] {
			kept = append(kept, m)
		}
	}
	s.Months = kept
}

// Latest returns the last month of the session.
func (s *Session) Latest() (models.Month, bool) {
	if len(s.Months) == 0 {
		return models.Month{}, false
	}
	return s.Months[len(s.Months)-1], true
}
