// internal/reporting/implementation.go
package reporting

import (
	"context"
	"fmt"
	"time"

	"gymdesk/internal/membership"
)

// service implements the Service interface on top of the membership service.
type service struct {
	members    membership.Service
	aggregator *Aggregator
	now        func() time.Time
}

// NewService creates a reporting service. A nil now uses time.Now.
func NewService(members membership.Service, aggregator *Aggregator, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{members: members, aggregator: aggregator, now: now}
}

func (s *service) load(ctx context.Context) ([]membership.MemberView, []membership.QuickVisit, error) {
	members, err := s.members.ListMembers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load members: %w", err)
	}
	quick, err := s.members.ListQuickVisits(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load quick visits: %w", err)
	}
	return members, quick, nil
}

// Summary computes the dashboard as of now.
func (s *service) Summary(ctx context.Context) (*Summary, error) {
	members, quick, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	summary := s.aggregator.Summarize(members, quick, s.now())
	return &summary, nil
}

func (s *service) Today(ctx context.Context) ([]TodayItem, error) {
	members, quick, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregator.TodayItems(members, quick, s.now()), nil
}

func (s *service) PaymentRows(ctx context.Context) ([]PaymentRow, error) {
	payments, err := s.members.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	quick, err := s.members.ListQuickVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quick visits: %w", err)
	}
	return s.aggregator.PaymentRows(payments, quick), nil
}

func (s *service) VisitRows(ctx context.Context) ([]VisitRow, error) {
	visits, err := s.members.ListVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	return s.aggregator.VisitRows(visits), nil
}
