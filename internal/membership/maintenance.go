// internal/membership/maintenance.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// BackfillVisitNames fills empty visit names from the owning member, or for walk-ins from the
// quick visit written at the same instant.
func (s *service) BackfillVisitNames(ctx context.Context) (int, error) {
	visits, err := s.repo.ListVisits(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load visits: %w", err)
	}

	var quickByTime map[int64]string
	names := newNameCache(s.repo)
	updated := 0
	for _, v := range visits {
		if strings.TrimSpace(v.DisplayName) != "" {
			continue
		}

		var name string
		switch {
		case v.MemberID == VisitorID:
			if quickByTime == nil {
				if quickByTime, err = s.quickVisitNamesByTime(ctx); err != nil {
					return updated, err
				}
			}
			name = quickByTime[v.At.Truncate(time.Microsecond).UnixNano()]
		case v.MemberID != "":
			if name, err = names.lookup(ctx, v.MemberID); err != nil {
				return updated, err
			}
		}
		if name == "" {
			continue
		}

		if err := s.repo.SetVisitName(ctx, v.ID, name); err != nil {
			return updated, fmt.Errorf("failed to update visit %s: %w", v.ID, err)
		}
		updated++
	}

	s.log.Info("visit names backfilled", "updated", updated)
	return updated, nil
}

// BackfillPaymentNames fills empty payment names from the owning member.
func (s *service) BackfillPaymentNames(ctx context.Context) (int, error) {
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load payments: %w", err)
	}

	names := newNameCache(s.repo)
	updated := 0
	for _, p := range payments {
		if strings.TrimSpace(p.MemberName) != "" || p.MemberID == "" {
			continue
		}
		name, err := names.lookup(ctx, p.MemberID)
		if err != nil {
			return updated, err
		}
		if name == "" {
			continue
		}
		if err := s.repo.SetPaymentName(ctx, p.ID, name); err != nil {
			return updated, fmt.Errorf("failed to update payment %s: %w", p.ID, err)
		}
		updated++
	}

	s.log.Info("payment names backfilled", "updated", updated)
	return updated, nil
}

func (s *service) quickVisitNamesByTime(ctx context.Context) (map[int64]string, error) {
	quick, err := s.repo.ListQuickVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quick visits: %w", err)
	}
	byTime := make(map[int64]string, len(quick))
	for _, q := range quick {
		byTime[q.At.Truncate(time.Microsecond).UnixNano()] = strings.TrimSpace(q.Name)
	}
	return byTime, nil
}

// nameCache resolves member full names once per member. Missing members resolve to "".
type nameCache struct {
	repo  Repository
	names map[string]string
}

func newNameCache(repo Repository) *nameCache {
	return &nameCache{repo: repo, names: make(map[string]string)}
}

func (c *nameCache) lookup(ctx context.Context, memberID string) (string, error) {
	if name, ok := c.names[memberID]; ok {
		return name, nil
	}
	m, err := c.repo.GetMember(ctx, memberID)
	switch {
	case errors.Is(err, ErrNotFound):
		c.names[memberID] = ""
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to load member %s: %w", memberID, err)
	}
	c.names[memberID] = m.FullName()
	return c.names[memberID], nil
}
