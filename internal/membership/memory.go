// internal/membership/memory.go
package membership

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository keeps everything in process memory. It backs local runs without DATABASE_URL and the tests.
type MemoryRepository struct {
	mu          sync.RWMutex
	members     map[string]Member
	visits      []Visit
	payments    []Payment
	quickVisits []QuickVisit
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{members: make(map[string]Member)}
}

func (r *MemoryRepository) InsertMember(ctx context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.members[m.ID]; exists {
		return fmt.Errorf("member %s already exists", m.ID)
	}
	r.members[m.ID] = *m
	return nil
}

func (r *MemoryRepository) UpdateMember(ctx context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.members[m.ID]; !exists {
		return memberNotFound(m.ID)
	}
	r.members[m.ID] = *m
	return nil
}

func (r *MemoryRepository) GetMember(ctx context.Context, id string) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, memberNotFound(id)
	}
	return &m, nil
}

func (r *MemoryRepository) DeleteMember(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return memberNotFound(id)
	}
	delete(r.members, id)
	return nil
}

func (r *MemoryRepository) ListMembers(ctx context.Context) ([]Member, error) {
	r.mu.RLock()
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) InsertVisit(ctx context.Context, v *Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, *v)
	return nil
}

func (r *MemoryRepository) ListVisits(ctx context.Context) ([]Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Visit(nil), r.visits...), nil
}

func (r *MemoryRepository) DeleteVisitsByMember(ctx context.Context, memberID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.visits[:0]
	var removed int64
	for _, v := range r.visits {
		if v.MemberID == memberID {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	r.visits = kept
	return removed, nil
}

func (r *MemoryRepository) SetVisitName(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.visits {
		if r.visits[i].ID == id {
			r.visits[i].DisplayName = name
			return nil
		}
	}
	return &NotFoundError{Kind: "visit", ID: id}
}

func (r *MemoryRepository) InsertPayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, *p)
	return nil
}

func (r *MemoryRepository) ListPayments(ctx context.Context) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Payment(nil), r.payments...), nil
}

func (r *MemoryRepository) DeletePaymentsByMember(ctx context.Context, memberID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.payments[:0]
	var removed int64
	for _, p := range r.payments {
		if p.MemberID == memberID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	r.payments = kept
	return removed, nil
}

func (r *MemoryRepository) SetPaymentName(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.payments {
		if r.payments[i].ID == id {
			r.payments[i].MemberName = name
			return nil
		}
	}
	return &NotFoundError{Kind: "payment", ID: id}
}

func (r *MemoryRepository) InsertQuickVisit(ctx context.Context, q *QuickVisit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quickVisits = append(r.quickVisits, *q)
	return nil
}

func (r *MemoryRepository) ListQuickVisits(ctx context.Context) ([]QuickVisit, error) {
	r.mu.RLock()
	out := append([]QuickVisit(nil), r.quickVisits...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out, nil
}
