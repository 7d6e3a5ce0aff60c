// internal/membership/repository.go
package membership

import "context"

// Repository persists the four record collections. Lookups that miss return a *NotFoundError.
type Repository interface {
	InsertMember(ctx context.Context, m *Member) error
	UpdateMember(ctx context.Context, m *Member) error
	GetMember(ctx context.Context, id string) (*Member, error)
	DeleteMember(ctx context.Context, id string) error
	// ListMembers returns members newest first.
	ListMembers(ctx context.Context) ([]Member, error)

	InsertVisit(ctx context.Context, v *Visit) error
	// ListVisits returns visits oldest first.
	ListVisits(ctx context.Context) ([]Visit, error)
	DeleteVisitsByMember(ctx context.Context, memberID string) (int64, error)
	SetVisitName(ctx context.Context, id, name string) error

	InsertPayment(ctx context.Context, p *Payment) error
	// ListPayments returns payments oldest first.
	ListPayments(ctx context.Context) ([]Payment, error)
	DeletePaymentsByMember(ctx context.Context, memberID string) (int64, error)
	SetPaymentName(ctx context.Context, id, name string) error

	InsertQuickVisit(ctx context.Context, q *QuickVisit) error
	// ListQuickVisits returns quick visits newest first.
	ListQuickVisits(ctx context.Context) ([]QuickVisit, error)
}
