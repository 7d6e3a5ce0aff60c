// internal/membership/service.go
package membership

import (
	"context"
)

// Service defines the front desk operations.
type Service interface {
	CreateMember(ctx context.Context, in CreateMemberInput) (*MemberView, error)
	GetMember(ctx context.Context, id string) (*MemberView, error)
	UpdateMember(ctx context.Context, id string, in UpdateMemberInput) (*MemberView, error)
	RenewMember(ctx context.Context, id string, in RenewMemberInput) (*MemberView, error)
	DeleteMember(ctx context.Context, id string) error
	ListMembers(ctx context.Context) ([]MemberView, error)

	RecordVisit(ctx context.Context, memberID string, in VisitInput) (*MemberView, error)
	RecordPayment(ctx context.Context, memberID string, in PaymentInput) (*MemberView, error)
	RecordQuickVisit(ctx context.Context, in QuickVisitInput) (*QuickVisit, error)

	ListQuickVisits(ctx context.Context) ([]QuickVisit, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	ListVisits(ctx context.Context) ([]Visit, error)

	BackfillVisitNames(ctx context.Context) (int, error)
	BackfillPaymentNames(ctx context.Context) (int, error)
}
