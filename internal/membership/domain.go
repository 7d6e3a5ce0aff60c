// internal/membership/domain.go
package membership

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gymdesk/internal/plans"
)

const (
	// VisitorID is the member id recorded on visits of walk-ins without a member record.
	VisitorID = "visitor"

	MethodManual     = "manual"
	MethodQuickVisit = "quick-visit"
)

// Member represents a gym member.
type Member struct {
	ID              string          `json:"id"`
	FirstName       string          `json:"firstName"`
	PaternalSurname string          `json:"paternalSurname"`
	MaternalSurname string          `json:"maternalSurname"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone"`
	JoinDate        plans.Date      `json:"joinDate"`
	PlanID          string          `json:"planId"`
	Price           decimal.Decimal `json:"price"`
	ExpiryDate      *plans.Date     `json:"expiryDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// FullName joins the non-empty name parts.
func (m *Member) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.FirstName, m.PaternalSurname, m.MaternalSurname} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Visit is a check-in. DisplayName is captured when the visit is written.
type Visit struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"memberId"`
	DisplayName string    `json:"displayName"`
	At          time.Time `json:"timestamp"`
	Method      string    `json:"method"`
	PaymentType *string   `json:"paymentType"`
}

// Payment is money received. MemberName is captured when the payment is written.
type Payment struct {
	ID         string          `json:"id"`
	MemberID   string          `json:"memberId,omitempty"`
	MemberName string          `json:"memberName"`
	At         time.Time       `json:"timestamp"`
	PlanID     string          `json:"planId"`
	Amount     decimal.Decimal `json:"amount"`
}

// QuickVisit is a walk-in entry for someone without a member record.
type QuickVisit struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	At     time.Time       `json:"timestamp"`
	Amount decimal.Decimal `json:"amount"`
}

// MemberView is a member with its visits and payments attached.
type MemberView struct {
	Member
	Visits   []Visit   `json:"visits"`
	Payments []Payment `json:"payments"`
}

// CreateMemberInput registers a member. Zero JoinDate means today, empty PlanID means monthly.
type CreateMemberInput struct {
	FirstName       string     `json:"firstName"`
	PaternalSurname string     `json:"paternalSurname"`
	MaternalSurname string     `json:"maternalSurname"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	JoinDate        plans.Date `json:"joinDate"`
	PlanID          string     `json:"planId"`
	Quantity        int        `json:"quantity"`
}

// UpdateMemberInput carries the fields to change; nil keeps the stored value.
type UpdateMemberInput struct {
	FirstName       *string     `json:"firstName"`
	PaternalSurname *string     `json:"paternalSurname"`
	MaternalSurname *string     `json:"maternalSurname"`
	Email           *string     `json:"email"`
	Phone           *string     `json:"phone"`
	JoinDate        *plans.Date `json:"joinDate"`
	PlanID          *string     `json:"planId"`
	Quantity        *int        `json:"quantity"`
}

// RenewMemberInput restarts a membership today.
type RenewMemberInput struct {
	PlanID        string `json:"planId"`
	Quantity      int    `json:"quantity"`
	RecordPayment bool   `json:"recordPayment"`
}

type VisitInput struct {
	Method      string  `json:"method"`
	PaymentType *string `json:"paymentType"`
}

// PaymentInput records a payment. A nil Amount is resolved from the catalog; an explicit zero is kept.
type PaymentInput struct {
	Type   string           `json:"type"`
	Amount *decimal.Decimal `json:"amount"`
}

type QuickVisitInput struct {
	Name   string           `json:"name"`
	Amount *decimal.Decimal `json:"amount"`
}

// memberFields is the validated shape of a member write.
type memberFields struct {
	FirstName       string `json:"firstName" validate:"required"`
	PaternalSurname string `json:"paternalSurname" validate:"required"`
	MaternalSurname string `json:"maternalSurname" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"required"`
	PlanID          string `json:"planId" validate:"required"`
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
