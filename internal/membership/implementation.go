// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"gymdesk/internal/plans"
	"gymdesk/internal/platform/logger"
)

// service implements the Service interface.
type service struct {
	repo        Repository
	catalog     *plans.Catalog
	validate    *validator.Validate
	rateLimiter *rate.Limiter
	observer    Observer
	log         *logger.Logger
	loc         *time.Location
	now         func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithLocation sets the gym's timezone, used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithRateLimit throttles registrations and quick visits. A zero perMinute disables the limit.
func WithRateLimit(perMinute, burst int) Option {
	return func(s *service) {
		if perMinute <= 0 {
			s.rateLimiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		s.rateLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	}
}

func WithObserver(o Observer) Option {
	return func(s *service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService creates a new membership service instance.
func NewService(repo Repository, catalog *plans.Catalog, log *logger.Logger, opts ...Option) Service {
	s := &service{
		repo:        repo,
		catalog:     catalog,
		validate:    newValidator(),
		rateLimiter: rate.NewLimiter(rate.Inf, 0),
		observer:    nopObserver{},
		log:         log.With("component", "membership"),
		loc:         time.Local,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// timestamp is truncated to what PostgreSQL stores so that equal instants survive a round trip.
func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *service) today() plans.Date {
	return plans.DateOf(s.now(), s.loc)
}

func (s *service) validateFields(f memberFields) error {
	err := s.validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "is required"
		if fe.Tag() == "email" {
			msg = "must be a valid email address"
		}
		return &ValidationError{Field: fe.Field(), Message: msg}
	}
	return &ValidationError{Message: err.Error(), Err: err}
}

// pricePlan snapshots the catalog price for quantity units and the resulting expiry.
func (s *service) pricePlan(join plans.Date, planID string, quantity int) (decimal.Decimal, *plans.Date, error) {
	plan, ok := s.catalog.Lookup(planID)
	if !ok {
		return decimal.Zero, nil, &ValidationError{Field: "planId", Message: "invalid plan", Err: &plans.InvalidPlanError{PlanID: planID}}
	}
	expiry, err := s.catalog.ComputeExpiry(join, planID, quantity)
	if err != nil {
		return decimal.Zero, nil, &ValidationError{Field: "planId", Message: "invalid plan", Err: err}
	}
	return plan.Price.Mul(decimal.NewFromInt(int64(quantity))), &expiry, nil
}

func normalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// CreateMember registers a member and records the registration payment.
func (s *service) CreateMember(ctx context.Context, in CreateMemberInput) (*MemberView, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	fields := memberFields{
		FirstName:       normalizeName(in.FirstName),
		PaternalSurname: normalizeName(in.PaternalSurname),
		MaternalSurname: normalizeName(in.MaternalSurname),
		Email:           strings.TrimSpace(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		PlanID:          strings.TrimSpace(in.PlanID),
	}
	if fields.PlanID == "" {
		fields.PlanID = plans.Monthly
	}
	if err := s.validateFields(fields); err != nil {
		return nil, err
	}

	join := in.JoinDate
	if join.IsZero() {
		join = s.today()
	}
	quantity := normalizeQuantity(in.Quantity)
	price, expiry, err := s.pricePlan(join, fields.PlanID, quantity)
	if err != nil {
		return nil, err
	}

	member := &Member{
		ID:              uuid.New().String(),
		FirstName:       fields.FirstName,
		PaternalSurname: fields.PaternalSurname,
		MaternalSurname: fields.MaternalSurname,
		Email:           fields.Email,
		Phone:           fields.Phone,
		JoinDate:        join,
		PlanID:          fields.PlanID,
		Price:           price,
		ExpiryDate:      expiry,
		CreatedAt:       s.timestamp(),
	}
	if err := s.repo.InsertMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to insert member: %w", err)
	}
	s.observer.MemberRegistered(member.PlanID)

	payment := &Payment{
		ID:         uuid.New().String(),
		MemberID:   member.ID,
		MemberName: member.FullName(),
		At:         member.CreatedAt,
		PlanID:     member.PlanID,
		Amount:     price,
	}
	// The member row is already committed; a failed payment write is reported, not rolled back.
	if err := s.repo.InsertPayment(ctx, payment); err != nil {
		s.log.Error("registration payment not recorded", "member_id", member.ID, "error", err)
		return nil, fmt.Errorf("member %s created but registration payment failed: %w", member.ID, err)
	}
	s.observer.PaymentRecorded(payment.PlanID, payment.Amount)

	s.log.Info("member registered", "member_id", member.ID, "plan", member.PlanID, "quantity", quantity, "expiry", member.ExpiryDate.String())
	return &MemberView{Member: *member, Visits: []Visit{}, Payments: []Payment{*payment}}, nil
}

// GetMember returns one member with its history attached.
func (s *service) GetMember(ctx context.Context, id string) (*MemberView, error) {
	member, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	visits, err := s.repo.ListVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	views := attachHistory([]Member{*member}, visits, payments)
	return &views[0], nil
}

// UpdateMember merges the supplied fields and recomputes price and expiry.
func (s *service) UpdateMember(ctx context.Context, id string, in UpdateMemberInput) (*MemberView, error) {
	current, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := memberFields{
		FirstName:       pick(in.FirstName, current.FirstName, normalizeName),
		PaternalSurname: pick(in.PaternalSurname, current.PaternalSurname, normalizeName),
		MaternalSurname: pick(in.MaternalSurname, current.MaternalSurname, normalizeName),
		Email:           pick(in.Email, current.Email, strings.TrimSpace),
		Phone:           pick(in.Phone, current.Phone, strings.TrimSpace),
		PlanID:          pick(in.PlanID, current.PlanID, strings.TrimSpace),
	}
	if err := s.validateFields(fields); err != nil {
		return nil, err
	}

	join := current.JoinDate
	if in.JoinDate != nil && !in.JoinDate.IsZero() {
		join = *in.JoinDate
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = normalizeQuantity(*in.Quantity)
	}
	price, expiry, err := s.pricePlan(join, fields.PlanID, quantity)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.FirstName = fields.FirstName
	updated.PaternalSurname = fields.PaternalSurname
	updated.MaternalSurname = fields.MaternalSurname
	updated.Email = fields.Email
	updated.Phone = fields.Phone
	updated.JoinDate = join
	updated.PlanID = fields.PlanID
	updated.Price = price
	updated.ExpiryDate = expiry

	if err := s.repo.UpdateMember(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	s.log.Info("member updated", "member_id", id, "plan", updated.PlanID, "expiry", updated.ExpiryDate.String())
	return s.GetMember(ctx, id)
}

func pick(in *string, current string, normalize func(string) string) string {
	if in == nil {
		return current
	}
	return normalize(*in)
}

// RenewMember restarts the membership today under the given plan.
func (s *service) RenewMember(ctx context.Context, id string, in RenewMemberInput) (*MemberView, error) {
	current, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	planID := strings.TrimSpace(in.PlanID)
	if planID == "" {
		planID = current.PlanID
	}
	quantity := normalizeQuantity(in.Quantity)
	join := s.today()
	price, expiry, err := s.pricePlan(join, planID, quantity)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.JoinDate = join
	updated.PlanID = planID
	updated.Price = price
	updated.ExpiryDate = expiry
	if err := s.repo.UpdateMember(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to renew member: %w", err)
	}

	if in.RecordPayment {
		payment := &Payment{
			ID:         uuid.New().String(),
			MemberID:   id,
			MemberName: updated.FullName(),
			At:         s.timestamp(),
			PlanID:     planID,
			Amount:     price,
		}
		if err := s.repo.InsertPayment(ctx, payment); err != nil {
			return nil, fmt.Errorf("member %s renewed but payment failed: %w", id, err)
		}
		s.observer.PaymentRecorded(payment.PlanID, payment.Amount)
	}

	s.log.Info("member renewed", "member_id", id, "plan", planID, "quantity", quantity, "expiry", expiry.String(), "paid", in.RecordPayment)
	return s.GetMember(ctx, id)
}

// DeleteMember removes the member and everything recorded against it.
func (s *service) DeleteMember(ctx context.Context, id string) error {
	if _, err := s.repo.GetMember(ctx, id); err != nil {
		return err
	}
	visits, err := s.repo.DeleteVisitsByMember(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete visits: %w", err)
	}
	payments, err := s.repo.DeletePaymentsByMember(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete payments: %w", err)
	}
	if err := s.repo.DeleteMember(ctx, id); err != nil {
		return err
	}
	s.log.Info("member deleted", "member_id", id, "visits_removed", visits, "payments_removed", payments)
	return nil
}

// ListMembers returns every member, newest first, with history attached.
func (s *service) ListMembers(ctx context.Context) ([]MemberView, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	visits, err := s.repo.ListVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load visits: %w", err)
	}
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return attachHistory(members, visits, payments), nil
}

// attachHistory groups visits and payments by member id in one pass each.
func attachHistory(members []Member, visits []Visit, payments []Payment) []MemberView {
	visitsByMember := make(map[string][]Visit)
	for _, v := range visits {
		visitsByMember[v.MemberID] = append(visitsByMember[v.MemberID], v)
	}
	paymentsByMember := make(map[string][]Payment)
	for _, p := range payments {
		if p.MemberID == "" {
			continue
		}
		paymentsByMember[p.MemberID] = append(paymentsByMember[p.MemberID], p)
	}

	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		view := MemberView{Member: m, Visits: visitsByMember[m.ID], Payments: paymentsByMember[m.ID]}
		if view.Visits == nil {
			view.Visits = []Visit{}
		}
		if view.Payments == nil {
			view.Payments = []Payment{}
		}
		views = append(views, view)
	}
	return views
}

// RecordVisit checks a member in, optionally taking a payment at the desk.
func (s *service) RecordVisit(ctx context.Context, memberID string, in VisitInput) (*MemberView, error) {
	member, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = MethodManual
	}
	var paymentType *string
	if in.PaymentType != nil && strings.TrimSpace(*in.PaymentType) != "" {
		pt := strings.TrimSpace(*in.PaymentType)
		paymentType = &pt
	}

	at := s.timestamp()
	name := member.FullName()
	visit := &Visit{
		ID:          uuid.New().String(),
		MemberID:    memberID,
		DisplayName: name,
		At:          at,
		Method:      method,
		PaymentType: paymentType,
	}
	if err := s.repo.InsertVisit(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to insert visit: %w", err)
	}
	s.observer.VisitRecorded(method)

	if paymentType != nil {
		payment := &Payment{
			ID:         uuid.New().String(),
			MemberID:   memberID,
			MemberName: name,
			At:         at,
			PlanID:     *paymentType,
			Amount:     s.visitPaymentAmount(*paymentType, member),
		}
		if err := s.repo.InsertPayment(ctx, payment); err != nil {
			return nil, fmt.Errorf("visit recorded but payment failed: %w", err)
		}
		s.observer.PaymentRecorded(payment.PlanID, payment.Amount)
	}

	s.log.Debug("visit recorded", "member_id", memberID, "method", method)
	return s.GetMember(ctx, memberID)
}

// visitPaymentAmount resolves the desk charge: day pass price, then the catalog price of the
// payment type, then the member's stored price. Unknown types are accepted.
func (s *service) visitPaymentAmount(paymentType string, member *Member) decimal.Decimal {
	if paymentType == plans.DayPass {
		if price, ok := s.catalog.Price(plans.DayPass); ok {
			return price
		}
	}
	if price, ok := s.catalog.Price(paymentType); ok {
		return price
	}
	return member.Price
}

// RecordPayment appends a payment for a member. It never changes the member itself.
func (s *service) RecordPayment(ctx context.Context, memberID string, in PaymentInput) (*MemberView, error) {
	member, err := s.repo.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	paymentType := strings.TrimSpace(in.Type)
	if paymentType == "" {
		return nil, &ValidationError{Field: "type", Message: "is required"}
	}

	var amount decimal.Decimal
	switch price, known := s.catalog.Price(paymentType); {
	case in.Amount != nil:
		amount = *in.Amount
	case known:
		amount = price
	default:
		amount = member.Price
	}

	payment := &Payment{
		ID:         uuid.New().String(),
		MemberID:   memberID,
		MemberName: member.FullName(),
		At:         s.timestamp(),
		PlanID:     paymentType,
		Amount:     amount,
	}
	if err := s.repo.InsertPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	s.observer.PaymentRecorded(payment.PlanID, payment.Amount)

	s.log.Info("payment recorded", "member_id", memberID, "type", paymentType, "amount", amount.String())
	return s.GetMember(ctx, memberID)
}

// RecordQuickVisit registers a walk-in and the companion visitor check-in.
func (s *service) RecordQuickVisit(ctx context.Context, in QuickVisitInput) (*QuickVisit, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	amount, _ := s.catalog.Price(plans.DayPass)
	if in.Amount != nil {
		amount = *in.Amount
	}

	at := s.timestamp()
	qv := &QuickVisit{
		ID:     uuid.New().String(),
		Name:   name,
		At:     at,
		Amount: amount,
	}
	if err := s.repo.InsertQuickVisit(ctx, qv); err != nil {
		return nil, fmt.Errorf("failed to insert quick visit: %w", err)
	}

	dayPass := plans.DayPass
	visit := &Visit{
		ID:          uuid.New().String(),
		MemberID:    VisitorID,
		DisplayName: name,
		At:          at,
		Method:      MethodQuickVisit,
		PaymentType: &dayPass,
	}
	if err := s.repo.InsertVisit(ctx, visit); err != nil {
		return nil, fmt.Errorf("quick visit recorded but visitor entry failed: %w", err)
	}
	s.observer.VisitRecorded(MethodQuickVisit)
	if amount.IsPositive() {
		s.observer.PaymentRecorded(plans.DayPass, amount)
	}

	s.log.Info("quick visit recorded", "quick_visit_id", qv.ID, "amount", amount.String())
	return qv, nil
}

func (s *service) ListQuickVisits(ctx context.Context) ([]QuickVisit, error) {
	return s.repo.ListQuickVisits(ctx)
}

// ListPayments returns every payment, newest first.
func (s *service) ListPayments(ctx context.Context) ([]Payment, error) {
	payments, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].At.After(payments[j].At) })
	return payments, nil
}

// ListVisits returns every visit, walk-ins included, newest first.
func (s *service) ListVisits(ctx context.Context) ([]Visit, error) {
	visits, err := s.repo.ListVisits(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(visits, func(i, j int) bool { return visits[i].At.After(visits[j].At) })
	return visits, nil
}
