// internal/membership/postgres.go
package membership

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gymdesk/internal/plans"
)

//go:embed schema.sql
var schemaSQL string

var ErrDuplicateID = errors.New("duplicate id")

// PostgresRepository stores records in PostgreSQL through database/sql and lib/pq.
type PostgresRepository struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		tracer: otel.Tracer("gymdesk/membership/postgres"),
	}
}

// EnsureSchema creates the tables when they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "postgres."+op, trace.WithAttributes(attrs...))
}

// Unique violations are reported as ErrDuplicateID.
func classify(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("insert %s: %w", what, ErrDuplicateID)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}

const memberColumns = `id, first_name, paternal_surname, maternal_surname, email, phone, join_date, plan_id, price, expiry_date, created_at`

func (r *PostgresRepository) InsertMember(ctx context.Context, m *Member) error {
	ctx, span := r.start(ctx, "insert_member", attribute.String("member.id", m.ID))
	defer span.End()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, m.ID, m.FirstName, m.PaternalSurname, m.MaternalSurname, m.Email, m.Phone, m.JoinDate, m.PlanID, m.Price, m.ExpiryDate, m.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return classify(err, "member")
	}
	return nil
}

func (r *PostgresRepository) UpdateMember(ctx context.Context, m *Member) error {
	ctx, span := r.start(ctx, "update_member", attribute.String("member.id", m.ID))
	defer span.End()

	res, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET first_name = $1, paternal_surname = $2, maternal_surname = $3, email = $4, phone = $5,
		    join_date = $6, plan_id = $7, price = $8, expiry_date = $9
		WHERE id = $10
	`, m.FirstName, m.PaternalSurname, m.MaternalSurname, m.Email, m.Phone, m.JoinDate, m.PlanID, m.Price, m.ExpiryDate, m.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("update member: %w", err)
	}
	return requireAffected(res, memberNotFound(m.ID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*Member, error) {
	m := &Member{}
	var expiry plans.Date
	err := row.Scan(
		&m.ID,
		&m.FirstName,
		&m.PaternalSurname,
		&m.MaternalSurname,
		&m.Email,
		&m.Phone,
		&m.JoinDate,
		&m.PlanID,
		&m.Price,
		&expiry,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if !expiry.IsZero() {
		m.ExpiryDate = &expiry
	}
	return m, nil
}

func (r *PostgresRepository) GetMember(ctx context.Context, id string) (*Member, error) {
	ctx, span := r.start(ctx, "get_member", attribute.String("member.id", id))
	defer span.End()

	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, memberNotFound(id)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, id string) error {
	ctx, span := r.start(ctx, "delete_member", attribute.String("member.id", id))
	defer span.End()

	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete member: %w", err)
	}
	return requireAffected(res, memberNotFound(id))
}

func (r *PostgresRepository) ListMembers(ctx context.Context) ([]Member, error) {
	ctx, span := r.start(ctx, "list_members")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	span.SetAttributes(attribute.Int("members.loaded", len(members)))
	return members, nil
}

func (r *PostgresRepository) InsertVisit(ctx context.Context, v *Visit) error {
	ctx, span := r.start(ctx, "insert_visit", attribute.String("member.id", v.MemberID))
	defer span.End()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO visits (id, member_id, display_name, at, method, payment_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.MemberID, v.DisplayName, v.At, v.Method, v.PaymentType)
	if err != nil {
		span.RecordError(err)
		return classify(err, "visit")
	}
	return nil
}

func (r *PostgresRepository) ListVisits(ctx context.Context) ([]Visit, error) {
	ctx, span := r.start(ctx, "list_visits")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, display_name, at, method, payment_type
		FROM visits
		ORDER BY at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var paymentType sql.NullString
		if err := rows.Scan(&v.ID, &v.MemberID, &v.DisplayName, &v.At, &v.Method, &paymentType); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		if paymentType.Valid {
			pt := paymentType.String
			v.PaymentType = &pt
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}

func (r *PostgresRepository) DeleteVisitsByMember(ctx context.Context, memberID string) (int64, error) {
	ctx, span := r.start(ctx, "delete_visits", attribute.String("member.id", memberID))
	defer span.End()

	res, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE member_id = $1`, memberID)
	if err != nil {
		return 0, fmt.Errorf("delete visits: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) SetVisitName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE visits SET display_name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("update visit name: %w", err)
	}
	return requireAffected(res, &NotFoundError{Kind: "visit", ID: id})
}

func (r *PostgresRepository) InsertPayment(ctx context.Context, p *Payment) error {
	ctx, span := r.start(ctx, "insert_payment",
		attribute.String("member.id", p.MemberID),
		attribute.String("payment.plan", p.PlanID),
	)
	defer span.End()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, member_id, member_name, at, plan_id, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.MemberID, p.MemberName, p.At, p.PlanID, p.Amount)
	if err != nil {
		span.RecordError(err)
		return classify(err, "payment")
	}
	return nil
}

func (r *PostgresRepository) ListPayments(ctx context.Context) ([]Payment, error) {
	ctx, span := r.start(ctx, "list_payments")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, member_name, at, plan_id, amount
		FROM payments
		ORDER BY at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.MemberID, &p.MemberName, &p.At, &p.PlanID, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

func (r *PostgresRepository) DeletePaymentsByMember(ctx context.Context, memberID string) (int64, error) {
	ctx, span := r.start(ctx, "delete_payments", attribute.String("member.id", memberID))
	defer span.End()

	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE member_id = $1`, memberID)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) SetPaymentName(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payments SET member_name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("update payment name: %w", err)
	}
	return requireAffected(res, &NotFoundError{Kind: "payment", ID: id})
}

func (r *PostgresRepository) InsertQuickVisit(ctx context.Context, q *QuickVisit) error {
	ctx, span := r.start(ctx, "insert_quick_visit")
	defer span.End()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quick_visits (id, name, at, amount)
		VALUES ($1, $2, $3, $4)
	`, q.ID, q.Name, q.At, q.Amount)
	if err != nil {
		span.RecordError(err)
		return classify(err, "quick visit")
	}
	return nil
}

func (r *PostgresRepository) ListQuickVisits(ctx context.Context) ([]QuickVisit, error) {
	ctx, span := r.start(ctx, "list_quick_visits")
	defer span.End()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, at, amount
		FROM quick_visits
		ORDER BY at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query quick visits: %w", err)
	}
	defer rows.Close()

	var out []QuickVisit
	for rows.Next() {
		var q QuickVisit
		if err := rows.Scan(&q.ID, &q.Name, &q.At, &q.Amount); err != nil {
			return nil, fmt.Errorf("scan quick visit: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quick visits: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
