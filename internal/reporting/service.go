// internal/reporting/service.go
package reporting

import (
	"context"
)

// Service defines the reporting reads.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
	Today(ctx context.Context) ([]TodayItem, error)
	PaymentRows(ctx context.Context) ([]PaymentRow, error)
	VisitRows(ctx context.Context) ([]VisitRow, error)
}
