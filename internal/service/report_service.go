package service

import (
	"context"
	"time"

	"malladmin/internal/model"
)

const (
	monthLayout          = "2006-01"
	defaultRevenueMonths = 12
	maxRevenueMonths     = 120
)

// RevenueQuery selects an inclusive month range; empty bounds default to
// the last twelve months.
type RevenueQuery struct {
	From   string
	To     string
	MallID *int64
}

type ReportService struct {
	reports ReportStore
	now     func() time.Time
}

func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func parseMonth(field, v string) (time.Time, error) {
	t, err := time.Parse(monthLayout, v)
	if err != nil {
		return time.Time{}, &model.ValidationError{Field: field, Message: "must be YYYY-MM"}
	}
	return t, nil
}

// Revenue sums completed payments per month. Every month of the range is
// present, zero when nothing was paid.
func (s *ReportService) Revenue(ctx context.Context, q RevenueQuery) (*model.RevenueReport, error) {
	to := monthStart(s.now().UTC())
	if q.To != "" {
		t, err := parseMonth("to", q.To)
		if err != nil {
			return nil, err
		}
		to = t
	}
	from := to.AddDate(0, -(defaultRevenueMonths - 1), 0)
	if q.From != "" {
		f, err := parseMonth("from", q.From)
		if err != nil {
			return nil, err
		}
		from = f
	}
	if from.After(to) {
		return nil, &model.ValidationError{Field: "from", Message: "must not be after to"}
	}
	if from.AddDate(0, maxRevenueMonths-1, 0).Before(to) {
		return nil, &model.ValidationError{Field: "from", Message: "range must not exceed 120 months"}
	}

	rows, err := s.reports.RevenueByMonth(ctx, from, to.AddDate(0, 1, 0), q.MallID)
	if err != nil {
		return nil, err
	}
	byMonth := make(map[string]model.MonthlyRevenue, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	report := &model.RevenueReport{
		From:   from.Format(monthLayout),
		To:     to.Format(monthLayout),
		MallID: q.MallID,
	}
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		key := m.Format(monthLayout)
		row, ok := byMonth[key]
		if !ok {
			row = model.MonthlyRevenue{Month: key}
		}
		report.Months = append(report.Months, row)
		report.Total += row.Total
	}
	return report, nil
}

// Occupancy reports per-mall shop occupancy.
func (s *ReportService) Occupancy(ctx context.Context) ([]model.MallOccupancy, error) {
	rows, err := s.reports.Occupancy(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].OccupancyRate = model.OccupancyRate(rows[i].OccupiedShops, rows[i].TotalShops)
	}
	if rows == nil {
		rows = []model.MallOccupancy{}
	}
	return rows, nil
}

// BookingStatus returns one count per booking status, in status order.
func (s *ReportService) BookingStatus(ctx context.Context) ([]model.StatusCount, error) {
	counts, err := s.reports.BookingStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.StatusCount, 0, len(model.BookingStatuses))
	for _, status := range model.BookingStatuses {
		out = append(out, model.StatusCount{Status: status, Count: counts[status]})
	}
	return out, nil
}
