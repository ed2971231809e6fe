package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/internal/models"
)

// DefaultRecentLimit is how many rows the recent-activity lists return.
const DefaultRecentLimit = 5

// CountActive pairs a table's row count with its active rows.
type CountActive struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type InvoiceStats struct {
	Total        int64  `json:"total"`
	Draft        int64  `json:"draft"`
	Pending      int64  `json:"pending"`
	Paid         int64  `json:"paid"`
	Cancelled    int64  `json:"cancelled"`
	TotalRevenue string `json:"total_revenue"`
}

type EnquiryStats struct {
	Total    int64 `json:"total"`
	New      int64 `json:"new"`
	Read     int64 `json:"read"`
	Replied  int64 `json:"replied"`
	Resolved int64 `json:"resolved"`
}

type OfferStats struct {
	Active int64 `json:"active"`
}

// DashboardStats is the summary shown on the admin home page.
type DashboardStats struct {
	Products  CountActive  `json:"products"`
	Customers CountActive  `json:"customers"`
	Invoices  InvoiceStats `json:"invoices"`
	Enquiries EnquiryStats `json:"enquiries"`
	Offers    OfferStats   `json:"offers"`
}

type RecentInvoice struct {
	ID            uuid.UUID            `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	CustomerName  *string              `json:"customer_name"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	Status        models.InvoiceStatus `json:"status"`
	InvoiceDate   models.Date          `json:"invoice_date"`
}

type RecentEnquiry struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	Phone     string               `json:"phone"`
	Subject   string               `json:"subject"`
	Status    models.EnquiryStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// DashboardService runs the read-only aggregate queries.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats gathers every counter in one call.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	q := s.db.WithContext(ctx)
	var st DashboardStats

	var err error
	if st.Products, err = countActive(q, &models.Product{}); err != nil {
		return nil, err
	}
	if st.Customers, err = countActive(q, &models.Customer{}); err != nil {
		return nil, err
	}
	if err := q.Model(&models.Offer{}).Where("is_active = ?", true).Count(&st.Offers.Active).Error; err != nil {
		return nil, errors.Wrap(err, "count offers")
	}

	byInvoice, err := countByStatus(q, &models.Invoice{})
	if err != nil {
		return nil, err
	}
	st.Invoices.Draft = byInvoice[string(models.InvoiceStatusDraft)]
	st.Invoices.Pending = byInvoice[string(models.InvoiceStatusPending)]
	st.Invoices.Paid = byInvoice[string(models.InvoiceStatusPaid)]
	st.Invoices.Cancelled = byInvoice[string(models.InvoiceStatusCancelled)]
	st.Invoices.Total = sum(byInvoice)

	revenue, err := s.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	st.Invoices.TotalRevenue = revenue.StringFixed(2)

	byEnquiry, err := countByStatus(q, &models.Enquiry{})
	if err != nil {
		return nil, err
	}
	st.Enquiries.New = byEnquiry[string(models.EnquiryStatusNew)]
	st.Enquiries.Read = byEnquiry[string(models.EnquiryStatusRead)]
	st.Enquiries.Replied = byEnquiry[string(models.EnquiryStatusReplied)]
	st.Enquiries.Resolved = byEnquiry[string(models.EnquiryStatusResolved)]
	st.Enquiries.Total = sum(byEnquiry)

	return &st, nil
}

// Revenue is the exact sum of total_amount over paid invoices, added up as
// decimals rather than with SQL SUM.
func (s *DashboardService) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := s.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusPaid).
		Pluck("total_amount", &totals).Error
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "read paid totals")
	}
	return decimal.Sum(decimal.Zero, totals...), nil
}

// RecentInvoices lists the newest invoices.
func (s *DashboardService) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Order("created_at DESC").
		Limit(recentLimit(limit)).
		Find(&invoices).Error
	if err != nil {
		return nil, errors.Wrap(err, "recent invoices")
	}
	out := make([]RecentInvoice, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, RecentInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			CustomerName:  inv.CustomerName,
			TotalAmount:   inv.TotalAmount,
			Status:        inv.Status,
			InvoiceDate:   inv.InvoiceDate,
		})
	}
	return out, nil
}

// RecentEnquiries lists the newest enquiries.
func (s *DashboardService) RecentEnquiries(ctx context.Context, limit int) ([]RecentEnquiry, error) {
	out := []RecentEnquiry{}
	err := s.db.WithContext(ctx).
		Model(&models.Enquiry{}).
		Select("id, name, phone, subject, status, created_at").
		Order("created_at DESC").
		Limit(recentLimit(limit)).
		Scan(&out).Error
	if err != nil {
		return nil, errors.Wrap(err, "recent enquiries")
	}
	return out, nil
}

func recentLimit(n int) int {
	if n <= 0 {
		return DefaultRecentLimit
	}
	if n > 50 {
		return 50
	}
	return n
}

func countActive(q *gorm.DB, model any) (CountActive, error) {
	var c CountActive
	if err := q.Model(model).Count(&c.Total).Error; err != nil {
		return c, errors.Wrapf(err, "count %T", model)
	}
	if err := q.Model(model).Where("is_active = ?", true).Count(&c.Active).Error; err != nil {
		return c, errors.Wrapf(err, "count active %T", model)
	}
	return c, nil
}

func countByStatus(q *gorm.DB, model any) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := q.Model(model).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "count %T by status", model)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func sum(m map[string]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}
