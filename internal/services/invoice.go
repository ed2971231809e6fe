package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/models"
)

var (
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrInvoiceNumberConflict = errors.New("invoice number conflict")
)

// DefaultCreateAttempts bounds how often Create retries after losing a
// numbering race.
const DefaultCreateAttempts = 3

// InvoiceService owns the invoice lifecycle: numbering, the totals
// contract and atomic header+items writes.
type InvoiceService struct {
	db       *gorm.DB
	numbers  NumberAllocator
	totals   TotalsPolicy
	now      Clock
	attempts int
	log      logrus.FieldLogger
}

// InvoiceOption customises an InvoiceService.
type InvoiceOption func(*InvoiceService)

func WithAllocator(a NumberAllocator) InvoiceOption {
	return func(s *InvoiceService) { s.numbers = a }
}

func WithTotalsPolicy(p TotalsPolicy) InvoiceOption {
	return func(s *InvoiceService) { s.totals = p }
}

func WithClock(c Clock) InvoiceOption {
	return func(s *InvoiceService) { s.now = c }
}

func WithCreateAttempts(n int) InvoiceOption {
	return func(s *InvoiceService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithLogger(l logrus.FieldLogger) InvoiceOption {
	return func(s *InvoiceService) { s.log = l }
}

func NewInvoiceService(db *gorm.DB, opts ...InvoiceOption) *InvoiceService {
	s := &InvoiceService{
		db:       db,
		numbers:  NewMonthlyAllocator(DefaultInvoicePrefix),
		totals:   LedgerTotals{},
		now:      time.Now,
		attempts: DefaultCreateAttempts,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now reports the service clock.
func (s *InvoiceService) Now() time.Time { return s.now() }

// Create numbers and stores inv with its items in one transaction. The
// whole transaction is retried when another writer took the same number.
func (s *InvoiceService) Create(ctx context.Context, inv *models.Invoice) error {
	now := s.now()
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = models.DateOf(now)
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	if !inv.Status.Valid() {
		return errors.Wrapf(models.ErrInvalidStatus, "%q", inv.Status)
	}
	numberItems(inv.Items)
	if err := s.totals.Check(inv); err != nil {
		return err
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := checkReferences(tx, inv.CustomerID, inv.Items); err != nil {
				return err
			}
			number, err := s.numbers.Next(tx, now)
			if err != nil {
				return err
			}
			inv.InvoiceNumber = number
			if err := tx.Omit(clause.Associations).Create(inv).Error; err != nil {
				return errors.Wrap(err, "insert invoice")
			}
			return insertItems(tx, inv.ID, inv.Items)
		})
		if err == nil {
			s.log.WithFields(logrus.Fields{
				"invoice_number": inv.InvoiceNumber,
				"items":          len(inv.Items),
			}).Info("invoice created")
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"invoice_number": inv.InvoiceNumber,
			"attempt":        attempt,
		}).Warn("invoice number taken, retrying")
	}
	return errors.Wrapf(ErrInvoiceNumberConflict, "gave up after %d attempts", s.attempts)
}

// InvoiceChange is a partial update. Apply edits header fields in place.
// Items nil keeps the stored items; non-nil, even empty, replaces them.
type InvoiceChange struct {
	Apply func(inv *models.Invoice) error
	Items *[]models.InvoiceItem
}

// Update applies change to the invoice atomically and returns the stored
// result.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, change InvoiceChange) (*models.Invoice, error) {
	var out *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := loadInvoice(tx, id)
		if err != nil {
			return err
		}
		from := inv.Status
		prevCustomer := inv.CustomerID

		if change.Apply != nil {
			if err := change.Apply(inv); err != nil {
				return err
			}
		}
		if err := from.TransitionTo(inv.Status); err != nil {
			return err
		}
		if change.Items != nil {
			inv.Items = *change.Items
			numberItems(inv.Items)
		}
		if err := s.totals.Check(inv); err != nil {
			return err
		}

		customer := inv.CustomerID
		if prevCustomer != nil && customer != nil && *prevCustomer == *customer {
			customer = nil
		}
		var newItems []models.InvoiceItem
		if change.Items != nil {
			newItems = inv.Items
		}
		if err := checkReferences(tx, customer, newItems); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(inv).Error; err != nil {
			return errors.Wrap(err, "update invoice")
		}
		if change.Items != nil {
			if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
				return errors.Wrap(err, "delete invoice items")
			}
			if err := insertItems(tx, id, inv.Items); err != nil {
				return err
			}
		}

		out, err = loadInvoice(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the invoice and its items together.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadInvoice(tx, id); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return errors.Wrap(err, "delete invoice items")
		}
		if err := tx.Delete(&models.Invoice{}, "id = ?", id).Error; err != nil {
			return errors.Wrap(err, "delete invoice")
		}
		return nil
	})
}

// Get loads an invoice with its customer and items in position order.
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return loadInvoice(s.db.WithContext(ctx), id)
}

// InvoiceFilter narrows List.
type InvoiceFilter struct {
	CustomerID *uuid.UUID
	Status     models.InvoiceStatus
	Search     string
	Page       httpx.Page
}

// List returns invoices newest first.
func (s *InvoiceService) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, error) {
	q := s.db.WithContext(ctx).Model(&models.Invoice{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("LOWER(invoice_number) LIKE ?", LikePattern(f.Search))
	}

	if f.Page.Limit <= 0 {
		f.Page.Limit = httpx.DefaultLimit
	}
	invoices := []models.Invoice{}
	err := withInvoiceRelations(q).
		Order("created_at DESC").
		Offset(f.Page.Skip).
		Limit(f.Page.Limit).
		Find(&invoices).Error
	if err != nil {
		return nil, errors.Wrap(err, "list invoices")
	}
	return invoices, nil
}

func withInvoiceRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Customer").Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

func loadInvoice(tx *gorm.DB, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := withInvoiceRelations(tx).First(&inv, "id = ?", id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrInvoiceNotFound
		}
		return nil, errors.Wrap(err, "load invoice")
	}
	return &inv, nil
}

func numberItems(items []models.InvoiceItem) {
	for i := range items {
		items[i].Position = i
	}
}

func insertItems(tx *gorm.DB, invoiceID uuid.UUID, items []models.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		return errors.Wrap(err, "insert invoice items")
	}
	return nil
}

// checkReferences verifies that the customer and every product referenced
// exist. A nil customer is not checked.
func checkReferences(tx *gorm.DB, customerID *uuid.UUID, items []models.InvoiceItem) error {
	if customerID != nil {
		var n int64
		if err := tx.Model(&models.Customer{}).Where("id = ?", *customerID).Count(&n).Error; err != nil {
			return errors.Wrap(err, "look up customer")
		}
		if n == 0 {
			return ErrCustomerNotFound
		}
	}

	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		if _, ok := seen[*it.ProductID]; !ok {
			seen[*it.ProductID] = struct{}{}
			ids = append(ids, *it.ProductID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return errors.Wrap(err, "look up products")
	}
	if int(n) != len(ids) {
		return ErrProductNotFound
	}
	return nil
}
