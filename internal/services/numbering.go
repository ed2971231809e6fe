package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/nellusoru/backoffice/internal/models"
)

// DefaultInvoicePrefix starts every invoice number unless configured.
const DefaultInvoicePrefix = "NMS"

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// NumberAllocator produces the next invoice number for the bucket that
// contains at. It runs inside the transaction that inserts the invoice, so
// the unique index on invoice_number settles any race.
type NumberAllocator interface {
	Next(tx *gorm.DB, at time.Time) (string, error)
}

// MonthlyAllocator numbers invoices PREFIX-YYYYMM-NNNN, restarting the
// sequence every calendar month.
type MonthlyAllocator struct {
	Prefix string
}

// NewMonthlyAllocator falls back to DefaultInvoicePrefix for an empty
// prefix.
func NewMonthlyAllocator(prefix string) *MonthlyAllocator {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return &MonthlyAllocator{Prefix: prefix}
}

// BucketPrefix is the "PREFIX-YYYYMM-" part shared by a month's invoices.
func (a *MonthlyAllocator) BucketPrefix(at time.Time) string {
	return fmt.Sprintf("%s-%s-", a.Prefix, at.Format("200601"))
}

// Next returns one past the highest sequence already used in the bucket.
// Ordering by length first keeps 10000 above 9999.
func (a *MonthlyAllocator) Next(tx *gorm.DB, at time.Time) (string, error) {
	bucket := a.BucketPrefix(at)

	var last []string
	err := tx.Model(&models.Invoice{}).
		Where(`invoice_number LIKE ? ESCAPE '\'`, EscapeLike(bucket)+"%").
		Order("LENGTH(invoice_number) DESC").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &last).Error
	if err != nil {
		return "", errors.Wrap(err, "read last invoice number")
	}

	seq := 0
	if len(last) > 0 {
		seq, err = ParseSequence(last[0], bucket)
		if err != nil {
			return "", err
		}
	}
	return FormatInvoiceNumber(bucket, seq+1), nil
}

// FormatInvoiceNumber appends the zero-padded sequence to the bucket prefix.
func FormatInvoiceNumber(bucket string, seq int) string {
	return fmt.Sprintf("%s%04d", bucket, seq)
}

// ParseSequence extracts NNNN from a number in the given bucket.
func ParseSequence(number, bucket string) (int, error) {
	tail, ok := strings.CutPrefix(number, bucket)
	if !ok {
		return 0, errors.Errorf("invoice number %q is not in bucket %q", number, bucket)
	}
	seq, err := strconv.Atoi(tail)
	if err != nil || seq < 0 {
		return 0, errors.Errorf("invoice number %q has a malformed sequence", number)
	}
	return seq, nil
}
