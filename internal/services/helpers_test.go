package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nellusoru/backoffice/httpx"
	"github.com/nellusoru/backoffice/internal/db"
	"github.com/nellusoru/backoffice/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	return conn
}

// fixedClock returns a clock that always reads t.
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

var march2024 = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedCustomer(t *testing.T, conn *gorm.DB, name string) *models.Customer {
	t.Helper()
	c := models.NewCustomer()
	c.ContactPerson = name
	c.Phone = "+91 90000 00000"
	c.City = "Karur"
	c.State = "Tamil Nadu"
	c.Pincode = "621313"
	require.NoError(t, conn.Create(c).Error)
	return c
}

func item(desc, qty, price, amount string) models.InvoiceItem {
	return models.InvoiceItem{
		Description: desc,
		Quantity:    dec(qty),
		UnitPrice:   dec(price),
		Amount:      dec(amount),
	}
}

func defaultPage() httpx.Page { return httpx.Page{Limit: httpx.DefaultLimit} }

func httpxPage(skip, limit int) httpx.Page { return httpx.Page{Skip: skip, Limit: limit} }
