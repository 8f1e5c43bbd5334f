package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SaleDateLayout is the wire and storage format of a sale's business date.
const SaleDateLayout = "2006-01-02"

// Ledger identifies one of the independent sales record stores. Both ledgers
// share the same schema shape under different table names.
type Ledger struct {
	Name       string
	SalesTable string
	ItemsTable string
}

var (
	PrimaryLedger   = Ledger{Name: "primary", SalesTable: "sales", ItemsTable: "sale_items"}
	SecondaryLedger = Ledger{Name: "secondary", SalesTable: "sales_mama", ItemsTable: "sale_items_mama"}
)

// Ledgers lists every ledger the system keeps.
var Ledgers = []Ledger{PrimaryLedger, SecondaryLedger}

func LedgerByName(name string) (Ledger, error) {
	for _, l := range Ledgers {
		if l.Name == name {
			return l, nil
		}
	}
	return Ledger{}, fmt.Errorf("unknown ledger %q", name)
}

// Sale is a sale header. Items are loaded separately because the table they
// live in depends on the ledger.
type Sale struct {
	ID        uint       `gorm:"primaryKey"`
	SaleDate  time.Time  `gorm:"column:sale_date;type:date;not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	Items     []SaleItem `gorm:"-"`
}

// SaleItem snapshots the product name and price at the time of sale.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey"`
	SaleID      uint            `gorm:"column:sale_id;not null"`
	ProductID   uint            `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;size:255;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity    int             `gorm:"not null"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// TotalSale is the sum of the item totals.
func (s *Sale) TotalSale() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Total)
	}
	return total
}

// ValidateSale checks a sale submission before it reaches the database.
func ValidateSale(saleDate time.Time, items []SaleItem) error {
	if saleDate.IsZero() {
		return &ValidationError{Field: "date", Message: "is required"}
	}
	if len(items) == 0 {
		return &ValidationError{Field: "items", Message: "must contain at least one item"}
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case item.ProductID == 0:
			return &ValidationError{Field: field + ".product_id", Message: "is required"}
		case item.ProductName == "":
			return &ValidationError{Field: field + ".product_name", Message: "is required"}
		case item.Quantity < 1:
			return &ValidationError{Field: field + ".quantity", Message: "must be 1 or greater"}
		case item.Price.IsNegative():
			return &ValidationError{Field: field + ".price", Message: "must not be negative"}
		case item.Total.IsNegative():
			return &ValidationError{Field: field + ".total", Message: "must not be negative"}
		case !wholeCents(item.Price):
			return &ValidationError{Field: field + ".price", Message: centsMessage}
		case !wholeCents(item.Total):
			return &ValidationError{Field: field + ".total", Message: centsMessage}
		}
	}
	return nil
}
