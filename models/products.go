package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/puestito/ventas-pos/app/pricing"
)

// Product represents a sellable item in one of the catalog lists.
// The promotion is stored as two nullable columns and exposed through Promotion.
type Product struct {
	ID                uint                `gorm:"primaryKey"`
	Name              string              `gorm:"size:255;not null"`
	Price             decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	PromotionQuantity *int                `gorm:"column:promotion_quantity"`
	PromotionPrice    decimal.NullDecimal `gorm:"column:promotion_price;type:decimal(10,2)"`
	ListNumber        int                 `gorm:"column:list_number;not null;index"`
	CreatedAt         time.Time           `gorm:"autoCreateTime"`
}

func (p *Product) TableName() string {
	return "products"
}

// Promotion returns the product's promotion, or none when either column is NULL.
func (p *Product) Promotion() pricing.Promotion {
	if p.PromotionQuantity == nil || !p.PromotionPrice.Valid {
		return pricing.NoPromotion()
	}
	promo, err := pricing.NewPromotion(*p.PromotionQuantity, p.PromotionPrice.Decimal)
	if err != nil {
		return pricing.NoPromotion()
	}
	return promo
}

func (p *Product) SetPromotion(promo pricing.Promotion) {
	qty, price, ok := promo.Value()
	if !ok {
		p.PromotionQuantity = nil
		p.PromotionPrice = decimal.NullDecimal{}
		return
	}
	p.PromotionQuantity = &qty
	p.PromotionPrice = decimal.NewNullDecimal(price)
}

// Validate checks the fields a caller controls.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if p.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if !wholeCents(p.Price) {
		return &ValidationError{Field: "price", Message: centsMessage}
	}
	if p.ListNumber < 1 {
		return &ValidationError{Field: "listNumber", Message: "must be 1 or greater"}
	}
	if (p.PromotionQuantity == nil) != !p.PromotionPrice.Valid {
		return &ValidationError{Field: "promotion", Message: "quantity and price must be set together"}
	}
	if p.PromotionQuantity != nil {
		if _, err := pricing.NewPromotion(*p.PromotionQuantity, p.PromotionPrice.Decimal); err != nil {
			return &ValidationError{Field: "promotion", Message: err.Error()}
		}
		if !wholeCents(p.PromotionPrice.Decimal) {
			return &ValidationError{Field: "promotion", Message: "price " + centsMessage}
		}
	}
	return nil
}

// ProductPatch carries a partial product update. Nil fields are left unchanged.
type ProductPatch struct {
	Name       *string
	Price      *decimal.Decimal
	Promotion  *pricing.Promotion
	ListNumber *int
}

func (patch ProductPatch) apply(p *Product) {
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Promotion != nil {
		p.SetPromotion(*patch.Promotion)
	}
	if patch.ListNumber != nil {
		p.ListNumber = *patch.ListNumber
	}
}

const centsMessage = "must not have more than 2 decimal places"

// wholeCents reports whether d fits a decimal(10,2) column without rounding.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
