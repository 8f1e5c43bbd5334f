package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPromotion is returned when a promotion has a non-positive quantity or price.
var ErrInvalidPromotion = errors.New("promotion quantity and price must be positive")

// Promotion is an optional bulk-pricing rule: every Quantity units cost Price together.
// The zero value means no promotion.
type Promotion struct {
	quantity int
	price    decimal.Decimal
	set      bool
}

func NoPromotion() Promotion {
	return Promotion{}
}

func NewPromotion(quantity int, price decimal.Decimal) (Promotion, error) {
	if quantity <= 0 || !price.IsPositive() {
		return Promotion{}, ErrInvalidPromotion
	}
	return Promotion{quantity: quantity, price: price, set: true}, nil
}

// Value returns the promotion's set size and set price. ok is false when there is no promotion.
func (p Promotion) Value() (quantity int, price decimal.Decimal, ok bool) {
	return p.quantity, p.price, p.set
}

func (p Promotion) IsSet() bool {
	return p.set
}

type promotionJSON struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (p Promotion) MarshalJSON() ([]byte, error) {
	if !p.set {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}{
		Quantity: p.quantity,
		Price:    p.price.InexactFloat64(),
	})
}

func (p *Promotion) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = NoPromotion()
		return nil
	}

	var raw promotionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	promo, err := NewPromotion(raw.Quantity, raw.Price)
	if err != nil {
		return err
	}
	*p = promo
	return nil
}

// Total returns the amount due for quantity units at unitPrice, applying the
// promotion to every complete set. Non-positive quantities cost nothing.
func Total(quantity int, unitPrice decimal.Decimal, promo Promotion) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}

	setSize, setPrice, ok := promo.Value()
	if !ok {
		return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	}

	sets := quantity / setSize
	remainder := quantity % setSize

	return setPrice.Mul(decimal.NewFromInt(int64(sets))).
		Add(unitPrice.Mul(decimal.NewFromInt(int64(remainder))))
}

// Savings is the difference between the undiscounted amount and Total. A
// promotion dearer than the singles it replaces saves nothing.
func Savings(quantity int, unitPrice decimal.Decimal, promo Promotion) decimal.Decimal {
	if quantity <= 0 || !promo.IsSet() {
		return decimal.Zero
	}
	full := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	saved := full.Sub(Total(quantity, unitPrice, promo))
	if saved.IsNegative() {
		return decimal.Zero
	}
	return saved
}

// PromotionApplies reports whether quantity includes at least one full promotional set.
func PromotionApplies(quantity int, promo Promotion) bool {
	setSize, _, ok := promo.Value()
	return ok && quantity >= setSize
}

// ParseQuantity reads a quantity typed into a form. Anything that is not a
// positive whole number is 0.
func ParseQuantity(s string) int {
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || q <= 0 {
		return 0
	}
	return q
}
