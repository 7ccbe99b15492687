package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one (product, size) line. Name, image and price are captured when
// the line is first added.
type CartItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Image     string  `bson:"image" json:"image"`
	Price     float64 `bson:"price" json:"price"`
	Size      Size    `bson:"size" json:"size"`
	Quantity  int     `bson:"quantity" json:"quantity"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is keyed by the owning user id, so a user has at most one.
type Cart struct {
	UserID    string     `bson:"_id" json:"userId"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Line returns the line for (productID, size), if any.
func (c *Cart) Line(productID string, size Size) (*CartItem, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Size == size {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// Total is the sum of price x quantity, rounded to cents.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}
