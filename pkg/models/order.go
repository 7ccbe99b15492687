package models

import (
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
)

type Order struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string      `gorm:"type:varchar(64);not null;index" json:"userId"`
	Items       []OrderItem `gorm:"type:text;serializer:json" json:"items"`
	TotalAmount float64     `gorm:"type:decimal(10,2)" json:"totalAmount"`
	Status      OrderStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (Order) TableName() string {
	return "orders"
}

// Reference is the short id shown to shoppers.
func (o *Order) Reference() string {
	if len(o.ID) <= 6 {
		return o.ID
	}
	return o.ID[len(o.ID)-6:]
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Size      Size    `json:"size"`
	Quantity  int     `json:"quantity"`
}
