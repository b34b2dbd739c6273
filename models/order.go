package models

import "time"

// OrderStatus represents all possible states of a delivery order
type OrderStatus string

const (
	OrderPlaced     OrderStatus = "placed"
	OrderInProgress OrderStatus = "inProgress"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderItem is a line item snapshot; it is not linked to the catalog and its
// fields are stored as supplied.
type OrderItem struct {
	ItemID string  `json:"itemId,omitempty"`
	Name   string  `json:"name,omitempty"`
	Qty    int     `json:"qty,omitempty"`
	Price  float64 `json:"price,omitempty"`
}

// Customer is copied into the order at creation time, not a live reference.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Order struct {
	ID            string      `json:"orderId" gorm:"primaryKey;size:40"`
	Items         []OrderItem `json:"items" gorm:"serializer:json;not null"`
	Customer      Customer    `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Status        OrderStatus `json:"status" gorm:"not null;index"`
	RiderID       *string     `json:"riderId"`   // weak reference, lookup only
	RiderName     *string     `json:"riderName"` // snapshot at assignment
	TotalAmount   float64     `json:"totalAmount" gorm:"not null"`
	PaymentMethod string      `json:"paymentMethod"`
	Notes         string      `json:"notes"`
	CreatedAt     time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	DeliveredAt   *time.Time  `json:"deliveredAt"`
}

// OrderStats is the dashboard aggregate over all orders.
type OrderStats struct {
	Total        int                 `json:"total"`
	ByStatus     map[OrderStatus]int `json:"byStatus"`
	TodayOrders  int                 `json:"todayOrders"`
	TodayRevenue float64             `json:"todayRevenue"`
}
