package models

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a placed order. Customer and line items are
// snapshots taken at checkout; they do not track later edits to the
// user or product records.
type Order struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	OrderNumber    string        `json:"order_number" db:"order_number"`
	UserID         uuid.UUID     `json:"user_id" db:"user_id"`
	Status         string        `json:"status" db:"status"`
	PaymentStatus  string        `json:"payment_status" db:"payment_status"`
	PaymentMethod  string        `json:"payment_method" db:"payment_method"`
	Customer       CustomerInfo  `json:"customer" db:"customer"`
	Subtotal       float64       `json:"subtotal" db:"subtotal"`
	ShippingFee    float64       `json:"shipping_fee" db:"shipping_fee"`
	TaxAmount      float64       `json:"tax_amount" db:"tax_amount"`
	DiscountAmount float64       `json:"discount_amount" db:"discount_amount"`
	TotalAmount    float64       `json:"total_amount" db:"total_amount"`
	Currency       string        `json:"currency" db:"currency"`
	TrackingNumber *string       `json:"tracking_number,omitempty" db:"tracking_number"`
	Carrier        *string       `json:"carrier,omitempty" db:"carrier"`
	InvoiceNumber  *string       `json:"invoice_number,omitempty" db:"invoice_number"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
	Items          []OrderItem   `json:"items,omitempty"`
	TrackingEvents []TrackingEvent `json:"tracking_events,omitempty"`
}

// CustomerInfo is the checkout-time snapshot embedded in the order.
type CustomerInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  struct {
		Line1      string `json:"line1"`
		Line2      string `json:"line2,omitempty"`
		City       string `json:"city"`
		PostalCode string `json:"postal_code,omitempty"`
		Country    string `json:"country"`
	} `json:"address"`
}

type OrderItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	ProductID   *uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string     `json:"product_name" db:"product_name"`
	SKU         string     `json:"sku" db:"sku"`
	UnitPrice   float64    `json:"unit_price" db:"unit_price"`
	Quantity    int        `json:"quantity" db:"quantity"`
	TotalPrice  float64    `json:"total_price" db:"total_price"`
	ImageURL    string     `json:"image_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// TrackingEvent is one entry in an order's append-only audit trail.
type TrackingEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"order_id" db:"order_id"`
	Status      string    `json:"status" db:"status"`
	Location    *string   `json:"location,omitempty" db:"location"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

func (Order) CreateTableSQL() string {
	return `
	CREATE SEQUENCE IF NOT EXISTS order_number_seq;
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_number VARCHAR(50) NOT NULL UNIQUE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(20) NOT NULL DEFAULT 'cod',
		customer JSONB NOT NULL,
		subtotal NUMERIC(12,2) NOT NULL DEFAULT 0,
		shipping_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
		tax_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		tracking_number VARCHAR(100),
		carrier VARCHAR(100),
		invoice_number VARCHAR(50),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (OrderItem) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID REFERENCES products(id) ON DELETE SET NULL,
		product_name TEXT NOT NULL,
		sku TEXT NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		total_price NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);`
}

func (TrackingEvent) TableName() string {
	return "order_tracking_events"
}

func (TrackingEvent) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS order_tracking_events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		status VARCHAR(20) NOT NULL,
		location TEXT,
		description TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_tracking_events_order ON order_tracking_events(order_id);`
}
