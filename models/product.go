package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock status labels derived at read time, never stored.
const (
	StockInStock    = "in_stock"
	StockLowStock   = "low_stock"
	StockBackorder  = "backorder"
	StockOutOfStock = "out_of_stock"
)

// LowStockThreshold is the quantity at or below which a tracked
// product is reported as low stock instead of in stock.
const LowStockThreshold = 20

type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	SKU           string    `json:"sku" db:"sku"`
	Description   *string   `json:"description" db:"description"`
	Tags          []string  `json:"tags" db:"tags"`
	Price         float64   `json:"price" db:"price"`
	ComparePrice  *float64  `json:"compare_price" db:"compare_price"`
	Quantity      int       `json:"quantity" db:"quantity"`
	TrackQuantity bool      `json:"track_quantity" db:"track_quantity"`
	AllowBackorder bool     `json:"allow_backorder" db:"allow_backorder"`
	Status        string    `json:"status" db:"status"`
	RatingAverage float64   `json:"rating_average" db:"rating_average"`
	RatingCount   int       `json:"rating_count" db:"rating_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StockStatus derives the display label from the quantity fields.
func (p Product) StockStatus() string {
	if !p.TrackQuantity {
		return StockInStock
	}
	if p.Quantity > LowStockThreshold {
		return StockInStock
	}
	if p.Quantity > 0 {
		return StockLowStock
	}
	if p.AllowBackorder {
		return StockBackorder
	}
	return StockOutOfStock
}

// DiscountPercent derives the discount from compare_price at read
// time; zero when there is no compare price or no actual discount.
func (p Product) DiscountPercent() int {
	if p.ComparePrice == nil || *p.ComparePrice <= p.Price || *p.ComparePrice == 0 {
		return 0
	}
	return int(((*p.ComparePrice - p.Price) / *p.ComparePrice) * 100)
}

func (Product) TableName() string {
	return "products"
}

func (Product) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		sku TEXT NOT NULL UNIQUE,
		description TEXT,
		tags TEXT[] DEFAULT '{}',
		price NUMERIC(12,2) NOT NULL DEFAULT 0,
		compare_price NUMERIC(12,2),
		quantity INTEGER NOT NULL DEFAULT 0,
		track_quantity BOOLEAN DEFAULT true,
		allow_backorder BOOLEAN DEFAULT false,
		status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('active', 'draft', 'archived')),
		rating_average NUMERIC(3,2) NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_products_slug ON products(slug);
	CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);`
}

type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	Alt       *string   `json:"alt" db:"alt"`
	Position  int       `json:"position" db:"position"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

func (ProductImage) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS product_images (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		alt TEXT,
		position INTEGER DEFAULT 0,
		is_primary BOOLEAN DEFAULT false,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images(product_id);`
}

// ProductCategory links products to categories (many-to-many).
type ProductCategory struct {
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id"`
}

func (ProductCategory) TableName() string {
	return "product_categories"
}

func (ProductCategory) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS product_categories (
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (product_id, category_id)
	);
	CREATE INDEX IF NOT EXISTS idx_product_categories_category ON product_categories(category_id);`
}
