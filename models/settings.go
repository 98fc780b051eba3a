package models

import "time"

// Settings is the single-document site configuration. The row is
// created lazily on first read; there is never more than one (id = 1).
type Settings struct {
	ID                 int             `json:"-" db:"id"`
	StoreName          string          `json:"store_name" db:"store_name"`
	Currency           string          `json:"currency" db:"currency"`
	TaxRate            float64         `json:"tax_rate" db:"tax_rate"`
	ShippingFlatRate   float64         `json:"shipping_flat_rate" db:"shipping_flat_rate"`
	FreeShippingAbove  float64         `json:"free_shipping_above" db:"free_shipping_above"`
	HeroSlides         []HeroSlide     `json:"hero_slides" db:"hero_slides"`
	FeaturedProductIDs []string        `json:"featured_product_ids" db:"featured_product_ids"`
	TrendingProductIDs []string        `json:"trending_product_ids" db:"trending_product_ids"`
	Footer             FooterContent   `json:"footer" db:"footer"`
	EmailTemplates     map[string]string `json:"email_templates" db:"email_templates"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// HeroSlide is one slide of the homepage hero slider.
type HeroSlide struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link,omitempty"`
	SortOrder int   `json:"sort_order"`
	IsActive bool   `json:"is_active"`
}

type FooterContent struct {
	AboutText string       `json:"about_text,omitempty"`
	Links     []FooterLink `json:"links,omitempty"`
	Copyright string       `json:"copyright,omitempty"`
}

type FooterLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// DefaultSettings returns the document inserted on first read.
func DefaultSettings(storeName, currency string) Settings {
	return Settings{
		ID:                 1,
		StoreName:          storeName,
		Currency:           currency,
		TaxRate:            0,
		ShippingFlatRate:   0,
		FreeShippingAbove:  0,
		HeroSlides:         []HeroSlide{},
		FeaturedProductIDs: []string{},
		TrendingProductIDs: []string{},
		Footer:             FooterContent{},
		EmailTemplates: map[string]string{
			"order_confirmation": "Thank you for your order {{order_number}}. We will contact you to arrange cash-on-delivery payment.",
			"order_shipped":      "Your order {{order_number}} is on its way. Tracking number: {{tracking_number}}.",
		},
	}
}

func (Settings) TableName() string {
	return "settings"
}

func (Settings) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		store_name TEXT NOT NULL,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		tax_rate NUMERIC(5,4) NOT NULL DEFAULT 0,
		shipping_flat_rate NUMERIC(12,2) NOT NULL DEFAULT 0,
		free_shipping_above NUMERIC(12,2) NOT NULL DEFAULT 0,
		hero_slides JSONB NOT NULL DEFAULT '[]',
		featured_product_ids JSONB NOT NULL DEFAULT '[]',
		trending_product_ids JSONB NOT NULL DEFAULT '[]',
		footer JSONB NOT NULL DEFAULT '{}',
		email_templates JSONB NOT NULL DEFAULT '{}',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
