package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem represents a product saved to a user's wishlist.
type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

func (WishlistItem) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS wishlist_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE (user_id, product_id)
	);
	CREATE INDEX IF NOT EXISTS idx_wishlist_items_user ON wishlist_items(user_id);`
}
