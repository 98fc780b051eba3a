package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockStatus(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{"untracked always in stock", Product{TrackQuantity: false, Quantity: 0}, StockInStock},
		{"well stocked", Product{TrackQuantity: true, Quantity: 21}, StockInStock},
		{"at threshold is low", Product{TrackQuantity: true, Quantity: 20}, StockLowStock},
		{"single unit is low", Product{TrackQuantity: true, Quantity: 1}, StockLowStock},
		{"empty with backorder", Product{TrackQuantity: true, Quantity: 0, AllowBackorder: true}, StockBackorder},
		{"empty without backorder", Product{TrackQuantity: true, Quantity: 0}, StockOutOfStock},
		{"negative quantity treated as empty", Product{TrackQuantity: true, Quantity: -3}, StockOutOfStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.StockStatus())
		})
	}
}

func TestDiscountPercent(t *testing.T) {
	compare := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		product Product
		want    int
	}{
		{"no compare price", Product{Price: 50}, 0},
		{"compare below price", Product{Price: 50, ComparePrice: compare(40)}, 0},
		{"compare equals price", Product{Price: 50, ComparePrice: compare(50)}, 0},
		{"half price", Product{Price: 50, ComparePrice: compare(100)}, 50},
		{"quarter off", Product{Price: 75, ComparePrice: compare(100)}, 25},
		{"fraction truncates", Product{Price: 66.67, ComparePrice: compare(100)}, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.DiscountPercent())
		})
	}
}
