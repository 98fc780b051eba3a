package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("Velora", "USD")

	assert.Equal(t, 1, s.ID)
	assert.Equal(t, "Velora", s.StoreName)
	assert.Equal(t, "USD", s.Currency)
	assert.Zero(t, s.TaxRate)
	assert.Zero(t, s.ShippingFlatRate)
	assert.NotNil(t, s.HeroSlides)
	assert.Empty(t, s.HeroSlides)
	assert.Contains(t, s.EmailTemplates, "order_confirmation")
	assert.Contains(t, s.EmailTemplates, "order_shipped")
}
