package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Collection", "summer-collection"},
		{"  Trimmed  ", "trimmed"},
		{"Café & Crème!", "caf-cr-me"},
		{"already-a-slug", "already-a-slug"},
		{"Multiple   Spaces -- Dashes", "multiple-spaces-dashes"},
		{"100% Cotton T-Shirt", "100-cotton-t-shirt"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyCollision(t *testing.T) {
	// Different display names can normalize to the same slug; the
	// database unique constraint is what surfaces the conflict.
	assert.Equal(t, Slugify("Mens Shoes"), Slugify("mens   shoes!"))
}
