package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, url string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", url, nil)
	return c
}

func TestParseProductFiltersDefaults(t *testing.T) {
	f := parseProductFilters(testContext(t, "/api/v1/products"))

	assert.Empty(t, f.Query)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.Nil(t, f.MinRating)
	assert.False(t, f.InStockOnly)
	assert.Equal(t, "newest", f.Sort)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)
}

func TestParseProductFiltersFull(t *testing.T) {
	f := parseProductFilters(testContext(t,
		"/api/v1/products?q=shirt&category=clothing&min_price=10&max_price=99.5&min_rating=4&in_stock=true&sort=price_asc&page=3&limit=12"))

	assert.Equal(t, "shirt", f.Query)
	assert.Equal(t, "clothing", f.CategorySlug)
	require.NotNil(t, f.MinPrice)
	assert.Equal(t, 10.0, *f.MinPrice)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 99.5, *f.MaxPrice)
	require.NotNil(t, f.MinRating)
	assert.Equal(t, 4.0, *f.MinRating)
	assert.True(t, f.InStockOnly)
	assert.Equal(t, "price_asc", f.Sort)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 12, f.Limit)
}

func TestParseProductFiltersDropsGarbage(t *testing.T) {
	f := parseProductFilters(testContext(t,
		"/api/v1/products?min_price=cheap&max_price=-5&min_rating=lots&page=0&limit=9999&in_stock=yes"))

	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.Nil(t, f.MinRating)
	assert.False(t, f.InStockOnly)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.Limit)
}

func TestBuildProductQueryBaseCase(t *testing.T) {
	where, args := buildProductQuery(productFilters{}, nil)

	assert.Equal(t, "status = 'active'", where)
	assert.Empty(t, args)
}

func TestBuildProductQueryAllFilters(t *testing.T) {
	min := 10.0
	max := 50.0
	rating := 4.0
	f := productFilters{
		Query:       "shirt",
		MinPrice:    &min,
		MaxPrice:    &max,
		MinRating:   &rating,
		InStockOnly: true,
	}
	categoryIDs := []uuid.UUID{uuid.New(), uuid.New()}

	where, args := buildProductQuery(f, categoryIDs)

	assert.Contains(t, where, "status = 'active'")
	assert.Contains(t, where, "name ILIKE $1")
	assert.Contains(t, where, "sku ILIKE $1")
	assert.Contains(t, where, "unnest(tags)")
	assert.Contains(t, where, "category_id = ANY($2)")
	assert.Contains(t, where, "price >= $3")
	assert.Contains(t, where, "price <= $4")
	assert.Contains(t, where, "rating_average >= $5")
	assert.Contains(t, where, "track_quantity = false OR quantity > 0 OR allow_backorder = true")

	require.Len(t, args, 5)
	assert.Equal(t, "%shirt%", args[0])
	assert.Equal(t, min, args[2])
	assert.Equal(t, max, args[3])
	assert.Equal(t, rating, args[4])
}

func TestBuildProductQueryPlaceholdersAreSequential(t *testing.T) {
	// Dropping the search term must renumber the remaining placeholders.
	min := 5.0
	where, args := buildProductQuery(productFilters{MinPrice: &min}, nil)

	assert.Contains(t, where, "price >= $1")
	assert.Len(t, args, 1)
}

func TestProductOrderClause(t *testing.T) {
	tests := []struct {
		sort string
		want string
	}{
		{"price_asc", "price ASC, created_at DESC"},
		{"price_desc", "price DESC, created_at DESC"},
		{"rating", "rating_average DESC, rating_count DESC"},
		{"name", "name ASC"},
		{"newest", "created_at DESC"},
		{"", "created_at DESC"},
		{"sql injection'; --", "created_at DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, productOrderClause(tt.sort), "sort=%q", tt.sort)
	}
}

func TestPaginationMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		limit     int
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"first of many", 100, 1, 10, 10, true, false},
		{"middle page", 100, 5, 10, 10, true, true},
		{"last full page", 100, 10, 10, 10, false, true},
		{"partial last page", 25, 3, 10, 3, false, true},
		{"single page", 5, 1, 10, 1, false, false},
		{"empty result", 0, 1, 10, 0, false, false},
		{"exact boundary", 20, 2, 10, 2, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := paginationMeta(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.total, meta["total"])
			assert.Equal(t, tt.wantPages, meta["pages"])
			assert.Equal(t, tt.wantNext, meta["hasNext"])
			assert.Equal(t, tt.wantPrev, meta["hasPrevious"])
		})
	}
}
