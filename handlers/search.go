package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// productFilters holds the parsed storefront listing filters. Invalid
// values are dropped rather than rejected so a mangled query string
// still returns results.
type productFilters struct {
	Query        string
	CategorySlug string
	MinPrice     *float64
	MaxPrice     *float64
	MinRating    *float64
	InStockOnly  bool
	Sort         string
	Page         int
	Limit        int
}

func parseProductFilters(c *gin.Context) productFilters {
	f := productFilters{
		Query:        strings.TrimSpace(c.Query("q")),
		CategorySlug: c.Query("category"),
		Sort:         c.DefaultQuery("sort", "newest"),
		Page:         1,
		Limit:        20,
	}

	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil && v >= 0 {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil && v >= 0 {
		f.MaxPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("min_rating"), 64); err == nil && v > 0 {
		f.MinRating = &v
	}
	f.InStockOnly = c.Query("in_stock") == "true"

	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		f.Limit = v
	}
	return f
}

// buildProductQuery turns the filters into a WHERE clause and ordered
// args slice. Split out from the handler so the SQL assembly can be
// tested without a database.
func buildProductQuery(f productFilters, categoryIDs []uuid.UUID) (string, []interface{}) {
	conditions := []string{"status = 'active'"}
	args := []interface{}{}

	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions,
			"(name ILIKE $"+n+" OR description ILIKE $"+n+" OR sku ILIKE $"+n+
				" OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $"+n+"))")
	}
	if len(categoryIDs) > 0 {
		args = append(args, pq.Array(categoryIDs))
		conditions = append(conditions,
			"id IN (SELECT product_id FROM product_categories WHERE category_id = ANY($"+strconv.Itoa(len(args))+"))")
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conditions = append(conditions, "price >= $"+strconv.Itoa(len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conditions = append(conditions, "price <= $"+strconv.Itoa(len(args)))
	}
	if f.MinRating != nil {
		args = append(args, *f.MinRating)
		conditions = append(conditions, "rating_average >= $"+strconv.Itoa(len(args)))
	}
	if f.InStockOnly {
		conditions = append(conditions, "(track_quantity = false OR quantity > 0 OR allow_backorder = true)")
	}

	return strings.Join(conditions, " AND "), args
}

func productOrderClause(sort string) string {
	switch sort {
	case "price_asc":
		return "price ASC, created_at DESC"
	case "price_desc":
		return "price DESC, created_at DESC"
	case "rating":
		return "rating_average DESC, rating_count DESC"
	case "name":
		return "name ASC"
	default:
		return "created_at DESC"
	}
}

// paginationMeta is the shared page envelope on list responses.
func paginationMeta(total, page, limit int) gin.H {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return gin.H{
		"total":       total,
		"page":        page,
		"limit":       limit,
		"pages":       pages,
		"hasNext":     page < pages,
		"hasPrevious": page > 1,
	}
}

// categorySubtreeIDs resolves a category slug to the IDs of the
// category and every descendant, so filtering by a parent category
// also matches products filed under its children.
func categorySubtreeIDs(slug string) ([]uuid.UUID, error) {
	rows, err := DB.Query(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM categories WHERE slug = $1
			UNION ALL
			SELECT c.id FROM categories c JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetProducts is the storefront product listing with search, filters,
// sorting and pagination.
func GetProducts(c *gin.Context) {
	f := parseProductFilters(c)

	var categoryIDs []uuid.UUID
	if f.CategorySlug != "" {
		ids, err := categorySubtreeIDs(f.CategorySlug)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve category filter"})
			return
		}
		if len(ids) == 0 {
			// Unknown category slug matches nothing rather than everything.
			c.JSON(http.StatusOK, gin.H{
				"products":   []gin.H{},
				"pagination": paginationMeta(0, f.Page, f.Limit),
			})
			return
		}
		categoryIDs = ids
	}

	where, args := buildProductQuery(f, categoryIDs)

	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	offset := (f.Page - 1) * f.Limit
	listArgs := append(args, f.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, productOrderClause(f.Sort), len(args)+1, len(args)+2)

	rows, err := DB.Query(query, listArgs...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	defer rows.Close()

	products := make([]gin.H, 0)
	productIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			continue
		}
		products = append(products, productView(p))
		productIDs = append(productIDs, p.ID)
	}

	attachPrimaryImages(products, productIDs)

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": paginationMeta(total, f.Page, f.Limit),
	})
}

// attachPrimaryImages adds each product's primary image URL to the
// listing rows in one query instead of one per product.
func attachPrimaryImages(products []gin.H, productIDs []uuid.UUID) {
	if len(productIDs) == 0 {
		return
	}
	rows, err := DB.Query(`
		SELECT DISTINCT ON (product_id) product_id, url
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, is_primary DESC, position`, pq.Array(productIDs))
	if err != nil {
		return
	}
	defer rows.Close()

	urls := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			continue
		}
		urls[id] = url
	}
	for _, view := range products {
		if id, ok := view["id"].(uuid.UUID); ok {
			if url, ok := urls[id]; ok {
				view["image"] = url
			}
		}
	}
}

// GetSearchSuggestions returns up to 8 lightweight matches for the
// storefront search-as-you-type box.
func GetSearchSuggestions(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 2 {
		c.JSON(http.StatusOK, gin.H{"suggestions": []gin.H{}})
		return
	}

	rows, err := DB.Query(`
		SELECT p.id, p.name, p.slug, p.price,
		       (SELECT url FROM product_images i WHERE i.product_id = p.id ORDER BY i.is_primary DESC, i.position LIMIT 1)
		FROM products p
		WHERE p.status = 'active' AND (p.name ILIKE $1 OR p.sku ILIKE $1)
		ORDER BY p.rating_count DESC, p.created_at DESC
		LIMIT 8`, "%"+q+"%")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suggestions"})
		return
	}
	defer rows.Close()

	suggestions := make([]gin.H, 0, 8)
	for rows.Next() {
		var id uuid.UUID
		var name, slug string
		var price float64
		var image *string
		if err := rows.Scan(&id, &name, &slug, &price, &image); err != nil {
			continue
		}
		suggestions = append(suggestions, gin.H{
			"id":    id,
			"name":  name,
			"slug":  slug,
			"price": price,
			"image": image,
		})
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
