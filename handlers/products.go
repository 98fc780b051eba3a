package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"velora-server/models"
	"velora-server/services"
	"velora-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func scanProduct(row interface{ Scan(...interface{}) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.SKU, &p.Description, pq.Array(&p.Tags),
		&p.Price, &p.ComparePrice, &p.Quantity, &p.TrackQuantity, &p.AllowBackorder,
		&p.Status, &p.RatingAverage, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

const productColumns = `id, name, slug, sku, description, tags, price, compare_price,
	quantity, track_quantity, allow_backorder, status, rating_average, rating_count,
	created_at, updated_at`

// productView is the wire shape of a product with its derived fields
// attached. Stock status and discount are computed here, never stored.
func productView(p models.Product) gin.H {
	return gin.H{
		"id":               p.ID,
		"name":             p.Name,
		"slug":             p.Slug,
		"sku":              p.SKU,
		"description":      p.Description,
		"tags":             p.Tags,
		"price":            p.Price,
		"compare_price":    p.ComparePrice,
		"quantity":         p.Quantity,
		"track_quantity":   p.TrackQuantity,
		"allow_backorder":  p.AllowBackorder,
		"status":           p.Status,
		"rating_average":   p.RatingAverage,
		"rating_count":     p.RatingCount,
		"stock_status":     p.StockStatus(),
		"discount_percent": p.DiscountPercent(),
		"created_at":       p.CreatedAt,
		"updated_at":       p.UpdatedAt,
	}
}

func fetchProductImages(productID uuid.UUID) ([]models.ProductImage, error) {
	rows, err := DB.Query(
		`SELECT id, product_id, url, alt, position, is_primary, created_at
		 FROM product_images WHERE product_id = $1 ORDER BY position, created_at`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make([]models.ProductImage, 0)
	for rows.Next() {
		var img models.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.Position, &img.IsPrimary, &img.CreatedAt); err != nil {
			continue
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func fetchProductCategories(productID uuid.UUID) ([]models.Category, error) {
	rows, err := DB.Query(`
		SELECT c.id, c.name, c.slug, c.description, c.image, c.parent_id, c.display_order, c.is_active, c.created_at, c.updated_at
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.display_order, c.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var cat models.Category
		var parentID sql.NullString
		if err := rows.Scan(
			&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.Image,
			&parentID, &cat.DisplayOrder, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
		); err != nil {
			continue
		}
		if parentID.Valid {
			if id, err := uuid.Parse(parentID.String); err == nil {
				cat.ParentID = &id
			}
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// GetProductBySlug returns one active product with its images,
// categories and derived fields. Drafts and archived products answer
// 404 on the storefront.
func GetProductBySlug(c *gin.Context) {
	slug := c.Param("slug")

	row := DB.QueryRow(`SELECT `+productColumns+` FROM products WHERE slug = $1 AND status = 'active'`, slug)
	product, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	images, err := fetchProductImages(product.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product images"})
		return
	}
	categories, err := fetchProductCategories(product.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product categories"})
		return
	}

	view := productView(product)
	view["images"] = images
	view["categories"] = categories
	c.JSON(http.StatusOK, gin.H{"product": view})
}

type productPayload struct {
	Name           string   `json:"name" binding:"required"`
	Slug           string   `json:"slug"`
	SKU            string   `json:"sku" binding:"required"`
	Description    *string  `json:"description"`
	Tags           []string `json:"tags"`
	Price          float64  `json:"price" binding:"required,gt=0"`
	ComparePrice   *float64 `json:"compare_price"`
	Quantity       int      `json:"quantity" binding:"gte=0"`
	TrackQuantity  *bool    `json:"track_quantity"`
	AllowBackorder bool     `json:"allow_backorder"`
	Status         string   `json:"status" binding:"omitempty,oneof=active draft archived"`
	CategoryIDs    []string `json:"category_ids"`
	Images         []struct {
		URL       string  `json:"url" binding:"required"`
		Alt       *string `json:"alt"`
		IsPrimary bool    `json:"is_primary"`
	} `json:"images"`
}

// CreateProduct creates a product with its images and category links
// in one transaction (admin only).
func CreateProduct(c *gin.Context) {
	var req productPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ComparePrice != nil && *req.ComparePrice <= req.Price {
		c.JSON(http.StatusBadRequest, gin.H{"error": "compare_price must be greater than price"})
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}
	status := req.Status
	if status == "" {
		status = "draft"
	}
	trackQuantity := true
	if req.TrackQuantity != nil {
		trackQuantity = *req.TrackQuantity
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	categoryIDs, ok := parseCategoryIDs(c, req.CategoryIDs)
	if !ok {
		return
	}

	tx, err := DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	productID := uuid.New()
	_, err = tx.Exec(`
		INSERT INTO products (id, name, slug, sku, description, tags, price, compare_price,
		                      quantity, track_quantity, allow_backorder, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		productID, req.Name, slug, req.SKU, req.Description, pq.Array(req.Tags),
		req.Price, req.ComparePrice, req.Quantity, trackQuantity, req.AllowBackorder, status)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A product with this slug or SKU already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	if err := insertProductLinks(tx, productID, categoryIDs, req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product details"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit product"})
		return
	}

	services.AppCache.Delete(c.Request.Context(), homepageCacheKey)
	c.JSON(http.StatusCreated, gin.H{
		"id":      productID,
		"slug":    slug,
		"message": "Product created successfully",
	})
}

func parseCategoryIDs(c *gin.Context, raw []string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID: " + s})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func insertProductLinks(tx *sql.Tx, productID uuid.UUID, categoryIDs []uuid.UUID, req productPayload) error {
	for _, catID := range categoryIDs {
		if _, err := tx.Exec(
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, catID); err != nil {
			return err
		}
	}
	for i, img := range req.Images {
		isPrimary := img.IsPrimary || (i == 0 && !anyPrimary(req))
		if _, err := tx.Exec(
			`INSERT INTO product_images (product_id, url, alt, position, is_primary) VALUES ($1, $2, $3, $4, $5)`,
			productID, img.URL, img.Alt, i, isPrimary); err != nil {
			return err
		}
	}
	return nil
}

func anyPrimary(req productPayload) bool {
	for _, img := range req.Images {
		if img.IsPrimary {
			return true
		}
	}
	return false
}

// UpdateProduct updates a product (admin only). Images and category
// links, when present in the payload, replace the existing sets.
func UpdateProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req struct {
		Name           *string  `json:"name"`
		Description    *string  `json:"description"`
		Tags           []string `json:"tags"`
		Price          *float64 `json:"price"`
		ComparePrice   *float64 `json:"compare_price"`
		Quantity       *int     `json:"quantity"`
		TrackQuantity  *bool    `json:"track_quantity"`
		AllowBackorder *bool    `json:"allow_backorder"`
		Status         *string  `json:"status"`
		CategoryIDs    []string `json:"category_ids"`
		Images         []struct {
			URL       string  `json:"url"`
			Alt       *string `json:"alt"`
			IsPrimary bool    `json:"is_primary"`
		} `json:"images"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != nil && *req.Status != "active" && *req.Status != "draft" && *req.Status != "archived" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than zero"})
		return
	}

	tx, err := DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var tags interface{}
	if req.Tags != nil {
		tags = pq.Array(req.Tags)
	}

	result, err := tx.Exec(`
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			tags = COALESCE($4, tags),
			price = COALESCE($5, price),
			compare_price = COALESCE($6, compare_price),
			quantity = COALESCE($7, quantity),
			track_quantity = COALESCE($8, track_quantity),
			allow_backorder = COALESCE($9, allow_backorder),
			status = COALESCE($10, status),
			updated_at = now()
		WHERE id = $1`,
		productID, req.Name, req.Description, tags, req.Price, req.ComparePrice,
		req.Quantity, req.TrackQuantity, req.AllowBackorder, req.Status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if req.CategoryIDs != nil {
		categoryIDs, ok := parseCategoryIDs(c, req.CategoryIDs)
		if !ok {
			return
		}
		if _, err := tx.Exec(`DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product categories"})
			return
		}
		for _, catID := range categoryIDs {
			if _, err := tx.Exec(
				`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				productID, catID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product categories"})
				return
			}
		}
	}

	if req.Images != nil {
		if _, err := tx.Exec(`DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product images"})
			return
		}
		for i, img := range req.Images {
			if _, err := tx.Exec(
				`INSERT INTO product_images (product_id, url, alt, position, is_primary) VALUES ($1, $2, $3, $4, $5)`,
				productID, img.URL, img.Alt, i, img.IsPrimary); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product images"})
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit product update"})
		return
	}

	services.AppCache.Delete(c.Request.Context(), homepageCacheKey)
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully"})
}

// DeleteProduct removes a product (admin only). Images and category
// links go with it through the foreign keys; order items keep their
// denormalized snapshot with product_id set to NULL.
func DeleteProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	result, err := DB.Exec(`DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	services.AppCache.Delete(c.Request.Context(), homepageCacheKey)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetAdminProducts lists products for the back office, any status,
// newest first.
func GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	status := c.Query("status")
	where := ""
	args := []interface{}{}
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, status)
	}

	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	offset := (page - 1) * limit
	listArgs := append(args, limit, offset)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := DB.Query(query, listArgs...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	defer rows.Close()

	products := make([]gin.H, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			continue
		}
		products = append(products, productView(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": paginationMeta(total, page, limit),
	})
}
