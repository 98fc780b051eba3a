package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"velora-server/config"
	"velora-server/models"
	"velora-server/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const homepageCacheKey = "homepage"

// loadSettings reads the single settings row, inserting the default
// document on first read. Concurrent first reads are resolved by the
// primary key conflict clause.
func loadSettings() (models.Settings, error) {
	var s models.Settings
	var heroSlides, featured, trending, footer, emailTemplates []byte

	query := `SELECT id, store_name, currency, tax_rate, shipping_flat_rate, free_shipping_above,
	                 hero_slides, featured_product_ids, trending_product_ids, footer, email_templates, updated_at
	          FROM settings WHERE id = 1`
	err := DB.QueryRow(query).Scan(
		&s.ID, &s.StoreName, &s.Currency, &s.TaxRate, &s.ShippingFlatRate, &s.FreeShippingAbove,
		&heroSlides, &featured, &trending, &footer, &emailTemplates, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		def := models.DefaultSettings(config.AppConfig.StoreName, config.AppConfig.Currency)
		templates, _ := json.Marshal(def.EmailTemplates)
		_, err = DB.Exec(`
			INSERT INTO settings (id, store_name, currency, email_templates)
			VALUES (1, $1, $2, $3)
			ON CONFLICT (id) DO NOTHING`,
			def.StoreName, def.Currency, templates)
		if err != nil {
			return s, err
		}
		return def, nil
	}
	if err != nil {
		return s, err
	}

	json.Unmarshal(heroSlides, &s.HeroSlides)
	json.Unmarshal(featured, &s.FeaturedProductIDs)
	json.Unmarshal(trending, &s.TrendingProductIDs)
	json.Unmarshal(footer, &s.Footer)
	json.Unmarshal(emailTemplates, &s.EmailTemplates)
	return s, nil
}

// GetSettings returns the site settings document (admin only).
func GetSettings(c *gin.Context) {
	settings, err := loadSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings applies a partial update to the settings document
// (admin only). Absent fields keep their current values.
func UpdateSettings(c *gin.Context) {
	var req struct {
		StoreName          *string             `json:"store_name"`
		Currency           *string             `json:"currency" binding:"omitempty,len=3"`
		TaxRate            *float64            `json:"tax_rate" binding:"omitempty,gte=0,lte=1"`
		ShippingFlatRate   *float64            `json:"shipping_flat_rate" binding:"omitempty,gte=0"`
		FreeShippingAbove  *float64            `json:"free_shipping_above" binding:"omitempty,gte=0"`
		HeroSlides         []models.HeroSlide  `json:"hero_slides"`
		FeaturedProductIDs []string            `json:"featured_product_ids"`
		TrendingProductIDs []string            `json:"trending_product_ids"`
		Footer             *models.FooterContent `json:"footer"`
		EmailTemplates     map[string]string   `json:"email_templates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Make sure the row exists before the partial update.
	if _, err := loadSettings(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	var heroSlides, featured, trending, footer, emailTemplates interface{}
	if req.HeroSlides != nil {
		heroSlides, _ = json.Marshal(req.HeroSlides)
	}
	if req.FeaturedProductIDs != nil {
		featured, _ = json.Marshal(req.FeaturedProductIDs)
	}
	if req.TrendingProductIDs != nil {
		trending, _ = json.Marshal(req.TrendingProductIDs)
	}
	if req.Footer != nil {
		footer, _ = json.Marshal(req.Footer)
	}
	if req.EmailTemplates != nil {
		emailTemplates, _ = json.Marshal(req.EmailTemplates)
	}

	_, err := DB.Exec(`
		UPDATE settings SET
			store_name = COALESCE($1, store_name),
			currency = COALESCE($2, currency),
			tax_rate = COALESCE($3, tax_rate),
			shipping_flat_rate = COALESCE($4, shipping_flat_rate),
			free_shipping_above = COALESCE($5, free_shipping_above),
			hero_slides = COALESCE($6, hero_slides),
			featured_product_ids = COALESCE($7, featured_product_ids),
			trending_product_ids = COALESCE($8, trending_product_ids),
			footer = COALESCE($9, footer),
			email_templates = COALESCE($10, email_templates),
			updated_at = now()
		WHERE id = 1`,
		req.StoreName, req.Currency, req.TaxRate, req.ShippingFlatRate, req.FreeShippingAbove,
		heroSlides, featured, trending, footer, emailTemplates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	services.AppCache.Delete(c.Request.Context(), homepageCacheKey)
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated successfully"})
}

// GetHomepage assembles the storefront homepage payload: active hero
// slides plus the featured and trending product lists resolved to
// live product data. The whole payload is cached.
func GetHomepage(c *gin.Context) {
	var cached gin.H
	if services.AppCache.Get(c.Request.Context(), homepageCacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	settings, err := loadSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	slides := make([]models.HeroSlide, 0)
	for _, slide := range settings.HeroSlides {
		if slide.IsActive {
			slides = append(slides, slide)
		}
	}

	featured, err := resolveProductList(settings.FeaturedProductIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load featured products"})
		return
	}
	trending, err := resolveProductList(settings.TrendingProductIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trending products"})
		return
	}

	payload := gin.H{
		"store_name":        settings.StoreName,
		"currency":          settings.Currency,
		"hero_slides":       slides,
		"featured_products": featured,
		"trending_products": trending,
		"footer":            settings.Footer,
	}
	services.AppCache.Set(c.Request.Context(), homepageCacheKey, payload)
	c.JSON(http.StatusOK, payload)
}

// resolveProductList fetches the listed products, keeping the curated
// order and silently dropping IDs that no longer resolve to an active
// product.
func resolveProductList(ids []string) ([]gin.H, error) {
	if len(ids) == 0 {
		return []gin.H{}, nil
	}

	rows, err := DB.Query(`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[]) AND status = 'active'`,
		pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]gin.H)
	uuidByID := make(map[string]uuid.UUID)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			continue
		}
		byID[p.ID.String()] = productView(p)
		uuidByID[p.ID.String()] = p.ID
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]gin.H, 0, len(byID))
	orderedIDs := make([]uuid.UUID, 0, len(byID))
	for _, id := range ids {
		if view, ok := byID[id]; ok {
			ordered = append(ordered, view)
			orderedIDs = append(orderedIDs, uuidByID[id])
		}
	}

	attachPrimaryImages(ordered, orderedIDs)
	return ordered, nil
}
