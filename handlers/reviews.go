package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// resolveProductSlug maps a storefront slug to the active product's ID.
func resolveProductSlug(slug string) (uuid.UUID, error) {
	var id uuid.UUID
	err := DB.QueryRow(`SELECT id FROM products WHERE slug = $1 AND status = 'active'`, slug).Scan(&id)
	return id, err
}

// CreateReview posts a review for a product the user has not reviewed
// yet, then recomputes the product's rating aggregate in the same
// transaction so the stored average never drifts from the rows.
func CreateReview(c *gin.Context) {
	userID := c.GetString("user_id")

	productID, err := resolveProductSlug(c.Param("slug"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	var req struct {
		Rating int    `json:"rating" binding:"required,min=1,max=5"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	reviewID := uuid.New()
	_, err = tx.Exec(`
		INSERT INTO reviews (id, product_id, user_id, rating, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		reviewID, productID, userID, req.Rating, req.Title, req.Body)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You have already reviewed this product"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create review"})
		return
	}

	_, err = tx.Exec(`
		UPDATE products p SET
			rating_average = agg.avg_rating,
			rating_count = agg.cnt,
			updated_at = now()
		FROM (
			SELECT COALESCE(ROUND(AVG(rating), 2), 0) AS avg_rating, COUNT(*) AS cnt
			FROM reviews WHERE product_id = $1
		) agg
		WHERE p.id = $1`, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product rating"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save review"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      reviewID,
		"message": "Review posted successfully",
	})
}

// GetProductReviews lists a product's reviews, newest first, with the
// reviewer's display name and avatar joined in.
func GetProductReviews(c *gin.Context) {
	productID, err := resolveProductSlug(c.Param("slug"))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		}
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM reviews WHERE product_id = $1`, productID).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reviews"})
		return
	}

	rows, err := DB.Query(`
		SELECT r.id, r.rating, r.title, r.body, r.created_at, u.full_name, u.avatar
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`, productID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}
	defer rows.Close()

	reviews := make([]gin.H, 0)
	for rows.Next() {
		var id uuid.UUID
		var rating int
		var title, body *string
		var createdAt interface{}
		var fullName string
		var avatar *string
		if err := rows.Scan(&id, &rating, &title, &body, &createdAt, &fullName, &avatar); err != nil {
			continue
		}
		reviews = append(reviews, gin.H{
			"id":         id,
			"rating":     rating,
			"title":      title,
			"body":       body,
			"created_at": createdAt,
			"author":     gin.H{"full_name": fullName, "avatar": avatar},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":    reviews,
		"pagination": paginationMeta(total, page, limit),
	})
}
