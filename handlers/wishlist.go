package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetWishlist returns the user's saved products, most recent first.
func GetWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	rows, err := DB.Query(`
		SELECT w.id, p.id, p.name, p.slug, p.price, p.compare_price,
		       p.quantity, p.track_quantity, p.allow_backorder, w.created_at,
		       (SELECT url FROM product_images i WHERE i.product_id = p.id ORDER BY i.is_primary DESC, i.position LIMIT 1)
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1 AND p.status = 'active'
		ORDER BY w.created_at DESC`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wishlist"})
		return
	}
	defer rows.Close()

	items := make([]gin.H, 0)
	for rows.Next() {
		var itemID, productID uuid.UUID
		var name, slug string
		var price float64
		var comparePrice *float64
		var stockQty int
		var trackQty, allowBackorder bool
		var addedAt interface{}
		var image *string
		if err := rows.Scan(&itemID, &productID, &name, &slug, &price, &comparePrice,
			&stockQty, &trackQty, &allowBackorder, &addedAt, &image); err != nil {
			continue
		}
		items = append(items, gin.H{
			"item_id":       itemID,
			"product_id":    productID,
			"name":          name,
			"slug":          slug,
			"price":         price,
			"compare_price": comparePrice,
			"stock_status":  stockLabel(stockQty, trackQty, allowBackorder),
			"image":         image,
			"added_at":      addedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": items})
}

// AddToWishlist saves a product. Adding the same product twice is a
// no-op, not an error.
func AddToWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var exists bool
	if err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND status = 'active')`, productID).Scan(&exists); err != nil || !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	_, err = DB.Exec(`
		INSERT INTO wishlist_items (id, user_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		uuid.New(), userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to wishlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product saved to wishlist"})
}

// RemoveFromWishlist removes a product from the user's wishlist.
func RemoveFromWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	result, err := DB.Exec(
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove from wishlist"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not in wishlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product removed from wishlist"})
}
