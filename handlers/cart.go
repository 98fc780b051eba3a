package handlers

import (
	"database/sql"
	"net/http"

	"velora-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getOrCreateCart returns the user's cart ID, creating the cart row
// on first use. The unique constraint on user_id makes the create
// race-safe.
func getOrCreateCart(userID string) (uuid.UUID, error) {
	var cartID uuid.UUID
	err := DB.QueryRow(`
		INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id`, uuid.New(), userID).Scan(&cartID)
	return cartID, err
}

type cartLine struct {
	ItemID      uuid.UUID `json:"item_id"`
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	StockStatus string    `json:"stock_status"`
	Image       *string   `json:"image"`
	LineTotal   float64   `json:"line_total"`
}

func fetchCartLines(cartID uuid.UUID) ([]cartLine, float64, error) {
	rows, err := DB.Query(`
		SELECT ci.id, p.id, p.name, p.slug, p.price, ci.quantity,
		       p.quantity, p.track_quantity, p.allow_backorder,
		       (SELECT url FROM product_images i WHERE i.product_id = p.id ORDER BY i.is_primary DESC, i.position LIMIT 1)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 AND p.status = 'active'
		ORDER BY ci.added_at`, cartID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	lines := make([]cartLine, 0)
	var subtotal float64
	for rows.Next() {
		var line cartLine
		var stockQty int
		var trackQty, allowBackorder bool
		if err := rows.Scan(
			&line.ItemID, &line.ProductID, &line.Name, &line.Slug, &line.Price, &line.Quantity,
			&stockQty, &trackQty, &allowBackorder, &line.Image,
		); err != nil {
			continue
		}
		line.StockStatus = stockLabel(stockQty, trackQty, allowBackorder)
		line.LineTotal = line.Price * float64(line.Quantity)
		subtotal += line.LineTotal
		lines = append(lines, line)
	}
	return lines, subtotal, rows.Err()
}

func stockLabel(qty int, trackQuantity, allowBackorder bool) string {
	p := models.Product{Quantity: qty, TrackQuantity: trackQuantity, AllowBackorder: allowBackorder}
	return p.StockStatus()
}

// GetCart returns the user's cart with live product data joined in.
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")

	cartID, err := getOrCreateCart(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	lines, subtotal, err := fetchCartLines(cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart_id":  cartID,
		"items":    lines,
		"subtotal": subtotal,
	})
}

// AddToCart adds a product or bumps its quantity if already present.
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"omitempty,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var stockQty int
	var trackQty, allowBackorder bool
	err = DB.QueryRow(
		`SELECT quantity, track_quantity, allow_backorder FROM products WHERE id = $1 AND status = 'active'`,
		productID).Scan(&stockQty, &trackQty, &allowBackorder)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check product"})
		return
	}
	if trackQty && !allowBackorder && stockQty < req.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock available"})
		return
	}

	cartID, err := getOrCreateCart(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cart"})
		return
	}

	_, err = DB.Exec(`
		INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.New(), cartID, productID, req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart"})
}

// UpdateCartItem sets the quantity of a line; zero removes it.
func UpdateCartItem(c *gin.Context) {
	userID := c.GetString("user_id")

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result sql.Result
	if req.Quantity == 0 {
		result, err = DB.Exec(`
			DELETE FROM cart_items ci USING carts ct
			WHERE ci.id = $1 AND ci.cart_id = ct.id AND ct.user_id = $2`, itemID, userID)
	} else {
		result, err = DB.Exec(`
			UPDATE cart_items ci SET quantity = $3
			FROM carts ct
			WHERE ci.id = $1 AND ci.cart_id = ct.id AND ct.user_id = $2`, itemID, userID, req.Quantity)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

// RemoveCartItem deletes a line from the user's cart.
func RemoveCartItem(c *gin.Context) {
	userID := c.GetString("user_id")

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart item ID"})
		return
	}

	result, err := DB.Exec(`
		DELETE FROM cart_items ci USING carts ct
		WHERE ci.id = $1 AND ci.cart_id = ct.id AND ct.user_id = $2`, itemID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart empties the user's cart.
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")

	_, err := DB.Exec(`
		DELETE FROM cart_items ci USING carts ct
		WHERE ci.cart_id = ct.id AND ct.user_id = $1`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
