package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"velora-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// checkoutLine is one cart line locked and validated inside the
// checkout transaction.
type checkoutLine struct {
	ProductID uuid.UUID
	Name      string
	SKU       string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Checkout places a cash-on-delivery order from the user's cart. Stock
// rows are locked so two concurrent checkouts cannot both take the
// last unit, and all writes share one transaction.
func Checkout(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Customer struct {
			FullName string `json:"full_name" binding:"required,min=2"`
			Email    string `json:"email" binding:"required,email"`
			Phone    string `json:"phone" binding:"required"`
			Address  struct {
				Line1      string `json:"line1" binding:"required"`
				Line2      string `json:"line2"`
				City       string `json:"city" binding:"required"`
				PostalCode string `json:"postal_code"`
				Country    string `json:"country" binding:"required"`
			} `json:"address" binding:"required"`
		} `json:"customer" binding:"required"`
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := loadSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store settings"})
		return
	}

	tx, err := DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start checkout"})
		return
	}
	defer tx.Rollback()

	lines, err := lockCartLines(tx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	// Decrement tracked stock while the rows are still locked. A line
	// whose stock ran out since it was carted fails the whole checkout.
	for _, line := range lines {
		result, err := tx.Exec(`
			UPDATE products SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND (track_quantity = false OR allow_backorder = true OR quantity >= $2)`,
			line.ProductID, line.Quantity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reserve stock"})
			return
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough stock for " + line.Name})
			return
		}
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := decimal.NewFromFloat(settings.ShippingFlatRate)
	freeAbove := decimal.NewFromFloat(settings.FreeShippingAbove)
	if freeAbove.IsPositive() && subtotal.GreaterThanOrEqual(freeAbove) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(decimal.NewFromFloat(settings.TaxRate)).Round(2)
	total := subtotal.Add(shipping).Add(tax)

	orderNumber, err := nextOrderNumber(tx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to allocate order number"})
		return
	}

	customer := models.CustomerInfo{
		FullName: req.Customer.FullName,
		Email:    strings.ToLower(req.Customer.Email),
		Phone:    req.Customer.Phone,
	}
	customer.Address.Line1 = req.Customer.Address.Line1
	customer.Address.Line2 = req.Customer.Address.Line2
	customer.Address.City = req.Customer.Address.City
	customer.Address.PostalCode = req.Customer.Address.PostalCode
	customer.Address.Country = req.Customer.Address.Country
	customerJSON, err := json.Marshal(customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode customer"})
		return
	}

	orderID := uuid.New()
	_, err = tx.Exec(`
		INSERT INTO orders (id, order_number, user_id, status, payment_status, payment_method,
		                    customer, subtotal, shipping_fee, tax_amount, total_amount, currency)
		VALUES ($1, $2, $3, $4, $5, 'cod', $6, $7, $8, $9, $10, $11)`,
		orderID, orderNumber, userID, models.OrderPending, models.PaymentPending,
		customerJSON, subtotal, shipping, tax, total, settings.Currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	for _, line := range lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		_, err = tx.Exec(`
			INSERT INTO order_items (id, order_id, product_id, product_name, sku, unit_price, quantity, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), orderID, line.ProductID, line.Name, line.SKU, line.UnitPrice, line.Quantity, lineTotal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record order items"})
			return
		}
	}

	description := "Order placed, awaiting confirmation"
	if req.Notes != "" {
		description += ". Customer note: " + req.Notes
	}
	_, err = tx.Exec(`
		INSERT INTO order_tracking_events (id, order_id, status, description)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), orderID, models.OrderPending, description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record order event"})
		return
	}

	_, err = tx.Exec(`
		DELETE FROM cart_items ci USING carts ct
		WHERE ci.cart_id = ct.id AND ct.user_id = $1`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete checkout"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": gin.H{
			"id":           orderID,
			"order_number": orderNumber,
			"status":       models.OrderPending,
			"subtotal":     subtotal,
			"shipping_fee": shipping,
			"tax_amount":   tax,
			"total_amount": total,
			"currency":     settings.Currency,
		},
		"message": "Order placed successfully. Payment is due on delivery.",
	})
}

// lockCartLines reads the cart with the product rows locked FOR
// UPDATE, so stock checks and decrements see a stable quantity.
func lockCartLines(tx *sql.Tx, userID string) ([]checkoutLine, error) {
	rows, err := tx.Query(`
		SELECT p.id, p.name, p.sku, p.price, ci.quantity
		FROM cart_items ci
		JOIN carts ct ON ct.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE ct.user_id = $1 AND p.status = 'active'
		ORDER BY p.id
		FOR UPDATE OF p`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var line checkoutLine
		var price float64
		if err := rows.Scan(&line.ProductID, &line.Name, &line.SKU, &price, &line.Quantity); err != nil {
			return nil, err
		}
		line.UnitPrice = decimal.NewFromFloat(price)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

const orderColumns = `id, order_number, user_id, status, payment_status, payment_method, customer,
	subtotal, shipping_fee, tax_amount, discount_amount, total_amount, currency,
	tracking_number, carrier, invoice_number, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (models.Order, error) {
	var o models.Order
	var customerJSON []byte
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &customerJSON,
		&o.Subtotal, &o.ShippingFee, &o.TaxAmount, &o.DiscountAmount, &o.TotalAmount, &o.Currency,
		&o.TrackingNumber, &o.Carrier, &o.InvoiceNumber, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	json.Unmarshal(customerJSON, &o.Customer)
	return o, nil
}

func fetchOrderItems(orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := DB.Query(`
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.sku,
		       oi.unit_price, oi.quantity, oi.total_price, oi.created_at,
		       COALESCE((SELECT url FROM product_images i WHERE i.product_id = oi.product_id ORDER BY i.is_primary DESC, i.position LIMIT 1), '')
		FROM order_items oi
		WHERE oi.order_id = $1
		ORDER BY oi.created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.OrderItem, 0)
	for rows.Next() {
		var item models.OrderItem
		var productID sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName, &item.SKU,
			&item.UnitPrice, &item.Quantity, &item.TotalPrice, &item.CreatedAt, &item.ImageURL); err != nil {
			continue
		}
		if productID.Valid {
			if id, err := uuid.Parse(productID.String); err == nil {
				item.ProductID = &id
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func fetchTrackingEvents(orderID uuid.UUID) ([]models.TrackingEvent, error) {
	rows, err := DB.Query(`
		SELECT id, order_id, status, location, description, created_at
		FROM order_tracking_events
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.TrackingEvent, 0)
	for rows.Next() {
		var ev models.TrackingEvent
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.Status, &ev.Location, &ev.Description, &ev.CreatedAt); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetUserOrders lists the authenticated user's orders, newest first.
func GetUserOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
		return
	}

	rows, err := DB.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, o)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":     orders,
		"pagination": paginationMeta(total, page, limit),
	})
}

// GetOrder returns one of the user's orders with items and tracking
// history. Another user's order answers 404, not 403, so order IDs
// are not probeable.
func GetOrder(c *gin.Context) {
	userID := c.GetString("user_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	row := DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}

	if order.Items, err = fetchOrderItems(order.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}
	if order.TrackingEvents, err = fetchTrackingEvents(order.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tracking events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder lets the customer cancel their own order while it is
// still early in fulfillment. The compare-and-swap WHERE clause makes
// a race against a concurrent admin action lose cleanly.
func CancelOrder(c *gin.Context) {
	userID := c.GetString("user_id")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	applyOrderAction(c, models.ActionCancel, `id = $1 AND user_id = $2`, orderID, userID)
}

// TrackOrder is the public tracking endpoint: order number plus the
// checkout email, so guests with a confirmation email can track
// without an account.
func TrackOrder(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Query("order_number"))
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if orderNumber == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_number and email are required"})
		return
	}

	row := DB.QueryRow(`SELECT `+orderColumns+` FROM orders
		WHERE order_number = $1 AND lower(customer->>'email') = $2`, orderNumber, email)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}

	events, err := fetchTrackingEvents(order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tracking events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_number":    order.OrderNumber,
		"status":          order.Status,
		"tracking_number": order.TrackingNumber,
		"carrier":         order.Carrier,
		"placed_at":       order.CreatedAt,
		"events":          events,
	})
}
