package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"velora-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// actionOptions carries the optional inputs an action may use.
type actionOptions struct {
	Carrier  string
	Location *string
	Note     string
}

var actionDescriptions = map[string]string{
	models.ActionConfirm:          "Order confirmed",
	models.ActionStartFulfillment: "Order is being prepared for shipment",
	models.ActionGenerateLabel:    "Shipping label generated, package handed to carrier",
	models.ActionMarkDelivered:    "Package delivered, cash payment collected",
	models.ActionCancel:           "Order cancelled",
	models.ActionRefund:           "Order refunded",
}

func generateTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TRK-" + strings.ToUpper(raw[:12])
}

// runOrderAction applies one fulfillment action inside a transaction.
// The order row is locked and the final UPDATE re-checks the source
// status, so a racing action on the same order matches zero rows and
// reports a conflict instead of silently overwriting.
func runOrderAction(action string, opts actionOptions, where string, args ...interface{}) (gin.H, int, string) {
	tx, err := DB.Begin()
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to start transaction"
	}
	defer tx.Rollback()

	var orderID uuid.UUID
	var orderNumber, status, paymentStatus string
	var trackingNumber, invoiceNumber *string
	row := tx.QueryRow(
		`SELECT id, order_number, status, payment_status, tracking_number, invoice_number
		 FROM orders WHERE `+where+` FOR UPDATE`, args...)
	if err := row.Scan(&orderID, &orderNumber, &status, &paymentStatus, &trackingNumber, &invoiceNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, http.StatusNotFound, "Order not found"
		}
		return nil, http.StatusInternalServerError, "Failed to load order"
	}

	next, err := models.NextStatus(status, action)
	if err != nil {
		return nil, http.StatusConflict, err.Error()
	}

	var newTracking, newCarrier, newInvoice *string
	switch action {
	case models.ActionConfirm:
		paymentStatus = models.PaymentConfirmed
	case models.ActionStartFulfillment:
		if invoiceNumber == nil {
			inv, err := nextInvoiceNumber(tx)
			if err != nil {
				return nil, http.StatusInternalServerError, "Failed to allocate invoice number"
			}
			newInvoice = &inv
		}
	case models.ActionGenerateLabel:
		if trackingNumber == nil {
			tn := generateTrackingNumber()
			newTracking = &tn
		}
		carrier := opts.Carrier
		if carrier == "" {
			carrier = "Velora Logistics"
		}
		newCarrier = &carrier
	case models.ActionMarkDelivered:
		paymentStatus = models.PaymentPaid
	case models.ActionCancel:
		if err := restockOrderItems(tx, orderID); err != nil {
			return nil, http.StatusInternalServerError, "Failed to restock cancelled order"
		}
	case models.ActionRefund:
		paymentStatus = models.PaymentRefunded
	}

	result, err := tx.Exec(`
		UPDATE orders SET
			status = $2,
			payment_status = $3,
			tracking_number = COALESCE($4, tracking_number),
			carrier = COALESCE($5, carrier),
			invoice_number = COALESCE($6, invoice_number),
			updated_at = now()
		WHERE id = $1 AND status = ANY($7)`,
		orderID, next, paymentStatus, newTracking, newCarrier, newInvoice,
		pq.Array(models.SourceStatuses(action)))
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to update order"
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, http.StatusConflict, "Order status changed concurrently, please retry"
	}

	description := actionDescriptions[action]
	if opts.Note != "" {
		description += ". " + opts.Note
	}
	_, err = tx.Exec(`
		INSERT INTO order_tracking_events (id, order_id, status, location, description)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), orderID, next, opts.Location, description)
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to record tracking event"
	}

	if err := tx.Commit(); err != nil {
		return nil, http.StatusInternalServerError, "Failed to commit order update"
	}

	payload := gin.H{
		"order_id":       orderID,
		"order_number":   orderNumber,
		"status":         next,
		"payment_status": paymentStatus,
	}
	if newTracking != nil {
		payload["tracking_number"] = *newTracking
	} else if trackingNumber != nil {
		payload["tracking_number"] = *trackingNumber
	}
	if newInvoice != nil {
		payload["invoice_number"] = *newInvoice
	} else if invoiceNumber != nil {
		payload["invoice_number"] = *invoiceNumber
	}
	return payload, http.StatusOK, ""
}

// restockOrderItems returns cancelled quantities to tracked products.
// Items whose product was deleted since checkout are skipped.
func restockOrderItems(tx *sql.Tx, orderID uuid.UUID) error {
	_, err := tx.Exec(`
		UPDATE products p SET quantity = p.quantity + oi.quantity, updated_at = now()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id AND p.track_quantity = true`, orderID)
	return err
}

func applyOrderAction(c *gin.Context, action string, where string, args ...interface{}) {
	payload, status, errMsg := runOrderAction(action, actionOptions{}, where, args...)
	if errMsg != "" {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}
	c.JSON(status, payload)
}

// AdminGetOrders lists all orders for the back office with status
// filter and order number / customer search.
func AdminGetOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	conditions := []string{"true"}
	args := []interface{}{}

	if status := c.Query("status"); status != "" {
		args = append(args, status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		args = append(args, "%"+q+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions,
			"(order_number ILIKE $"+n+" OR customer->>'full_name' ILIKE $"+n+" OR customer->>'email' ILIKE $"+n+")")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
		return
	}

	listArgs := append(args, limit, (page-1)*limit)
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := DB.Query(query, listArgs...)
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

// AdminGetOrder returns any order with full details (admin only).
func AdminGetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	row := DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
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

	c.JSON(http.StatusOK, gin.H{
		"order":   order,
		"actions": legalActions(order.Status),
	})
}

// legalActions lists the actions currently applicable to a status, so
// the back office can render only the buttons that will succeed.
func legalActions(status string) []string {
	actions := make([]string, 0)
	for _, action := range []string{
		models.ActionConfirm, models.ActionStartFulfillment, models.ActionGenerateLabel,
		models.ActionMarkDelivered, models.ActionCancel, models.ActionRefund,
	} {
		if _, err := models.NextStatus(status, action); err == nil {
			actions = append(actions, action)
		}
	}
	return actions
}

// AdminOrderAction applies one fulfillment action to one order.
func AdminOrderAction(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req struct {
		Action   string  `json:"action" binding:"required"`
		Carrier  string  `json:"carrier"`
		Location *string `json:"location"`
		Note     string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.KnownAction(req.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action: " + req.Action})
		return
	}

	opts := actionOptions{Carrier: req.Carrier, Location: req.Location, Note: req.Note}
	payload, status, errMsg := runOrderAction(req.Action, opts, `id = $1`, orderID)
	if errMsg != "" {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}
	c.JSON(status, payload)
}

// AdminBulkOrderAction applies one action to many orders. Each order
// is its own transaction; failures are reported per order and do not
// roll back the ones that succeeded.
func AdminBulkOrderAction(c *gin.Context) {
	var req struct {
		OrderIDs []string `json:"order_ids" binding:"required,min=1,max=100"`
		Action   string   `json:"action" binding:"required"`
		Carrier  string   `json:"carrier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.KnownAction(req.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action: " + req.Action})
		return
	}

	succeeded := make([]gin.H, 0, len(req.OrderIDs))
	failed := make([]gin.H, 0)

	for _, raw := range req.OrderIDs {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			failed = append(failed, gin.H{"order_id": raw, "error": "Invalid order ID"})
			continue
		}
		payload, _, errMsg := runOrderAction(req.Action, actionOptions{Carrier: req.Carrier}, `id = $1`, orderID)
		if errMsg != "" {
			failed = append(failed, gin.H{"order_id": raw, "error": errMsg})
			continue
		}
		succeeded = append(succeeded, payload)
	}

	c.JSON(http.StatusOK, gin.H{
		"succeeded":       succeeded,
		"failed":          failed,
		"succeeded_count": len(succeeded),
		"failed_count":    len(failed),
	})
}

// GetInvoice renders the invoice document for an order that has
// entered fulfillment. Orders without an invoice number answer 404.
func GetInvoice(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	row := DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}
	if order.InvoiceNumber == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not yet generated for this order"})
		return
	}

	items, err := fetchOrderItems(order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order items"})
		return
	}

	settings, err := loadSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice": gin.H{
			"invoice_number": *order.InvoiceNumber,
			"order_number":   order.OrderNumber,
			"issued_by":      settings.StoreName,
			"issued_at":      order.UpdatedAt,
			"customer":       order.Customer,
			"items":          items,
			"subtotal":       order.Subtotal,
			"shipping_fee":   order.ShippingFee,
			"tax_amount":     order.TaxAmount,
			"total_amount":   order.TotalAmount,
			"currency":       order.Currency,
			"payment_method": order.PaymentMethod,
			"payment_status": order.PaymentStatus,
		},
	})
}

// GetShippingLabel returns the label data for a shipped order.
func GetShippingLabel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	row := DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		}
		return
	}
	if order.TrackingNumber == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No shipping label for this order"})
		return
	}

	settings, err := loadSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load store settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"label": gin.H{
			"order_number":    order.OrderNumber,
			"tracking_number": *order.TrackingNumber,
			"carrier":         order.Carrier,
			"sender":          settings.StoreName,
			"recipient":       order.Customer,
			"cod_amount":      order.TotalAmount,
			"currency":        order.Currency,
		},
	})
}
