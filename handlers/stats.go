package handlers

import (
	"net/http"

	"velora-server/models"

	"github.com/gin-gonic/gin"
)

// GetAdminStats returns the back office dashboard counters: catalog
// and customer counts, order pipeline breakdown and revenue from
// delivered orders.
func GetAdminStats(c *gin.Context) {
	stats := gin.H{}

	counts := map[string]string{
		"total_products":   `SELECT COUNT(*) FROM products`,
		"active_products":  `SELECT COUNT(*) FROM products WHERE status = 'active'`,
		"total_categories": `SELECT COUNT(*) FROM categories`,
		"total_customers":  `SELECT COUNT(*) FROM users WHERE role = 'user'`,
		"total_orders":     `SELECT COUNT(*) FROM orders`,
		"total_reviews":    `SELECT COUNT(*) FROM reviews`,
	}
	for key, query := range counts {
		var n int
		if err := DB.QueryRow(query).Scan(&n); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		stats[key] = n
	}

	orderRows, err := DB.Query(`SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute order stats"})
		return
	}
	defer orderRows.Close()

	byStatus := gin.H{}
	for orderRows.Next() {
		var status string
		var n int
		if err := orderRows.Scan(&status, &n); err != nil {
			continue
		}
		byStatus[status] = n
	}
	stats["orders_by_status"] = byStatus

	var revenue, pendingRevenue float64
	err = DB.QueryRow(`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = $1`,
		models.OrderDelivered).Scan(&revenue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
		return
	}
	err = DB.QueryRow(`SELECT COALESCE(SUM(total_amount), 0) FROM orders
		WHERE status NOT IN ($1, $2, $3)`,
		models.OrderDelivered, models.OrderCancelled, models.OrderRefunded).Scan(&pendingRevenue)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
		return
	}
	stats["revenue_collected"] = revenue
	stats["revenue_pending"] = pendingRevenue

	var lowStock int
	err = DB.QueryRow(`SELECT COUNT(*) FROM products
		WHERE status = 'active' AND track_quantity = true AND quantity <= $1`,
		models.LowStockThreshold).Scan(&lowStock)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stock stats"})
		return
	}
	stats["low_stock_products"] = lowStock

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
