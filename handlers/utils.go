package handlers

import (
	"database/sql"
	"fmt"
	"time"

	"velora-server/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT generates a signed token with 15 days expiration
func generateJWT(userID, email, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func parseJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// nextOrderNumber draws the order number from a database sequence
// inside the checkout transaction, so two concurrent checkouts can
// never collide the way a row-count based scheme would.
func nextOrderNumber(tx *sql.Tx) (string, error) {
	var seq int64
	if err := tx.QueryRow(`SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to advance order number sequence: %w", err)
	}
	return formatOrderNumber(time.Now(), seq), nil
}

func formatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("VLR-%d%02d%02d-%06d", t.Year(), t.Month(), t.Day(), seq)
}

// nextInvoiceNumber draws from its own sequence; invoices are only
// numbered once fulfillment starts.
func nextInvoiceNumber(tx *sql.Tx) (string, error) {
	var seq int64
	if err := tx.QueryRow(`SELECT nextval('invoice_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to advance invoice number sequence: %w", err)
	}
	return fmt.Sprintf("INV-%d-%06d", time.Now().Year(), seq), nil
}
