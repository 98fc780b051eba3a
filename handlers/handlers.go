package handlers

import (
	"velora-server/database"

	"github.com/lib/pq"
)

// DB is the shared database handle used by all handlers.
var DB *database.DB

// InitializeHandlers sets up the database connection for handlers
func InitializeHandlers(db *database.DB) {
	DB = db
}

// isUniqueViolation reports whether the error is a Postgres duplicate
// key error (code 23505), so handlers can answer 400 with a specific
// message instead of a generic 500.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
