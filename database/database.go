package database

import (
	"database/sql"
	"fmt"
	"log"

	"velora-server/models"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

var Database *DB

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	Database = &DB{db}
	return Database, nil
}

// InitializeTables creates all tables if they don't exist
func (db *DB) InitializeTables() error {
	// Enable pgcrypto extension
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`); err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	// Define the order of table creation (respecting foreign key dependencies)
	tables := []interface{}{
		models.User{},
		models.Category{},
		models.Product{},
		models.ProductImage{},
		models.ProductCategory{},
		models.Order{},
		models.OrderItem{},
		models.TrackingEvent{},
		models.Cart{},
		models.CartItem{},
		models.WishlistItem{},
		models.Review{},
		models.Settings{},
	}

	for _, table := range tables {
		if tableModel, ok := table.(interface {
			TableName() string
			CreateTableSQL() string
		}); ok {
			tableName := tableModel.TableName()
			createSQL := tableModel.CreateTableSQL()

			log.Printf("Creating table: %s", tableName)
			if _, err := db.Exec(createSQL); err != nil {
				return fmt.Errorf("failed to create table %s: %w", tableName, err)
			}
		}
	}

	// Run schema migrations
	if err := db.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("All tables created successfully!")
	return nil
}

// runMigrations handles schema updates for existing tables
func (db *DB) runMigrations() error {
	migrations := []string{
		// Sequence behind order number generation; a row-count based
		// scheme collides under concurrent checkouts.
		`CREATE SEQUENCE IF NOT EXISTS order_number_seq;`,
		`CREATE SEQUENCE IF NOT EXISTS invoice_number_seq;`,

		// Older installs predate the tags and rating columns
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS tags TEXT[] DEFAULT '{}';`,
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS rating_average NUMERIC(3,2) NOT NULL DEFAULT 0;`,
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS rating_count INTEGER NOT NULL DEFAULT 0;`,
		`ALTER TABLE products ADD COLUMN IF NOT EXISTS allow_backorder BOOLEAN DEFAULT false;`,

		`ALTER TABLE categories ADD COLUMN IF NOT EXISTS display_order INTEGER DEFAULT 0;`,
		`ALTER TABLE categories ADD COLUMN IF NOT EXISTS image TEXT;`,

		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS tracking_number VARCHAR(100);`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS carrier VARCHAR(100);`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS invoice_number VARCHAR(50);`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS payment_status VARCHAR(20) NOT NULL DEFAULT 'pending';`,

		`ALTER TABLE users ADD COLUMN IF NOT EXISTS avatar TEXT;`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS phone TEXT;`,

		`CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id);`,

		// Generate avatars for existing users who don't have one
		`UPDATE users SET avatar = 'https://api.dicebear.com/7.x/avataaars/svg?seed=' || id
		 WHERE avatar IS NULL OR avatar = '';`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			log.Printf("Warning: Migration %d failed: %v", i+1, err)
			// Continue with other migrations even if one fails
		}
	}

	log.Println("Migrations completed!")
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
