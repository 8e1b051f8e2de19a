package main

import (
	"context"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close(ctx)

	adminID := seedUsers(ctx, conn)
	seedCategories(ctx, conn)
	seedProducts(ctx, conn, adminID)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, conn *pgx.Conn) string {
	users := []struct {
		name     string
		email    string
		password string
		admin    bool
	}{
		{"Admin User", "admin@example.com", "admin123", true},
		{"John Doe", "john@example.com", "john123", false},
		{"Jane Doe", "jane@example.com", "jane123", false},
	}

	var adminID string
	for _, u := range users {
		hash, err := argon2id.CreateHash(u.password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.email, err)
		}
		var id string
		err = conn.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, is_admin)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			u.name, u.email, hash, u.admin).Scan(&id)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.email, err)
		}
		if u.admin && adminID == "" {
			adminID = id
		}
		log.Printf("Seeded user %s", u.email)
	}
	return adminID
}

func seedCategories(ctx context.Context, conn *pgx.Conn) {
	for _, name := range []string{"Electronics", "Accessories", "Home"} {
		if _, err := conn.Exec(ctx, `
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING`, name); err != nil {
			log.Fatalf("Failed to seed category %s: %v", name, err)
		}
		log.Printf("Seeded category %s", name)
	}
}

func seedProducts(ctx context.Context, conn *pgx.Conn, adminID string) {
	products := []struct {
		name        string
		image       string
		brand       string
		category    string
		description string
		price       float64
		stock       int
	}{
		{"Airpods Wireless Bluetooth Headphones", "/images/airpods.jpg", "Apple", "Electronics",
			"Bluetooth technology lets you connect it with compatible devices wirelessly.", 89.99, 10},
		{"iPhone 13 Pro 256GB Memory", "/images/phone.jpg", "Apple", "Electronics",
			"Introducing the iPhone 13 Pro. A transformative triple-camera system.", 599.99, 7},
		{"Cannon EOS 80D DSLR Camera", "/images/camera.jpg", "Cannon", "Electronics",
			"Characterized by versatile imaging specs and a pair of robust focusing systems.", 929.99, 5},
		{"Sony Playstation 5", "/images/playstation.jpg", "Sony", "Electronics",
			"The ultimate home entertainment center starts with PlayStation.", 399.99, 11},
		{"Logitech G-Series Gaming Mouse", "/images/mouse.jpg", "Logitech", "Accessories",
			"Get a better handle on your games with this Logitech LIGHTSYNC gaming mouse.", 49.99, 7},
		{"Amazon Echo Dot 3rd Generation", "/images/alexa.jpg", "Amazon", "Home",
			"Meet Echo Dot, our most popular smart speaker with a fabric design.", 29.99, 0},
	}

	for _, p := range products {
		if _, err := conn.Exec(ctx, `
			INSERT INTO products (user_id, name, image, brand, category, description, price, count_in_stock)
			SELECT $1, $2, $3, $4, $5, $6, $7, $8
			WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $2)`,
			adminID, p.name, p.image, p.brand, p.category, p.description, p.price, p.stock); err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.name, err)
		}
		log.Printf("Seeded product %s", p.name)
	}
}
