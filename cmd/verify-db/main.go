package main

import (
	"context"
	"log"
	"time"

	"inventory-reports/internal/db"

	"github.com/joho/godotenv"
)

// Tables probed by the verifier, in display order.
var tables = []string{
	"regions",
	"product_categories",
	"suppliers",
	"customers",
	"products",
	"invoices",
	"deliveries",
	"delivery_details",
	"purchases",
	"purchase_details",
	"stock_adjustments",
	"stock_matches",
	"draws",
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	manager := db.NewManager()
	defer manager.Close()

	ping, err := manager.Ping(ctx)
	if err != nil {
		log.Fatalf("[PING] %v", err)
	}
	log.Printf("[PING] ok database=%s now=%s", ping.Database, ping.Now)

	pool, err := manager.Get(ctx)
	if err != nil {
		log.Fatalf("[POOL] %v", err)
	}

	for _, table := range tables {
		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			log.Printf("[COUNT] %-20s error: %v", table, err)
			continue
		}
		log.Printf("[COUNT] %-20s %d", table, count)
	}
}
