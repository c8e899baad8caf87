package main

import (
	"log"
	"net/http"
	"os"

	webAdapter "inventory-reports/internal/adapters/web"
	"inventory-reports/internal/app"
	"inventory-reports/internal/core"
	"inventory-reports/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	manager := db.NewManager()
	defer manager.Close()

	customers := core.NewCustomerService(manager)
	products := core.NewProductService(manager)
	suppliers := core.NewSupplierService(manager)

	svc := app.NewAppService(manager, customers, products, suppliers)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
