package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"storefront/internal/adapter/handler"
	"storefront/internal/adapter/notifier"
	"storefront/internal/adapter/storage"
	"storefront/internal/config"
	"storefront/internal/core/service"
	"storefront/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	store := storage.NewMySQLAdapter(db)

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	if cfg.SeedDemoData {
		if err := store.SeedDemoData(ctx); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
	}

	// Redis stock gate, optional
	var stockGate port.StockCache
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		log.Println("connected to redis")

		gate := storage.NewRedisAdapter(rdb)
		if err := seedStockGate(ctx, store, gate); err != nil {
			log.Fatalf("failed to seed stock gate: %v", err)
		}
		stockGate = gate
	}

	// Notifier
	var sender notifier.Sender = notifier.LogSender{}
	if cfg.SMTPAddr != "" {
		sender = &notifier.SMTPSender{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	}
	emailNotifier := notifier.NewEmailNotifier(sender)

	// Services
	catalogService := service.NewCatalogService(store)
	checkoutService := service.NewCheckoutService(store, store, stockGate, emailNotifier)

	// HTTP server
	h := handler.NewHTTPHandler(catalogService, checkoutService)
	router := handler.NewRouter(h, store)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Println("connections closed")
}

// seedStockGate loads current stock for every active product into the
// cache so the gate starts aligned with the database.
func seedStockGate(ctx context.Context, store *storage.MySQLAdapter, gate *storage.RedisAdapter) error {
	products, err := store.ListActive(ctx, "")
	if err != nil {
		return err
	}

	for _, p := range products {
		if err := gate.SetStock(ctx, p.ID, p.Stock); err != nil {
			return err
		}
	}

	log.Printf("seeded stock gate with %d products", len(products))
	return nil
}
