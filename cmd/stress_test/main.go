package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-console/internal/adapter/rest"
	"github.com/rl1809/inventory-console/internal/adapter/session"
	"github.com/rl1809/inventory-console/internal/config"
	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/core/service"
	"github.com/rl1809/inventory-console/internal/logger"
)

// Fires concurrent -1 adjustments at one product through separate consoles
// and reports where the stock ends up. Each console plans from its own
// snapshot, so the final stock shows how many writes were overwritten.
func main() {
	var (
		itemID        = flag.String("item", "STRESS-001", "product id to create and hammer")
		initialStock  = flag.Int("stock", 100, "initial stock")
		totalRequests = flag.Int("requests", 50, "concurrent adjustments")
		password      = flag.String("password", "admin", "admin password")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Quiet()
	ctx := context.Background()

	// Log in once and share the token
	sess := session.New(nil)
	client := rest.NewClient(cfg.APIURL, sess, cfg.APITimeout())
	tokens, err := client.Login(ctx, cfg.AdminUsername, *password)
	if err != nil {
		log.Fatalf("failed to log in: %v", err)
	}
	if err := sess.Set(ctx, tokens); err != nil {
		log.Fatalf("failed to keep session: %v", err)
	}

	// Reset the product
	_ = client.DeleteProduct(ctx, *itemID)
	if _, err := client.CreateProduct(ctx, domain.Product{
		ID: *itemID, Name: "Stress item", Category: "Test", Supplier: "Stress",
		CurrentStock: *initialStock, MinStock: 10, MaxStock: *initialStock, UnitCost: decimal.NewFromInt(1),
	}); err != nil {
		log.Fatalf("failed to create product: %v", err)
	}

	// Every worker loads its own snapshot first
	consoles := make([]*service.InventoryService, *totalRequests)
	for i := range consoles {
		consoles[i] = service.NewInventoryService(client, nil)
		if err := consoles[i].Refresh(ctx); err != nil {
			log.Fatalf("failed to load snapshot: %v", err)
		}
	}

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func(inv *service.InventoryService) {
			defer wg.Done()

			if _, err := inv.AdjustStock(ctx, *itemID, -1); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(consoles[i])
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	final := service.NewInventoryService(client, nil)
	if err := final.Refresh(ctx); err != nil {
		log.Fatalf("failed to reload: %v", err)
	}
	p, _ := final.Projector().Get(*itemID)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Final Stock:      %d (%s)\n", p.CurrentStock, p.Status)
	fmt.Printf("Lost Updates:     %d\n", p.CurrentStock-(*initialStock-int(successCount.Load())))
	fmt.Println("==========================================")
}
