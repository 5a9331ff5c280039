package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Cmetankaaa/shop-next/internal/adapter/storage"
	"github.com/Cmetankaaa/shop-next/internal/core/domain"
	"github.com/Cmetankaaa/shop-next/internal/core/service"
)

const (
	redisAddr       = "localhost:6379"
	productCount    = 5
	stepsPerProduct = 40
)

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	catalog := make(domain.Catalog, 0, productCount)
	for i := 1; i <= productCount; i++ {
		catalog = append(catalog, domain.CatalogEntry{
			ID:    int64(i),
			Title: fmt.Sprintf("product-%d", i),
			Price: decimal.NewFromInt(int64(i * 10)),
		})
	}

	sessionID := uuid.NewString()
	repo := storage.NewRedisAdapter(rdb, time.Minute)
	defer repo.Delete(ctx, sessionID)

	store := service.NewCartStore(sessionID, repo, catalog, nil, nil)
	store.Hydrate(ctx)

	// every product gets stepsPerProduct concurrent +1 clicks
	var wg sync.WaitGroup
	start := time.Now()
	for _, p := range catalog {
		for i := 0; i < stepsPerProduct; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				store.Step(ctx, id, 1)
			}(p.ID)
		}
	}
	wg.Wait()
	elapsed := time.Since(start)

	snap := store.Snapshot()
	expectedTotal := decimal.Zero
	for _, p := range catalog {
		expectedTotal = expectedTotal.Add(p.Price.Mul(decimal.NewFromInt(stepsPerProduct)))
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Products:         %d\n", productCount)
	fmt.Printf("Steps/Product:    %d\n", stepsPerProduct)
	fmt.Printf("Cart Lines:       %d\n", len(snap.Lines))
	fmt.Printf("Cart Total:       %s\n", snap.Total())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	failed := false
	if len(snap.Lines) != productCount {
		fmt.Printf("FAIL: Expected %d lines, got %d\n", productCount, len(snap.Lines))
		failed = true
	}
	for _, line := range snap.Lines {
		if line.Quantity != stepsPerProduct {
			fmt.Printf("FAIL: Product %d has quantity %d, expected %d\n", line.ID, line.Quantity, stepsPerProduct)
			failed = true
		}
	}
	if !snap.Total().Equal(expectedTotal) {
		fmt.Printf("FAIL: Expected total %s, got %s\n", expectedTotal, snap.Total())
		failed = true
	}

	// the persisted cart must match the in-memory one
	data, err := repo.Load(ctx, sessionID)
	if err != nil {
		log.Fatalf("failed to load persisted cart: %v", err)
	}
	persisted, err := service.DecodeCart(data)
	if err != nil {
		log.Fatalf("failed to decode persisted cart: %v", err)
	}
	persistedSnap := domain.CartSnapshot{Lines: persisted}
	if !persistedSnap.Total().Equal(snap.Total()) || len(persisted) != len(snap.Lines) {
		fmt.Printf("FAIL: Persisted cart diverged: %d lines, total %s\n", len(persisted), persistedSnap.Total())
		failed = true
	}

	if !failed {
		fmt.Printf("PASS: %d unique lines, total %s persisted\n", len(snap.Lines), snap.Total())
	}
}
