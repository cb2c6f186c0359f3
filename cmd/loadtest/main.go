package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/port"
)

func main() {
	backend := pflag.String("backend", "memory", "store backend: memory or redis")
	redisAddr := pflag.String("redis-addr", "localhost:6379", "redis address for the redis backend")
	buyers := pflag.Int("buyers", 50, "number of concurrent purchasers")
	capacity := pflag.Int("capacity", 20, "pass capacity")
	attempts := pflag.Int("attempts", 0, "purchase attempts per buyer (default buyers+1)")
	pflag.Parse()

	if *attempts <= 0 {
		*attempts = *buyers + 1
	}

	ctx := context.Background()

	var store port.Store
	switch *backend {
	case "memory":
		store = storage.NewMemoryAdapter()
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect redis: %v\n", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = storage.NewRedisAdapter(rdb)
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q\n", *backend)
		os.Exit(1)
	}

	tables := port.NewTables(store)
	profiles := storage.NewProfileDirectory(tables)
	gate := service.NewGate(profiles, zap.NewNop())
	passes := service.NewPassService(gate, tables, nil, nil, zap.NewNop(), service.PassConfig{
		PurchaseMaxAttempts: *attempts,
		PurchaseRetryDelay:  time.Millisecond,
	})

	creator, err := profiles.CreateProfile(ctx, domain.Profile{
		Role:          domain.RoleProvider,
		DisplayName:   "loadtest-creator",
		ProfileStatus: domain.ProfileStatusActive,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create creator: %v\n", err)
		os.Exit(1)
	}

	pass, err := passes.CreatePass(ctx, creator, service.CreatePassInput{
		EventName: "Load Test",
		EventDate: time.Now().Format("2006-01-02"),
		Price:     10,
		PassType:  "GA",
		Capacity:  *capacity,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pass: %v\n", err)
		os.Exit(1)
	}

	buyerIDs := make([]string, *buyers)
	for i := range buyerIDs {
		buyerIDs[i], err = profiles.CreateProfile(ctx, domain.Profile{
			Role:          domain.RoleCustomer,
			DisplayName:   fmt.Sprintf("buyer-%d", i),
			ProfileStatus: domain.ProfileStatusActive,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create buyer: %v\n", err)
			os.Exit(1)
		}
	}

	var successCount, capacityCount, conflictCount, otherCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for _, buyerID := range buyerIDs {
		wg.Add(1)
		go func(buyerID string) {
			defer wg.Done()

			_, err := passes.PurchasePass(ctx, buyerID, pass.ID, service.PurchaseInput{Quantity: 1})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrCapacityExceeded):
				capacityCount.Add(1)
			case errors.Is(err, domain.ErrConflict):
				conflictCount.Add(1)
			default:
				otherCount.Add(1)
			}
		}(buyerID)
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := tables.Passes.Get(ctx, pass.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read pass: %v\n", err)
		os.Exit(1)
	}

	success := int(successCount.Load())

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Backend:           %s\n", *backend)
	fmt.Printf("Capacity:          %d\n", *capacity)
	fmt.Printf("Buyers:            %d\n", *buyers)
	fmt.Printf("Successful:        %d\n", success)
	fmt.Printf("Capacity exceeded: %d\n", capacityCount.Load())
	fmt.Printf("Conflict:          %d\n", conflictCount.Load())
	fmt.Printf("Other errors:      %d\n", otherCount.Load())
	fmt.Printf("Final sold_count:  %d\n", final.SoldCount)
	fmt.Printf("Duration:          %v\n", elapsed)
	fmt.Println("========================================")

	expected := min(*capacity, *buyers)
	if final.SoldCount > *capacity || final.SoldCount != success {
		fmt.Printf("FAIL: sold_count %d, successes %d, capacity %d\n", final.SoldCount, success, *capacity)
		os.Exit(1)
	}
	if success != expected {
		fmt.Printf("WARN: expected %d successes, got %d\n", expected, success)
	}
	fmt.Println("PASS: sold_count never exceeded capacity")
}
