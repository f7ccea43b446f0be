//go:build ignore

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ShafHaider007/expo-portal/config"
	"github.com/ShafHaider007/expo-portal/database"
	"github.com/ShafHaider007/expo-portal/upstream"
)

func main() {
	fmt.Printf("🏥 Expo Portal Health Check - %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Println(strings.Repeat("=", 50))

	cfg := config.LoadConfig()
	healthScore := 0
	totalTests := 3

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Test 1: Expo backend reachability
	fmt.Print("📡 Expo Backend: ")
	client := upstream.NewClient(cfg.ExpoAPIBaseURL, cfg.GetUpstreamTimeout())
	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Printf("✅ OK (%v)\n", time.Since(start).Round(time.Millisecond))
		healthScore++
	}

	// Test 2: Database connectivity
	fmt.Print("🗄️  Database: ")
	if cfg.DatabaseURL == "" {
		fmt.Println("⚠️  SKIPPED (memory-only mode)")
	} else if err := database.Connect(cfg.DatabaseURL); err != nil {
		fmt.Printf("❌ FAILED (%v)\n", err)
	} else {
		fmt.Println("✅ OK")
		healthScore++

		// Test 3: Schema present
		fmt.Print("📊 Schema: ")
		var count int
		err := database.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM information_schema.tables
			 WHERE table_name IN ('plot_cache', 'portal_audit_log')`).Scan(&count)
		if err != nil || count < 2 {
			fmt.Printf("❌ FAILED (found %d/2 tables, err=%v)\n", count, err)
		} else {
			fmt.Println("✅ OK")
			healthScore++
		}
		database.Close()
	}
	if cfg.DatabaseURL == "" {
		totalTests -= 2
	}

	// Overall health
	fmt.Println(strings.Repeat("-", 50))
	healthPercent := float64(healthScore) / float64(totalTests) * 100

	if healthScore == totalTests {
		fmt.Printf("🎉 SYSTEM HEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else if healthScore >= totalTests/2 {
		fmt.Printf("⚠️  SYSTEM DEGRADED: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	} else {
		fmt.Printf("❌ SYSTEM UNHEALTHY: %d/%d tests passed (%.0f%%)\n", healthScore, totalTests, healthPercent)
	}

	fmt.Printf("⏰ Check completed at: %s\n", time.Now().Format("15:04:05"))
}
