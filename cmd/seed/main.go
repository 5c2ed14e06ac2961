// Команда seed наполняет каталог демонстрационными товарами фермерского
// маркетплейса. Повторный запуск на заполненной базе завершится ошибкой
// уникальности — это осознанно: сидер рассчитан на чистую схему.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

func minorPtr(v int64) *int64 { return &v }

func demoCatalog() []domain.Product {
	return []domain.Product{
		{
			Name: "Cherry Tomatoes", Category: "vegetables",
			BasePriceMinor: 34900, PromotionType: domain.PromotionFlashsale,
			PromotionPriceMinor: minorPtr(27900), Stock: 120,
		},
		{
			Name: "Heirloom Tomatoes", Category: "vegetables",
			BasePriceMinor: 42900, Stock: 80,
		},
		{
			Name: "Alphonso Mango", Category: "fruits",
			BasePriceMinor: 89900, PromotionType: domain.PromotionSponsored,
			PromotionPriceMinor: minorPtr(74900), Stock: 45,
		},
		{
			Name: "Black Mission Figs", Category: "fruits",
			BasePriceMinor: 64900, Stock: 30,
		},
		{
			Name: "Raw Wildflower Honey", Category: "pantry",
			BasePriceMinor: 124900, PromotionType: domain.PromotionWholesale,
			PromotionPriceMinor: minorPtr(99900), Stock: 60,
		},
		{
			Name: "Farm Eggs (dozen)", Category: "dairy",
			BasePriceMinor: 54900, PromotionType: domain.PromotionSupermarket,
			PromotionPriceMinor: minorPtr(49900), Stock: 200,
		},
		{
			Name: "Goat Cheese", Category: "dairy",
			BasePriceMinor: 79900, Stock: 25,
		},
	}
}

func main() {
	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: FARMMARKET_POSTGRES_DSN)")
	flag.Parse()

	_ = godotenv.Load()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("FARMMARKET_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("FARMMARKET_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fail("apply migrations: %v", err)
	}

	repo := postgres.NewProductRepository(store)
	now := time.Now().UTC()

	seeded := 0
	for _, p := range demoCatalog() {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		if err := repo.Create(p); err != nil {
			fail("seed product %q: %v", p.Name, err)
		}
		seeded++
	}

	fmt.Printf("seeded %d products\n", seeded)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
