package memory_test

import (
	"errors"
	"testing"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
	"github.com/nikitagorshkov/farmmarket/internal/storage/memory"
)

func seedCatalog(t *testing.T) domain.ProductRepository {
	t.Helper()

	repo := memory.NewProductRepository()
	promo := int64(80)
	products := []domain.Product{
		{ID: "p-1", Name: "Tomato", Category: "vegetables", BasePriceMinor: 100},
		{ID: "p-2", Name: "Mango", Category: "fruits", BasePriceMinor: 150,
			PromotionType: domain.PromotionFlashsale, PromotionPriceMinor: &promo},
		{ID: "p-3", Name: "Potato", Category: "vegetables", BasePriceMinor: 50},
	}
	for _, p := range products {
		if err := repo.Create(p); err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
	}
	return repo
}

func TestProductRepositoryGet(t *testing.T) {
	repo := seedCatalog(t)

	product, err := repo.Get("p-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if product.Name != "Mango" || product.PromotionPriceMinor == nil {
		t.Fatalf("unexpected product: %+v", product)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductRepositoryListKeepsCatalogOrder(t *testing.T) {
	repo := seedCatalog(t)

	products, err := repo.List(domain.ProductFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	for i, want := range []string{"p-1", "p-2", "p-3"} {
		if products[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, products[i].ID, want)
		}
	}
}

func TestProductRepositoryListFilters(t *testing.T) {
	repo := seedCatalog(t)

	vegetables, err := repo.List(domain.ProductFilter{Category: "vegetables"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(vegetables) != 2 {
		t.Fatalf("expected 2 vegetables, got %d", len(vegetables))
	}

	flash, err := repo.List(domain.ProductFilter{Promotion: domain.PromotionFlashsale})
	if err != nil {
		t.Fatalf("list by promotion: %v", err)
	}
	if len(flash) != 1 || flash[0].ID != "p-2" {
		t.Fatalf("unexpected flashsale surface: %+v", flash)
	}

	limited, err := repo.List(domain.ProductFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit=1 must cap results, got %d", len(limited))
	}
}

func TestProductRepositoryIsolatesStoredRecords(t *testing.T) {
	repo := seedCatalog(t)

	product, err := repo.Get("p-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Мутация копии не должна добираться до хранилища.
	*product.PromotionPriceMinor = 1

	fresh, err := repo.Get("p-2")
	if err != nil {
		t.Fatalf("get fresh: %v", err)
	}
	if *fresh.PromotionPriceMinor != 80 {
		t.Fatalf("stored promotion price mutated: %d", *fresh.PromotionPriceMinor)
	}
}
