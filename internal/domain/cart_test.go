package domain_test

import (
	"testing"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

func tomato() domain.Product {
	return domain.Product{
		ID:             "p-tomato",
		Name:           "Tomato",
		BasePriceMinor: 100,
	}
}

func flashsaleMango() domain.Product {
	promo := int64(150)
	return domain.Product{
		ID:                  "p-mango",
		Name:                "Mango",
		BasePriceMinor:      200,
		PromotionType:       domain.PromotionFlashsale,
		PromotionPriceMinor: &promo,
	}
}

// Инвариант итогов обязан выполняться после каждой операции.
func checkTotals(t *testing.T, cart *domain.Cart) {
	t.Helper()

	totals := cart.Totals()
	var subtotal int64
	for _, item := range cart.Items() {
		if item.Quantity < 1 {
			t.Fatalf("line item %s has qty %d", item.ProductID, item.Quantity)
		}
		subtotal += item.UnitPriceMinor * int64(item.Quantity)
	}
	if totals.SubtotalMinor != subtotal {
		t.Fatalf("subtotal = %d, want %d", totals.SubtotalMinor, subtotal)
	}
	if totals.TotalMinor != totals.SubtotalMinor+totals.ShippingFeeMinor {
		t.Fatalf("total = %d, want subtotal+shipping = %d",
			totals.TotalMinor, totals.SubtotalMinor+totals.ShippingFeeMinor)
	}
	if cart.Len() == 0 && totals.ShippingFeeMinor != 0 {
		t.Fatalf("empty cart must not be charged shipping")
	}
	if cart.Len() > 0 && totals.ShippingFeeMinor != domain.ShippingFeeMinor {
		t.Fatalf("shipping = %d, want %d", totals.ShippingFeeMinor, domain.ShippingFeeMinor)
	}
}

func TestCartAddItemMergesByProduct(t *testing.T) {
	cart := domain.NewCart()

	cart.AddItem(tomato(), 1)
	cart.AddItem(tomato(), 2)
	checkTotals(t, cart)

	items := cart.Items()
	if len(items) != 1 {
		t.Fatalf("expected single merged line item, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("qty = %d, want 3", items[0].Quantity)
	}
}

func TestCartAddItemSnapshotsEffectivePrice(t *testing.T) {
	cart := domain.NewCart()
	product := flashsaleMango()

	cart.AddItem(product, 1)

	// Промо меняется после добавления — позиция сохраняет цену на момент добавления.
	*product.PromotionPriceMinor = 10

	items := cart.Items()
	if items[0].UnitPriceMinor != 150 {
		t.Fatalf("unit price = %d, want snapshotted 150", items[0].UnitPriceMinor)
	}
	checkTotals(t, cart)
}

func TestCartAddItemNonPositiveQtyDefaultsToOne(t *testing.T) {
	cart := domain.NewCart()
	cart.AddItem(tomato(), 0)

	if items := cart.Items(); items[0].Quantity != 1 {
		t.Fatalf("qty = %d, want 1", items[0].Quantity)
	}
}

func TestCartDecreaseQuantityFloorsAtOne(t *testing.T) {
	cart := domain.NewCart()
	cart.AddItem(tomato(), 2)

	cart.DecreaseQuantity("p-tomato")
	cart.DecreaseQuantity("p-tomato")
	cart.DecreaseQuantity("p-tomato")
	checkTotals(t, cart)

	items := cart.Items()
	if len(items) != 1 {
		t.Fatalf("decrease must never remove the item, got %d items", len(items))
	}
	if items[0].Quantity != 1 {
		t.Fatalf("qty = %d, want floor 1", items[0].Quantity)
	}
}

func TestCartMutationsOnUnknownProductAreNoops(t *testing.T) {
	cart := domain.NewCart()
	cart.AddItem(tomato(), 1)

	cart.IncreaseQuantity("missing")
	cart.DecreaseQuantity("missing")
	cart.RemoveItem("missing")
	checkTotals(t, cart)

	if cart.Len() != 1 {
		t.Fatalf("unknown-product mutations must not touch the cart")
	}
}

func TestCartRemoveItemIsIdempotent(t *testing.T) {
	cart := domain.NewCart()
	cart.AddItem(tomato(), 5)
	cart.AddItem(flashsaleMango(), 1)

	cart.RemoveItem("p-tomato")
	first := cart.Items()
	cart.RemoveItem("p-tomato")
	second := cart.Items()

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("remove must delete exactly one line item and stay idempotent")
	}
	checkTotals(t, cart)
}

func TestCartTotalsSequence(t *testing.T) {
	cart := domain.NewCart()
	checkTotals(t, cart)

	cart.AddItem(tomato(), 2)
	checkTotals(t, cart)

	cart.AddItem(flashsaleMango(), 1)
	checkTotals(t, cart)

	cart.IncreaseQuantity("p-mango")
	checkTotals(t, cart)

	totals := cart.Totals()
	// 2×100 + 2×150 + доставка.
	want := int64(500) + domain.ShippingFeeMinor
	if totals.TotalMinor != want {
		t.Fatalf("total = %d, want %d", totals.TotalMinor, want)
	}

	cart.Clear()
	checkTotals(t, cart)
	if cart.Len() != 0 {
		t.Fatalf("clear must empty the cart")
	}
}
