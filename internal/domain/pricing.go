package domain

// PriceResolution — производные ценовые поля товара. Никогда не сохраняется,
// вычисляется заново на каждой витрине из одних и тех же правил.
type PriceResolution struct {
	// OriginalMinor — цена до скидки.
	OriginalMinor int64
	// EffectiveMinor — цена, по которой товар реально продаётся.
	EffectiveMinor int64
	// DiscountPercent — округлённый процент скидки; 0, если промо не действует.
	DiscountPercent int
}

// ResolvePrice вычисляет действующую цену и скидку товара.
// Функция тотальная: отсутствие промо-цены означает «без скидки», ошибок нет.
// Промо-цена, не меньшая базовой, игнорируется, чтобы ни одна витрина
// не показывала нулевую или отрицательную скидку.
func ResolvePrice(p Product) PriceResolution {
	original := p.BasePriceMinor
	effective := original

	if p.PromotionType != PromotionNone &&
		p.PromotionPriceMinor != nil &&
		*p.PromotionPriceMinor >= 0 &&
		*p.PromotionPriceMinor < original {
		effective = *p.PromotionPriceMinor
	}

	discount := 0
	if original > 0 && effective < original {
		// Целочисленное округление до ближайшего процента.
		discount = int(((original-effective)*100 + original/2) / original)
	}

	return PriceResolution{
		OriginalMinor:   original,
		EffectiveMinor:  effective,
		DiscountPercent: discount,
	}
}
