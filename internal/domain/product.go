package domain

import (
	"fmt"
	"strings"
	"time"
)

// PromotionType описывает мерчендайзинговую витрину, на которой выставлен товар.
// От типа промо зависит, учитывается ли PromotionPriceMinor при расчёте цены.
type PromotionType string

const (
	// PromotionNone — товар продаётся только по базовой цене.
	PromotionNone PromotionType = "none"
	// PromotionSponsored — спонсируемая позиция на главной странице.
	PromotionSponsored PromotionType = "sponsored"
	// PromotionWholesale — оптовая витрина.
	PromotionWholesale PromotionType = "wholesale"
	// PromotionFlashsale — временная распродажа.
	PromotionFlashsale PromotionType = "flashsale"
	// PromotionSupermarket — витрина «супермаркет» с повседневными товарами.
	PromotionSupermarket PromotionType = "supermarket"
)

// ParsePromotionType разбирает строковое значение промо-типа.
// Неизвестные значения отклоняются на границе, а не протаскиваются дальше.
// Пустая строка трактуется как отсутствие промо.
func ParsePromotionType(raw string) (PromotionType, error) {
	switch PromotionType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PromotionNone:
		return PromotionNone, nil
	case PromotionSponsored:
		return PromotionSponsored, nil
	case PromotionWholesale:
		return PromotionWholesale, nil
	case PromotionFlashsale:
		return PromotionFlashsale, nil
	case PromotionSupermarket:
		return PromotionSupermarket, nil
	default:
		return PromotionNone, fmt.Errorf("%w: %q", ErrUnknownPromotionType, raw)
	}
}

// Product — запись каталога. С точки зрения ядра запись неизменяемая:
// каталогом владеет внешний слой, ядро только читает.
type Product struct {
	ID       string
	Name     string
	Category string
	// BasePriceMinor — базовая цена в минимальных денежных единицах.
	BasePriceMinor int64
	PromotionType  PromotionType
	// PromotionPriceMinor — промо-цена; nil, если промо-цена не задана.
	PromotionPriceMinor *int64
	Stock               int32
	ImageRef            string
	CreatedAt           time.Time
}
