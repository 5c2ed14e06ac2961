package domain

// ShippingFeeMinor — фиксированная стоимость доставки в минимальных единицах.
// Для пустой корзины доставка не начисляется.
const ShippingFeeMinor int64 = 4900

// LineItem — одна позиция корзины: товар плюс количество.
// Цена фиксируется в момент добавления и дальше не пересчитывается,
// чтобы смена промо посреди сессии не меняла уже добавленные позиции.
type LineItem struct {
	ProductID      string
	Name           string
	UnitPriceMinor int64
	Quantity       int32
	ImageRef       string
}

// TotalMinor возвращает стоимость позиции.
func (li LineItem) TotalMinor() int64 {
	return li.UnitPriceMinor * int64(li.Quantity)
}

// CartTotals — итоги корзины, пересчитываемые на каждый запрос.
type CartTotals struct {
	SubtotalMinor    int64
	ShippingFeeMinor int64
	TotalMinor       int64
}

// Cart — набор позиций одной покупательской сессии. Объект явно передаётся
// в операции (никаких глобальных синглтонов), поэтому сессии и тесты
// изолированы друг от друга. Внутренней блокировки нет: по модели
// исполнения операции одной сессии не перекрываются.
type Cart struct {
	items []LineItem
}

// NewCart создаёт пустую корзину.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem добавляет товар в корзину. Если позиция уже есть, количество
// увеличивается; иначе создаётся новая позиция с действующей ценой из
// ResolvePrice. qty меньше единицы трактуется как 1.
func (c *Cart) AddItem(p Product, qty int32) {
	if qty < 1 {
		qty = 1
	}
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity += qty
			return
		}
	}

	price := ResolvePrice(p)
	c.items = append(c.items, LineItem{
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPriceMinor: price.EffectiveMinor,
		Quantity:       qty,
		ImageRef:       p.ImageRef,
	})
}

// IncreaseQuantity увеличивает количество позиции на единицу.
// Для неизвестного товара операция — no-op, чтобы дубликаты событий UI
// не превращались в ошибки.
func (c *Cart) IncreaseQuantity(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity++
			return
		}
	}
}

// DecreaseQuantity уменьшает количество позиции на единицу, но не ниже 1.
// Уменьшение единичной позиции — no-op: удаление только через RemoveItem.
func (c *Cart) DecreaseQuantity(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			if c.items[i].Quantity > 1 {
				c.items[i].Quantity--
			}
			return
		}
	}
}

// RemoveItem удаляет позицию независимо от количества.
// Повторный вызов для уже удалённого товара — no-op.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Items возвращает копию позиций в порядке добавления.
func (c *Cart) Items() []LineItem {
	result := make([]LineItem, len(c.items))
	copy(result, c.items)
	return result
}

// Len возвращает число позиций в корзине.
func (c *Cart) Len() int {
	return len(c.items)
}

// Totals пересчитывает итоги по текущим позициям. Кэширования нет:
// итоги всегда согласованы с содержимым корзины.
func (c *Cart) Totals() CartTotals {
	var subtotal int64
	for _, item := range c.items {
		subtotal += item.TotalMinor()
	}

	var shipping int64
	if len(c.items) > 0 {
		shipping = ShippingFeeMinor
	}

	return CartTotals{
		SubtotalMinor:    subtotal,
		ShippingFeeMinor: shipping,
		TotalMinor:       subtotal + shipping,
	}
}

// Clear опустошает корзину (после успешного оформления заказа).
func (c *Cart) Clear() {
	c.items = nil
}
