// Package cart хранит корзины покупательских сессий в памяти процесса.
package cart

import (
	"sync"

	"github.com/nikitagorshkov/farmmarket/internal/domain"
)

// Store раздаёт корзины по идентификатору сессии. Корзина создаётся лениво
// при первом обращении и живёт до явного удаления (после оформления заказа).
type Store struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

// NewStore создаёт пустое хранилище корзин.
func NewStore() *Store {
	return &Store{carts: make(map[string]*domain.Cart)}
}

// Get возвращает корзину сессии, создавая её при необходимости.
func (s *Store) Get(sessionID string) *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		c = domain.NewCart()
		s.carts[sessionID] = c
	}
	return c
}

// Delete удаляет корзину сессии. Для незнакомой сессии — no-op.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Len возвращает число активных сессий с корзинами.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
