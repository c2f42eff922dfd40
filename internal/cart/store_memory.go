package cart

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]models.Cart
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[primitive.ObjectID]models.Cart)}
}

func (s *MemoryStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	s.carts[cart.UserID] = cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
