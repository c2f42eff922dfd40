package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// MemoryStore is an in-memory Store used by tests and for running the
// service without MongoDB.
type MemoryStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[primitive.ObjectID]models.Product)}
}

func (s *MemoryStore) Insert(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *MemoryStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) Replace(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, q ListQuery) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Product
	for _, p := range s.products {
		if matchesQuery(&p, q) {
			matched = append(matched, p)
		}
	}

	sortProducts(matched, q.SortBy, q.SortAsc)

	total := int64(len(matched))
	start := q.offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesQuery(p *models.Product, q ListQuery) bool {
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if len(q.Brands) > 0 {
		found := false
		for _, b := range q.Brands {
			if p.Brand == b {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		haystack := strings.ToLower(p.Title + " " + p.Description + " " + p.Brand)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if q.Featured != nil && p.Featured != *q.Featured {
		return false
	}
	if q.Trending != nil && p.Trending != *q.Trending {
		return false
	}
	return true
}

func sortProducts(products []models.Product, field string, asc bool) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := &products[i], &products[j]
		if !asc {
			a, b = b, a
		}
		switch field {
		case "price":
			return a.Price < b.Price
		case "rating.average":
			return a.Rating.Average < b.Rating.Average
		case "title":
			return a.Title < b.Title
		case "sales":
			return a.Sales < b.Sales
		case "views":
			return a.Views < b.Views
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

func (s *MemoryStore) Facets(_ context.Context) (Facets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := map[string]bool{}
	brands := map[string]bool{}
	for _, p := range s.products {
		if p.Status != models.ProductActive {
			continue
		}
		if p.Category != "" {
			cats[p.Category] = true
		}
		if p.Brand != "" {
			brands[p.Brand] = true
		}
	}

	f := Facets{Categories: keys(cats), Brands: keys(brands)}
	sort.Strings(f.Categories)
	sort.Strings(f.Brands)
	return f, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func (s *MemoryStore) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.Views++
		s.products[id] = p
	}
	return nil
}
