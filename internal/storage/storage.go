package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/knapsack-packer/internal/knapsack"
)

// DefaultMaxItems bounds the catalog size when no explicit limit is given.
const DefaultMaxItems = 256

var (
	// ErrInvalidItems indicates the provided items violate validation rules.
	ErrInvalidItems = errors.New("items must have non-negative weights and values")
)

var (
	defaultWeights = []int{2, 3, 4, 5}
	defaultValues  = []int{3, 4, 5, 6}
)

// Storage provides access to the item catalog solved by the service.
type Storage interface {
	GetItems() ([]knapsack.Item, error)
	SetItems(items []knapsack.Item) error
}

// MemoryStorage keeps the catalog in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	items    []knapsack.Item
	maxItems int
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithMaxItems overrides the maximum catalog size. Non-positive values keep the default.
func WithMaxItems(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxItems = n
		}
	}
}

// NewMemoryStorage initialises storage with a copy of the default catalog.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		items:    DefaultItems(),
		maxItems: DefaultMaxItems,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultItems returns a copy of the default catalog.
func DefaultItems() []knapsack.Item {
	return knapsack.Join(defaultWeights, defaultValues)
}

// GetItems returns a defensive copy of the current catalog.
func (s *MemoryStorage) GetItems() ([]knapsack.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneItems(s.items), nil
}

// SetItems validates, re-indexes, and stores the provided items.
func (s *MemoryStorage) SetItems(items []knapsack.Item) error {
	normalized, err := normalizeItems(items, s.maxItems)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = normalized
	s.mu.Unlock()

	return nil
}

func cloneItems(src []knapsack.Item) []knapsack.Item {
	out := make([]knapsack.Item, len(src))
	copy(out, src)
	return out
}

func normalizeItems(items []knapsack.Item, maxItems int) ([]knapsack.Item, error) {
	if len(items) > maxItems {
		return nil, fmt.Errorf("%w: at most %d items allowed, got %d", ErrInvalidItems, maxItems, len(items))
	}

	out := make([]knapsack.Item, len(items))
	for i, item := range items {
		if item.Weight < 0 || item.Value < 0 {
			return nil, fmt.Errorf("%w: item %d has weight %d and value %d", ErrInvalidItems, i, item.Weight, item.Value)
		}
		out[i] = knapsack.Item{Index: i, Weight: item.Weight, Value: item.Value}
	}
	return out, nil
}
