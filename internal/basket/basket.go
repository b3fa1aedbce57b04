// Package basket holds the pre-checkout shopping basket as an explicit state
// container. Quantity is modeled as N distinct entries: adding the same
// product twice creates two line items with separate instance ids.
package basket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"storefront-service/internal/entity"
)

type Basket struct {
	mu    sync.Mutex
	items []entity.BasketItem
}

func New() *Basket {
	return &Basket{}
}

// Add appends the item as a new entry and returns its instance id.
func (b *Basket) Add(item entity.BasketItem) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	item.BasketID = uuid.NewString()
	b.items = append(b.items, item)
	return item.BasketID
}

// Remove deletes the entry with the given instance id. Other entries of the
// same product are untouched.
func (b *Basket) Remove(instanceID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, item := range b.items {
		if item.BasketID == instanceID {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the entries in insertion order.
func (b *Basket) Items() []entity.BasketItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]entity.BasketItem, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Basket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Snapshot serializes the basket for persistence across sessions.
func (b *Basket) Snapshot() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return json.Marshal(b.items)
}

// Restore rebuilds a basket from a snapshot.
func Restore(data []byte) (*Basket, error) {
	var items []entity.BasketItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return &Basket{items: items}, nil
}
