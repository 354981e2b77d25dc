package order

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// memoryRepository keeps orders in a mutex-guarded map. It honors the
// same CommitStatus contract as the Postgres repository, including the
// version check, which makes it usable for concurrency tests and local
// runs without a database.
type memoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
}

func NewMemoryRepository() Repository {
	return &memoryRepository{orders: make(map[uuid.UUID]*Order)}
}

func (r *memoryRepository) Create(ctx context.Context, orderInput *Order) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if orderInput.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, err
		}
		orderInput.ID = genID
	}

	now := time.Now().UTC()
	if orderInput.CreatedAt.IsZero() {
		orderInput.CreatedAt = now
	}
	if orderInput.UpdatedAt.IsZero() {
		orderInput.UpdatedAt = orderInput.CreatedAt
	}
	for i := range orderInput.Items {
		item := &orderInput.Items[i]
		if item.ID == uuid.Nil {
			itemID, err := uuid.NewV4()
			if err != nil {
				return uuid.Nil, err
			}
			item.ID = itemID
		}
		item.OrderID = orderInput.ID
	}

	stored := cloneOrder(orderInput)
	r.orders[stored.ID] = stored
	return stored.ID, nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(stored), nil
}

func (r *memoryRepository) List(ctx context.Context, filter Filter) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Order, 0)
	for _, stored := range r.orders {
		if !matchesFilter(stored, filter) {
			continue
		}
		result = append(result, *cloneOrder(stored))
	}
	sortByActivity(result)
	return result, nil
}

func (r *memoryRepository) ListByCustomer(ctx context.Context, email string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Order, 0)
	for _, stored := range r.orders {
		if strings.EqualFold(stored.Customer.Email, email) {
			result = append(result, *cloneOrder(stored))
		}
	}
	sortByActivity(result)
	return result, nil
}

func (r *memoryRepository) CommitStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}

	from := stored.Status.Canonical()
	to := newStatus.Canonical()
	if from == to {
		return nil, ErrNoOpTransition
	}
	if !IsLegalTransition(from, to) {
		return nil, newIllegalTransitionError(from, to)
	}

	stored.Status = to
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	return cloneOrder(stored), nil
}

func matchesFilter(o *Order, filter Filter) bool {
	if filter.Customer != "" {
		q := strings.ToLower(filter.Customer)
		if !strings.Contains(strings.ToLower(o.Customer.Name), q) &&
			!strings.Contains(strings.ToLower(o.Customer.Email), q) {
			return false
		}
	}
	if filter.Status != "" && o.Status.Canonical() != filter.Status.Canonical() {
		return false
	}
	if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && o.CreatedAt.After(filter.To) {
		return false
	}
	if filter.MinTotal != nil && o.Total < *filter.MinTotal {
		return false
	}
	if filter.MaxTotal != nil && o.Total > *filter.MaxTotal {
		return false
	}
	return true
}

func sortByActivity(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].UpdatedAt.Equal(orders[j].UpdatedAt) {
			return orders[i].UpdatedAt.After(orders[j].UpdatedAt)
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func cloneOrder(o *Order) *Order {
	clone := *o
	clone.Items = make([]OrderItem, len(o.Items))
	copy(clone.Items, o.Items)
	return &clone
}
