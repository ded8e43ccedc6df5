package locations

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Address
	byKey map[string]uuid.UUID
}

// NewMemoryRepository constructs an in-memory address repository. It enforces
// the same composite uniqueness as the unique_address constraint.
func NewMemoryRepository() AddressRepository {
	return &memoryRepository{
		byID:  make(map[uuid.UUID]*Address),
		byKey: make(map[string]uuid.UUID),
	}
}

func (m *memoryRepository) Create(_ context.Context, address *Address) (*Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneAddress(address)
	key := cloned.Key()
	if _, exists := m.byKey[key]; exists {
		return nil, ErrAddressExists
	}
	m.byID[cloned.ID] = cloned
	m.byKey[key] = cloned.ID
	return cloneAddress(cloned), nil
}

func (m *memoryRepository) Update(_ context.Context, address *Address) (*Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[address.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "address", Key: address.ID.String()}
	}
	cloned := cloneAddress(address)
	oldKey := existing.Key()
	newKey := cloned.Key()
	if owner, taken := m.byKey[newKey]; taken && owner != cloned.ID {
		return nil, ErrAddressExists
	}
	if oldKey != newKey {
		delete(m.byKey, oldKey)
	}
	m.byID[cloned.ID] = cloned
	m.byKey[newKey] = cloned.ID
	return cloneAddress(cloned), nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "address", Key: id.String()}
	}
	return cloneAddress(record), nil
}

func (m *memoryRepository) GetByKey(_ context.Context, key string) (*Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[key]
	if !ok {
		return nil, &NotFoundError{Resource: "address", Key: key}
	}
	return cloneAddress(m.byID[id]), nil
}

func (m *memoryRepository) List(_ context.Context, opts ListOptions) ([]*Address, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*Address, 0, len(m.byID))
	for _, record := range m.byID {
		if !matchesListOptions(record, opts) {
			continue
		}
		records = append(records, cloneAddress(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return compareAddresses(records[i], records[j])
	})

	total := len(records)
	if opts.Offset > 0 {
		if opts.Offset >= len(records) {
			return []*Address{}, total, nil
		}
		records = records[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records, total, nil
}

func (m *memoryRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "address", Key: id.String()}
	}
	delete(m.byID, id)
	delete(m.byKey, record.Key())
	return nil
}
