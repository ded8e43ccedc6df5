package locations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AddressRepository exposes persistence operations for addresses.
type AddressRepository interface {
	Create(ctx context.Context, address *Address) (*Address, error)
	Update(ctx context.Context, address *Address) (*Address, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)
	GetByKey(ctx context.Context, key string) (*Address, error)
	List(ctx context.Context, opts ListOptions) ([]*Address, int, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError is returned when an address cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}
