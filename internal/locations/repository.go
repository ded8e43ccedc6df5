package locations

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewAddressRepository creates a generic repository for address records. The
// composite key is not a column, so identifier lookups go through the
// building number and are narrowed by BunAddressRepository.GetByKey.
func NewAddressRepository(db *bun.DB) repository.Repository[*Address] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Address]{
		NewRecord: func() *Address { return &Address{} },
		GetID: func(address *Address) uuid.UUID {
			return address.ID
		},
		SetID: func(address *Address, id uuid.UUID) {
			address.ID = id
		},
		GetIdentifier: func() string {
			return FieldAddressAlphanumeric
		},
		GetIdentifierValue: func(address *Address) string {
			return address.AddressAlphanumeric
		},
	})
}
