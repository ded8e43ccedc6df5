package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

const uniqueViolationCode = "23505"

// BunAddressRepository implements AddressRepository with optional caching.
type BunAddressRepository struct {
	repo repository.Repository[*Address]
}

// NewBunAddressRepository creates an address repository without caching.
func NewBunAddressRepository(db *bun.DB) *BunAddressRepository {
	return NewBunAddressRepositoryWithCache(db, nil, nil)
}

// NewBunAddressRepositoryWithCache creates an address repository with caching support.
func NewBunAddressRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunAddressRepository {
	base := NewAddressRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunAddressRepository{repo: base}
}

func (r *BunAddressRepository) Create(ctx context.Context, address *Address) (*Address, error) {
	record, err := r.repo.Create(ctx, address)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return record, nil
}

func (r *BunAddressRepository) Update(ctx context.Context, address *Address) (*Address, error) {
	updated, err := r.repo.Update(ctx, address,
		repository.UpdateByID(address.ID.String()),
		repository.UpdateColumns(
			FieldAddressAlphanumeric,
			FieldPreDirAbbrev,
			FieldStreetName,
			FieldStreetTypeAbbrev,
			FieldPostDirAbbrev,
			FieldInternal,
			FieldLocation,
			FieldStateAbbrev,
			FieldZip,
			FieldZip4,
			"updated_at",
		),
	)
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, &NotFoundError{Resource: "address", Key: address.ID.String()}
		}
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *BunAddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*Address, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "address", id.String())
	}
	return record, nil
}

func (r *BunAddressRepository) GetByKey(ctx context.Context, key string) (*Address, error) {
	parts := strings.Split(key, "|")
	names := AddressFields()
	if len(parts) != len(names) {
		return nil, &NotFoundError{Resource: "address", Key: key}
	}
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			for i, name := range names {
				q = q.Where("?TableAlias.? = ?", bun.Ident(name), parts[i])
			}
			return q
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "address", key)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "address", Key: key}
	}
	return records[0], nil
}

func (r *BunAddressRepository) List(ctx context.Context, opts ListOptions) ([]*Address, int, error) {
	filter := repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		if zip := strings.TrimSpace(opts.Zip); zip != "" {
			q = q.Where("?TableAlias.zip = ?", zip)
		}
		if state := strings.TrimSpace(opts.State); state != "" {
			q = q.Where("?TableAlias.stateabbrev = ?", state)
		}
		if location := strings.TrimSpace(opts.Location); location != "" {
			q = q.Where("?TableAlias.location = ?", location)
		}
		if street := strings.TrimSpace(opts.StreetName); street != "" {
			q = q.Where("?TableAlias.streetname = ?", street)
		}
		return q.OrderExpr("?TableAlias.zip ASC, ?TableAlias.stateabbrev ASC, ?TableAlias.location ASC, ?TableAlias.streetname ASC, ?TableAlias.address_alphanumeric ASC, ?TableAlias.id ASC")
	})

	var (
		records []*Address
		total   int
		err     error
	)
	if opts.Limit > 0 {
		records, total, err = r.repo.List(ctx, filter, repository.SelectPaginate(opts.Limit, opts.Offset))
	} else {
		records, total, err = r.repo.List(ctx, filter)
	}
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *BunAddressRepository) Count(ctx context.Context) (int, error) {
	_, total, err := r.repo.List(ctx, repository.SelectPaginate(1, 0))
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *BunAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.repo.Delete(ctx, &Address{ID: id})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

// mapWriteError surfaces unique_address violations as ErrAddressExists.
// go-repository-bun reports them as CategoryDatabaseDuplicate for both
// dialects; raw driver errors are matched for queries that bypass it.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrAddressExists, err)
	}
	return fmt.Errorf("address repository error: %w", err)
}

func isUniqueViolation(err error) bool {
	if repository.IsDuplicatedKey(err) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
