package locations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/pkg/testsupport"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newAddressDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)

	if _, err := db.NewDropTable().Model((*locations.Address)(nil)).IfExists().Exec(ctx); err != nil {
		t.Fatalf("drop addresses: %v", err)
	}
	if _, err := db.NewCreateTable().Model((*locations.Address)(nil)).Exec(ctx); err != nil {
		t.Fatalf("create addresses: %v", err)
	}
	return db
}

func storedAddress(building, street string) *locations.Address {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	address := &locations.Address{
		AddressAlphanumeric: building,
		StreetName:          street,
		StreetTypeAbbrev:    "St",
		Location:            "Springfield",
		StateAbbrev:         "IL",
		Zip:                 "62701",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	address.ID = locations.IDForAddress(address)
	return address
}

func TestBunAddressRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := locations.NewBunAddressRepository(newAddressDB(t))

	created, err := repo.Create(ctx, storedAddress("100", "Main"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fetched, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if fetched.String() != "100 Main St Springfield IL 62701" {
		t.Fatalf("unexpected record %q", fetched.String())
	}

	byKey, err := repo.GetByKey(ctx, created.Key())
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if byKey.ID != created.ID {
		t.Fatalf("GetByKey returned %s, want %s", byKey.ID, created.ID)
	}

	fetched.Internal = "Apt 2"
	fetched.UpdatedAt = fetched.UpdatedAt.Add(time.Hour)
	updated, err := repo.Update(ctx, fetched)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Internal != "Apt 2" {
		t.Fatalf("expected internal to be updated, got %q", updated.Internal)
	}
	if _, err := repo.GetByKey(ctx, created.Key()); err == nil {
		t.Fatalf("expected old key to be gone after update")
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf *locations.NotFoundError
	if _, err := repo.GetByID(ctx, created.ID); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestBunAddressRepositoryEnforcesUniqueAddress(t *testing.T) {
	ctx := context.Background()
	repo := locations.NewBunAddressRepository(newAddressDB(t))

	if _, err := repo.Create(ctx, storedAddress("100", "Main")); err != nil {
		t.Fatalf("create: %v", err)
	}
	duplicate := storedAddress("100", "Main")
	duplicate.ID = uuid.New()
	if _, err := repo.Create(ctx, duplicate); !errors.Is(err, locations.ErrAddressExists) {
		t.Fatalf("expected ErrAddressExists, got %v", err)
	}
}

func TestBunAddressRepositoryListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := locations.NewBunAddressRepository(newAddressDB(t))

	for _, address := range []*locations.Address{
		storedAddress("300", "Oak"),
		storedAddress("200", "Elm"),
		storedAddress("100", "Oak"),
	} {
		if _, err := repo.Create(ctx, address); err != nil {
			t.Fatalf("create %s: %v", address, err)
		}
	}

	records, total, err := repo.List(ctx, locations.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(records) != 3 {
		t.Fatalf("expected 3 records, got %d/%d", len(records), total)
	}
	if records[0].StreetName != "Elm" || records[1].AddressAlphanumeric != "100" || records[2].AddressAlphanumeric != "300" {
		t.Fatalf("unexpected order: %s, %s, %s", records[0], records[1], records[2])
	}

	records, total, err = repo.List(ctx, locations.ListOptions{StreetName: "Oak", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if total != 2 || len(records) != 1 || records[0].AddressAlphanumeric != "300" {
		t.Fatalf("unexpected page %d/%d", len(records), total)
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("count = %d, %v", count, err)
	}
}

func TestBunAddressRepositoryWithCache(t *testing.T) {
	ctx := context.Background()
	db := newAddressDB(t)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	repo := locations.NewBunAddressRepositoryWithCache(db, cacheService, repocache.NewDefaultKeySerializer())
	svc := locations.NewService(repo)

	created, err := svc.CreateAddress(ctx, locations.InputFromAddress(storedAddress("42", "Main")))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetAddress(ctx, created.ID); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := svc.GetAddress(ctx, created.ID); err != nil {
		t.Fatalf("cached get: %v", err)
	}
}
