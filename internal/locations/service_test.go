package locations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/pkg/testsupport"
	"github.com/google/uuid"
)

func newTestService(opts ...locations.ServiceOption) locations.Service {
	opts = append([]locations.ServiceOption{locations.WithNow(func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	})}, opts...)
	return locations.NewService(locations.NewMemoryRepository(), opts...)
}

func sampleInput() locations.AddressInput {
	return locations.AddressInput{
		AddressAlphanumeric: "1234",
		PreDirAbbrev:        "N",
		StreetName:          "Main",
		StreetTypeAbbrev:    "St",
		Location:            "Springfield",
		StateAbbrev:         "IL",
		Zip:                 "62701",
	}
}

func TestServiceCreateAddress(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	input := sampleInput()
	input.StreetName = "  Main "
	created, err := svc.CreateAddress(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatalf("expected ID to be assigned")
	}
	if created.StreetName != "Main" {
		t.Fatalf("expected trimmed street name, got %q", created.StreetName)
	}
	if created.ID != locations.IDForAddress(created) {
		t.Fatalf("expected deterministic ID")
	}
	if !created.CreatedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected created_at %v", created.CreatedAt)
	}

	fetched, err := svc.GetAddress(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.String() != "1234 N Main St Springfield IL 62701" {
		t.Fatalf("unexpected address %q", fetched.String())
	}
}

func TestServiceCreateRejectsInvalidAddress(t *testing.T) {
	svc := newTestService()
	input := sampleInput()
	input.Zip = "6270"

	_, err := svc.CreateAddress(context.Background(), input)
	if !errors.Is(err, locations.ErrAddressInvalid) {
		t.Fatalf("expected ErrAddressInvalid, got %v", err)
	}
	issues := locations.Issues(err)
	if len(issues) != 1 || issues[0].Field != locations.FieldZip {
		t.Fatalf("unexpected issues %+v", issues)
	}
}

func TestServiceCreateRejectsDuplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateAddress(ctx, sampleInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.CreateAddress(ctx, sampleInput())
	if !errors.Is(err, locations.ErrAddressExists) {
		t.Fatalf("expected ErrAddressExists, got %v", err)
	}

	variant := sampleInput()
	variant.Zip4 = "1234"
	if _, err := svc.CreateAddress(ctx, variant); err != nil {
		t.Fatalf("expected address differing in zip4 to be accepted: %v", err)
	}
}

func TestServiceUpdateAddress(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAddress(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateAddress(ctx, locations.UpdateAddressInput{
		ID:           created.ID,
		PreDirAbbrev: testsupport.Ptr(""),
		Internal:     testsupport.Ptr("Apt 4"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("update changed ID")
	}
	if updated.PreDirAbbrev != "" || updated.Internal != "Apt 4" || updated.StreetName != "Main" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	// re-creating the original components must succeed even though the
	// derived ID is taken by the updated record
	recreated, err := svc.CreateAddress(ctx, sampleInput())
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if recreated.ID == created.ID {
		t.Fatalf("expected a fresh ID for recreated address")
	}

	_, err = svc.UpdateAddress(ctx, locations.UpdateAddressInput{
		ID:           recreated.ID,
		PreDirAbbrev: testsupport.Ptr(""),
		Internal:     testsupport.Ptr("Apt 4"),
	})
	if !errors.Is(err, locations.ErrAddressExists) {
		t.Fatalf("expected ErrAddressExists, got %v", err)
	}
}

func TestServiceUpdateValidatesAndReportsMissing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAddress(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateAddress(ctx, locations.UpdateAddressInput{ID: created.ID, StateAbbrev: testsupport.Ptr("Illinois")}); !errors.Is(err, locations.ErrAddressInvalid) {
		t.Fatalf("expected ErrAddressInvalid, got %v", err)
	}
	if _, err := svc.UpdateAddress(ctx, locations.UpdateAddressInput{ID: uuid.New()}); !errors.Is(err, locations.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}

func TestServiceDeleteAddress(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAddress(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteAddress(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetAddress(ctx, created.ID); !errors.Is(err, locations.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound after delete, got %v", err)
	}
	if err := svc.DeleteAddress(ctx, created.ID); !errors.Is(err, locations.ErrAddressNotFound) {
		t.Fatalf("expected ErrAddressNotFound on second delete, got %v", err)
	}
	if _, err := svc.CreateAddress(ctx, sampleInput()); err != nil {
		t.Fatalf("expected deleted address to be re-creatable: %v", err)
	}
}

func TestServiceListOrdersAndPaginates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	inputs := []locations.AddressInput{
		{AddressAlphanumeric: "20", StreetName: "Oak", Location: "Austin", StateAbbrev: "TX", Zip: "73301"},
		{AddressAlphanumeric: "10", StreetName: "Oak", Location: "Austin", StateAbbrev: "TX", Zip: "73301"},
		{AddressAlphanumeric: "5", StreetName: "Elm", Location: "Albany", StateAbbrev: "NY", Zip: "12207"},
		{AddressAlphanumeric: "7", StreetName: "Birch", Location: "Austin", StateAbbrev: "TX", Zip: "73301"},
	}
	for _, input := range inputs {
		if _, err := svc.CreateAddress(ctx, input); err != nil {
			t.Fatalf("create %+v: %v", input, err)
		}
	}

	all, err := svc.ListAddresses(ctx, locations.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 4 || len(all.Records) != 4 {
		t.Fatalf("expected 4 records, got %d/%d", len(all.Records), all.Total)
	}
	want := []string{"5", "7", "10", "20"}
	for i, record := range all.Records {
		if record.AddressAlphanumeric != want[i] {
			t.Fatalf("record %d = %s, want %s", i, record.AddressAlphanumeric, want[i])
		}
	}

	page, err := svc.ListAddresses(ctx, locations.ListOptions{Zip: "73301", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if page.Total != 3 || len(page.Records) != 2 {
		t.Fatalf("expected 2 of 3 records, got %d/%d", len(page.Records), page.Total)
	}
	if page.Records[0].AddressAlphanumeric != "10" {
		t.Fatalf("unexpected first record %s", page.Records[0].AddressAlphanumeric)
	}

	street, err := svc.ListAddresses(ctx, locations.ListOptions{StreetName: "Oak", State: "TX", Location: "Austin"})
	if err != nil {
		t.Fatalf("list street: %v", err)
	}
	if street.Total != 2 {
		t.Fatalf("expected 2 Oak records, got %d", street.Total)
	}

	empty, err := svc.ListAddresses(ctx, locations.ListOptions{Offset: 10})
	if err != nil {
		t.Fatalf("list beyond end: %v", err)
	}
	if empty.Records == nil || len(empty.Records) != 0 || empty.Total != 4 {
		t.Fatalf("expected empty page with total, got %+v", empty)
	}

	count, err := svc.CountAddresses(ctx)
	if err != nil || count != 4 {
		t.Fatalf("count = %d, %v", count, err)
	}
}

func TestServiceValidateAddressIgnoresSelf(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAddress(ctx, sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.ValidateAddress(ctx, created); err != nil {
		t.Fatalf("expected stored record to validate against itself: %v", err)
	}

	candidate := *created
	candidate.ID = uuid.Nil
	if err := svc.ValidateAddress(ctx, &candidate); !errors.Is(err, locations.ErrAddressExists) {
		t.Fatalf("expected ErrAddressExists, got %v", err)
	}
}

func TestServiceParseAddress(t *testing.T) {
	ctx := context.Background()

	if _, err := newTestService().ParseAddress(ctx, "1 Main St"); !errors.Is(err, locations.ErrNormalizerUnavailable) {
		t.Fatalf("expected ErrNormalizerUnavailable, got %v", err)
	}

	normalizer := locations.NormalizerFunc(func(_ context.Context, text string) (*locations.Address, error) {
		if text == "" {
			return nil, locations.ErrAddressTextRequired
		}
		return &locations.Address{
			AddressAlphanumeric: "1",
			StreetName:          "Main",
			StreetTypeAbbrev:    "St",
			Location:            "Springfield",
			StateAbbrev:         "IL",
			Zip:                 "62701",
		}, nil
	})
	svc := newTestService(locations.WithNormalizer(normalizer))

	parsed, err := svc.ParseAddress(ctx, "1 Main St, Springfield, IL 62701")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.String() != "1 Main St Springfield IL 62701" {
		t.Fatalf("unexpected parse result %q", parsed.String())
	}
	if _, err := svc.ParseAddress(ctx, ""); !locations.IsNormalizerError(err) {
		t.Fatalf("expected normalizer error, got %v", err)
	}
}

func TestServiceAcceptsGeneratedFixtures(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	fixtures := testsupport.AddressFixtures(42, 100)
	for _, input := range fixtures {
		if _, err := svc.CreateAddress(ctx, input); err != nil {
			t.Fatalf("create fixture %+v: %v", input, err)
		}
	}
	count, err := svc.CountAddresses(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != len(fixtures) {
		t.Fatalf("expected %d addresses, got %d", len(fixtures), count)
	}
}

func TestNewServicePanicsWithoutRepository(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	locations.NewService(nil)
}

type unavailableLookupRepository struct {
	locations.AddressRepository
	err error
}

func (r unavailableLookupRepository) GetByID(context.Context, uuid.UUID) (*locations.Address, error) {
	return nil, r.err
}

func TestServiceCreatePropagatesLookupFailure(t *testing.T) {
	storageErr := errors.New("connection reset")
	repo := unavailableLookupRepository{AddressRepository: locations.NewMemoryRepository(), err: storageErr}
	svc := locations.NewService(repo)

	if _, err := svc.CreateAddress(context.Background(), sampleInput()); !errors.Is(err, storageErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	count, err := repo.Count(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("expected nothing stored, got %d (%v)", count, err)
	}
}
