package locations

import (
	"strings"

	"github.com/drydeck/drydeck/internal/identity"
	"github.com/google/uuid"
)

// IDForAddress derives a deterministic UUID from the address components.
func IDForAddress(address *Address) uuid.UUID {
	if address == nil {
		return uuid.Nil
	}
	return identity.AddressUUID(address.Key())
}

func addressFromInput(input AddressInput) *Address {
	return &Address{
		AddressAlphanumeric: strings.TrimSpace(input.AddressAlphanumeric),
		PreDirAbbrev:        strings.TrimSpace(input.PreDirAbbrev),
		StreetName:          strings.TrimSpace(input.StreetName),
		StreetTypeAbbrev:    strings.TrimSpace(input.StreetTypeAbbrev),
		PostDirAbbrev:       strings.TrimSpace(input.PostDirAbbrev),
		Internal:            strings.TrimSpace(input.Internal),
		Location:            strings.TrimSpace(input.Location),
		StateAbbrev:         strings.TrimSpace(input.StateAbbrev),
		Zip:                 strings.TrimSpace(input.Zip),
		Zip4:                strings.TrimSpace(input.Zip4),
	}
}

// InputFromAddress copies the components of an address into an input value.
func InputFromAddress(address *Address) AddressInput {
	if address == nil {
		return AddressInput{}
	}
	return AddressInput{
		AddressAlphanumeric: address.AddressAlphanumeric,
		PreDirAbbrev:        address.PreDirAbbrev,
		StreetName:          address.StreetName,
		StreetTypeAbbrev:    address.StreetTypeAbbrev,
		PostDirAbbrev:       address.PostDirAbbrev,
		Internal:            address.Internal,
		Location:            address.Location,
		StateAbbrev:         address.StateAbbrev,
		Zip:                 address.Zip,
		Zip4:                address.Zip4,
	}
}

func applyUpdate(address *Address, input UpdateAddressInput) {
	assign := func(target *string, value *string) {
		if value != nil {
			*target = strings.TrimSpace(*value)
		}
	}
	assign(&address.AddressAlphanumeric, input.AddressAlphanumeric)
	assign(&address.PreDirAbbrev, input.PreDirAbbrev)
	assign(&address.StreetName, input.StreetName)
	assign(&address.StreetTypeAbbrev, input.StreetTypeAbbrev)
	assign(&address.PostDirAbbrev, input.PostDirAbbrev)
	assign(&address.Internal, input.Internal)
	assign(&address.Location, input.Location)
	assign(&address.StateAbbrev, input.StateAbbrev)
	assign(&address.Zip, input.Zip)
	assign(&address.Zip4, input.Zip4)
}

// compareAddresses implements the default ordering: zip, state, city,
// street name, building number. ID breaks ties so listings stay stable.
func compareAddresses(a, b *Address) bool {
	if a.Zip != b.Zip {
		return a.Zip < b.Zip
	}
	if a.StateAbbrev != b.StateAbbrev {
		return a.StateAbbrev < b.StateAbbrev
	}
	if a.Location != b.Location {
		return a.Location < b.Location
	}
	if a.StreetName != b.StreetName {
		return a.StreetName < b.StreetName
	}
	if a.AddressAlphanumeric != b.AddressAlphanumeric {
		return a.AddressAlphanumeric < b.AddressAlphanumeric
	}
	return a.ID.String() < b.ID.String()
}

func matchesListOptions(address *Address, opts ListOptions) bool {
	if zip := strings.TrimSpace(opts.Zip); zip != "" && address.Zip != zip {
		return false
	}
	if state := strings.TrimSpace(opts.State); state != "" && address.StateAbbrev != state {
		return false
	}
	if location := strings.TrimSpace(opts.Location); location != "" && address.Location != location {
		return false
	}
	if street := strings.TrimSpace(opts.StreetName); street != "" && address.StreetName != street {
		return false
	}
	return true
}

func cloneAddress(address *Address) *Address {
	if address == nil {
		return nil
	}
	cloned := *address
	return &cloned
}

func cloneAddressSlice(src []*Address) []*Address {
	if len(src) == 0 {
		return nil
	}
	out := make([]*Address, len(src))
	for i, address := range src {
		out[i] = cloneAddress(address)
	}
	return out
}

// AddressFromInput builds an unsaved address from trimmed input values.
func AddressFromInput(input AddressInput) *Address {
	return addressFromInput(input)
}
