package testsupport

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/drydeck/drydeck/internal/locations"
)

var (
	streetTypes = []string{"St", "Ave", "Blvd", "Rd", "Ln", "Dr", "Ct", "Way"}
	directions  = locations.DirectionAbbreviations()
	unitKinds   = []string{"Apt", "Suite", "Unit", "Ste."}
)

// AddressFixtures generates count distinct, valid address inputs. The same
// seed always yields the same fixtures.
func AddressFixtures(seed int64, count int) []locations.AddressInput {
	faker := gofakeit.New(seed)
	seen := make(map[string]struct{}, count)
	out := make([]locations.AddressInput, 0, count)

	for len(out) < count {
		input := locations.AddressInput{
			AddressAlphanumeric: faker.Numerify("####"),
			StreetName:          faker.Regex("[A-Z][a-z]{3,12}"),
			Location:            faker.Regex("[A-Z][a-z]{4,14}"),
			StateAbbrev:         faker.StateAbr(),
			Zip:                 faker.Numerify("#####"),
		}
		if faker.Bool() {
			input.AddressAlphanumeric += faker.Regex("[A-Z]")
		}
		if faker.Bool() {
			input.PreDirAbbrev = faker.RandomString(directions)
		}
		if faker.Bool() {
			input.StreetTypeAbbrev = faker.RandomString(streetTypes)
		}
		if faker.Number(0, 3) == 0 {
			input.PostDirAbbrev = faker.RandomString(directions)
		}
		if faker.Number(0, 2) == 0 {
			input.Internal = fmt.Sprintf("%s %d", faker.RandomString(unitKinds), faker.Number(1, 999))
		}
		if faker.Bool() {
			input.Zip4 = faker.Numerify("####")
		}

		key := fmt.Sprintf("%+v", input)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, input)
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
