package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// AddressNormalizer parses free-form address text into components.
type AddressNormalizer interface {
	Normalize(ctx context.Context, text string) (*Address, error)
}

// NormalizerFunc adapts a function into an AddressNormalizer.
type NormalizerFunc func(ctx context.Context, text string) (*Address, error)

func (f NormalizerFunc) Normalize(ctx context.Context, text string) (*Address, error) {
	return f(ctx, text)
}

const normalizeAddressQuery = `
SELECT
	coalesce((n.na).address_alphanumeric, (n.na).address::text, '') AS address_alphanumeric,
	coalesce((n.na).predirabbrev, '') AS predirabbrev,
	coalesce((n.na).streetname, '') AS streetname,
	coalesce((n.na).streettypeabbrev, '') AS streettypeabbrev,
	coalesce((n.na).postdirabbrev, '') AS postdirabbrev,
	coalesce((n.na).internal, '') AS internal,
	coalesce((n.na).location, '') AS location,
	coalesce((n.na).stateabbrev, '') AS stateabbrev,
	coalesce((n.na).zip, '') AS zip,
	coalesce((n.na).zip4, '') AS zip4,
	coalesce((n.na).parsed, false) AS parsed
FROM (SELECT normalize_address(?) AS na) AS n`

type normalizedRow struct {
	AddressAlphanumeric string `bun:"address_alphanumeric"`
	PreDirAbbrev        string `bun:"predirabbrev"`
	StreetName          string `bun:"streetname"`
	StreetTypeAbbrev    string `bun:"streettypeabbrev"`
	PostDirAbbrev       string `bun:"postdirabbrev"`
	Internal            string `bun:"internal"`
	Location            string `bun:"location"`
	StateAbbrev         string `bun:"stateabbrev"`
	Zip                 string `bun:"zip"`
	Zip4                string `bun:"zip4"`
	Parsed              bool   `bun:"parsed"`
}

// PostGISNormalizer delegates parsing to normalize_address(), provided by the
// postgis_tiger_geocoder extension. Its norm_addy result carries the same
// component names as Address.
type PostGISNormalizer struct {
	db bun.IDB
}

// NewPostGISNormalizer builds a normalizer bound to a PostgreSQL connection.
func NewPostGISNormalizer(db bun.IDB) *PostGISNormalizer {
	return &PostGISNormalizer{db: db}
}

func (n *PostGISNormalizer) Normalize(ctx context.Context, text string) (*Address, error) {
	if n == nil || n.db == nil {
		return nil, ErrNormalizerUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrAddressTextRequired
	}

	var row normalizedRow
	if err := n.db.NewRaw(normalizeAddressQuery, text).Scan(ctx, &row); err != nil {
		return nil, fmt.Errorf("normalize address: %w", err)
	}
	if !row.Parsed {
		return nil, ErrAddressUnparseable
	}
	return &Address{
		AddressAlphanumeric: strings.TrimSpace(row.AddressAlphanumeric),
		PreDirAbbrev:        strings.TrimSpace(row.PreDirAbbrev),
		StreetName:          strings.TrimSpace(row.StreetName),
		StreetTypeAbbrev:    strings.TrimSpace(row.StreetTypeAbbrev),
		PostDirAbbrev:       strings.TrimSpace(row.PostDirAbbrev),
		Internal:            strings.TrimSpace(row.Internal),
		Location:            strings.TrimSpace(row.Location),
		StateAbbrev:         strings.TrimSpace(row.StateAbbrev),
		Zip:                 strings.TrimSpace(row.Zip),
		Zip4:                strings.TrimSpace(row.Zip4),
	}, nil
}

// IsNormalizerError reports whether err came from the parsing step rather
// than from storage.
func IsNormalizerError(err error) bool {
	return errors.Is(err, ErrNormalizerUnavailable) ||
		errors.Is(err, ErrAddressUnparseable) ||
		errors.Is(err, ErrAddressTextRequired)
}
