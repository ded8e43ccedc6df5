package locations

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Address stores a postal address broken down into the components produced
// by the PostGIS address normalizer (norm_addy). Optional components hold the
// empty string rather than NULL so the composite unique constraint applies to
// every record.
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:a"`

	ID                  uuid.UUID `bun:",pk,type:uuid" json:"id"`
	AddressAlphanumeric string    `bun:"address_alphanumeric,type:varchar(16),notnull,unique:unique_address" json:"address_alphanumeric"`
	PreDirAbbrev        string    `bun:"predirabbrev,type:varchar(2),notnull,unique:unique_address" json:"predirabbrev"`
	StreetName          string    `bun:"streetname,type:varchar(32),notnull,unique:unique_address" json:"streetname"`
	StreetTypeAbbrev    string    `bun:"streettypeabbrev,type:varchar(16),notnull,unique:unique_address" json:"streettypeabbrev"`
	PostDirAbbrev       string    `bun:"postdirabbrev,type:varchar(2),notnull,unique:unique_address" json:"postdirabbrev"`
	Internal            string    `bun:"internal,type:varchar(32),notnull,unique:unique_address" json:"internal"`
	Location            string    `bun:"location,type:varchar(32),notnull,unique:unique_address" json:"location"`
	StateAbbrev         string    `bun:"stateabbrev,type:varchar(2),notnull,unique:unique_address" json:"stateabbrev"`
	Zip                 string    `bun:"zip,type:varchar(5),notnull,unique:unique_address" json:"zip"`
	Zip4                string    `bun:"zip4,type:varchar(4),notnull,unique:unique_address" json:"zip4"`
	CreatedAt           time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// AddressInput captures the components required to register an address.
type AddressInput struct {
	AddressAlphanumeric string `json:"address_alphanumeric"`
	PreDirAbbrev        string `json:"predirabbrev,omitempty"`
	StreetName          string `json:"streetname"`
	StreetTypeAbbrev    string `json:"streettypeabbrev,omitempty"`
	PostDirAbbrev       string `json:"postdirabbrev,omitempty"`
	Internal            string `json:"internal,omitempty"`
	Location            string `json:"location"`
	StateAbbrev         string `json:"stateabbrev"`
	Zip                 string `json:"zip"`
	Zip4                string `json:"zip4,omitempty"`
}

// UpdateAddressInput captures mutable address components. Nil pointers leave
// the stored value untouched; pointers to "" clear optional components.
type UpdateAddressInput struct {
	ID                  uuid.UUID
	AddressAlphanumeric *string
	PreDirAbbrev        *string
	StreetName          *string
	StreetTypeAbbrev    *string
	PostDirAbbrev       *string
	Internal            *string
	Location            *string
	StateAbbrev         *string
	Zip                 *string
	Zip4                *string
}

// ListOptions filters and paginates address listings. Zero values disable
// the corresponding filter.
type ListOptions struct {
	Zip        string
	State      string
	Location   string
	StreetName string
	Limit      int
	Offset     int
}

// ListResult carries a page of addresses along with the unpaginated total.
type ListResult struct {
	Records []*Address `json:"records"`
	Total   int        `json:"total"`
}
