package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by entity type to prevent cross-entity collisions.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// AddressUUID derives the ID for an address from its composite key.
func AddressUUID(addressKey string) uuid.UUID {
	if strings.Trim(addressKey, "| ") == "" {
		return uuid.Nil
	}
	return UUID("drydeck:address:" + addressKey)
}

// MigrationUUID derives the ledger ID for a dialect-specific migration.
func MigrationUUID(dialect, name string) uuid.UUID {
	return UUID("drydeck:migration:" + strings.ToLower(strings.TrimSpace(dialect)) + ":" + strings.TrimSpace(name))
}
