// Package drydeck is a registry of postal addresses broken into the
// components produced by the PostGIS address normalizer.
package drydeck

import (
	"context"

	addresscmd "github.com/drydeck/drydeck/internal/commands/addresses"
	"github.com/drydeck/drydeck/internal/di"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/internal/migrations"
	"github.com/drydeck/drydeck/internal/server"
)

// AddressService exports the address service contract.
type AddressService = locations.Service

// Address exports the stored address record.
type Address = locations.Address

// AddressInput exports the create payload.
type AddressInput = locations.AddressInput

// UpdateAddressInput exports the partial update payload.
type UpdateAddressInput = locations.UpdateAddressInput

// ListOptions exports the list filters.
type ListOptions = locations.ListOptions

// FieldSpec exports the address component descriptor.
type FieldSpec = locations.FieldSpec

// FieldIssue exports a single component validation failure.
type FieldIssue = locations.FieldIssue

var (
	ErrAddressInvalid        = locations.ErrAddressInvalid
	ErrAddressExists         = locations.ErrAddressExists
	ErrAddressNotFound       = locations.ErrAddressNotFound
	ErrNormalizerUnavailable = locations.ErrNormalizerUnavailable
)

// Module represents the top level drydeck runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI
// overrides. The embedded SQL migrations are always available; they run on
// startup when Storage.AutoMigrate is set.
func New(ctx context.Context, cfg Config, opts ...di.Option) (*Module, error) {
	all := append([]di.Option{di.WithMigrationsFS(MigrationsFS())}, opts...)
	container, err := di.NewContainer(ctx, cfg, all...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Addresses returns the configured address service.
func (m *Module) Addresses() AddressService {
	return m.container.AddressService()
}

// Commands returns the address command handlers.
func (m *Module) Commands() *addresscmd.Handlers {
	return m.container.Commands()
}

// Migrator returns the schema migration runner for SQL drivers.
func (m *Module) Migrator() (*migrations.Runner, error) {
	return m.container.Migrator()
}

// Server builds the HTTP server exposing the admin API.
func (m *Module) Server() (*server.Server, error) {
	return m.container.Server()
}

// Close releases storage held by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Fields returns the address component descriptors.
func Fields() []FieldSpec {
	return locations.FieldSpecs()
}
