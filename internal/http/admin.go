package http

import (
	"fmt"
	"net/http"
	"strings"

	addresscmd "github.com/drydeck/drydeck/internal/commands/addresses"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

// AdminAPI registers the address endpoints.
type AdminAPI struct {
	basePath  string
	addresses locations.Service
	commands  *addresscmd.Handlers
	logger    interfaces.Logger
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

// NewAdminAPI constructs an AdminAPI instance.
func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath: "/api",
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.commands == nil && api.addresses != nil {
		api.commands = addresscmd.NewHandlers(api.addresses, api.logger, nil)
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/api").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithAddressService wires the address service used for reads and updates.
func WithAddressService(service locations.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.addresses = service
		}
	}
}

// WithCommandHandlers wires the create/delete/import command handlers. When
// omitted they are built from the address service.
func WithCommandHandlers(handlers *addresscmd.Handlers) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.commands = handlers
		}
	}
}

// WithLogger sets the logger passed to handlers built by NewAdminAPI.
func WithLogger(logger interfaces.Logger) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// Register attaches the admin endpoints to the provided mux.
func (api *AdminAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: admin api is nil")
	}

	base := joinPath(api.basePath, "")
	api.registerAddressRoutes(mux, base)
	return nil
}
