package addresscmd

import (
	"github.com/goliatone/go-command/dispatcher"

	"github.com/drydeck/drydeck/internal/commands"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

// Handlers bundles the address command handlers.
type Handlers struct {
	Create *CreateAddressHandler
	Delete *DeleteAddressHandler
	Import *ImportAddressesHandler
}

// NewHandlers builds every address handler around service. observer may be nil.
func NewHandlers(service locations.Service, logger interfaces.Logger, observer commands.Observer) *Handlers {
	return &Handlers{
		Create: NewCreateAddressHandler(service, logger, commands.WithObserver[CreateAddressCommand](observer)),
		Delete: NewDeleteAddressHandler(service, logger, commands.WithObserver[DeleteAddressCommand](observer)),
		Import: NewImportAddressesHandler(service, logger, commands.WithObserver[ImportAddressesCommand](observer)),
	}
}

// Subscribe registers the handlers with the go-command dispatcher so callers
// can use dispatcher.Dispatch. The returned func removes the subscriptions.
func (h *Handlers) Subscribe() func() {
	subs := []func(){
		dispatcher.SubscribeCommand(h.Create).Unsubscribe,
		dispatcher.SubscribeCommand(h.Delete).Unsubscribe,
		dispatcher.SubscribeCommand(h.Import).Unsubscribe,
	}
	return func() {
		for _, unsubscribe := range subs {
			unsubscribe()
		}
	}
}
