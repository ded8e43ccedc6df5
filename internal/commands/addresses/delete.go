package addresscmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/drydeck/drydeck/internal/commands"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

const deleteAddressMessageType = "drydeck.addresses.delete"

// DeleteAddressCommand removes an address by ID.
type DeleteAddressCommand struct {
	ID uuid.UUID `json:"id"`
}

// Type implements command.Message.
func (DeleteAddressCommand) Type() string { return deleteAddressMessageType }

// Validate ensures the ID is present.
func (m DeleteAddressCommand) Validate() error {
	if m.ID == uuid.Nil {
		return validation.Errors{
			"id": validation.NewError("drydeck.addresses.delete.id_required", "id is required"),
		}
	}
	return nil
}

// DeleteAddressHandler deletes addresses through the locations service.
type DeleteAddressHandler struct {
	inner *commands.Handler[DeleteAddressCommand]
}

// NewDeleteAddressHandler constructs a handler wired to service.
func NewDeleteAddressHandler(service locations.Service, logger interfaces.Logger, opts ...commands.HandlerOption[DeleteAddressCommand]) *DeleteAddressHandler {
	exec := func(ctx context.Context, msg DeleteAddressCommand) error {
		return service.DeleteAddress(ctx, msg.ID)
	}

	handlerOpts := []commands.HandlerOption[DeleteAddressCommand]{
		commands.WithLogger[DeleteAddressCommand](logger),
		commands.WithOperation[DeleteAddressCommand]("addresses.delete"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeleteAddressHandler{
		inner: commands.NewHandler[DeleteAddressCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DeleteAddressCommand].
func (h *DeleteAddressHandler) Execute(ctx context.Context, msg DeleteAddressCommand) error {
	return h.inner.Execute(ctx, msg)
}
