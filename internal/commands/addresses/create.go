package addresscmd

import (
	"context"
	"errors"

	"github.com/drydeck/drydeck/internal/commands"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

const createAddressMessageType = "drydeck.addresses.create"

// CreateResult receives the stored address when a CreateAddressCommand succeeds.
type CreateResult struct {
	Address *locations.Address
}

// CreateAddressCommand registers a single address.
type CreateAddressCommand struct {
	Address locations.AddressInput `json:"address"`
	Result  *CreateResult          `json:"-"`
}

// Type implements command.Message.
func (CreateAddressCommand) Type() string { return createAddressMessageType }

// Validate runs the component rules before the message reaches the service.
func (m CreateAddressCommand) Validate() error {
	err := locations.AddressFromInput(m.Address).Validate()
	var verr *locations.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return err
}

// CreateAddressHandler creates addresses through the locations service.
type CreateAddressHandler struct {
	inner *commands.Handler[CreateAddressCommand]
}

// NewCreateAddressHandler constructs a handler wired to service.
func NewCreateAddressHandler(service locations.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CreateAddressCommand]) *CreateAddressHandler {
	exec := func(ctx context.Context, msg CreateAddressCommand) error {
		created, err := service.CreateAddress(ctx, msg.Address)
		if err != nil {
			return err
		}
		if msg.Result != nil {
			msg.Result.Address = created
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[CreateAddressCommand]{
		commands.WithLogger[CreateAddressCommand](logger),
		commands.WithOperation[CreateAddressCommand]("addresses.create"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreateAddressHandler{
		inner: commands.NewHandler[CreateAddressCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CreateAddressCommand].
func (h *CreateAddressHandler) Execute(ctx context.Context, msg CreateAddressCommand) error {
	return h.inner.Execute(ctx, msg)
}
