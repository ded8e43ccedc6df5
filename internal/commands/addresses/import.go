package addresscmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/drydeck/drydeck/internal/commands"
	"github.com/drydeck/drydeck/internal/locations"
	"github.com/drydeck/drydeck/internal/logging"
	docvalidation "github.com/drydeck/drydeck/internal/validation"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

const importAddressesMessageType = "drydeck.addresses.import"

// ImportFailure records why one document entry was not imported.
type ImportFailure struct {
	Index   int                    `json:"index"`
	Address string                 `json:"address"`
	Error   string                 `json:"error"`
	Issues  []locations.FieldIssue `json:"issues,omitempty"`
}

// ImportReport summarises an import run.
type ImportReport struct {
	Total    int             `json:"total"`
	Created  int             `json:"created"`
	Valid    int             `json:"valid"`
	Failures []ImportFailure `json:"failures,omitempty"`
	DryRun   bool            `json:"dry_run"`
}

// ImportAddressesCommand loads a {"addresses": [...]} JSON document.
type ImportAddressesCommand struct {
	Document        json.RawMessage `json:"document"`
	ContinueOnError bool            `json:"continue_on_error"`
	DryRun          bool            `json:"dry_run"`
	Report          *ImportReport   `json:"-"`
}

// Type implements command.Message.
func (ImportAddressesCommand) Type() string { return importAddressesMessageType }

// Validate checks the document against the import schema.
func (m ImportAddressesCommand) Validate() error {
	if len(m.Document) == 0 {
		return validation.Errors{
			"document": validation.NewError("drydeck.addresses.import.document_required", "document is required"),
		}
	}
	if err := docvalidation.ValidateDocument(m.Document); err != nil {
		errs := validation.Errors{}
		issues := docvalidation.Issues(err)
		for _, issue := range issues {
			key := "document" + issue.Location
			if existing, ok := errs[key]; ok {
				errs[key] = fmt.Errorf("%v; %s", existing, issue.Message)
				continue
			}
			errs[key] = errors.New(issue.Message)
		}
		return errs
	}
	return nil
}

type importDocument struct {
	Addresses []locations.AddressInput `json:"addresses"`
}

// ImportAddressesHandler creates, or with DryRun only validates, every entry
// of an import document.
type ImportAddressesHandler struct {
	inner *commands.Handler[ImportAddressesCommand]
}

// NewImportAddressesHandler constructs a handler wired to service.
func NewImportAddressesHandler(service locations.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ImportAddressesCommand]) *ImportAddressesHandler {
	logger = logging.Ensure(logger)
	exec := func(ctx context.Context, msg ImportAddressesCommand) error {
		var doc importDocument
		if err := json.Unmarshal(msg.Document, &doc); err != nil {
			return fmt.Errorf("decode import document: %w", err)
		}

		report := msg.Report
		if report == nil {
			report = &ImportReport{}
		}
		*report = ImportReport{Total: len(doc.Addresses), DryRun: msg.DryRun}
		seen := make(map[string]struct{}, len(doc.Addresses))

		for i, input := range doc.Addresses {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := locations.AddressFromInput(input).Key()
			var err error
			if _, dup := seen[key]; dup {
				err = locations.ErrAddressExists
			} else {
				err = importOne(ctx, service, input, msg.DryRun)
			}
			if err == nil {
				seen[key] = struct{}{}
				report.Valid++
				if !msg.DryRun {
					report.Created++
				}
				continue
			}
			if !errors.Is(err, locations.ErrAddressInvalid) && !errors.Is(err, locations.ErrAddressExists) {
				return fmt.Errorf("import entry %d: %w", i, err)
			}
			report.Failures = append(report.Failures, ImportFailure{
				Index:   i,
				Address: locations.AddressFromInput(input).String(),
				Error:   err.Error(),
				Issues:  locations.Issues(err),
			})
			if !msg.ContinueOnError {
				return fmt.Errorf("import entry %d: %w", i, err)
			}
		}
		logger.Info("addresses.import.completed",
			"total", report.Total,
			"created", report.Created,
			"failed", len(report.Failures),
			"dry_run", report.DryRun,
		)
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportAddressesCommand]{
		commands.WithLogger[ImportAddressesCommand](logger),
		commands.WithOperation[ImportAddressesCommand]("addresses.import"),
		commands.WithTimeout[ImportAddressesCommand](0),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportAddressesHandler{
		inner: commands.NewHandler[ImportAddressesCommand](exec, handlerOpts...),
	}
}

func importOne(ctx context.Context, service locations.Service, input locations.AddressInput, dryRun bool) error {
	if dryRun {
		return service.ValidateAddress(ctx, locations.AddressFromInput(input))
	}
	_, err := service.CreateAddress(ctx, input)
	return err
}

// Execute satisfies command.Commander[ImportAddressesCommand].
func (h *ImportAddressesHandler) Execute(ctx context.Context, msg ImportAddressesCommand) error {
	return h.inner.Execute(ctx, msg)
}
