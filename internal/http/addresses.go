package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	addresscmd "github.com/drydeck/drydeck/internal/commands/addresses"
	"github.com/drydeck/drydeck/internal/locations"
)

const maxImportBytes = 8 << 20

type addressUpdatePayload struct {
	AddressAlphanumeric *string `json:"address_alphanumeric,omitempty"`
	PreDirAbbrev        *string `json:"predirabbrev,omitempty"`
	StreetName          *string `json:"streetname,omitempty"`
	StreetTypeAbbrev    *string `json:"streettypeabbrev,omitempty"`
	PostDirAbbrev       *string `json:"postdirabbrev,omitempty"`
	Internal            *string `json:"internal,omitempty"`
	Location            *string `json:"location,omitempty"`
	StateAbbrev         *string `json:"stateabbrev,omitempty"`
	Zip                 *string `json:"zip,omitempty"`
	Zip4                *string `json:"zip4,omitempty"`
}

type addressValidatePayload struct {
	locations.AddressInput
	ID *uuid.UUID `json:"id,omitempty"`
}

type addressParsePayload struct {
	Text string `json:"text"`
}

type addressListResponse struct {
	Records []*locations.Address `json:"records"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
}

type addressParseResponse struct {
	Address *locations.Address     `json:"address"`
	Display string                 `json:"display"`
	Valid   bool                   `json:"valid"`
	Issues  []locations.FieldIssue `json:"issues,omitempty"`
}

func (api *AdminAPI) registerAddressRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "addresses")
	mux.HandleFunc("GET "+root, api.handleAddressList)
	mux.HandleFunc("POST "+root, api.handleAddressCreate)
	mux.HandleFunc("GET "+root+"/fields", api.handleAddressFields)
	mux.HandleFunc("POST "+root+"/validate", api.handleAddressValidate)
	mux.HandleFunc("POST "+root+"/parse", api.handleAddressParse)
	mux.HandleFunc("POST "+root+"/import", api.handleAddressImport)
	mux.HandleFunc("GET "+root+"/{id}", api.handleAddressGet)
	mux.HandleFunc("PUT "+root+"/{id}", api.handleAddressUpdate)
	mux.HandleFunc("DELETE "+root+"/{id}", api.handleAddressDelete)
}

func (api *AdminAPI) available(w http.ResponseWriter) bool {
	if api == nil || api.addresses == nil || api.commands == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return false
	}
	return true
}

func (api *AdminAPI) handleAddressList(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	query := r.URL.Query()
	limit, err := parseIntQuery(query.Get("limit"))
	if err != nil {
		badRequest(w, "invalid limit")
		return
	}
	offset, err := parseIntQuery(query.Get("offset"))
	if err != nil {
		badRequest(w, "invalid offset")
		return
	}
	opts := locations.ListOptions{
		Zip:        strings.TrimSpace(query.Get("zip")),
		State:      strings.TrimSpace(query.Get("state")),
		Location:   strings.TrimSpace(query.Get("location")),
		StreetName: strings.TrimSpace(query.Get("street")),
		Limit:      limit,
		Offset:     offset,
	}
	result, err := api.addresses.ListAddresses(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addressListResponse{
		Records: result.Records,
		Total:   result.Total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (api *AdminAPI) handleAddressCreate(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	var input locations.AddressInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, "invalid json")
		return
	}
	result := &addresscmd.CreateResult{}
	if err := api.commands.Create.Execute(r.Context(), addresscmd.CreateAddressCommand{Address: input, Result: result}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result.Address)
}

func (api *AdminAPI) handleAddressGet(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	record, err := api.addresses.GetAddress(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleAddressUpdate(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var payload addressUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	updated, err := api.addresses.UpdateAddress(r.Context(), locations.UpdateAddressInput{
		ID:                  id,
		AddressAlphanumeric: payload.AddressAlphanumeric,
		PreDirAbbrev:        payload.PreDirAbbrev,
		StreetName:          payload.StreetName,
		StreetTypeAbbrev:    payload.StreetTypeAbbrev,
		PostDirAbbrev:       payload.PostDirAbbrev,
		Internal:            payload.Internal,
		Location:            payload.Location,
		StateAbbrev:         payload.StateAbbrev,
		Zip:                 payload.Zip,
		Zip4:                payload.Zip4,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (api *AdminAPI) handleAddressDelete(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := api.commands.Delete.Execute(r.Context(), addresscmd.DeleteAddressCommand{ID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *AdminAPI) handleAddressFields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, locations.FieldSpecs())
}

func (api *AdminAPI) handleAddressValidate(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	var payload addressValidatePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	record := locations.AddressFromInput(payload.AddressInput)
	if payload.ID != nil {
		record.ID = *payload.ID
	}
	if err := api.addresses.ValidateAddress(r.Context(), record); err != nil {
		if errors.Is(err, locations.ErrAddressExists) || errors.Is(err, locations.ErrAddressInvalid) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:   "validation_failed",
				Message: err.Error(),
				Issues:  locations.Issues(err),
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "display": record.String()})
}

func (api *AdminAPI) handleAddressParse(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	var payload addressParsePayload
	if err := decodeJSON(r, &payload); err != nil {
		badRequest(w, "invalid json")
		return
	}
	parsed, err := api.addresses.ParseAddress(r.Context(), payload.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	response := addressParseResponse{Address: parsed, Display: parsed.String(), Valid: true}
	if err := parsed.Validate(); err != nil {
		response.Valid = false
		response.Issues = locations.Issues(err)
	}
	writeJSON(w, http.StatusOK, response)
}

func (api *AdminAPI) handleAddressImport(w http.ResponseWriter, r *http.Request) {
	if !api.available(w) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload_too_large"})
			return
		}
		badRequest(w, "unreadable body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		badRequest(w, "import document required")
		return
	}
	if !json.Valid(body) {
		badRequest(w, "invalid json")
		return
	}
	query := r.URL.Query()
	report := &addresscmd.ImportReport{}
	cmd := addresscmd.ImportAddressesCommand{
		Document:        json.RawMessage(body),
		ContinueOnError: parseBoolQuery(query.Get("continue"), false),
		DryRun:          parseBoolQuery(query.Get("dry_run"), false),
		Report:          report,
	}
	if err := api.commands.Import.Execute(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if report.Created > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, report)
}
