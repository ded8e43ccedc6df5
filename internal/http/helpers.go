package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/drydeck/drydeck/internal/locations"
)

type errorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Issues  []locations.FieldIssue `json:"issues,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if baseClean == "/" {
		baseClean = ""
	}
	if trimmedSuffix == "" {
		if baseClean == "" {
			return "/"
		}
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

// mapError translates both command-layer go-errors and raw service errors.
func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var typed *goerrors.Error
	if errors.As(err, &typed) {
		switch typed.Category {
		case goerrors.CategoryNotFound:
			return http.StatusNotFound, errorResponse{Error: "not_found", Message: typed.Message, Code: typed.TextCode}
		case goerrors.CategoryConflict:
			return http.StatusConflict, errorResponse{
				Error:   "conflict",
				Message: typed.Message,
				Code:    typed.TextCode,
				Issues:  issuesFromFieldErrors(typed.ValidationErrors),
			}
		case goerrors.CategoryValidation:
			return http.StatusUnprocessableEntity, errorResponse{
				Error:   "validation_failed",
				Message: typed.Message,
				Code:    typed.TextCode,
				Issues:  issuesFromFieldErrors(typed.ValidationErrors),
			}
		}
	}

	var notFound *locations.NotFoundError
	if errors.As(err, &notFound) || errors.Is(err, locations.ErrAddressNotFound) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	}

	if errors.Is(err, locations.ErrAddressExists) {
		return http.StatusConflict, errorResponse{
			Error:   "conflict",
			Message: err.Error(),
			Issues:  locations.Issues(err),
		}
	}

	if errors.Is(err, locations.ErrAddressInvalid) || errors.Is(err, locations.ErrAddressUnparseable) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  locations.Issues(err),
		}
	}

	if errors.Is(err, locations.ErrAddressTextRequired) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	}

	if errors.Is(err, locations.ErrNormalizerUnavailable) {
		return http.StatusNotImplemented, errorResponse{Error: "not_implemented", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func issuesFromFieldErrors(fields goerrors.ValidationErrors) []locations.FieldIssue {
	if len(fields) == 0 {
		return nil
	}
	out := make([]locations.FieldIssue, 0, len(fields))
	for _, field := range fields {
		out = append(out, locations.FieldIssue{Field: field.Field, Message: field.Message})
	}
	return out
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, err
	}
	return parsed, nil
}

func parseBoolQuery(value string, defaultValue bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseIntQuery(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, errors.New("must not be negative")
	}
	return parsed, nil
}
