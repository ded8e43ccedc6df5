package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/drydeck/drydeck/internal/locations"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrDocumentMalformed = errors.New("validation: document is not valid JSON")
	ErrDocumentInvalid   = errors.New("validation: document does not match the address import schema")
)

const documentSchemaURL = "address-import.json"

// Issue captures a single schema failure.
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// DocumentError lists every schema failure found in an import document.
type DocumentError struct {
	Issues []Issue
	Cause  error
}

func (e *DocumentError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrDocumentInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *DocumentError) Unwrap() error {
	return ErrDocumentInvalid
}

// Issues extracts schema issues from an error.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var docErr *DocumentError
	if errors.As(err, &docErr) && docErr != nil {
		return docErr.Issues
	}
	var schemaErr *jsonschema.ValidationError
	if errors.As(err, &schemaErr) && schemaErr != nil {
		return collectIssues(schemaErr)
	}
	return []Issue{{Message: err.Error()}}
}

// AddressDocumentSchema describes {"addresses": [...]} import documents. Each
// entry carries the address components as strings bounded by their column
// length; pattern checks stay with the address validator.
func AddressDocumentSchema() map[string]any {
	properties := map[string]any{}
	required := []any{}
	for _, spec := range locations.FieldSpecs() {
		properties[spec.Name] = map[string]any{
			"type":      "string",
			"maxLength": spec.MaxLength,
		}
		if spec.Required {
			required = append(required, spec.Name)
		}
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"addresses": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           properties,
					"required":             required,
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"addresses"},
		"additionalProperties": false,
	}
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = compileSchema(AddressDocumentSchema())
	})
	return compiledSchema, compileErr
}

// ValidateDocument checks raw import JSON against AddressDocumentSchema.
func ValidateDocument(data []byte) error {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", ErrDocumentMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrDocumentMalformed)
	}

	schema, err := documentSchema()
	if err != nil {
		return fmt.Errorf("compile address import schema: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return &DocumentError{Issues: Issues(err), Cause: err}
	}
	return nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(documentSchemaURL, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile(documentSchemaURL)
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
