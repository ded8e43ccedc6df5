package locations

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	blankMessage   = "This field cannot be blank."
	lengthTemplate = "Ensure this value has at most %d characters."
)

// FieldIssue describes a single component that failed validation.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates per-component validation failures.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrAddressInvalid.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAddressInvalid.Error(), e.Fields.Error())
}

func (e *ValidationError) Unwrap() error {
	return ErrAddressInvalid
}

// Issues flattens the failures in component declaration order.
func (e *ValidationError) Issues() []FieldIssue {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	order := make(map[string]int, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		order[spec.Name] = i
	}
	issues := make([]FieldIssue, 0, len(e.Fields))
	for field, err := range e.Fields {
		if err == nil {
			continue
		}
		issues = append(issues, FieldIssue{Field: field, Message: err.Error()})
	}
	sort.Slice(issues, func(i, j int) bool {
		oi, iok := order[issues[i].Field]
		oj, jok := order[issues[j].Field]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return issues[i].Field < issues[j].Field
	})
	return issues
}

// HasField reports whether the named component failed validation.
func (e *ValidationError) HasField(name string) bool {
	if e == nil {
		return false
	}
	err, ok := e.Fields[name]
	return ok && err != nil
}

// Issues extracts field issues from any error produced by this package.
func Issues(err error) []FieldIssue {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues()
	}
	if errors.Is(err, ErrAddressExists) {
		return []FieldIssue{{Field: "__all__", Message: uniqueViolationMessage}}
	}
	return nil
}

// Validate checks every component against its required flag, maximum length
// and pattern. It does not consult storage; see Service.ValidateAddress for
// the uniqueness check.
func (a *Address) Validate() error {
	if a == nil {
		return ErrAddressInvalid
	}
	fields := make([]*validation.FieldRules, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		fields = append(fields, validation.Field(a.componentPtr(spec.Name), rulesFor(spec)...))
	}
	if err := validation.ValidateStruct(a, fields...); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return &ValidationError{Fields: errs}
		}
		return err
	}
	return nil
}

func rulesFor(spec FieldSpec) []validation.Rule {
	rules := make([]validation.Rule, 0, 3)
	if spec.Required {
		rules = append(rules, validation.Required.Error(blankMessage))
	}
	if spec.MaxLength > 0 {
		rules = append(rules, validation.RuneLength(0, spec.MaxLength).Error(fmt.Sprintf(lengthTemplate, spec.MaxLength)))
	}
	if spec.Pattern != nil {
		rules = append(rules, validation.Match(spec.Pattern).Error(spec.Message))
	}
	return rules
}

// ValidateComponent runs the rules for a single component value.
func ValidateComponent(name, value string) error {
	spec, ok := FieldSpecFor(strings.TrimSpace(name))
	if !ok {
		return fmt.Errorf("%w: unknown component %q", ErrAddressInvalid, name)
	}
	return validation.Validate(value, rulesFor(spec)...)
}
