package locations

import (
	"regexp"
	"strings"
)

// Component names, in declaration order. They double as column names and
// JSON keys.
const (
	FieldAddressAlphanumeric = "address_alphanumeric"
	FieldPreDirAbbrev        = "predirabbrev"
	FieldStreetName          = "streetname"
	FieldStreetTypeAbbrev    = "streettypeabbrev"
	FieldPostDirAbbrev       = "postdirabbrev"
	FieldInternal            = "internal"
	FieldLocation            = "location"
	FieldStateAbbrev         = "stateabbrev"
	FieldZip                 = "zip"
	FieldZip4                = "zip4"
)

// FieldSpec describes one address component.
type FieldSpec struct {
	Name      string         `json:"name"`
	Label     string         `json:"label"`
	HelpText  string         `json:"help_text"`
	MaxLength int            `json:"max_length"`
	Required  bool           `json:"required"`
	Pattern   *regexp.Regexp `json:"-"`
	Message   string         `json:"message"`
}

var directionPattern = regexp.MustCompile(`^[NS]?[EW]?$`)

var fieldSpecs = []FieldSpec{
	{
		Name:      FieldAddressAlphanumeric,
		Label:     "Building Number",
		HelpText:  "The building number of the address: e.g., '1234' or '1234A'.",
		MaxLength: 16,
		Required:  true,
		Pattern:   regexp.MustCompile(`^\d+[A-Z]?$`),
		Message:   "Invalid house number.",
	},
	{
		Name:      FieldPreDirAbbrev,
		Label:     "Direction Prefix",
		HelpText:  "The direction prefix of the street: e.g., 'N' or 'NW'.",
		MaxLength: 2,
		Pattern:   directionPattern,
		Message:   "Invalid direction prefix.",
	},
	{
		Name:      FieldStreetName,
		Label:     "Street Name",
		HelpText:  "The name of the street: e.g., 'Main' or 'Elm'.",
		MaxLength: 32,
		Required:  true,
		Pattern:   regexp.MustCompile(`^[A-Za-z\s]+$`),
		Message:   "Invalid street name.",
	},
	{
		Name:      FieldStreetTypeAbbrev,
		Label:     "Street Type",
		HelpText:  "The type of the street: e.g., 'St' or 'Ave'.",
		MaxLength: 16,
		Pattern:   regexp.MustCompile(`^[A-Za-z]+\.?$`),
		Message:   "Invalid street type.",
	},
	{
		Name:      FieldPostDirAbbrev,
		Label:     "Direction Suffix",
		HelpText:  "The direction suffix of the street: e.g., 'S' or 'SE'.",
		MaxLength: 2,
		Pattern:   directionPattern,
		Message:   "Invalid direction suffix.",
	},
	{
		Name:      FieldInternal,
		Label:     "Internal",
		HelpText:  "The internal address: e.g., 'Apt 1' or 'Suite 100'.",
		MaxLength: 32,
		Pattern:   regexp.MustCompile(`^(?:[A-Za-z]+\.*\s\d+)$`),
		Message:   "Invalid internal address.",
	},
	{
		Name:      FieldLocation,
		Label:     "City",
		HelpText:  "The city of the address: e.g., 'Springfield' or 'Rivertown'.",
		MaxLength: 32,
		Required:  true,
		Pattern:   regexp.MustCompile(`^[A-Za-z\s]+$`),
		Message:   "Invalid city.",
	},
	{
		Name:      FieldStateAbbrev,
		Label:     "State",
		HelpText:  "The state of the address: e.g., 'CA' or 'NY'.",
		MaxLength: 2,
		Required:  true,
		Pattern:   regexp.MustCompile(`^[A-Z]{2}$`),
		Message:   "Invalid state.",
	},
	{
		Name:      FieldZip,
		Label:     "ZIP Code",
		HelpText:  "The ZIP code of the address: e.g., '12345'.",
		MaxLength: 5,
		Required:  true,
		Pattern:   regexp.MustCompile(`^\d{5}$`),
		Message:   "Invalid ZIP code.",
	},
	{
		Name:      FieldZip4,
		Label:     "ZIP+4 Code",
		HelpText:  "The ZIP+4 code of the address: e.g., '6789'.",
		MaxLength: 4,
		Pattern:   regexp.MustCompile(`^\d{4}$`),
		Message:   "Invalid ZIP+4 code.",
	},
}

// FieldSpecs returns the descriptors for every address component.
func FieldSpecs() []FieldSpec {
	out := make([]FieldSpec, len(fieldSpecs))
	copy(out, fieldSpecs)
	return out
}

// FieldSpecFor looks up a component descriptor by name.
func FieldSpecFor(name string) (FieldSpec, bool) {
	for _, spec := range fieldSpecs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// AddressFields lists the component names in declaration order.
func AddressFields() []string {
	names := make([]string, len(fieldSpecs))
	for i, spec := range fieldSpecs {
		names[i] = spec.Name
	}
	return names
}

// RequiredFields returns the components that may not be blank.
func RequiredFields() []FieldSpec {
	out := make([]FieldSpec, 0, 5)
	for _, spec := range fieldSpecs {
		if spec.Required {
			out = append(out, spec)
		}
	}
	return out
}

// DirectionAbbreviations lists the accepted street direction prefixes and suffixes.
func DirectionAbbreviations() []string {
	return []string{"N", "S", "E", "W", "NE", "NW", "SE", "SW"}
}

// Component returns the value stored for the named component.
func (a *Address) Component(name string) (string, bool) {
	ptr := a.componentPtr(name)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

// SetComponent assigns the named component. Unknown names report false.
func (a *Address) SetComponent(name, value string) bool {
	ptr := a.componentPtr(name)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

// Components returns the component values in declaration order.
func (a *Address) Components() []string {
	if a == nil {
		return nil
	}
	return []string{
		a.AddressAlphanumeric,
		a.PreDirAbbrev,
		a.StreetName,
		a.StreetTypeAbbrev,
		a.PostDirAbbrev,
		a.Internal,
		a.Location,
		a.StateAbbrev,
		a.Zip,
		a.Zip4,
	}
}

// String renders the address on a single line, skipping blank components.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return strings.Join(strings.Fields(strings.Join(a.Components(), " ")), " ")
}

// Key returns the composite value guarded by the unique_address constraint.
func (a *Address) Key() string {
	if a == nil {
		return ""
	}
	return strings.Join(a.Components(), "|")
}

func (a *Address) componentPtr(name string) *string {
	if a == nil {
		return nil
	}
	switch name {
	case FieldAddressAlphanumeric:
		return &a.AddressAlphanumeric
	case FieldPreDirAbbrev:
		return &a.PreDirAbbrev
	case FieldStreetName:
		return &a.StreetName
	case FieldStreetTypeAbbrev:
		return &a.StreetTypeAbbrev
	case FieldPostDirAbbrev:
		return &a.PostDirAbbrev
	case FieldInternal:
		return &a.Internal
	case FieldLocation:
		return &a.Location
	case FieldStateAbbrev:
		return &a.StateAbbrev
	case FieldZip:
		return &a.Zip
	case FieldZip4:
		return &a.Zip4
	default:
		return nil
	}
}
