package domain

import (
	"fmt"
	"slices"
)

// Step identifies a wizard step.
type Step string

const (
	StepLocation Step = "location"
	StepDetails  Step = "details"
	StepPreview  Step = "preview"
)

// Index returns the zero-based position of the step, or -1 for an unknown step.
func (s Step) Index() int {
	switch s {
	case StepLocation:
		return 0
	case StepDetails:
		return 1
	case StepPreview:
		return 2
	default:
		return -1
	}
}

// Title returns the user-facing step heading.
func (s Step) Title() string {
	switch s {
	case StepLocation:
		return "Passo 1: Localização"
	case StepDetails:
		return "Passo 2: Detalhes da Ocorrência"
	case StepPreview:
		return "Passo 3: Pré-visualização"
	default:
		return ""
	}
}

// ManifestationType classifies what the reporter is telling the city.
type ManifestationType string

const (
	ManifestationSuggestion ManifestationType = "sugestao"
	ManifestationComplaint  ManifestationType = "reclamacao"
	ManifestationCompliment ManifestationType = "elogio"
	ManifestationOther      ManifestationType = "outros"
)

// ManifestationTypes lists the accepted types in display order.
var ManifestationTypes = []ManifestationType{
	ManifestationSuggestion,
	ManifestationComplaint,
	ManifestationCompliment,
	ManifestationOther,
}

// Valid reports whether m is one of the accepted types. The empty value is
// not valid; it means "not chosen yet".
func (m ManifestationType) Valid() bool {
	return slices.Contains(ManifestationTypes, m)
}

// Label returns the display label for the type.
func (m ManifestationType) Label() string {
	switch m {
	case ManifestationSuggestion:
		return "Sugestão de Melhoria"
	case ManifestationComplaint:
		return "Reclamação"
	case ManifestationCompliment:
		return "Elogio"
	case ManifestationOther:
		return "Outros"
	default:
		return ""
	}
}

// ParseManifestationType validates a raw value. The empty string clears the
// choice and is accepted.
func ParseManifestationType(s string) (ManifestationType, error) {
	m := ManifestationType(s)
	if m == "" || m.Valid() {
		return m, nil
	}
	return "", &ValidationError{
		Field:   FieldManifestationType,
		Message: fmt.Sprintf("tipo de manifestação inválido: %q", s),
	}
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// DefaultCoordinates is the fallback pin for a new draft (Rio de Janeiro
// city centre).
var DefaultCoordinates = Coordinates{Latitude: -22.9068, Longitude: -43.1729}

// DefaultZoom is the map zoom level used when centring on a draft's pin.
const DefaultZoom = 15

// FileHandle references a file staged in memory for a draft. The bytes live
// in the media staging store, never in the draft itself.
type FileHandle struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Draft field names accepted by the wizard's field updates.
const (
	FieldAddress           = "address"
	FieldPostalCode        = "postalCode"
	FieldManifestationType = "manifestationType"
	FieldDescription       = "description"
)

// Draft is the in-progress report held by a wizard.
type Draft struct {
	Address           string            `json:"address"`
	PostalCode        string            `json:"postalCode"`
	Coordinates       Coordinates       `json:"coordinates"`
	ManifestationType ManifestationType `json:"manifestationType"`
	Description       string            `json:"description"`
	Files             []FileHandle      `json:"attachedFiles"`
	Step              Step              `json:"currentStep"`
}

// NewDraft returns an empty draft on the location step, pinned to
// DefaultCoordinates.
func NewDraft() Draft {
	return Draft{
		Coordinates: DefaultCoordinates,
		Files:       []FileHandle{},
		Step:        StepLocation,
	}
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	d.Files = slices.Clone(d.Files)
	if d.Files == nil {
		d.Files = []FileHandle{}
	}
	return d
}

// CheckLocation validates the fields required to leave the location step.
func (d Draft) CheckLocation() error {
	if d.Address == "" || d.PostalCode == "" {
		field := FieldAddress
		if d.Address != "" {
			field = FieldPostalCode
		}
		return &ValidationError{Field: field, Message: "Preencha o endereço e CEP"}
	}
	return nil
}

// CheckDetails validates the fields required to leave the details step.
func (d Draft) CheckDetails() error {
	if d.ManifestationType == "" || d.Description == "" {
		field := FieldManifestationType
		if d.ManifestationType != "" {
			field = FieldDescription
		}
		return &ValidationError{Field: field, Message: "Preencha o tipo e a descrição"}
	}
	return nil
}
