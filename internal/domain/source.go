package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects how the remote catalog is paginated and queried.
type Mode string

const (
	ModeREST    Mode = "rest"
	ModeGraphQL Mode = "graphql"
)

// Format selects the field mapper variant for a source.
type Format string

const (
	FormatPlateau Format = "plateau"
	FormatMLIT    Format = "mlit"
	FormatDCAT    Format = "dcat"
	FormatNGSI    Format = "ngsi"
)

// AuthScheme selects how the api_key is presented to the remote source.
type AuthScheme string

const (
	AuthHeader AuthScheme = "header" // X-API-Key
	AuthBearer AuthScheme = "bearer" // Authorization: Bearer via oauth2
)

// DefaultPageSize is used when a source does not declare one.
const DefaultPageSize = 100

// Source is the validated configuration for one remote catalog.
// It is immutable for the duration of a harvest run.
type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	APIBase string `json:"api_base"`
	Mode    Mode   `json:"mode"`
	Format  Format `json:"format"`

	// REST mode
	ListPath   string `json:"list_path,omitempty"`
	DetailPath string `json:"detail_path,omitempty"` // template with {id}

	// GraphQL mode
	GraphPath   string `json:"graph_path,omitempty"`
	ListQuery   string `json:"list_query,omitempty"`
	DetailQuery string `json:"detail_query,omitempty"`

	PageSize     int               `json:"page_size,omitempty"`
	APIKey       string            `json:"api_key,omitempty"`
	AuthScheme   AuthScheme        `json:"auth_scheme,omitempty"`
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
	OwnerOrg     string            `json:"owner_org,omitempty"`
	Search       string            `json:"search,omitempty"`
	Query        string            `json:"query,omitempty"` // alias for search

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseSource parses a source configuration JSON object and applies defaults.
func ParseSource(raw []byte) (*Source, error) {
	var s Source
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid source config JSON: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults fills in the optional fields the operator left out.
func (s *Source) ApplyDefaults() {
	if s.Mode == "" {
		s.Mode = ModeREST
	}
	if s.Format == "" {
		s.Format = FormatPlateau
	}
	if s.AuthScheme == "" {
		s.AuthScheme = AuthHeader
	}
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Mode == ModeREST {
		if s.ListPath == "" {
			s.ListPath = "datasets"
		}
		if s.DetailPath == "" {
			s.DetailPath = "datasets/{id}"
		}
	}
	if s.Mode == ModeGraphQL && s.GraphPath == "" {
		s.GraphPath = "graphql"
	}
	if s.Search == "" && s.Query != "" {
		s.Search = s.Query
	}
}

// Validate checks the configuration for the fields a harvest run requires.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.APIBase) == "" {
		return &SourceConfigError{Field: "api_base", Message: "is required"}
	}
	switch s.Mode {
	case ModeREST:
	case ModeGraphQL:
		if s.ListQuery == "" {
			return &SourceConfigError{Field: "list_query", Message: "is required in graphql mode"}
		}
		if s.DetailQuery == "" {
			return &SourceConfigError{Field: "detail_query", Message: "is required in graphql mode"}
		}
	default:
		return &SourceConfigError{Field: "mode", Message: "must be 'rest' or 'graphql'"}
	}
	switch s.Format {
	case FormatPlateau, FormatMLIT, FormatDCAT, FormatNGSI:
	default:
		return &SourceConfigError{Field: "format", Message: "must be one of: plateau, mlit, dcat, ngsi"}
	}
	switch s.AuthScheme {
	case AuthHeader, AuthBearer:
	default:
		return &SourceConfigError{Field: "auth_scheme", Message: "must be 'header' or 'bearer'"}
	}
	return nil
}

// SourceConfigError represents an invalid source configuration field
type SourceConfigError struct {
	Field   string
	Message string
}

func (e *SourceConfigError) Error() string {
	return e.Field + ": " + e.Message
}
