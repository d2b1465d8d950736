package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceDefaults(t *testing.T) {
	src, err := ParseSource([]byte(`{
		"title": "City models",
		"api_base": "https://api.example.org/v1"
	}`))
	require.NoError(t, err)

	assert.Equal(t, ModeREST, src.Mode)
	assert.Equal(t, FormatPlateau, src.Format)
	assert.Equal(t, AuthHeader, src.AuthScheme)
	assert.Equal(t, DefaultPageSize, src.PageSize)
	assert.Equal(t, "datasets", src.ListPath)
	assert.Equal(t, "datasets/{id}", src.DetailPath)
}

func TestParseSourceGraphQL(t *testing.T) {
	src, err := ParseSource([]byte(`{
		"title": "GraphQL source",
		"api_base": "https://api.example.org",
		"mode": "graphql",
		"format": "plateau",
		"list_query": "query($after:String){datasets(after:$after){nodes{id title} pageInfo{hasNextPage endCursor}}}",
		"detail_query": "query($id:ID!){dataset(id:$id){id title}}"
	}`))
	require.NoError(t, err)

	assert.Equal(t, ModeGraphQL, src.Mode)
	assert.Equal(t, "graphql", src.GraphPath)
}

func TestParseSourceValidation(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		field string
	}{
		{
			"missing api_base",
			`{"title": "x"}`,
			"api_base",
		},
		{
			"unknown mode",
			`{"api_base": "https://x", "mode": "soap"}`,
			"mode",
		},
		{
			"unknown format",
			`{"api_base": "https://x", "format": "rdf"}`,
			"format",
		},
		{
			"graphql without list query",
			`{"api_base": "https://x", "mode": "graphql", "detail_query": "q"}`,
			"list_query",
		},
		{
			"graphql without detail query",
			`{"api_base": "https://x", "mode": "graphql", "list_query": "q"}`,
			"detail_query",
		},
		{
			"unknown auth scheme",
			`{"api_base": "https://x", "auth_scheme": "basic"}`,
			"auth_scheme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource([]byte(tt.json))
			require.Error(t, err)

			cfgErr, ok := err.(*SourceConfigError)
			require.True(t, ok, "expected *SourceConfigError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseSourceQueryAlias(t *testing.T) {
	src, err := ParseSource([]byte(`{
		"api_base": "https://api.example.org",
		"query": "building"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "building", src.Search)
}

func TestParseSourceRejectsMalformedJSON(t *testing.T) {
	_, err := ParseSource([]byte(`{"api_base": `))
	assert.Error(t, err)
}
