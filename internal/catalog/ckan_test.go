package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

func TestCKANShowFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/3/action/package_show", r.URL.Path)
		assert.Equal(t, "tokyo-bldg", r.URL.Query().Get("id"))
		assert.Equal(t, "secret-key", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"result": map[string]interface{}{
				"id":    "uuid-1",
				"name":  "tokyo-bldg",
				"title": "Tokyo Buildings",
				"tags":  []map[string]string{{"name": "bldg"}},
				"extras": []map[string]string{
					{"key": "source", "value": "PLATEAU"},
				},
			},
		})
	}))
	defer server.Close()

	cat := NewCKANCatalog(server.URL, "secret-key")
	ds, err := cat.Show(context.Background(), "tokyo-bldg")
	require.NoError(t, err)

	assert.Equal(t, "tokyo-bldg", ds.Name)
	assert.Equal(t, "Tokyo Buildings", ds.Title)
	assert.Equal(t, []string{"bldg"}, ds.Tags)
	assert.Equal(t, "PLATEAU", ds.Extras["source"])
}

func TestCKANShowNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"__type": "Not Found Error"},
		})
	}))
	defer server.Close()

	cat := NewCKANCatalog(server.URL, "")
	_, err := cat.Show(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCKANCreate(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/3/action/package_create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"result":  map[string]interface{}{"id": "uuid-new", "name": received["name"]},
		})
	}))
	defer server.Close()

	cat := NewCKANCatalog(server.URL, "key")
	ds := &domain.Dataset{
		Name:  "osaka-bldg",
		Title: "Osaka Buildings",
		Tags:  []string{"bldg"},
		Resources: []domain.Resource{
			{URL: "https://files.example.org/osaka.zip", Format: "ZIP"},
		},
	}

	id, err := cat.Create(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "uuid-new", id)
	assert.Equal(t, "osaka-bldg", received["name"])
	// create must not carry an id: CKAN assigns one
	_, hasID := received["id"]
	assert.False(t, hasID)
}

func TestCKANUpdateSendsName(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/3/action/package_update", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"result":  map[string]interface{}{"id": "uuid-1", "name": received["name"]},
		})
	}))
	defer server.Close()

	cat := NewCKANCatalog(server.URL, "key")
	_, err := cat.Update(context.Background(), &domain.Dataset{Name: "osaka-bldg", Title: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "osaka-bldg", received["id"])
}

func TestCKANWriteStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   apperrors.ErrCode
	}{
		{"forbidden", http.StatusForbidden, apperrors.ErrCodeUnauthorized},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
		{"validation", http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"conflict", http.StatusConflict, apperrors.ErrCodeBadRequest},
		{"server error", http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
			}))
			defer server.Close()

			cat := NewCKANCatalog(server.URL, "key")
			_, err := cat.Create(context.Background(), &domain.Dataset{Name: "x", Title: "X"})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.Code(err))
		})
	}
}
