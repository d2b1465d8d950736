package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMLITMapperObjectTags(t *testing.T) {
	payload := decode(t, `{
		"id": "mlit-123",
		"name": "road_traffic_census",
		"title": "道路交通センサス",
		"notes": "National road traffic census results.",
		"license_id": "cc-by",
		"tags": [
			{"name": "traffic", "display_name": "Traffic"},
			{"display_name": "Roads"},
			"census"
		],
		"organization": {"id": "org-mlit", "name": "mlit"},
		"resources": [
			{"url": "https://data.example.go.jp/census.csv", "format": "csv", "size": 2048},
			{"download_url": "https://data.example.go.jp/census.pdf"}
		]
	}`)

	m := &mlitMapper{}
	ds, err := m.Map("mlit-123", payload)
	require.NoError(t, err)

	assert.Equal(t, "road-traffic-census", ds.Name)
	assert.Equal(t, "道路交通センサス", ds.Title)
	assert.Equal(t, []string{"census", "roads", "traffic"}, ds.Tags)
	assert.Equal(t, "org-mlit", ds.OwnerOrg)
	assert.Equal(t, "MLIT", ds.Extras["source"])
	assert.Equal(t, "mlit-123", ds.Extras["mlit_id"])
	assert.Equal(t, "cc-by", ds.Extras["license_id"])

	require.Len(t, ds.Resources, 2)
	assert.Equal(t, "CSV", ds.Resources[0].Format)
	assert.Equal(t, int64(2048), ds.Resources[0].Size)
	// second resource has no name: a positional one is generated
	assert.Equal(t, "resource-2", ds.Resources[1].Name)
}

func TestMLITMapperStringOrganization(t *testing.T) {
	payload := decode(t, `{
		"id": "mlit-9",
		"title": "Ports",
		"organization": "mlit-ports"
	}`)

	m := &mlitMapper{}
	ds, err := m.Map("mlit-9", payload)
	require.NoError(t, err)
	assert.Equal(t, "mlit-ports", ds.OwnerOrg)
}

func TestMLITMapperUpstreamExtras(t *testing.T) {
	payload := decode(t, `{
		"id": "mlit-5",
		"title": "River levels",
		"extras": [
			{"key": "river_system", "value": "Tone"},
			{"key": "frequency", "value": 24},
			{"value": "orphan, no key"}
		]
	}`)

	m := &mlitMapper{}
	ds, err := m.Map("mlit-5", payload)
	require.NoError(t, err)

	assert.Equal(t, "Tone", ds.Extras["river_system"])
	assert.Equal(t, "24", ds.Extras["frequency"])
}

func TestMLITMapperMissingTitle(t *testing.T) {
	m := &mlitMapper{}
	_, err := m.Map("mlit-7", decode(t, `{"id": "mlit-7"}`))
	assert.Error(t, err)
}
