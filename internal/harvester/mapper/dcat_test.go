package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCATMapperPrefixedKeys(t *testing.T) {
	payload := decode(t, `{
		"dct:identifier": "env.airquality.2024",
		"dct:title": "Air Quality Measurements",
		"dct:description": "Hourly air quality readings.",
		"dcat:keyword": ["air", "environment"],
		"dct:issued": "2024-01-01",
		"dct:modified": "2024-06-15",
		"dct:publisher": {"foaf:name": "Environment Agency"},
		"dcat:distribution": [
			{
				"dcat:downloadURL": "https://open.example.eu/air.csv",
				"dct:format": "text/csv",
				"dcat:byteSize": 500000
			}
		]
	}`)

	m := &dcatMapper{}
	ds, err := m.Map("env.airquality.2024", payload)
	require.NoError(t, err)

	assert.Equal(t, "env-airquality-2024", ds.Name)
	assert.Equal(t, "Air Quality Measurements", ds.Title)
	assert.Equal(t, []string{"air", "environment"}, ds.Tags)
	assert.Equal(t, "DCAT", ds.Extras["source"])
	assert.Equal(t, "env.airquality.2024", ds.Extras["dcat_identifier"])
	assert.Equal(t, "2024-06-15", ds.Extras["modified"])
	assert.Equal(t, "Environment Agency", ds.Extras["publisher"])

	require.Len(t, ds.Resources, 1)
	assert.Equal(t, "https://open.example.eu/air.csv", ds.Resources[0].URL)
	assert.Equal(t, "TEXT/CSV", ds.Resources[0].Format)
	assert.Equal(t, int64(500000), ds.Resources[0].Size)
	assert.Equal(t, "distribution", ds.Resources[0].Name)
}

func TestDCATMapperPlainKeys(t *testing.T) {
	payload := decode(t, `{
		"identifier": "transit-gtfs",
		"title": "Transit GTFS Feed",
		"keyword": ["transit"],
		"distribution": [
			{"accessURL": "https://open.example.eu/gtfs.zip", "title": "GTFS"}
		]
	}`)

	m := &dcatMapper{}
	ds, err := m.Map("transit-gtfs", payload)
	require.NoError(t, err)

	assert.Equal(t, "transit-gtfs", ds.Name)
	require.Len(t, ds.Resources, 1)
	assert.Equal(t, "GTFS", ds.Resources[0].Name)
}

func TestDCATMapperMissingTitle(t *testing.T) {
	m := &dcatMapper{}
	_, err := m.Map("x", decode(t, `{"identifier": "x"}`))
	assert.Error(t, err)
}
