package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNGSIMapperV2Entity(t *testing.T) {
	payload := decode(t, `{
		"id": "urn:ngsi-ld:AirQualityObserved:madrid-28079004",
		"type": "AirQualityObserved",
		"name": {"type": "Text", "value": "Plaza de España Station"},
		"description": {"type": "Text", "value": "Air quality observed at street level."},
		"category": {"type": "Text", "value": "environment"},
		"NO2": {"type": "Number", "value": 45},
		"stationCode": {"type": "Text", "value": "28079004"},
		"location": {"type": "geo:json", "value": {"type": "Point", "coordinates": [-3.71, 40.42]}}
	}`)

	m := &ngsiMapper{}
	ds, err := m.Map("urn:ngsi-ld:AirQualityObserved:madrid-28079004", payload)
	require.NoError(t, err)

	assert.Equal(t, "urn-ngsi-ld-airqualityobserved-madrid-28079004", ds.Name)
	assert.Equal(t, "Plaza de España Station", ds.Title)
	assert.Equal(t, "Air quality observed at street level.", ds.Notes)
	assert.Equal(t, []string{"airqualityobserved", "environment"}, ds.Tags)

	assert.Equal(t, "NGSI", ds.Extras["source"])
	assert.Equal(t, "AirQualityObserved", ds.Extras["entity_type"])
	// non-standard attributes become extras, unwrapped from {value}
	assert.Equal(t, "45", ds.Extras["NO2"])
	assert.Equal(t, "28079004", ds.Extras["stationCode"])
	// standard fields stay out of the extras
	_, hasLocation := ds.Extras["location"]
	assert.False(t, hasLocation)

	assert.Empty(t, ds.Resources)
}

func TestNGSIMapperSynthesizesTitle(t *testing.T) {
	payload := decode(t, `{
		"id": "urn:ngsi-ld:Device:sensor-12",
		"type": "Device"
	}`)

	m := &ngsiMapper{}
	ds, err := m.Map("urn:ngsi-ld:Device:sensor-12", payload)
	require.NoError(t, err)
	assert.Equal(t, "Device: urn:ngsi-ld:Device:sensor-12", ds.Title)
}

func TestNGSIMapperKeyValuesRepresentation(t *testing.T) {
	// NGSI keyValues mode sends plain scalars instead of {value} objects.
	payload := decode(t, `{
		"id": "urn:ngsi-ld:Parking:p-1",
		"type": "Parking",
		"name": "Central Garage",
		"totalSpotNumber": 240
	}`)

	m := &ngsiMapper{}
	ds, err := m.Map("urn:ngsi-ld:Parking:p-1", payload)
	require.NoError(t, err)
	assert.Equal(t, "Central Garage", ds.Title)
	assert.Equal(t, "240", ds.Extras["totalSpotNumber"])
}
