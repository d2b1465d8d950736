package mapper

import (
	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// dcatMapper maps DCAT JSON dataset descriptions, tolerating both
// prefixed (dct:/dcat:) and plain key spellings.
type dcatMapper struct{}

func (m *dcatMapper) Map(remoteID string, payload map[string]interface{}) (*domain.Dataset, error) {
	sourceID := firstString(payload, "identifier", "dct:identifier", "@id", "id")
	if sourceID == "" {
		sourceID = remoteID
	}
	if sourceID == "" {
		return nil, apperrors.NewMappingError(remoteID, "payload has no source identifier")
	}

	title := firstString(payload, "title", "dct:title")
	if title == "" {
		return nil, apperrors.NewMappingError(remoteID, "payload has no title")
	}

	ds := &domain.Dataset{
		Name:  domain.NormalizeID(sourceID),
		Title: title,
		Notes: firstString(payload, "description", "dct:description"),
	}

	for _, kw := range stringList(payload, "keyword", "dcat:keyword", "keywords") {
		ds.AddTag(domain.NormalizeID(kw))
	}
	ds.SortTags()

	ds.SetExtra("source", "DCAT")
	ds.SetExtra("dcat_identifier", sourceID)
	ds.SetExtra("issued", firstString(payload, "issued", "dct:issued"))
	ds.SetExtra("modified", firstString(payload, "modified", "dct:modified"))
	ds.SetExtra("landing_page", firstString(payload, "landingPage", "dcat:landingPage"))
	ds.SetExtra("license_id", firstString(payload, "license", "dct:license"))

	if publisher, ok := payload["publisher"].(map[string]interface{}); ok {
		ds.SetExtra("publisher", firstString(publisher, "name", "foaf:name"))
	} else if publisher, ok := payload["dct:publisher"].(map[string]interface{}); ok {
		ds.SetExtra("publisher", firstString(publisher, "name", "foaf:name"))
	}

	for _, dist := range mapList(payload, "distribution", "dcat:distribution", "distributions") {
		u := firstString(dist, "downloadURL", "dcat:downloadURL", "accessURL", "dcat:accessURL", "url")
		if u == "" {
			continue
		}
		name := firstString(dist, "title", "dct:title", "name")
		if name == "" {
			name = "distribution"
		}
		ds.Resources = append(ds.Resources, domain.Resource{
			URL:    u,
			Name:   name,
			Format: formatTag(firstString(dist, "format", "dct:format", "mediaType", "dcat:mediaType")),
			Size:   sizeOf(dist, "byteSize", "dcat:byteSize", "size"),
		})
	}

	return ds, nil
}
