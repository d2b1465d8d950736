package mapper

import (
	"fmt"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// plateauMapper maps PLATEAU 3D city model metadata (REST or GraphQL
// shape) into canonical dataset records.
type plateauMapper struct{}

func (m *plateauMapper) Map(remoteID string, payload map[string]interface{}) (*domain.Dataset, error) {
	sourceID := firstString(payload, "slug", "id")
	if sourceID == "" {
		sourceID = remoteID
	}
	if sourceID == "" {
		return nil, apperrors.NewMappingError(remoteID, "payload has no source identifier")
	}

	title := firstString(payload, "title", "name")
	if title == "" {
		return nil, apperrors.NewMappingError(remoteID, "payload has no title")
	}

	ds := &domain.Dataset{
		Name:  domain.NormalizeID(sourceID),
		Title: title,
		Notes: firstString(payload, "description", "abstract", "notes"),
	}

	for _, tag := range stringList(payload, "themes", "keywords", "tags") {
		ds.AddTag(domain.NormalizeID(tag))
	}
	ds.SortTags()

	source := firstString(payload, "source")
	if source == "" {
		source = "PLATEAU"
	}
	ds.SetExtra("source", source)
	ds.SetExtra("city", firstString(payload, "city", "municipality"))
	ds.SetExtra("prefecture", firstString(payload, "prefecture"))
	ds.SetExtra("year", firstString(payload, "year"))
	ds.SetExtra("model_type", firstString(payload, "modelType", "format"))
	ds.SetExtra("plateau_id", firstString(payload, "id"))
	ds.SetExtra("plateau_spec_version", firstString(payload, "specVersion"))
	ds.SetExtra("modified", firstString(payload, "modified", "updatedAt", "lastModified"))
	ds.SetExtra("created", firstString(payload, "created", "createdAt"))
	ds.SetExtra("license_id", firstString(payload, "license"))
	if bbox, ok := payload["bbox"]; ok {
		ds.SetExtra("spatial", fmt.Sprintf("%v", bbox))
	}

	for _, res := range mapList(payload, "resources") {
		u := firstString(res, "url", "downloadURL", "accessURL")
		if u == "" {
			continue
		}
		name := firstString(res, "name", "title")
		if name == "" {
			name = "download"
		}
		ds.Resources = append(ds.Resources, domain.Resource{
			URL:    u,
			Name:   name,
			Format: formatTag(firstString(res, "format", "mediaType")),
			Size:   sizeOf(res, "size"),
		})
	}

	return ds, nil
}
