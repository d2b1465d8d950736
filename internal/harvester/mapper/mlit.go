package mapper

import (
	"fmt"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// mlitMapper maps records from the Japan MLIT data platform.
type mlitMapper struct{}

func (m *mlitMapper) Map(remoteID string, payload map[string]interface{}) (*domain.Dataset, error) {
	sourceID := firstString(payload, "id")
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

	nameSource := firstString(payload, "name")
	if nameSource == "" {
		nameSource = sourceID
	}

	ds := &domain.Dataset{
		Name:  domain.NormalizeID(nameSource),
		Title: title,
		Notes: firstString(payload, "description", "notes"),
	}

	// Tags arrive either as plain strings or CKAN-style objects.
	if rawTags, ok := payload["tags"].([]interface{}); ok {
		for _, raw := range rawTags {
			switch t := raw.(type) {
			case string:
				ds.AddTag(domain.NormalizeID(t))
			case map[string]interface{}:
				if v := firstString(t, "name", "display_name"); v != "" {
					ds.AddTag(domain.NormalizeID(v))
				}
			}
		}
	}
	ds.SortTags()

	ds.SetExtra("source", "MLIT")
	ds.SetExtra("mlit_id", sourceID)
	ds.SetExtra("license_id", firstString(payload, "license_id", "license"))
	ds.SetExtra("modified", firstString(payload, "modified", "updated_at"))

	// Upstream extras already in key/value form are carried over.
	if rawExtras, ok := payload["extras"].([]interface{}); ok {
		for _, raw := range rawExtras {
			extra, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			key := firstString(extra, "key")
			if key == "" {
				continue
			}
			ds.SetExtra(key, scalarString(extra["value"]))
		}
	}

	if org, ok := payload["organization"].(map[string]interface{}); ok {
		ds.OwnerOrg = firstString(org, "id", "name")
	} else {
		ds.OwnerOrg = firstString(payload, "organization", "owner_org")
	}

	for i, res := range mapList(payload, "resources", "files") {
		u := firstString(res, "url", "download_url")
		if u == "" {
			continue
		}
		name := firstString(res, "name", "title")
		if name == "" {
			name = fmt.Sprintf("resource-%d", i+1)
		}
		ds.Resources = append(ds.Resources, domain.Resource{
			URL:    u,
			Name:   name,
			Format: formatTag(firstString(res, "format", "mimetype")),
			Size:   sizeOf(res, "size"),
		})
	}

	return ds, nil
}
