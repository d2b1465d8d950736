package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// ngsiMapper maps FIWARE NGSI context entities (v2 or LD). Entities
// have no downloadable artifacts, so the attribute set becomes extras.
type ngsiMapper struct{}

// ngsiStandardFields are entity keys that map to dedicated dataset
// fields rather than extras.
var ngsiStandardFields = map[string]bool{
	"id":          true,
	"type":        true,
	"name":        true,
	"title":       true,
	"description": true,
	"category":    true,
	"location":    true,
	"@context":    true,
}

func (m *ngsiMapper) Map(remoteID string, payload map[string]interface{}) (*domain.Dataset, error) {
	entityID := firstString(payload, "id")
	if entityID == "" {
		entityID = remoteID
	}
	if entityID == "" {
		return nil, apperrors.NewMappingError(remoteID, "entity has no id")
	}

	entityType := attrString(payload["type"])

	title := attrString(payload["name"])
	if title == "" {
		title = attrString(payload["title"])
	}
	if title == "" {
		// Entities usually carry no display name; synthesize one.
		if entityType != "" {
			title = fmt.Sprintf("%s: %s", entityType, entityID)
		} else {
			title = entityID
		}
	}

	ds := &domain.Dataset{
		Name:  domain.NormalizeID(entityID),
		Title: title,
		Notes: attrString(payload["description"]),
	}

	if cat := attrString(payload["category"]); cat != "" {
		ds.AddTag(domain.NormalizeID(cat))
	}
	if entityType != "" {
		ds.AddTag(domain.NormalizeID(entityType))
	}
	ds.SortTags()

	ds.SetExtra("source", "NGSI")
	ds.SetExtra("entity_id", entityID)
	ds.SetExtra("entity_type", entityType)

	for key, value := range payload {
		if ngsiStandardFields[key] {
			continue
		}
		ds.SetExtra(key, attrString(value))
	}

	return ds, nil
}

// attrString unwraps an NGSI attribute. NGSI-v2 normalized attributes
// are objects with a "value" member; anything structured beyond that
// is kept as JSON.
func attrString(v interface{}) string {
	if attr, ok := v.(map[string]interface{}); ok {
		if inner, ok := attr["value"]; ok {
			return attrString(inner)
		}
		encoded, err := json.Marshal(attr)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
	if list, ok := v.([]interface{}); ok {
		encoded, err := json.Marshal(list)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
	return scalarString(v)
}
