package domain

import "sort"

// Dataset is the canonical record handed to the destination catalog.
// Name is the canonical identifier: re-harvesting the same remote record
// always resolves to the same Name.
type Dataset struct {
	Name      string            `json:"name"`
	Title     string            `json:"title"`
	Notes     string            `json:"notes,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
	Resources []Resource        `json:"resources,omitempty"`
	OwnerOrg  string            `json:"owner_org,omitempty"`
}

// Resource describes one downloadable artifact of a dataset.
// Two resources are the same artifact only when both URL and Format match.
type Resource struct {
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

// AddTag appends a tag, keeping the set unique. Empty tags are ignored.
func (d *Dataset) AddTag(tag string) {
	if tag == "" {
		return
	}
	for _, t := range d.Tags {
		if t == tag {
			return
		}
	}
	d.Tags = append(d.Tags, tag)
}

// SortTags orders tags lexically so repeated harvests of the same source
// state produce identical records.
func (d *Dataset) SortTags() {
	sort.Strings(d.Tags)
}

// SetExtra records an extension key/value pair, dropping empty values.
func (d *Dataset) SetExtra(key, value string) {
	if value == "" {
		return
	}
	if d.Extras == nil {
		d.Extras = make(map[string]string)
	}
	d.Extras[key] = value
}
