package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
)

// ckanCatalog talks to a CKAN instance through its action API.
type ckanCatalog struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewCKANCatalog creates a catalog backed by the CKAN action API.
func NewCKANCatalog(baseURL, apiKey string) Catalog {
	return &ckanCatalog{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ckanPackage is the wire shape of a CKAN package for the fields the
// pipeline maps. Update sends only these plus the existing id, so
// destination-side workflow state survives re-harvests.
type ckanPackage struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	Notes     string         `json:"notes"`
	OwnerOrg  string         `json:"owner_org,omitempty"`
	Tags      []ckanTag      `json:"tags"`
	Extras    []ckanExtra    `json:"extras"`
	Resources []ckanResource `json:"resources"`
}

type ckanTag struct {
	Name string `json:"name"`
}

type ckanExtra struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ckanResource struct {
	URL    string `json:"url"`
	Name   string `json:"name,omitempty"`
	Format string `json:"format,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

type ckanResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   struct {
		Message string `json:"message"`
		Type    string `json:"__type"`
	} `json:"error"`
}

// Show looks up a package by its canonical name.
func (c *ckanCatalog) Show(ctx context.Context, name string) (*domain.Dataset, error) {
	params := url.Values{}
	params.Set("id", name)

	result, status, err := c.call(ctx, http.MethodGet, "package_show", params, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, apperrors.NewNotFoundError("dataset " + name)
	}
	if status != http.StatusOK {
		return nil, apperrors.NewInternalError(fmt.Sprintf("package_show returned %d", status), nil)
	}

	var pkg ckanPackage
	if err := json.Unmarshal(result, &pkg); err != nil {
		return nil, apperrors.NewInternalError("failed to decode package_show result", err)
	}
	return fromCKANPackage(&pkg), nil
}

// Create persists a new package.
func (c *ckanCatalog) Create(ctx context.Context, ds *domain.Dataset) (string, error) {
	return c.write(ctx, "package_create", toCKANPackage(ds, ""))
}

// Update overwrites the mapped fields of an existing package.
func (c *ckanCatalog) Update(ctx context.Context, ds *domain.Dataset) (string, error) {
	return c.write(ctx, "package_update", toCKANPackage(ds, ds.Name))
}

func (c *ckanCatalog) write(ctx context.Context, action string, pkg *ckanPackage) (string, error) {
	body, err := json.Marshal(pkg)
	if err != nil {
		return "", err
	}

	result, status, err := c.call(ctx, http.MethodPost, action, nil, body)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return "", apperrors.NewUnauthorizedError(fmt.Sprintf("%s rejected: permission denied", action))
	case http.StatusConflict, http.StatusBadRequest:
		return "", apperrors.NewBadRequestError(fmt.Sprintf("%s rejected: validation failed", action))
	default:
		return "", apperrors.NewInternalError(fmt.Sprintf("%s returned %d", action, status), nil)
	}

	var created ckanPackage
	if err := json.Unmarshal(result, &created); err != nil {
		return "", apperrors.NewInternalError("failed to decode "+action+" result", err)
	}
	if created.ID != "" {
		return created.ID, nil
	}
	return created.Name, nil
}

// call performs one action API request and returns the raw result,
// the HTTP status and any transport error.
func (c *ckanCatalog) call(ctx context.Context, method, action string, params url.Values, body []byte) (json.RawMessage, int, error) {
	u := fmt.Sprintf("%s/api/3/action/%s", c.baseURL, action)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("catalog unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	var decoded ckanResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, resp.StatusCode, nil
	}
	return decoded.Result, resp.StatusCode, nil
}

func toCKANPackage(ds *domain.Dataset, id string) *ckanPackage {
	pkg := &ckanPackage{
		ID:        id,
		Name:      ds.Name,
		Title:     ds.Title,
		Notes:     ds.Notes,
		OwnerOrg:  ds.OwnerOrg,
		Tags:      []ckanTag{},
		Extras:    []ckanExtra{},
		Resources: []ckanResource{},
	}
	for _, t := range ds.Tags {
		pkg.Tags = append(pkg.Tags, ckanTag{Name: t})
	}
	for k, v := range ds.Extras {
		pkg.Extras = append(pkg.Extras, ckanExtra{Key: k, Value: v})
	}
	for _, r := range ds.Resources {
		pkg.Resources = append(pkg.Resources, ckanResource{
			URL:    r.URL,
			Name:   r.Name,
			Format: r.Format,
			Size:   r.Size,
		})
	}
	return pkg
}

func fromCKANPackage(pkg *ckanPackage) *domain.Dataset {
	ds := &domain.Dataset{
		Name:     pkg.Name,
		Title:    pkg.Title,
		Notes:    pkg.Notes,
		OwnerOrg: pkg.OwnerOrg,
	}
	for _, t := range pkg.Tags {
		ds.AddTag(t.Name)
	}
	for _, e := range pkg.Extras {
		ds.SetExtra(e.Key, e.Value)
	}
	for _, r := range pkg.Resources {
		ds.Resources = append(ds.Resources, domain.Resource{
			URL:    r.URL,
			Name:   r.Name,
			Format: r.Format,
			Size:   r.Size,
		})
	}
	return ds
}
