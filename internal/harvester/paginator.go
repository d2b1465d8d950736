package harvester

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	"github.com/kurihiro0119/opendata-harvester/internal/remote"
)

// Paginator walks the remote listing of one source and produces pages
// of (identifier, minimal summary) pairs. It is finite and restartable
// from the beginning only; a paginator instance is not reusable after
// it reports done.
type Paginator interface {
	// Next returns the next page of summaries. done is true once the
	// source reports no further page or cursor; the returned page may
	// still be non-empty on the final call.
	Next(ctx context.Context) (page []domain.Summary, done bool, err error)
}

// NewPaginator selects the pagination strategy for a source.
func NewPaginator(src *domain.Source, client *remote.Client) Paginator {
	if src.Mode == domain.ModeGraphQL {
		return &cursorPaginator{src: src, client: client}
	}
	return &pagePaginator{src: src, client: client, page: 1}
}

// pagePaginator requests fixed-size pages until the source returns an
// empty or short page, or reports hasNext=false.
type pagePaginator struct {
	src    *domain.Source
	client *remote.Client
	page   int
	done   bool
}

func (p *pagePaginator) Next(ctx context.Context) ([]domain.Summary, bool, error) {
	if p.done {
		return nil, true, nil
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(p.page))
	params.Set("page_size", strconv.Itoa(p.src.PageSize))
	if p.src.Search != "" {
		params.Set("q", p.src.Search)
	}

	data, err := p.client.Get(ctx, p.src.ListPath, params)
	if err != nil {
		return nil, false, fmt.Errorf("listing page %d: %w", p.page, err)
	}

	items := listEntries(data)
	page := make([]domain.Summary, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := anyString(entry["id"])
		if id == "" {
			continue
		}
		page = append(page, domain.Summary{
			ID:    id,
			Title: firstString(entry, "title", "name"),
		})
	}

	if len(items) < p.src.PageSize {
		p.done = true
	}
	if hasNext, ok := data["hasNext"].(bool); ok && !hasNext {
		p.done = true
	}
	p.page++

	return page, p.done, nil
}

// cursorPaginator follows the opaque end cursor of a GraphQL
// connection until hasNextPage is false.
type cursorPaginator struct {
	src    *domain.Source
	client *remote.Client
	after  string
	done   bool
}

func (p *cursorPaginator) Next(ctx context.Context) ([]domain.Summary, bool, error) {
	if p.done {
		return nil, true, nil
	}

	variables := map[string]interface{}{}
	if p.src.Search != "" {
		variables["q"] = p.src.Search
	}
	if p.after != "" {
		variables["after"] = p.after
	}

	data, err := p.client.GraphQL(ctx, p.src.GraphPath, p.src.ListQuery, variables)
	if err != nil {
		return nil, false, fmt.Errorf("listing after cursor %q: %w", p.after, err)
	}

	conn, _ := data["datasets"].(map[string]interface{})
	if conn == nil {
		// Tolerate schemas with a single differently-named connection.
		for _, v := range data {
			if m, ok := v.(map[string]interface{}); ok {
				conn = m
				break
			}
		}
	}
	if conn == nil {
		return nil, false, fmt.Errorf("listing after cursor %q: no connection in response", p.after)
	}

	nodes, _ := conn["nodes"].([]interface{})
	page := make([]domain.Summary, 0, len(nodes))
	for _, n := range nodes {
		node, ok := n.(map[string]interface{})
		if !ok {
			continue
		}
		id := anyString(node["id"])
		if id == "" {
			continue
		}
		page = append(page, domain.Summary{
			ID:    id,
			Title: firstString(node, "title", "name"),
		})
	}

	pageInfo, _ := conn["pageInfo"].(map[string]interface{})
	hasNext, _ := pageInfo["hasNextPage"].(bool)
	if hasNext {
		p.after = anyString(pageInfo["endCursor"])
	} else {
		p.done = true
	}

	return page, p.done, nil
}

// listEntries finds the item list in the response structures the
// supported sources return.
func listEntries(data map[string]interface{}) []interface{} {
	for _, key := range []string{"results", "items", "data", "datasets"} {
		if items, ok := data[key].([]interface{}); ok {
			return items
		}
	}
	return nil
}

// anyString renders a scalar identifier as a string. JSON numbers are
// kept integral so "id": 42 round-trips as "42".
func anyString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatInt(int64(t), 10)
	default:
		return ""
	}
}

// firstString returns the first non-empty string among keys.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
