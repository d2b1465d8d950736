package harvester

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	"github.com/kurihiro0119/opendata-harvester/internal/remote"
)

// listingServer serves /datasets pages out of a fixed id list the way
// the REST portals do: full pages until the ids run out.
func listingServer(t *testing.T, ids []string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		require.Positive(t, page)
		require.Positive(t, size)

		start := (page - 1) * size
		end := start + size
		if start > len(ids) {
			start = len(ids)
		}
		if end > len(ids) {
			end = len(ids)
		}

		results := make([]map[string]interface{}, 0, end-start)
		for _, id := range ids[start:end] {
			results = append(results, map[string]interface{}{
				"id":    id,
				"title": "Dataset " + id,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
}

func restSource(baseURL string, pageSize int) *domain.Source {
	src := &domain.Source{
		APIBase:  baseURL,
		Mode:     domain.ModeREST,
		Format:   domain.FormatPlateau,
		PageSize: pageSize,
	}
	src.ApplyDefaults()
	src.PageSize = pageSize
	return src
}

func drain(t *testing.T, p Paginator) []domain.Summary {
	t.Helper()

	var all []domain.Summary
	for {
		page, done, err := p.Next(context.Background())
		require.NoError(t, err)
		all = append(all, page...)
		if done {
			return all
		}
	}
}

func TestPagePaginatorWalksAllPages(t *testing.T) {
	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("ds-%02d", i)
	}
	server := listingServer(t, ids)
	defer server.Close()

	src := restSource(server.URL, 10)
	client := remote.NewClient(src, 5*time.Second)

	all := drain(t, NewPaginator(src, client))

	require.Len(t, all, 30)
	seen := make(map[string]bool)
	for _, s := range all {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
	assert.Equal(t, "Dataset ds-00", all[0].Title)
}

func TestPagePaginatorStopsOnShortPage(t *testing.T) {
	ids := make([]string, 27)
	for i := range ids {
		ids[i] = fmt.Sprintf("ds-%02d", i)
	}
	server := listingServer(t, ids)
	defer server.Close()

	src := restSource(server.URL, 10)
	client := remote.NewClient(src, 5*time.Second)

	all := drain(t, NewPaginator(src, client))
	assert.Len(t, all, 27)
}

func TestPagePaginatorEmptyListing(t *testing.T) {
	server := listingServer(t, nil)
	defer server.Close()

	src := restSource(server.URL, 10)
	client := remote.NewClient(src, 5*time.Second)

	page, done, err := NewPaginator(src, client).Next(context.Background())
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.True(t, done)
}

func TestPagePaginatorHonorsHasNext(t *testing.T) {
	// Full pages, but the source says there is nothing more.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"id": "a", "title": "A"},
				{"id": "b", "title": "B"},
			},
			"hasNext": false,
		})
	}))
	defer server.Close()

	src := restSource(server.URL, 2)
	client := remote.NewClient(src, 5*time.Second)

	all := drain(t, NewPaginator(src, client))
	assert.Len(t, all, 2)
}

func TestPagePaginatorPropagatesSearch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer server.Close()

	src := restSource(server.URL, 10)
	src.Search = "building"
	client := remote.NewClient(src, 5*time.Second)

	_, _, err := NewPaginator(src, client).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "building", gotQuery)
}

func TestPagePaginatorSkipsEntriesWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{"title": "no id"},
				map[string]interface{}{"id": "kept", "title": "Kept"},
				"not an object",
			},
		})
	}))
	defer server.Close()

	src := restSource(server.URL, 10)
	client := remote.NewClient(src, 5*time.Second)

	all := drain(t, NewPaginator(src, client))
	require.Len(t, all, 1)
	assert.Equal(t, "kept", all[0].ID)
}

func TestCursorPaginatorFollowsEndCursor(t *testing.T) {
	pages := map[string][]string{
		"":        {"g-1", "g-2"},
		"cursor1": {"g-3", "g-4"},
		"cursor2": {"g-5"},
	}
	next := map[string]string{"": "cursor1", "cursor1": "cursor2"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		after, _ := req.Variables["after"].(string)
		nodes := make([]map[string]interface{}, 0)
		for _, id := range pages[after] {
			nodes = append(nodes, map[string]interface{}{"id": id, "title": "GQL " + id})
		}

		endCursor, hasNext := next[after]
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"datasets": map[string]interface{}{
					"nodes": nodes,
					"pageInfo": map[string]interface{}{
						"hasNextPage": hasNext,
						"endCursor":   endCursor,
					},
				},
			},
		})
	}))
	defer server.Close()

	src := &domain.Source{
		APIBase:     server.URL,
		Mode:        domain.ModeGraphQL,
		Format:      domain.FormatPlateau,
		ListQuery:   "query { datasets { nodes { id title } } }",
		DetailQuery: "query { dataset { id } }",
	}
	src.ApplyDefaults()
	client := remote.NewClient(src, 5*time.Second)

	all := drain(t, NewPaginator(src, client))

	require.Len(t, all, 5)
	assert.Equal(t, "g-1", all[0].ID)
	assert.Equal(t, "g-5", all[4].ID)
}

func TestCursorPaginatorGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []interface{}{map[string]interface{}{"message": "bad query"}},
		})
	}))
	defer server.Close()

	src := &domain.Source{
		APIBase:     server.URL,
		Mode:        domain.ModeGraphQL,
		ListQuery:   "query { broken }",
		DetailQuery: "query { broken }",
	}
	src.ApplyDefaults()
	client := remote.NewClient(src, 5*time.Second)

	_, _, err := NewPaginator(src, client).Next(context.Background())
	assert.Error(t, err)
}
