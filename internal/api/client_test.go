package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/wanderlist/internal/domain"
	"github.com/mmcdole/wanderlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded is the last request seen by the fake API
type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", time.Second, log.NullLogger()), rec
}

const bucketItemJSON = `{
	"id": 3,
	"destination_id": 42,
	"visited": true,
	"visited_date": "2024-05-01",
	"notes": null,
	"created_at": "2024-04-30T18:22:10.123456",
	"destination_name": "Kyoto",
	"destination_category": "city",
	"destination_country": "Japan",
	"destination_latitude": 35.0116,
	"destination_longitude": 135.7681,
	"destination_image_url": null
}`

func TestFetchBucketListQuery(t *testing.T) {
	visited := false
	tests := []struct {
		name   string
		params domain.BucketListParams
		want   string
	}{
		{"no filters", domain.BucketListParams{}, ""},
		{"visited false", domain.BucketListParams{Visited: &visited}, "visited=false"},
		{"category", domain.BucketListParams{Category: domain.CategoryLandmark}, "category=landmark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestClient(t, http.StatusOK, `[`+bucketItemJSON+`]`)
			items, err := c.FetchBucketList(context.Background(), tt.params)
			require.NoError(t, err)

			assert.Equal(t, "/api/bucketlist", rec.path)
			assert.Equal(t, tt.want, rec.query)
			require.Len(t, items, 1)
		})
	}
}

func TestBucketListItemMapping(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `[`+bucketItemJSON+`]`)
	items, err := c.FetchBucketList(context.Background(), domain.BucketListParams{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, int64(3), item.ID)
	assert.Equal(t, int64(42), item.DestinationID)
	assert.Equal(t, "2024-05-01", item.VisitedDate)
	assert.Empty(t, item.Notes)
	assert.Equal(t, domain.CategoryCity, item.DestinationCategory)
	assert.Equal(t, "visited 2024-05-01", item.Status())
	assert.Equal(t, time.Date(2024, 4, 30, 18, 22, 10, 123456000, time.UTC), item.CreatedAt)
}

func TestAddToBucketList(t *testing.T) {
	c, rec := newTestClient(t, http.StatusCreated, bucketItemJSON)
	item, err := c.AddToBucketList(context.Background(), 42, "cherry blossoms")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/bucketlist", rec.path)
	assert.Equal(t, map[string]any{"destination_id": 42.0, "notes": "cherry blossoms"}, rec.body)
	assert.Equal(t, "Kyoto", item.DestinationName)
}

func TestAddToBucketListConflict(t *testing.T) {
	c, _ := newTestClient(t, http.StatusConflict, `{"detail":"Already in bucket list"}`)
	_, err := c.AddToBucketList(context.Background(), 42, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Already in bucket list", apiErr.Detail)
}

func TestUpdateBucketListItemSendsOnlySetFields(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, bucketItemJSON)
	visited := true
	date := "2024-05-01"
	_, err := c.UpdateBucketListItem(context.Background(), 3, domain.BucketListUpdate{Visited: &visited, VisitedDate: &date})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/api/bucketlist/3", rec.path)
	assert.Equal(t, map[string]any{"visited": true, "visited_date": "2024-05-01"}, rec.body)
}

func TestRemoveFromBucketList(t *testing.T) {
	c, rec := newTestClient(t, http.StatusNoContent, "")
	require.NoError(t, c.RemoveFromBucketList(context.Background(), 3))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/bucketlist/3", rec.path)
}

func TestRemoveMissingItem(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, `{"detail":"Bucket list item not found"}`)
	err := c.RemoveFromBucketList(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchMapMarkers(t *testing.T) {
	marker := `[{"bucket_item_id":3,"destination_id":42,"name":"Kyoto","category":"city","country":"Japan","latitude":35.0,"longitude":135.7,"visited":true}]`

	c, rec := newTestClient(t, http.StatusOK, marker)
	markers, err := c.FetchMapMarkers(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "/api/bucketlist/map", rec.path)
	assert.Empty(t, rec.query)
	require.Len(t, markers, 1)
	assert.True(t, markers[0].Visited)

	c, rec = newTestClient(t, http.StatusOK, marker)
	_, err = c.FetchMapMarkers(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "visited_only=true", rec.query)
}

func TestFetchDestinationsQuery(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `[{
		"id": 7, "name": "Machu Picchu", "category": "landmark", "country": "Peru",
		"country_code": null, "region": "Cusco", "latitude": -13.16, "longitude": -72.54,
		"population": null, "description": "Inca citadel", "image_url": null,
		"in_bucketlist": true, "bucket_item_id": 12
	}]`)

	dests, err := c.FetchDestinations(context.Background(), domain.DestinationParams{
		Query:    "machu",
		Category: domain.CategoryLandmark,
		Limit:    20,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/destinations", rec.path)
	assert.Equal(t, "category=landmark&limit=20&q=machu", rec.query)
	require.Len(t, dests, 1)
	assert.Equal(t, "Cusco, Peru", dests[0].Location())
	assert.Equal(t, int64(12), dests[0].BucketItemID)
	assert.Zero(t, dests[0].Population)
}

func TestFetchCountries(t *testing.T) {
	c, rec := newTestClient(t, http.StatusOK, `["France","Japan","Peru"]`)
	countries, err := c.FetchCountries(context.Background(), domain.CategoryCity)
	require.NoError(t, err)
	assert.Equal(t, "/api/destinations/countries", rec.path)
	assert.Equal(t, "category=city", rec.query)
	assert.Equal(t, []string{"France", "Japan", "Peru"}, countries)
}

func TestServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c := NewClient(baseURL, time.Second, log.NullLogger())
	_, err := c.FetchCountries(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestMalformedResponse(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"not":"a list"}`)
	_, err := c.FetchDestinations(context.Background(), domain.DestinationParams{})
	assert.ErrorContains(t, err, "failed to parse response")
}
