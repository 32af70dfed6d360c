package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/wanderlist/internal/domain"
)

// FetchDestinations returns a page of destinations. Zero-valued params are
// not sent, so the server applies its own defaults.
func (c *Client) FetchDestinations(ctx context.Context, params domain.DestinationParams) ([]domain.Destination, error) {
	query := url.Values{}
	if params.Query != "" {
		query.Set("q", params.Query)
	}
	if params.Category != "" {
		query.Set("category", string(params.Category))
	}
	if params.Country != "" {
		query.Set("country", params.Country)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/destinations", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []DestinationDTO
	if err := c.decode(body, &dtos); err != nil {
		return nil, err
	}
	return MapDestinations(dtos), nil
}

// FetchDestination returns one destination by ID
func (c *Client) FetchDestination(ctx context.Context, id int64) (*domain.Destination, error) {
	path := fmt.Sprintf("/destinations/%d", id)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var dto DestinationDTO
	if err := c.decode(body, &dto); err != nil {
		return nil, err
	}
	dest := MapDestination(dto)
	return &dest, nil
}

// FetchCountries returns the sorted, distinct countries, optionally for a
// single category
func (c *Client) FetchCountries(ctx context.Context, category domain.Category) ([]string, error) {
	var query url.Values
	if category != "" {
		query = url.Values{"category": {string(category)}}
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/destinations/countries", query, nil)
	if err != nil {
		return nil, err
	}

	var countries []string
	if err := c.decode(body, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

var (
	_ domain.BucketListRepository  = (*Client)(nil)
	_ domain.DestinationRepository = (*Client)(nil)
)
