package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmcdole/wanderlist/internal/domain"
)

// FetchBucketList returns the bucket list, filtered by visit state and
// category when set
func (c *Client) FetchBucketList(ctx context.Context, params domain.BucketListParams) ([]domain.BucketListItem, error) {
	query := url.Values{}
	if params.Visited != nil {
		query.Set("visited", strconv.FormatBool(*params.Visited))
	}
	if params.Category != "" {
		query.Set("category", string(params.Category))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/bucketlist", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []BucketListItemDTO
	if err := c.decode(body, &dtos); err != nil {
		return nil, err
	}
	return MapBucketList(dtos), nil
}

// AddToBucketList saves a destination. Adding a destination twice returns
// domain.ErrConflict.
func (c *Client) AddToBucketList(ctx context.Context, destinationID int64, notes string) (*domain.BucketListItem, error) {
	req := createRequest{DestinationID: destinationID}
	if notes != "" {
		req.Notes = &notes
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/bucketlist", nil, req)
	if err != nil {
		return nil, err
	}

	var dto BucketListItemDTO
	if err := c.decode(body, &dto); err != nil {
		return nil, err
	}
	item := MapBucketListItem(dto)
	return &item, nil
}

// UpdateBucketListItem sends only the fields set in update
func (c *Client) UpdateBucketListItem(ctx context.Context, itemID int64, update domain.BucketListUpdate) (*domain.BucketListItem, error) {
	req := updateRequest{
		Visited:     update.Visited,
		VisitedDate: update.VisitedDate,
		Notes:       update.Notes,
	}

	path := fmt.Sprintf("/bucketlist/%d", itemID)
	body, err := c.doRequest(ctx, http.MethodPatch, path, nil, req)
	if err != nil {
		return nil, err
	}

	var dto BucketListItemDTO
	if err := c.decode(body, &dto); err != nil {
		return nil, err
	}
	item := MapBucketListItem(dto)
	return &item, nil
}

// RemoveFromBucketList deletes a bucket list item
func (c *Client) RemoveFromBucketList(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/bucketlist/%d", itemID)
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// FetchMapMarkers returns map markers for the bucket list
func (c *Client) FetchMapMarkers(ctx context.Context, visitedOnly bool) ([]domain.MapMarker, error) {
	var query url.Values
	if visitedOnly {
		query = url.Values{"visited_only": {"true"}}
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/bucketlist/map", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []MapMarkerDTO
	if err := c.decode(body, &dtos); err != nil {
		return nil, err
	}
	return MapMarkers(dtos), nil
}
