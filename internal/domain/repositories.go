package domain

import (
	"context"
)

// BucketListRepository provides access to the user's bucket list
type BucketListRepository interface {
	// FetchBucketList returns bucket list items, optionally filtered
	FetchBucketList(ctx context.Context, params BucketListParams) ([]BucketListItem, error)

	// AddToBucketList saves a destination to the bucket list
	AddToBucketList(ctx context.Context, destinationID int64, notes string) (*BucketListItem, error)

	// UpdateBucketListItem applies a partial update
	UpdateBucketListItem(ctx context.Context, itemID int64, update BucketListUpdate) (*BucketListItem, error)

	// RemoveFromBucketList deletes an item
	RemoveFromBucketList(ctx context.Context, itemID int64) error

	// FetchMapMarkers returns map markers, optionally only visited ones
	FetchMapMarkers(ctx context.Context, visitedOnly bool) ([]MapMarker, error)
}

// DestinationRepository provides access to the destination catalog
type DestinationRepository interface {
	// FetchDestinations returns a filtered page of destinations
	FetchDestinations(ctx context.Context, params DestinationParams) ([]Destination, error)

	// FetchDestination returns a single destination
	FetchDestination(ctx context.Context, id int64) (*Destination, error)

	// FetchCountries returns the country facet, optionally for one category
	FetchCountries(ctx context.Context, category Category) ([]string, error)
}
