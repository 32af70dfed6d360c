package domain

import (
	"fmt"
	"time"
)

// Category distinguishes destination kinds
type Category string

const (
	CategoryCity     Category = "city"
	CategoryLandmark Category = "landmark"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	return c == CategoryCity || c == CategoryLandmark
}

// Destination is a place that can be added to the bucket list
type Destination struct {
	ID          int64
	Name        string
	Category    Category
	Country     string
	CountryCode string // ISO code, empty when unknown
	Region      string
	Latitude    float64
	Longitude   float64
	Population  int64 // 0 when unknown or not applicable (landmarks)
	Description string
	ImageURL    string

	// Bucket list membership for the current user
	InBucketList bool
	BucketItemID int64 // 0 when not in the bucket list
}

// Location returns "Region, Country" or just the country
func (d Destination) Location() string {
	if d.Region != "" {
		return fmt.Sprintf("%s, %s", d.Region, d.Country)
	}
	return d.Country
}

// BucketListItem is a destination saved to the user's bucket list
type BucketListItem struct {
	ID            int64
	DestinationID int64
	Visited       bool
	VisitedDate   string // YYYY-MM-DD, empty when not visited
	Notes         string
	CreatedAt     time.Time

	// Denormalized destination fields
	DestinationName     string
	DestinationCategory Category
	DestinationCountry  string
	DestinationLat      float64
	DestinationLng      float64
	DestinationImageURL string
}

// Status returns a short human label for the visit state
func (b BucketListItem) Status() string {
	if !b.Visited {
		return "planned"
	}
	if b.VisitedDate != "" {
		return "visited " + b.VisitedDate
	}
	return "visited"
}

// MapMarker is a lightweight bucket list entry for map rendering
type MapMarker struct {
	BucketItemID  int64
	DestinationID int64
	Name          string
	Category      Category
	Country       string
	Latitude      float64
	Longitude     float64
	Visited       bool
}

// BucketListParams filters the bucket list. Nil/empty fields are not sent.
type BucketListParams struct {
	Visited  *bool
	Category Category
}

// BucketListUpdate is a partial update of a bucket list item.
// Nil fields are left unchanged by the server.
type BucketListUpdate struct {
	Visited     *bool
	VisitedDate *string
	Notes       *string
}

// DestinationParams filters and pages destinations. Zero values are not sent.
type DestinationParams struct {
	Query    string
	Category Category
	Country  string
	Limit    int
	Offset   int
}
