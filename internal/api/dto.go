package api

// DestinationDTO is a destination as returned by /destinations
type DestinationDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Country      string  `json:"country"`
	CountryCode  *string `json:"country_code"`
	Region       *string `json:"region"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Population   *int64  `json:"population"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"image_url"`
	InBucketList bool    `json:"in_bucketlist"`
	BucketItemID *int64  `json:"bucket_item_id"`
}

// BucketListItemDTO is a bucket list item joined with its destination
type BucketListItemDTO struct {
	ID                   int64   `json:"id"`
	DestinationID        int64   `json:"destination_id"`
	Visited              bool    `json:"visited"`
	VisitedDate          *string `json:"visited_date"`
	Notes                *string `json:"notes"`
	CreatedAt            string  `json:"created_at"`
	DestinationName      string  `json:"destination_name"`
	DestinationCategory  string  `json:"destination_category"`
	DestinationCountry   string  `json:"destination_country"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	DestinationImageURL  *string `json:"destination_image_url"`
}

// MapMarkerDTO is a bucket list entry reduced for the map view
type MapMarkerDTO struct {
	BucketItemID  int64   `json:"bucket_item_id"`
	DestinationID int64   `json:"destination_id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Country       string  `json:"country"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Visited       bool    `json:"visited"`
}

// createRequest is the body of POST /bucketlist
type createRequest struct {
	DestinationID int64   `json:"destination_id"`
	Notes         *string `json:"notes,omitempty"`
}

// updateRequest is the body of PATCH /bucketlist/{id}. Omitted fields are
// left unchanged.
type updateRequest struct {
	Visited     *bool   `json:"visited,omitempty"`
	VisitedDate *string `json:"visited_date,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// errorDTO is the error body; detail is a string or a validation list
type errorDTO struct {
	Detail any `json:"detail"`
}
