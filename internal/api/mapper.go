package api

import (
	"time"

	"github.com/mmcdole/wanderlist/internal/domain"
)

// created_at is serialized without a zone; treat it as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// MapDestination converts a destination DTO to the domain type
func MapDestination(d DestinationDTO) domain.Destination {
	return domain.Destination{
		ID:           d.ID,
		Name:         d.Name,
		Category:     domain.Category(d.Category),
		Country:      d.Country,
		CountryCode:  deref(d.CountryCode),
		Region:       deref(d.Region),
		Latitude:     d.Latitude,
		Longitude:    d.Longitude,
		Population:   deref(d.Population),
		Description:  deref(d.Description),
		ImageURL:     deref(d.ImageURL),
		InBucketList: d.InBucketList,
		BucketItemID: deref(d.BucketItemID),
	}
}

// MapDestinations converts destination DTOs to domain destinations
func MapDestinations(dtos []DestinationDTO) []domain.Destination {
	dests := make([]domain.Destination, 0, len(dtos))
	for _, d := range dtos {
		dests = append(dests, MapDestination(d))
	}
	return dests
}

// MapBucketListItem converts a bucket list DTO to the domain type
func MapBucketListItem(b BucketListItemDTO) domain.BucketListItem {
	return domain.BucketListItem{
		ID:                  b.ID,
		DestinationID:       b.DestinationID,
		Visited:             b.Visited,
		VisitedDate:         deref(b.VisitedDate),
		Notes:               deref(b.Notes),
		CreatedAt:           parseTimestamp(b.CreatedAt),
		DestinationName:     b.DestinationName,
		DestinationCategory: domain.Category(b.DestinationCategory),
		DestinationCountry:  b.DestinationCountry,
		DestinationLat:      b.DestinationLatitude,
		DestinationLng:      b.DestinationLongitude,
		DestinationImageURL: deref(b.DestinationImageURL),
	}
}

// MapBucketList converts bucket list DTOs to domain items
func MapBucketList(dtos []BucketListItemDTO) []domain.BucketListItem {
	items := make([]domain.BucketListItem, 0, len(dtos))
	for _, b := range dtos {
		items = append(items, MapBucketListItem(b))
	}
	return items
}

// MapMarkers converts map marker DTOs to domain markers
func MapMarkers(dtos []MapMarkerDTO) []domain.MapMarker {
	markers := make([]domain.MapMarker, 0, len(dtos))
	for _, m := range dtos {
		markers = append(markers, domain.MapMarker{
			BucketItemID:  m.BucketItemID,
			DestinationID: m.DestinationID,
			Name:          m.Name,
			Category:      domain.Category(m.Category),
			Country:       m.Country,
			Latitude:      m.Latitude,
			Longitude:     m.Longitude,
			Visited:       m.Visited,
		})
	}
	return markers
}
