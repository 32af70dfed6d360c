// Package search ranks destinations and countries against free-text queries
// entirely in memory, for use on results already fetched from the API.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/wanderlist/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Result is a ranked item with match metadata for highlighting
type Result[T any] struct {
	Item           T
	Key            string // text that was matched
	MatchedIndexes []int  // character positions in Key that matched
	Score          int    // higher is better
}

// Index implements sahilm/fuzzy.Source over precomputed lowercase keys
type Index[T any] struct {
	items []T
	keys  []string
}

// NewIndex builds an index keyed by key(item)
func NewIndex[T any](items []T, key func(T) string) *Index[T] {
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = strings.ToLower(key(item))
	}
	return &Index[T]{items: items, keys: keys}
}

// String returns the lowercase key at index i (implements fuzzy.Source)
func (idx *Index[T]) String(i int) string { return idx.keys[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *Index[T]) Len() int { return len(idx.items) }

// Rank returns the items matching query, best first.
// An empty query matches nothing.
func (idx *Index[T]) Rank(query string) []Result[T] {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || idx.Len() == 0 {
		return nil
	}

	matches := sfuzzy.FindFrom(query, idx)
	results := make([]Result[T], len(matches))
	for i, m := range matches {
		results[i] = Result[T]{
			Item:           idx.items[m.Index],
			Key:            m.Str,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

func destinationKey(d domain.Destination) string {
	return d.Name + " " + d.Country
}

func bucketItemKey(b domain.BucketListItem) string {
	return b.DestinationName + " " + b.DestinationCountry
}

// RankDestinations matches query against "name country"
func RankDestinations(dests []domain.Destination, query string) []Result[domain.Destination] {
	return NewIndex(dests, destinationKey).Rank(query)
}

// RankBucketList matches query against the destination name and country of
// each bucket list item
func RankBucketList(items []domain.BucketListItem, query string) []Result[domain.BucketListItem] {
	return NewIndex(items, bucketItemKey).Rank(query)
}

// MatchCountries returns the countries containing the query's characters in
// order, ignoring case and diacritics, closest first
func MatchCountries(countries []string, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(query, countries)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	results := make([]string, len(ranks))
	for i, r := range ranks {
		results[i] = r.Target
	}
	return results
}
