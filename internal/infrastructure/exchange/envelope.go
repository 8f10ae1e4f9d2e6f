// Package exchange implements HTTP clients for the exchange's spot-market
// APIs: reference-data pulls, per-day operational pulls and notification
// pulls, all generic over the destination model type.
package exchange

import "strings"

// nextPageRel is the link relation marking the next page of a paged response
const nextPageRel = "nextPage"

// Link is a navigation link in a paged response
type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// ItemWrapper wraps a single entity in a paged response
type ItemWrapper[T any] struct {
	Item T `json:"item"`
}

// PagedEnvelope is the wire format of the reference and operational endpoints:
// a page of wrapped items plus navigation links.
type PagedEnvelope[T any] struct {
	Items          []ItemWrapper[T] `json:"items"`
	TotalItemCount int              `json:"totalItemCount"`
	PageSize       int              `json:"pageSize"`
	PageNumber     int              `json:"pageNumber"`
	PageCount      int              `json:"pageCount"`
	Links          []Link           `json:"links"`
}

// NextPageURL returns the URL of the next page, or "" when this is the last page
func (e *PagedEnvelope[T]) NextPageURL() string {
	for _, link := range e.Links {
		if strings.Contains(link.Rel, nextPageRel) {
			return link.Href
		}
	}
	return ""
}

// Unwrap returns the plain entities of this page in order
func (e *PagedEnvelope[T]) Unwrap() []T {
	items := make([]T, 0, len(e.Items))
	for _, w := range e.Items {
		items = append(items, w.Item)
	}
	return items
}

// NotificationEnvelope is the wire format of the notification endpoints
type NotificationEnvelope[T any] struct {
	Data            []T            `json:"data"`
	TotalCount      int            `json:"totalCount"`
	PageSize        int            `json:"pageSize"`
	TotalPages      int            `json:"totalPages"`
	PageIndex       int            `json:"pageIndex"`
	HasPreviousPage bool           `json:"hasPreviousPage"`
	HasNextPage     bool           `json:"hasNextPage"`
	Success         bool           `json:"success"`
	Messages        []string       `json:"messages"`
	Metadata        map[string]any `json:"metadata"`
}
